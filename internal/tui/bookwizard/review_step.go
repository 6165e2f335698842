package bookwizard

import (
	"strings"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"github.com/railbook/railbook/internal/booking"
)

// ReviewStep shows the read-only booking summary as rendered markdown.
type ReviewStep struct {
	wiz       *booking.Wizard
	projector booking.Projector
	viewport  viewport.Model
	content   string // summary markdown
	width     int
	height    int
}

// NewReviewStep creates the review step for wiz.
func NewReviewStep(wiz *booking.Wizard, p booking.Projector) *ReviewStep {
	vp := viewport.New(
		viewport.WithWidth(60),
		viewport.WithHeight(10),
	)
	vp.MouseWheelEnabled = true
	vp.MouseWheelDelta = 3

	s := &ReviewStep{
		wiz:       wiz,
		projector: p,
		viewport:  vp,
		width:     60,
		height:    12,
	}
	s.Reload()
	return s
}

// Summary projects the current draft.
func (s *ReviewStep) Summary() booking.Summary {
	return s.projector.Project(s.wiz.Draft(), s.wiz.Reference())
}

// Reload re-renders the summary of the current draft.
func (s *ReviewStep) Reload() {
	s.content = s.Summary().Markdown()
	s.viewport.SetContent(renderMarkdown(s.content, s.width))
	s.viewport.GotoTop()
}

// SetSize updates the dimensions for the review step.
func (s *ReviewStep) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.viewport.SetWidth(width)

	// Reserve space for hint bar
	s.viewport.SetHeight(max(height-2, 5))
	s.viewport.SetContent(renderMarkdown(s.content, width))
}

// Content returns the summary markdown.
func (s *ReviewStep) Content() string { return s.content }

func (s *ReviewStep) Focus() tea.Cmd             { return nil }
func (s *ReviewStep) FocusLast() tea.Cmd         { return nil }
func (s *ReviewStep) Blur()                      {}
func (s *ReviewStep) FocusNext() (tea.Cmd, bool) { return nil, false }
func (s *ReviewStep) FocusPrev() (tea.Cmd, bool) { return nil, false }
func (s *ReviewStep) Enter() (tea.Cmd, bool)     { return nil, false }
func (s *ReviewStep) Commit() bool               { return true }

func (s *ReviewStep) ShowErrors(*booking.ValidationError) {}

// Update forwards scrolling to the viewport.
func (s *ReviewStep) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	s.viewport, cmd = s.viewport.Update(msg)
	return cmd
}

// View renders the review step.
func (s *ReviewStep) View() string {
	var b strings.Builder
	b.WriteString(s.viewport.View())
	b.WriteString("\n\n")
	b.WriteString(renderHintBar(
		"↑↓", "scroll",
		"enter", "submit",
		"tab", "buttons",
		"esc", "back",
	))
	return b.String()
}

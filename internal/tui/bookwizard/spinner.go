package bookwizard

import (
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/railbook/railbook/internal/tui/theme"
)

// Spinner wraps bubbles spinner with the theme's colors.
type Spinner struct {
	model spinner.Model
}

// NewSpinner creates a MiniDot spinner in the primary color.
func NewSpinner() Spinner {
	t := theme.Current()
	s := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(t.Primary))),
	)
	return Spinner{model: s}
}

// Update advances the animation. It returns the next tick only for the
// spinner's own tick messages.
func (s *Spinner) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	s.model, cmd = s.model.Update(msg)
	return cmd
}

func (s *Spinner) View() string {
	return s.model.View()
}

// Tick starts the animation.
func (s *Spinner) Tick() tea.Cmd {
	return s.model.Tick
}

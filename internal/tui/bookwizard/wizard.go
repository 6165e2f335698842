// Package bookwizard is the full-screen booking wizard: journey, passengers
// and review steps around a booking.Wizard.
package bookwizard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/railbook/railbook/internal/booking"
	"github.com/railbook/railbook/internal/logger"
	"github.com/railbook/railbook/internal/tui/theme"
)

var stepTitles = [booking.StepCount]string{"Journey", "Passengers", "Review"}

// Result is what the wizard did before it exited.
type Result struct {
	Reservations []booking.Reservation
	Cancelled    bool
	// Abandoned is the draft that was open when the user cancelled.
	Abandoned *booking.Draft
}

// Option configures a Model.
type Option func(*Model)

// WithProjector sets the projector used for fares and the review summary.
func WithProjector(p booking.Projector) Option {
	return func(m *Model) { m.projector = p }
}

// OnSubmitted is called after each confirmed reservation.
func OnSubmitted(fn func(req booking.ReservationRequest, res booking.Reservation)) Option {
	return func(m *Model) { m.onSubmitted = fn }
}

// OnSubmitFailed is called after each rejected or failed submission.
func OnSubmitFailed(fn func(req booking.ReservationRequest, err error)) Option {
	return func(m *Model) { m.onFailed = fn }
}

// Model is the BubbleTea model for the booking wizard.
type Model struct {
	ctx         context.Context
	wiz         *booking.Wizard
	submitter   booking.Submitter
	projector   booking.Projector
	onSubmitted func(booking.ReservationRequest, booking.Reservation)
	onFailed    func(booking.ReservationRequest, error)

	steps         [booking.StepCount]stepView
	buttons       *ButtonBar
	buttonFocused bool
	spinner       Spinner

	width  int
	height int

	lastReq   booking.ReservationRequest
	banner    string // last submission failure
	retryable bool
	confirmed *booking.Reservation

	result Result
}

// NewModel builds the wizard UI around wiz. Submissions go through
// submitter.
func NewModel(ctx context.Context, wiz *booking.Wizard, submitter booking.Submitter, opts ...Option) *Model {
	m := &Model{
		ctx:       ctx,
		wiz:       wiz,
		submitter: submitter,
	}
	for _, opt := range opts {
		opt(m)
	}

	journey := NewJourneyStep(wiz)
	passengers := NewPassengersStep(wiz, m.projector)
	review := NewReviewStep(wiz, m.projector)
	m.steps = [booking.StepCount]stepView{journey, passengers, review}

	m.buttons = NewButtonBar(nil)
	m.spinner = NewSpinner()
	m.refreshButtons()
	return m
}

// Run starts a standalone BubbleTea program for the wizard and returns what
// it did once the user quits.
func Run(ctx context.Context, wiz *booking.Wizard, submitter booking.Submitter, opts ...Option) (*Result, error) {
	m := NewModel(ctx, wiz, submitter, opts...)

	p := tea.NewProgram(m, tea.WithContext(ctx))
	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("booking wizard failed: %w", err)
	}

	wm, ok := finalModel.(*Model)
	if !ok {
		return nil, fmt.Errorf("unexpected model type")
	}
	res := wm.Result()
	return &res, nil
}

// Result returns what the wizard has done so far.
func (m *Model) Result() Result { return m.result }

// Init focuses the first step.
func (m *Model) Init() tea.Cmd {
	return m.current().Focus()
}

func (m *Model) current() stepView {
	return m.steps[m.wiz.Step()]
}

// Update handles messages for the wizard.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateSizes()
		return m, nil

	case submitResultMsg:
		return m, m.finishSubmit(msg)

	case spinner.TickMsg:
		if !m.wiz.Pending() {
			return m, nil
		}
		return m, m.spinner.Update(msg)

	case requirementsEditedMsg:
		return m, m.steps[booking.StepPassengers].Update(msg)

	case tea.KeyPressMsg:
		return m, m.handleKey(msg)
	}

	return m, m.current().Update(msg)
}

func (m *Model) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	key := msg.String()
	if key == "ctrl+c" {
		return m.cancel()
	}

	if m.confirmed != nil {
		switch key {
		case "enter", "n":
			m.confirmed = nil
			return m.enterStep()
		case "q", "esc":
			return tea.Quit
		}
		return nil
	}

	// Nothing but ctrl+c while the reservation service is answering.
	if m.wiz.Pending() {
		return nil
	}

	switch key {
	case "esc":
		return m.back()

	case "tab":
		if m.buttonFocused {
			if !m.buttons.Move(1) {
				m.buttonFocused = false
				m.buttons.Blur()
				return m.current().Focus()
			}
			return nil
		}
		cmd, ok := m.current().FocusNext()
		if !ok {
			m.focusButtons(false)
		}
		return cmd

	case "shift+tab":
		if m.buttonFocused {
			if !m.buttons.Move(-1) {
				m.buttonFocused = false
				m.buttons.Blur()
				return m.current().FocusLast()
			}
			return nil
		}
		cmd, ok := m.current().FocusPrev()
		if !ok {
			m.focusButtons(true)
		}
		return cmd

	case "left", "right":
		if m.buttonFocused {
			delta := 1
			if key == "left" {
				delta = -1
			}
			m.buttons.Move(delta)
			return nil
		}

	case "enter":
		if m.buttonFocused {
			if m.buttons.Focused() == 0 {
				return m.back()
			}
			return m.next()
		}
		if cmd, handled := m.current().Enter(); handled {
			return cmd
		}
		return m.next()
	}

	if m.buttonFocused {
		return nil
	}
	return m.current().Update(msg)
}

func (m *Model) focusButtons(last bool) {
	m.current().Blur()
	m.buttonFocused = true
	if last {
		m.buttons.FocusLast()
	} else {
		m.buttons.Focus()
	}
}

// next validates the current step and advances, or submits from review.
func (m *Model) next() tea.Cmd {
	if m.wiz.Step() == booking.StepReview {
		return m.submit()
	}

	step := m.current()
	if !step.Commit() {
		return nil
	}
	if err := m.wiz.Advance(); err != nil {
		var ve *booking.ValidationError
		if errors.As(err, &ve) {
			step.ShowErrors(ve)
		} else {
			logger.Warn("advance failed: %v", err)
		}
		return nil
	}
	return m.enterStep()
}

// back retreats one step, or cancels from the first step.
func (m *Model) back() tea.Cmd {
	if m.wiz.Step() == booking.StepJourney {
		return m.cancel()
	}
	m.current().Commit()
	if err := m.wiz.Retreat(); err != nil {
		logger.Warn("retreat failed: %v", err)
		return nil
	}
	m.banner = ""
	m.retryable = false
	return m.enterStep()
}

func (m *Model) cancel() tea.Cmd {
	draft := m.wiz.Draft()
	if err := m.wiz.Cancel(); err != nil {
		// A submission is in flight; the program exits regardless.
		logger.Warn("cancel: %v", err)
	} else {
		m.result.Abandoned = &draft
	}
	m.result.Cancelled = true
	return tea.Quit
}

// enterStep shows the wizard's current step with fresh values.
func (m *Model) enterStep() tea.Cmd {
	for _, s := range m.steps {
		s.Blur()
	}
	step := m.current()
	step.Reload()
	m.buttonFocused = false
	m.buttons.Blur()
	m.refreshButtons()
	return step.Focus()
}

func (m *Model) submit() tea.Cmd {
	if m.submitter == nil {
		m.banner = "no reservation service configured"
		return nil
	}
	req, err := m.wiz.BeginSubmit()
	if err != nil {
		m.banner = err.Error()
		return nil
	}
	m.lastReq = req
	m.banner = ""
	m.retryable = false
	m.refreshButtons()
	logger.Info("Submitting reservation for train %s on %s", req.TrainID, req.JourneyDate)

	ctx, submitter := m.ctx, m.submitter
	send := func() tea.Msg {
		res, err := submitter.CreateReservation(ctx, req)
		return submitResultMsg{res: res, err: err}
	}
	return tea.Batch(send, m.spinner.Tick())
}

func (m *Model) finishSubmit(msg submitResultMsg) tea.Cmd {
	res, err := m.wiz.FinishSubmit(msg.res, msg.err)
	if err != nil {
		m.banner = err.Error()
		var netErr *booking.NetworkError
		m.retryable = errors.As(err, &netErr) && netErr.Retryable()
		logger.Warn("Reservation failed: %v", err)
		if m.onFailed != nil {
			m.onFailed(m.lastReq, err)
		}
		m.refreshButtons()
		return nil
	}

	logger.Info("Reservation confirmed: PNR %s", res.PNR)
	m.confirmed = res
	m.result.Reservations = append(m.result.Reservations, *res)
	if m.onSubmitted != nil {
		m.onSubmitted(m.lastReq, *res)
	}
	return nil
}

func (m *Model) refreshButtons() {
	step := m.wiz.Step()
	var buttons []Button
	switch step {
	case booking.StepReview:
		buttons = backNextButtons(false, "Submit", true)
		if m.wiz.Pending() {
			buttons[0].State = ButtonDisabled
			buttons[1] = Button{Label: "Submitting…", State: ButtonDisabled}
		} else if m.banner != "" {
			buttons[1].Label = "Retry"
		}
	default:
		buttons = backNextButtons(step == booking.StepJourney, "Next →", true)
	}
	m.buttons.SetButtons(buttons)
}

// updateSizes updates the size of every step component.
func (m *Model) updateSizes() {
	w := m.modalWidth() - 8
	h := max(m.height-12, 10)
	for _, s := range m.steps {
		s.SetSize(w, h)
	}
	m.buttons.SetWidth(w)
}

func (m *Model) modalWidth() int {
	return min(max(m.width-10, 60), 100)
}

// View renders the wizard UI.
func (m *Model) View() tea.View {
	var view tea.View
	view.AltScreen = true

	if m.width == 0 || m.height == 0 {
		view.Content = lipgloss.NewLayer("")
		return view
	}

	content := lipgloss.Place(m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		m.renderModal(),
	)

	canvas := uv.NewScreenBuffer(m.width, m.height)
	uv.NewStyledString(content).Draw(canvas, uv.Rectangle{
		Min: uv.Position{X: 0, Y: 0},
		Max: uv.Position{X: m.width, Y: m.height},
	})

	view.Content = lipgloss.NewLayer(canvas.Render())
	return view
}

// renderModal renders the step (or confirmation) inside the modal frame.
func (m *Model) renderModal() string {
	s := theme.Current().S()
	var sections []string

	if m.confirmed != nil {
		sections = append(sections,
			s.ModalTitle.Render("Book a Ticket - Confirmed"),
			"",
			m.renderConfirmation(),
		)
	} else {
		step := m.wiz.Step()
		title := fmt.Sprintf("Book a Ticket - Step %d of %d: %s", int(step)+1, booking.StepCount, stepTitles[step])
		sections = append(sections, s.ModalTitle.Render(title), "", m.current().View())

		if m.wiz.Pending() {
			sections = append(sections, "", m.spinner.View()+" "+s.Dim.Render("Submitting reservation…"))
		}
		if m.banner != "" {
			sections = append(sections, "", s.Banner.Render("✗ "+m.banner))
			if m.retryable {
				sections = append(sections, s.Dim.Render("The draft is kept. Press enter to try again."))
			}
		}
		sections = append(sections, "", m.buttons.Render())
	}

	return s.ModalContainer.Width(m.modalWidth()).Render(strings.Join(sections, "\n"))
}

func (m *Model) renderConfirmation() string {
	s := theme.Current().S()
	r := m.confirmed

	var b strings.Builder
	b.WriteString(s.Success.Render("✓ Reservation confirmed"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "PNR:    %s\n", r.PNR)
	fmt.Fprintf(&b, "Train:  %s\n", r.TrainID)
	fmt.Fprintf(&b, "Date:   %s\n", r.JourneyDate)
	fmt.Fprintf(&b, "Route:  %s → %s\n", r.SourceStation, r.DestinationStation)
	fmt.Fprintf(&b, "Total:  %s\n", m.projector.FormatFare(r.TotalFare))
	b.WriteString("\n")
	b.WriteString(renderHintBar("enter", "book another", "q", "quit"))
	return b.String()
}

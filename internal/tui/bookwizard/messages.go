package bookwizard

import (
	tea "charm.land/bubbletea/v2"
	"github.com/railbook/railbook/internal/booking"
)

// stepView is implemented by each wizard step component. Focus movement is
// synchronous: FocusNext and FocusPrev report false when focus would leave
// the step, and the parent moves it to the button bar.
type stepView interface {
	Update(msg tea.Msg) tea.Cmd
	View() string
	SetSize(width, height int)

	Focus() tea.Cmd
	FocusLast() tea.Cmd
	Blur()
	FocusNext() (tea.Cmd, bool)
	FocusPrev() (tea.Cmd, bool)

	// Enter handles the enter key inside the step. It reports false when the
	// key should advance the wizard instead.
	Enter() (tea.Cmd, bool)

	// Reload refreshes the inputs from the wizard draft.
	Reload()
	// Commit writes the inputs into the wizard and reports whether they
	// could all be applied.
	Commit() bool
	// ShowErrors marks the fields named by a failed Advance.
	ShowErrors(err *booking.ValidationError)
}

// submitResultMsg carries the reservation service's answer.
type submitResultMsg struct {
	res *booking.Reservation
	err error
}

// requirementsEditedMsg is sent when $EDITOR returns with new special
// requirements for a passenger.
type requirementsEditedMsg struct {
	passenger int
	content   string
}

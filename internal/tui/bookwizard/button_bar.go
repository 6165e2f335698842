package bookwizard

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/railbook/railbook/internal/tui/theme"
)

// ButtonState represents the visual state of a button.
type ButtonState int

const (
	ButtonNormal   ButtonState = iota // Normal state (enabled)
	ButtonDisabled                    // Disabled state (grayed out)
)

// Button represents a single button in the button bar.
type Button struct {
	Label string
	State ButtonState
}

// ButtonBar manages a row of buttons and which one has focus.
// focus is -1 while the bar does not have focus.
type ButtonBar struct {
	buttons []Button
	focus   int
	width   int
}

// NewButtonBar creates a new, unfocused button bar.
func NewButtonBar(buttons []Button) *ButtonBar {
	return &ButtonBar{buttons: buttons, focus: -1, width: 60}
}

// SetWidth updates the width for the button bar.
func (b *ButtonBar) SetWidth(width int) {
	b.width = width
}

// SetButtons replaces the buttons, keeping focus on the same index when
// that button is still enabled.
func (b *ButtonBar) SetButtons(buttons []Button) {
	b.buttons = buttons
	if b.focus >= len(buttons) || (b.focus >= 0 && buttons[b.focus].State == ButtonDisabled) {
		b.focus = b.firstEnabled(len(buttons)-1, -1)
	}
}

// Focus focuses the first enabled button.
func (b *ButtonBar) Focus() {
	b.focus = b.firstEnabled(0, 1)
}

// FocusLast focuses the last enabled button.
func (b *ButtonBar) FocusLast() {
	b.focus = b.firstEnabled(len(b.buttons)-1, -1)
}

// Blur removes focus from the bar.
func (b *ButtonBar) Blur() {
	b.focus = -1
}

// Focused returns the focused button index, or -1.
func (b *ButtonBar) Focused() int {
	return b.focus
}

// Move shifts focus by delta, skipping disabled buttons. It reports false
// when focus would leave the bar.
func (b *ButtonBar) Move(delta int) bool {
	for i := b.focus + delta; i >= 0 && i < len(b.buttons); i += delta {
		if b.buttons[i].State != ButtonDisabled {
			b.focus = i
			return true
		}
	}
	return false
}

func (b *ButtonBar) firstEnabled(start, step int) int {
	for i := start; i >= 0 && i < len(b.buttons); i += step {
		if b.buttons[i].State != ButtonDisabled {
			return i
		}
	}
	return -1
}

// Render renders the button bar centered in its width.
func (b *ButtonBar) Render() string {
	if len(b.buttons) == 0 {
		return ""
	}

	s := theme.Current().S()
	var rendered []string
	for i, btn := range b.buttons {
		switch {
		case btn.State == ButtonDisabled:
			rendered = append(rendered, s.ButtonDisabled.Render(btn.Label))
		case i == b.focus:
			rendered = append(rendered, s.ButtonFocused.Render(btn.Label))
		default:
			rendered = append(rendered, s.Button.Render(btn.Label))
		}
	}

	return lipgloss.Place(b.width, 1, lipgloss.Center, lipgloss.Center, strings.Join(rendered, ""))
}

// backNextButtons builds the standard pair for a step. The first step
// offers Cancel instead of Back.
func backNextButtons(first bool, nextLabel string, nextEnabled bool) []Button {
	back := Button{Label: "← Back"}
	if first {
		back.Label = "Cancel"
	}
	next := Button{Label: nextLabel}
	if !nextEnabled {
		next.State = ButtonDisabled
	}
	return []Button{back, next}
}

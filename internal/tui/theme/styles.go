package theme

import "charm.land/lipgloss/v2"

// Styles contains all pre-built lipgloss styles for the TUI.
type Styles struct {
	HeaderTitle lipgloss.Style

	// Modal
	ModalContainer lipgloss.Style
	ModalTitle     lipgloss.Style

	// Form fields
	Label        lipgloss.Style
	LabelFocused lipgloss.Style
	Text         lipgloss.Style
	Dim          lipgloss.Style
	FieldError   lipgloss.Style
	Suggestion   lipgloss.Style
	SuggestionOn lipgloss.Style

	// Status
	Banner  lipgloss.Style
	Success lipgloss.Style

	// Passenger tabs
	Tab       lipgloss.Style
	TabActive lipgloss.Style

	// Buttons
	Button         lipgloss.Style
	ButtonDisabled lipgloss.Style
	ButtonFocused  lipgloss.Style

	// Hint bar
	HintKey       lipgloss.Style
	HintDesc      lipgloss.Style
	HintSeparator lipgloss.Style
}

package bookwizard

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/editor"
	"github.com/railbook/railbook/internal/booking"
	"github.com/railbook/railbook/internal/logger"
	"github.com/railbook/railbook/internal/tui/theme"
)

const passengerLabelWidth = 24

type fieldKey struct {
	passenger int
	field     string
}

// PassengersStep edits one passenger at a time. pgup/pgdown switch between
// passengers, ctrl+n adds one and ctrl+x removes the current one.
type PassengersStep struct {
	wiz       *booking.Wizard
	projector booking.Projector
	current   int
	inputs    []textinput.Model // one per booking.PassengerFields entry
	focus     int               // -1 when blurred
	errs      map[fieldKey]string
	notice    string
	width     int
	height    int
	tmpFile   string
}

// NewPassengersStep creates the passengers step for wiz.
func NewPassengersStep(wiz *booking.Wizard, p booking.Projector) *PassengersStep {
	s := &PassengersStep{
		wiz:       wiz,
		projector: p,
		focus:     -1,
		errs:      make(map[fieldKey]string),
		width:     60,
		height:    16,
	}
	placeholders := map[booking.PassengerField]string{
		booking.FieldEmail:               "optional",
		booking.FieldDateOfBirth:         booking.DateLayout,
		booking.FieldGender:              "Male, Female or Other",
		booking.FieldAddress:             "optional",
		booking.FieldSpecialRequirements: "optional, ctrl+o opens $EDITOR",
		booking.FieldFare:                "0.00",
	}
	for _, f := range booking.PassengerFields {
		s.inputs = append(s.inputs, newInput(placeholders[f], 36))
	}
	s.Reload()
	return s
}

// Current is the index of the passenger being edited.
func (s *PassengersStep) Current() int { return s.current }

// Reload shows the current passenger of the draft, clamping the index if
// passengers were removed.
func (s *PassengersStep) Reload() {
	d := s.wiz.Draft()
	if s.current >= len(d.Passengers) {
		s.current = len(d.Passengers) - 1
	}
	if s.current < 0 {
		s.current = 0
	}
	s.errs = make(map[fieldKey]string)
	s.loadCurrent(d)
}

func (s *PassengersStep) loadCurrent(d booking.Draft) {
	if s.current >= len(d.Passengers) {
		return
	}
	p := d.Passengers[s.current]
	for i, f := range booking.PassengerFields {
		s.inputs[i].SetValue(booking.FieldValue(p, f))
	}
}

// SetSize updates the dimensions for the passengers step.
func (s *PassengersStep) SetSize(width, height int) {
	s.width = width
	s.height = height
	for i := range s.inputs {
		s.inputs[i].SetWidth(max(width-passengerLabelWidth-6, 10))
	}
}

// Focus focuses the first field.
func (s *PassengersStep) Focus() tea.Cmd { return s.focusField(0) }

// FocusLast focuses the fare field.
func (s *PassengersStep) FocusLast() tea.Cmd { return s.focusField(len(s.inputs) - 1) }

// Blur drops focus from every input.
func (s *PassengersStep) Blur() {
	for i := range s.inputs {
		s.inputs[i].Blur()
	}
	s.focus = -1
}

func (s *PassengersStep) focusField(i int) tea.Cmd {
	s.Blur()
	s.focus = i
	return s.inputs[i].Focus()
}

// FocusNext commits the focused field and moves down.
func (s *PassengersStep) FocusNext() (tea.Cmd, bool) {
	if s.focus >= 0 {
		s.commitField(s.focus)
	}
	if s.focus >= len(s.inputs)-1 {
		s.Blur()
		return nil, false
	}
	return s.focusField(s.focus + 1), true
}

// FocusPrev commits the focused field and moves up.
func (s *PassengersStep) FocusPrev() (tea.Cmd, bool) {
	if s.focus >= 0 {
		s.commitField(s.focus)
	}
	if s.focus <= 0 {
		s.Blur()
		return nil, false
	}
	return s.focusField(s.focus - 1), true
}

// Enter moves to the next field; on the fare field it lets the wizard
// advance.
func (s *PassengersStep) Enter() (tea.Cmd, bool) {
	if s.focus >= 0 && s.focus < len(s.inputs)-1 {
		return s.FocusNext()
	}
	return nil, false
}

// Commit applies every field of the current passenger and reports whether
// all values parsed.
func (s *PassengersStep) Commit() bool {
	ok := true
	for i := range s.inputs {
		if !s.commitField(i) {
			ok = false
		}
	}
	return ok
}

// ShowErrors marks passenger fields named by err, switching to the first
// passenger that has any.
func (s *PassengersStep) ShowErrors(err *booking.ValidationError) {
	first := -1
	for _, f := range err.Fields {
		if f.Passenger == booking.JourneyField {
			continue
		}
		k := fieldKey{f.Passenger, f.Field}
		if _, ok := s.errs[k]; !ok {
			s.errs[k] = f.Message
		}
		if first < 0 {
			first = f.Passenger
		}
	}
	if first >= 0 && first != s.current {
		s.current = first
		s.loadCurrent(s.wiz.Draft())
	}
}

// commitField writes one input into the wizard. A value that does not parse
// leaves the passenger unchanged and records the error.
func (s *PassengersStep) commitField(i int) bool {
	f := booking.PassengerFields[i]
	k := fieldKey{s.current, string(f)}
	delete(s.errs, k)

	err := s.wiz.UpdatePassengerField(s.current, f, s.inputs[i].Value())
	if err == nil {
		return true
	}
	var ve *booking.ValidationError
	if errors.As(err, &ve) {
		if msgs := ve.For(s.current, string(f)); len(msgs) > 0 {
			s.errs[k] = msgs[0]
		}
		return false
	}
	logger.Warn("passenger field %s not applied: %v", f, err)
	return true
}

// switchTo commits the current passenger and shows passenger i. It stays
// put when the current passenger has values that do not parse.
func (s *PassengersStep) switchTo(i int) tea.Cmd {
	if !s.Commit() {
		return nil
	}
	d := s.wiz.Draft()
	if i < 0 || i >= len(d.Passengers) {
		return nil
	}
	s.current = i
	s.notice = ""
	s.loadCurrent(d)
	return s.focusField(0)
}

func (s *PassengersStep) addPassenger() tea.Cmd {
	if !s.Commit() {
		return nil
	}
	i, err := s.wiz.AddPassenger()
	if err != nil {
		s.notice = err.Error()
		return nil
	}
	s.current = i
	s.notice = ""
	s.loadCurrent(s.wiz.Draft())
	return s.focusField(0)
}

func (s *PassengersStep) removePassenger() tea.Cmd {
	if err := s.wiz.RemovePassenger(s.current); err != nil {
		var ioe *booking.InvalidOperationError
		if errors.As(err, &ioe) {
			s.notice = ioe.Reason
		} else {
			s.notice = err.Error()
		}
		return nil
	}
	// Indexes above the removed passenger shift down.
	errs := make(map[fieldKey]string)
	for k, v := range s.errs {
		switch {
		case k.passenger < s.current:
			errs[k] = v
		case k.passenger > s.current:
			errs[fieldKey{k.passenger - 1, k.field}] = v
		}
	}
	s.errs = errs
	s.notice = ""
	if n := len(s.wiz.Draft().Passengers); s.current >= n {
		s.current = n - 1
	}
	s.loadCurrent(s.wiz.Draft())
	return s.focusField(0)
}

// Update handles passenger management keys and forwards typing to the
// focused input.
func (s *PassengersStep) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case requirementsEditedMsg:
		s.cleanupTmpFile()
		if msg.passenger != s.current {
			return nil
		}
		i := s.fieldIndex(booking.FieldSpecialRequirements)
		s.inputs[i].SetValue(strings.TrimRight(msg.content, "\n"))
		s.commitField(i)
		return nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "pgdown":
			return s.switchTo(s.current + 1)
		case "pgup":
			return s.switchTo(s.current - 1)
		case "ctrl+n":
			return s.addPassenger()
		case "ctrl+x":
			return s.removePassenger()
		case "ctrl+o":
			if os.Getenv("EDITOR") != "" {
				return s.openEditor()
			}
			return nil
		}
	}

	if s.focus < 0 {
		return nil
	}
	before := s.inputs[s.focus].Value()
	var cmd tea.Cmd
	s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
	if s.inputs[s.focus].Value() != before {
		delete(s.errs, fieldKey{s.current, string(booking.PassengerFields[s.focus])})
	}
	return cmd
}

func (s *PassengersStep) fieldIndex(f booking.PassengerField) int {
	for i, pf := range booking.PassengerFields {
		if pf == f {
			return i
		}
	}
	return -1
}

// openEditor launches $EDITOR on the current passenger's special
// requirements.
func (s *PassengersStep) openEditor() tea.Cmd {
	i := s.fieldIndex(booking.FieldSpecialRequirements)

	tmpfile, err := os.CreateTemp("", "railbook_requirements_*.txt")
	if err != nil {
		return nil
	}
	if _, err := tmpfile.WriteString(s.inputs[i].Value()); err != nil {
		_ = tmpfile.Close()
		_ = os.Remove(tmpfile.Name())
		return nil
	}
	_ = tmpfile.Close()
	s.tmpFile = tmpfile.Name()

	cmd, err := editor.Command("railbook", tmpfile.Name())
	if err != nil {
		s.cleanupTmpFile()
		return nil
	}

	passenger := s.current
	path := tmpfile.Name()
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		if err != nil {
			logger.Warn("editor exited with error: %v", err)
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		return requirementsEditedMsg{passenger: passenger, content: string(content)}
	})
}

func (s *PassengersStep) cleanupTmpFile() {
	if s.tmpFile != "" {
		_ = os.Remove(s.tmpFile)
		s.tmpFile = ""
	}
}

// View renders the passenger tabs, the form and the running total.
func (s *PassengersStep) View() string {
	st := theme.Current().S()
	d := s.wiz.Draft()

	var tabs []string
	for i := range d.Passengers {
		label := fmt.Sprintf("Passenger %d", i+1)
		if s.hasErrors(i) {
			label += " !"
		}
		if i == s.current {
			tabs = append(tabs, st.TabActive.Render(label))
		} else {
			tabs = append(tabs, st.Tab.Render(label))
		}
	}

	var b strings.Builder
	b.WriteString(strings.Join(tabs, " "))
	b.WriteString("\n\n")

	for i, f := range booking.PassengerFields {
		label := f.Label()
		if f.Required() {
			label += " *"
		}
		b.WriteString(renderField(label, passengerLabelWidth, s.focus == i, s.inputs[i].View(), s.errs[fieldKey{s.current, string(f)}]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(st.Text.Render(fmt.Sprintf("Total fare: %s", s.projector.FormatFare(d.TotalFare()))))
	b.WriteString("\n")
	if s.notice != "" {
		b.WriteString(st.FieldError.Render("✗ " + s.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderHintBar(
		"tab", "next",
		"pgup/pgdn", "passenger",
		"ctrl+n", "add",
		"ctrl+x", "remove",
		"esc", "back",
	))
	return b.String()
}

func (s *PassengersStep) hasErrors(passenger int) bool {
	for k := range s.errs {
		if k.passenger == passenger {
			return true
		}
	}
	return false
}

package bookwizard

import (
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/railbook/railbook/internal/booking"
	"github.com/railbook/railbook/internal/logger"
	"github.com/railbook/railbook/internal/tui/theme"
)

const (
	journeyTrain = iota
	journeyDate
	journeyFrom
	journeyTo
	journeyFieldCount
)

const (
	maxSuggestions    = 5
	journeyLabelWidth = 10
)

var journeyKeys = [journeyFieldCount]string{
	booking.FieldTrain,
	booking.FieldJourneyDate,
	booking.FieldSourceStation,
	booking.FieldDestinationStation,
}

var journeyLabels = [journeyFieldCount]string{"Train", "Date", "From", "To"}

type suggestion struct {
	id    string
	label string
}

// JourneyStep edits the train, date and route of the draft. Train and
// station fields accept ids or names and offer fuzzy suggestions.
type JourneyStep struct {
	wiz         *booking.Wizard
	inputs      [journeyFieldCount]textinput.Model
	focus       int // -1 when blurred
	errs        map[string]string
	suggestions []suggestion
	selected    int // highlighted suggestion, -1 for none
	width       int
	height      int
}

// NewJourneyStep creates the journey step for wiz.
func NewJourneyStep(wiz *booking.Wizard) *JourneyStep {
	s := &JourneyStep{
		wiz:      wiz,
		focus:    -1,
		selected: -1,
		errs:     make(map[string]string),
		width:    60,
		height:   12,
	}
	placeholders := [journeyFieldCount]string{
		"train number or name",
		booking.DateLayout,
		"station code or name",
		"station code or name",
	}
	for i := range s.inputs {
		s.inputs[i] = newInput(placeholders[i], 40)
	}
	s.Reload()
	return s
}

// Reload copies the draft's journey into the inputs.
func (s *JourneyStep) Reload() {
	d := s.wiz.Draft()
	s.inputs[journeyTrain].SetValue(d.TrainID)
	if d.JourneyDate.IsZero() {
		s.inputs[journeyDate].SetValue("")
	} else {
		s.inputs[journeyDate].SetValue(d.JourneyDate.Format(booking.DateLayout))
	}
	s.inputs[journeyFrom].SetValue(d.SourceStation)
	s.inputs[journeyTo].SetValue(d.DestinationStation)
	s.errs = make(map[string]string)
	s.clearSuggestions()
}

// SetSize updates the dimensions for the journey step.
func (s *JourneyStep) SetSize(width, height int) {
	s.width = width
	s.height = height
	for i := range s.inputs {
		s.inputs[i].SetWidth(max(width-journeyLabelWidth-6, 10))
	}
}

// Focus focuses the train field.
func (s *JourneyStep) Focus() tea.Cmd { return s.focusField(0) }

// FocusLast focuses the destination field.
func (s *JourneyStep) FocusLast() tea.Cmd { return s.focusField(journeyFieldCount - 1) }

// Blur commits nothing; it only drops focus.
func (s *JourneyStep) Blur() {
	for i := range s.inputs {
		s.inputs[i].Blur()
	}
	s.focus = -1
	s.clearSuggestions()
}

func (s *JourneyStep) focusField(i int) tea.Cmd {
	s.Blur()
	s.focus = i
	s.refreshSuggestions()
	return s.inputs[i].Focus()
}

// FocusNext commits the focused field and moves down.
func (s *JourneyStep) FocusNext() (tea.Cmd, bool) {
	if s.focus >= 0 {
		s.acceptSuggestion()
		s.commitField(s.focus)
	}
	if s.focus >= journeyFieldCount-1 {
		s.Blur()
		return nil, false
	}
	return s.focusField(s.focus + 1), true
}

// FocusPrev commits the focused field and moves up.
func (s *JourneyStep) FocusPrev() (tea.Cmd, bool) {
	if s.focus >= 0 {
		s.commitField(s.focus)
	}
	if s.focus <= 0 {
		s.Blur()
		return nil, false
	}
	return s.focusField(s.focus - 1), true
}

// Enter accepts the highlighted suggestion, or moves to the next field.
// On the last field it lets the wizard advance.
func (s *JourneyStep) Enter() (tea.Cmd, bool) {
	if s.acceptSuggestion() {
		s.commitField(s.focus)
		return nil, true
	}
	if s.focus < journeyFieldCount-1 {
		return s.FocusNext()
	}
	return nil, false
}

// Commit applies every field and reports whether all of them resolved.
func (s *JourneyStep) Commit() bool {
	for i := range s.inputs {
		s.commitField(i)
	}
	return len(s.errs) == 0
}

// ShowErrors marks journey fields named by err.
func (s *JourneyStep) ShowErrors(err *booking.ValidationError) {
	for _, f := range err.Fields {
		if f.Passenger != booking.JourneyField {
			continue
		}
		if _, ok := s.errs[f.Field]; !ok {
			s.errs[f.Field] = f.Message
		}
	}
}

// Update handles suggestion navigation and forwards typing to the focused
// input.
func (s *JourneyStep) Update(msg tea.Msg) tea.Cmd {
	if s.focus < 0 {
		return nil
	}
	if key, ok := msg.(tea.KeyPressMsg); ok {
		switch key.String() {
		case "up":
			if len(s.suggestions) > 0 {
				s.selected = max(s.selected-1, -1)
			}
			return nil
		case "down":
			if len(s.suggestions) > 0 {
				s.selected = min(s.selected+1, len(s.suggestions)-1)
			}
			return nil
		}
	}

	before := s.inputs[s.focus].Value()
	var cmd tea.Cmd
	s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
	if s.inputs[s.focus].Value() != before {
		delete(s.errs, journeyKeys[s.focus])
		s.refreshSuggestions()
	}
	return cmd
}

// commitField resolves one input and writes it into the wizard.
func (s *JourneyStep) commitField(i int) {
	key := journeyKeys[i]
	value := strings.TrimSpace(s.inputs[i].Value())
	ref := s.wiz.Reference()
	delete(s.errs, key)

	var err error
	switch i {
	case journeyTrain:
		id := ""
		if value != "" {
			t, rerr := ref.ResolveTrain(value)
			if rerr != nil {
				s.errs[key] = rerr.Error()
			} else {
				id = t.ID
				s.inputs[i].SetValue(id)
			}
		}
		err = s.wiz.SetTrain(id)
	case journeyDate:
		var date time.Time
		if value != "" {
			d, perr := booking.ParseDate(value)
			if perr != nil {
				s.errs[key] = perr.Error()
			} else {
				date = d
			}
		}
		err = s.wiz.SetJourneyDate(date)
	case journeyFrom, journeyTo:
		code := ""
		if value != "" {
			st, rerr := ref.ResolveStation(value)
			if rerr != nil {
				s.errs[key] = rerr.Error()
			} else {
				code = st.Code
				s.inputs[i].SetValue(code)
			}
		}
		if i == journeyFrom {
			err = s.wiz.SetSourceStation(code)
		} else {
			err = s.wiz.SetDestinationStation(code)
		}
	}
	if err != nil {
		logger.Warn("journey field %s not applied: %v", key, err)
	}
}

func (s *JourneyStep) refreshSuggestions() {
	s.clearSuggestions()
	if s.focus < 0 {
		return
	}
	query := strings.TrimSpace(s.inputs[s.focus].Value())
	if query == "" {
		return
	}
	ref := s.wiz.Reference()
	switch s.focus {
	case journeyTrain:
		for _, t := range ref.SuggestTrains(query, maxSuggestions) {
			s.suggestions = append(s.suggestions, suggestion{id: t.ID, label: t.ID + "  " + t.Name})
		}
	case journeyFrom, journeyTo:
		for _, st := range ref.SuggestStations(query, maxSuggestions) {
			s.suggestions = append(s.suggestions, suggestion{id: st.Code, label: st.Code + "  " + st.Name})
		}
	}
	// An exact id needs no list.
	if len(s.suggestions) == 1 && strings.EqualFold(s.suggestions[0].id, query) {
		s.clearSuggestions()
	}
}

func (s *JourneyStep) clearSuggestions() {
	s.suggestions = nil
	s.selected = -1
}

// acceptSuggestion copies the highlighted suggestion into the focused input.
func (s *JourneyStep) acceptSuggestion() bool {
	if s.focus < 0 || s.selected < 0 || s.selected >= len(s.suggestions) {
		return false
	}
	s.inputs[s.focus].SetValue(s.suggestions[s.selected].id)
	s.clearSuggestions()
	return true
}

// resolvedName is the reference name for the field's current draft value.
func (s *JourneyStep) resolvedName(i int, d booking.Draft) string {
	ref := s.wiz.Reference()
	switch i {
	case journeyTrain:
		if t, ok := ref.Train(d.TrainID); ok {
			return t.Name
		}
	case journeyFrom:
		if st, ok := ref.Station(d.SourceStation); ok {
			return st.Name
		}
	case journeyTo:
		if st, ok := ref.Station(d.DestinationStation); ok {
			return st.Name
		}
	case journeyDate:
		if !d.JourneyDate.IsZero() {
			return d.JourneyDate.Format("Monday, 2 January 2006")
		}
	}
	return ""
}

// View renders the journey step.
func (s *JourneyStep) View() string {
	st := theme.Current().S()
	d := s.wiz.Draft()

	var b strings.Builder
	for i := range s.inputs {
		b.WriteString(renderField(journeyLabels[i], journeyLabelWidth, s.focus == i, s.inputs[i].View(), s.errs[journeyKeys[i]]))
		b.WriteString("\n")

		indent := strings.Repeat(" ", journeyLabelWidth+2)
		if s.focus == i && len(s.suggestions) > 0 {
			for j, sg := range s.suggestions {
				if j == s.selected {
					b.WriteString(indent + st.SuggestionOn.Render("› "+sg.label) + "\n")
				} else {
					b.WriteString(indent + st.Suggestion.Render("  "+sg.label) + "\n")
				}
			}
		} else if name := s.resolvedName(i, d); name != "" && s.errs[journeyKeys[i]] == "" {
			b.WriteString(indent + st.Dim.Render(name) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(renderHintBar(
		"tab", "next",
		"↑↓", "suggestions",
		"enter", "select",
		"esc", "cancel",
	))
	return b.String()
}

package booking

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultCurrency prefixes fares when a Projector has none configured.
const DefaultCurrency = "₹"

// Projector turns a draft into a display-ready summary. It never fails:
// ids missing from the reference data render as placeholders.
type Projector struct {
	Currency string
}

// PassengerLine is one passenger on the review page.
type PassengerLine struct {
	Name   string
	Detail string // gender, date of birth, contact
	Fare   string
}

// String renders "First Last — ₹100".
func (l PassengerLine) String() string {
	return l.Name + " — " + l.Fare
}

// Summary is the review page content.
type Summary struct {
	Train      string // "Rajdhani Express (12301)"
	Route      string // "MUM → DEL"
	Stations   string // "Mumbai Central → New Delhi"
	Date       string // "2025-06-01"
	Passengers []PassengerLine
	Total      string
	Unresolved []string // ids not found in the reference data
}

// Project builds the summary for a draft.
func (p Projector) Project(d Draft, ref ReferenceData) Summary {
	s := Summary{
		Route: routeCode(d.SourceStation) + " → " + routeCode(d.DestinationStation),
		Total: p.FormatFare(d.TotalFare()),
	}

	if t, ok := ref.Train(d.TrainID); ok {
		s.Train = fmt.Sprintf("%s (%s)", t.Name, t.ID)
	} else {
		s.Train = placeholder(d.TrainID, "train")
		if d.TrainID != "" {
			s.Unresolved = append(s.Unresolved, d.TrainID)
		}
	}

	s.Stations = p.stationName(d.SourceStation, ref, &s) + " → " + p.stationName(d.DestinationStation, ref, &s)

	if d.JourneyDate.IsZero() {
		s.Date = "(no date)"
	} else {
		s.Date = d.JourneyDate.Format(DateLayout)
	}

	for _, ps := range d.Passengers {
		name := ps.FullName()
		if name == "" {
			name = "(unnamed passenger)"
		}
		s.Passengers = append(s.Passengers, PassengerLine{
			Name:   name,
			Detail: passengerDetail(ps),
			Fare:   p.FormatFare(ps.Fare),
		})
	}
	return s
}

func (p Projector) stationName(code string, ref ReferenceData, s *Summary) string {
	if st, ok := ref.Station(code); ok {
		return st.Name
	}
	if code != "" {
		s.Unresolved = append(s.Unresolved, code)
	}
	return placeholder(code, "station")
}

// FormatFare renders an amount with the currency prefix. Whole amounts drop
// the decimals: 100 -> "₹100", 99.5 -> "₹99.50".
func (p Projector) FormatFare(amount float64) string {
	cur := p.Currency
	if cur == "" {
		cur = DefaultCurrency
	}
	if amount == math.Trunc(amount) {
		return cur + strconv.FormatFloat(amount, 'f', 0, 64)
	}
	return cur + strconv.FormatFloat(amount, 'f', 2, 64)
}

func routeCode(code string) string {
	if code == "" {
		return "?"
	}
	return code
}

func placeholder(id, kind string) string {
	if id == "" {
		return fmt.Sprintf("(no %s)", kind)
	}
	return fmt.Sprintf("%s (unknown %s)", id, kind)
}

func passengerDetail(p Passenger) string {
	var parts []string
	if p.Gender != GenderUnset {
		parts = append(parts, string(p.Gender))
	}
	if !p.DateOfBirth.IsZero() {
		parts = append(parts, "born "+p.DateOfBirth.Format(DateLayout))
	}
	if p.Phone != "" {
		parts = append(parts, p.Phone)
	}
	if p.Email != "" {
		parts = append(parts, p.Email)
	}
	return strings.Join(parts, ", ")
}

// Markdown renders the summary as a markdown document.
func (s Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("# Review booking\n\n")
	fmt.Fprintf(&b, "- **Train:** %s\n", s.Train)
	fmt.Fprintf(&b, "- **Route:** %s (%s)\n", s.Route, s.Stations)
	fmt.Fprintf(&b, "- **Date:** %s\n\n", s.Date)

	b.WriteString("## Passengers\n\n")
	for i, l := range s.Passengers {
		fmt.Fprintf(&b, "%d. %s", i+1, l)
		if l.Detail != "" {
			fmt.Fprintf(&b, " _(%s)_", l.Detail)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n**Total fare:** %s\n", s.Total)
	return b.String()
}

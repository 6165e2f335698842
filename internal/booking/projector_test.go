package booking

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioReviewProjection(t *testing.T) {
	w := newTestWizard(t)
	toReview(t, w)

	s := Projector{}.Project(w.Draft(), w.Reference())

	assert.Equal(t, "MUM → DEL", s.Route)
	assert.Equal(t, "2025-06-01", s.Date)
	require.Len(t, s.Passengers, 1)
	assert.Equal(t, "A B — ₹100", s.Passengers[0].String())
	assert.Equal(t, "Test Express (T1)", s.Train)
	assert.Equal(t, "Mumbai Central → New Delhi", s.Stations)
	assert.Equal(t, "₹100", s.Total)
	assert.Empty(t, s.Unresolved)

	md := s.Markdown()
	for _, want := range []string{"MUM → DEL", "2025-06-01", "A B — ₹100", "**Total fare:** ₹100"} {
		assert.Contains(t, md, want)
	}
}

func TestProjectorPlaceholders(t *testing.T) {
	d := NewDraft()
	d.TrainID = "99999"
	d.SourceStation = "XYZ"
	d.DestinationStation = "DEL"

	s := Projector{}.Project(d, testReference())

	assert.Equal(t, "99999 (unknown train)", s.Train)
	assert.Equal(t, "XYZ (unknown station) → New Delhi", s.Stations)
	assert.Equal(t, "XYZ → DEL", s.Route)
	assert.Equal(t, "(no date)", s.Date)
	assert.Equal(t, []string{"99999", "XYZ"}, s.Unresolved)
	assert.Equal(t, "(unnamed passenger) — ₹0", s.Passengers[0].String())
}

func TestProjectorEmptyDraft(t *testing.T) {
	s := Projector{}.Project(NewDraft(), ReferenceData{})

	assert.Equal(t, "(no train)", s.Train)
	assert.Equal(t, "? → ?", s.Route)
	assert.Empty(t, s.Unresolved)
}

func TestProjectorDoesNotMutate(t *testing.T) {
	d := NewDraft()
	d.Passengers[0] = Passenger{FirstName: "A", Fare: 10}
	before := d.clone()

	Projector{}.Project(d, testReference())
	assert.Equal(t, before, d)
}

func TestProjectorMultiplePassengers(t *testing.T) {
	d := NewDraft()
	d.JourneyDate = time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC)
	d.Passengers = []Passenger{
		{FirstName: "A", LastName: "B", Fare: 100, Gender: GenderFemale, Phone: "123"},
		{FirstName: "C", LastName: "D", Fare: 49.5},
	}

	s := Projector{Currency: "Rs "}.Project(d, testReference())
	require.Len(t, s.Passengers, 2)
	assert.Equal(t, "A B — Rs 100", s.Passengers[0].String())
	assert.Equal(t, "Female, 123", s.Passengers[0].Detail)
	assert.Equal(t, "C D — Rs 49.50", s.Passengers[1].String())
	assert.Equal(t, "Rs 149.50", s.Total)
	assert.Equal(t, 2, strings.Count(s.Markdown(), " — Rs "))
}

func TestFormatFare(t *testing.T) {
	p := Projector{}
	assert.Equal(t, "₹100", p.FormatFare(100))
	assert.Equal(t, "₹99.50", p.FormatFare(99.5))
	assert.Equal(t, "₹0", p.FormatFare(0))
	assert.Equal(t, "$12.34", Projector{Currency: "$"}.FormatFare(12.34))
}

package booking

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPassenger(t *testing.T) {
	w := newTestWizard(t)

	idx, err := w.AddPassenger()
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	require.Len(t, w.Draft().Passengers, 2)

	require.NoError(t, w.UpdatePassengerField(0, FieldFirstName, "A"))
	require.NoError(t, w.UpdatePassengerField(1, FieldFirstName, "C"))
	require.NoError(t, w.UpdatePassengerField(1, FieldFare, "75"))

	ps := w.Draft().Passengers
	assert.Equal(t, "A", ps[0].FirstName)
	assert.Zero(t, ps[0].Fare)
	assert.Equal(t, "C", ps[1].FirstName)
	assert.Equal(t, 75.0, ps[1].Fare)
}

func TestRemoveLastPassengerFails(t *testing.T) {
	w := newTestWizard(t)
	require.NoError(t, w.UpdatePassengerField(0, FieldFirstName, "A"))

	err := w.RemovePassenger(0)
	require.ErrorIs(t, err, ErrInvalidOperation)

	ps := w.Draft().Passengers
	require.Len(t, ps, 1)
	assert.Equal(t, "A", ps[0].FirstName)
}

func TestRemovePassengerKeepsOrder(t *testing.T) {
	w := newTestWizard(t)
	for i := 0; i < 3; i++ {
		_, err := w.AddPassenger()
		require.NoError(t, err)
	}
	for i, name := range []string{"a", "b", "c", "d"} {
		require.NoError(t, w.UpdatePassengerField(i, FieldFirstName, name))
	}

	require.NoError(t, w.RemovePassenger(1))

	var names []string
	for _, p := range w.Draft().Passengers {
		names = append(names, p.FirstName)
	}
	assert.Equal(t, []string{"a", "c", "d"}, names)
}

func TestRemovePassengerOutOfRange(t *testing.T) {
	w := newTestWizard(t)
	_, err := w.AddPassenger()
	require.NoError(t, err)

	for _, idx := range []int{-1, 2, 10} {
		err := w.RemovePassenger(idx)
		var opErr *InvalidOperationError
		require.True(t, errors.As(err, &opErr), "index %d", idx)
		assert.Equal(t, "remove passenger", opErr.Op)
	}
	assert.Len(t, w.Draft().Passengers, 2)
}

func TestPassengersNeverEmpty(t *testing.T) {
	w := newTestWizard(t)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		n := len(w.Draft().Passengers)
		if rng.Intn(2) == 0 {
			_, err := w.AddPassenger()
			require.NoError(t, err)
		} else {
			err := w.RemovePassenger(rng.Intn(n + 1))
			if err != nil {
				require.ErrorIs(t, err, ErrInvalidOperation)
			}
		}
		require.GreaterOrEqual(t, len(w.Draft().Passengers), 1)
	}
}

func TestUpdatePassengerField(t *testing.T) {
	tests := []struct {
		name  string
		field PassengerField
		value string
		check func(t *testing.T, p Passenger)
	}{
		{"first name", FieldFirstName, "Asha", func(t *testing.T, p Passenger) { assert.Equal(t, "Asha", p.FirstName) }},
		{"last name", FieldLastName, "Rao", func(t *testing.T, p Passenger) { assert.Equal(t, "Rao", p.LastName) }},
		{"email trimmed", FieldEmail, " asha@example.com ", func(t *testing.T, p Passenger) { assert.Equal(t, "asha@example.com", p.Email) }},
		{"phone", FieldPhone, "+91 98200 00000", func(t *testing.T, p Passenger) { assert.Equal(t, "+91 98200 00000", p.Phone) }},
		{"date of birth", FieldDateOfBirth, "1990-04-12", func(t *testing.T, p Passenger) {
			assert.Equal(t, time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC), p.DateOfBirth)
		}},
		{"gender lower case", FieldGender, "female", func(t *testing.T, p Passenger) { assert.Equal(t, GenderFemale, p.Gender) }},
		{"gender short", FieldGender, "O", func(t *testing.T, p Passenger) { assert.Equal(t, GenderOther, p.Gender) }},
		{"address", FieldAddress, "12 Marine Drive", func(t *testing.T, p Passenger) { assert.Equal(t, "12 Marine Drive", p.Address) }},
		{"special requirements", FieldSpecialRequirements, "wheelchair", func(t *testing.T, p Passenger) {
			assert.Equal(t, "wheelchair", p.SpecialRequirements)
		}},
		{"fare", FieldFare, "1250.75", func(t *testing.T, p Passenger) { assert.Equal(t, 1250.75, p.Fare) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWizard(t)
			require.NoError(t, w.UpdatePassengerField(0, tt.field, tt.value))
			tt.check(t, w.Draft().Passengers[0])
		})
	}
}

func TestUpdatePassengerFieldRejectsBadValues(t *testing.T) {
	tests := []struct {
		field PassengerField
		value string
	}{
		{FieldFare, "lots"},
		{FieldFare, "NaN"},
		{FieldFare, "Inf"},
		{FieldFare, "+Inf"},
		{FieldFare, "-Inf"},
		{FieldDateOfBirth, "12/04/1990"},
		{FieldGender, "robot"},
	}

	for _, tt := range tests {
		t.Run(string(tt.field)+"="+tt.value, func(t *testing.T) {
			w := newTestWizard(t)
			require.NoError(t, w.UpdatePassengerField(0, FieldFirstName, "A"))

			err := w.UpdatePassengerField(0, tt.field, tt.value)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.NotEmpty(t, verr.For(0, string(tt.field)))

			assert.Equal(t, Passenger{FirstName: "A"}, w.Draft().Passengers[0])
		})
	}
}

func TestUpdatePassengerFieldInvalidOperations(t *testing.T) {
	w := newTestWizard(t)

	assert.ErrorIs(t, w.UpdatePassengerField(1, FieldFirstName, "A"), ErrInvalidOperation)
	assert.ErrorIs(t, w.UpdatePassengerField(-1, FieldFirstName, "A"), ErrInvalidOperation)
	assert.ErrorIs(t, w.UpdatePassengerField(0, PassengerField("seat"), "12A"), ErrInvalidOperation)
}

func TestFieldValueRoundTrip(t *testing.T) {
	p := Passenger{
		FirstName:   "A",
		DateOfBirth: time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC),
		Gender:      GenderMale,
		Fare:        99.5,
	}
	assert.Equal(t, "A", FieldValue(p, FieldFirstName))
	assert.Equal(t, "1990-04-12", FieldValue(p, FieldDateOfBirth))
	assert.Equal(t, "Male", FieldValue(p, FieldGender))
	assert.Equal(t, "99.5", FieldValue(p, FieldFare))
	assert.Equal(t, "", FieldValue(Passenger{}, FieldFare))
}

func TestAdvanceRejectsNonFiniteFare(t *testing.T) {
	for _, fare := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -5} {
		d := NewDraft()
		d.TrainID = "T1"
		d.JourneyDate = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		d.SourceStation = "MUM"
		d.DestinationStation = "DEL"
		d.Passengers[0] = Passenger{FirstName: "A", LastName: "B", Phone: "1", Fare: fare}

		w := newTestWizard(t, WithDraft(d))
		require.NoError(t, w.Advance())

		err := w.Advance()
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "fare %v", fare)
		assert.Equal(t, []string{"fare must be greater than 0"}, verr.For(0, string(FieldFare)))
		assert.Equal(t, StepPassengers, w.Step())
	}
}

package booking

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Journey field names, as used in FieldError.Field.
const (
	FieldTrain              = "train_id"
	FieldJourneyDate        = "journey_date"
	FieldSourceStation      = "source_station"
	FieldDestinationStation = "destination_station"
)

// PassengerField names an editable passenger attribute.
type PassengerField string

const (
	FieldFirstName           PassengerField = "first_name"
	FieldLastName            PassengerField = "last_name"
	FieldEmail               PassengerField = "email"
	FieldPhone               PassengerField = "phone"
	FieldDateOfBirth         PassengerField = "date_of_birth"
	FieldGender              PassengerField = "gender"
	FieldAddress             PassengerField = "address"
	FieldSpecialRequirements PassengerField = "special_requirements"
	FieldFare                PassengerField = "fare"
)

// PassengerFields lists the fields in form order.
var PassengerFields = []PassengerField{
	FieldFirstName,
	FieldLastName,
	FieldEmail,
	FieldPhone,
	FieldDateOfBirth,
	FieldGender,
	FieldAddress,
	FieldSpecialRequirements,
	FieldFare,
}

// Label is the human name of the field.
func (f PassengerField) Label() string {
	switch f {
	case FieldFirstName:
		return "First name"
	case FieldLastName:
		return "Last name"
	case FieldEmail:
		return "Email"
	case FieldPhone:
		return "Phone"
	case FieldDateOfBirth:
		return "Date of birth"
	case FieldGender:
		return "Gender"
	case FieldAddress:
		return "Address"
	case FieldSpecialRequirements:
		return "Special requirements"
	case FieldFare:
		return "Fare"
	}
	return string(f)
}

// Required reports whether step validation insists on the field.
func (f PassengerField) Required() bool {
	switch f {
	case FieldFirstName, FieldLastName, FieldPhone, FieldFare:
		return true
	}
	return false
}

// ParseGender accepts Male/Female/Other in any case, and "" for unset.
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return GenderUnset, nil
	case "male", "m":
		return GenderMale, nil
	case "female", "f":
		return GenderFemale, nil
	case "other", "o":
		return GenderOther, nil
	}
	return GenderUnset, fmt.Errorf("gender must be Male, Female or Other")
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("date must look like 2025-06-01")
	}
	return t, nil
}

// setField applies a raw form value to one passenger field.
func setField(p *Passenger, field PassengerField, value string) error {
	switch field {
	case FieldFirstName:
		p.FirstName = value
	case FieldLastName:
		p.LastName = value
	case FieldEmail:
		p.Email = strings.TrimSpace(value)
	case FieldPhone:
		p.Phone = value
	case FieldAddress:
		p.Address = value
	case FieldSpecialRequirements:
		p.SpecialRequirements = value
	case FieldDateOfBirth:
		if strings.TrimSpace(value) == "" {
			p.DateOfBirth = time.Time{}
			return nil
		}
		dob, err := ParseDate(value)
		if err != nil {
			return err
		}
		p.DateOfBirth = dob
	case FieldGender:
		g, err := ParseGender(value)
		if err != nil {
			return err
		}
		p.Gender = g
	case FieldFare:
		if strings.TrimSpace(value) == "" {
			p.Fare = 0
			return nil
		}
		fare, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || math.IsNaN(fare) || math.IsInf(fare, 0) {
			return fmt.Errorf("fare must be a number")
		}
		p.Fare = fare
	default:
		return errUnknownField
	}
	return nil
}

var errUnknownField = fmt.Errorf("unknown passenger field")

// FieldValue renders a passenger field back into its form text.
func FieldValue(p Passenger, field PassengerField) string {
	switch field {
	case FieldFirstName:
		return p.FirstName
	case FieldLastName:
		return p.LastName
	case FieldEmail:
		return p.Email
	case FieldPhone:
		return p.Phone
	case FieldAddress:
		return p.Address
	case FieldSpecialRequirements:
		return p.SpecialRequirements
	case FieldDateOfBirth:
		if p.DateOfBirth.IsZero() {
			return ""
		}
		return p.DateOfBirth.Format(DateLayout)
	case FieldGender:
		return string(p.Gender)
	case FieldFare:
		if p.Fare == 0 {
			return ""
		}
		return strconv.FormatFloat(p.Fare, 'f', -1, 64)
	}
	return ""
}

// AddPassenger appends a blank passenger and returns its index.
func (w *Wizard) AddPassenger() (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.editable("add passenger"); err != nil {
		return 0, err
	}
	w.draft.Passengers = append(w.draft.Passengers, Passenger{})
	return len(w.draft.Passengers) - 1, nil
}

// RemovePassenger drops the passenger at index. The list never becomes empty.
func (w *Wizard) RemovePassenger(index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	const op = "remove passenger"
	if err := w.editable(op); err != nil {
		return err
	}
	n := len(w.draft.Passengers)
	if index < 0 || index >= n {
		return invalidOp(op, "index %d out of range [0,%d)", index, n)
	}
	if n == 1 {
		return invalidOp(op, "a booking needs at least one passenger")
	}
	w.draft.Passengers = append(w.draft.Passengers[:index], w.draft.Passengers[index+1:]...)
	return nil
}

// UpdatePassengerField sets one field on one passenger. Values that cannot be
// parsed for typed fields leave the passenger untouched and return a
// ValidationError naming the field.
func (w *Wizard) UpdatePassengerField(index int, field PassengerField, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	const op = "update passenger"
	if err := w.editable(op); err != nil {
		return err
	}
	n := len(w.draft.Passengers)
	if index < 0 || index >= n {
		return invalidOp(op, "index %d out of range [0,%d)", index, n)
	}

	p := w.draft.Passengers[index]
	if err := setField(&p, field, value); err != nil {
		if err == errUnknownField {
			return invalidOp(op, "unknown field %q", field)
		}
		return &ValidationError{
			Step:   StepPassengers,
			Fields: []FieldError{{Passenger: index, Field: string(field), Message: err.Error()}},
		}
	}
	w.draft.Passengers[index] = p
	return nil
}

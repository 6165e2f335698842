package booking

import (
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateJourney checks the step-0 rules against the given day.
func validateJourney(d Draft, today time.Time) []FieldError {
	var errs []FieldError
	add := func(field, msg string) {
		errs = append(errs, FieldError{Passenger: JourneyField, Field: field, Message: msg})
	}

	if strings.TrimSpace(d.TrainID) == "" {
		add(FieldTrain, "select a train")
	}
	if d.JourneyDate.IsZero() {
		add(FieldJourneyDate, "select a journey date")
	} else if truncateDay(d.JourneyDate).Before(truncateDay(today)) {
		add(FieldJourneyDate, "journey date is in the past")
	}
	if strings.TrimSpace(d.SourceStation) == "" {
		add(FieldSourceStation, "select a source station")
	}
	if strings.TrimSpace(d.DestinationStation) == "" {
		add(FieldDestinationStation, "select a destination station")
	}
	if d.SourceStation != "" && strings.EqualFold(d.SourceStation, d.DestinationStation) {
		add(FieldDestinationStation, "destination must differ from source")
	}
	return errs
}

// validatePassengers checks the step-1 rules for every passenger.
func validatePassengers(ps []Passenger) []FieldError {
	var errs []FieldError
	for i, p := range ps {
		add := func(field, msg string) {
			errs = append(errs, FieldError{Passenger: i, Field: field, Message: msg})
		}
		if strings.TrimSpace(p.FirstName) == "" {
			add(string(FieldFirstName), "first name is required")
		}
		if strings.TrimSpace(p.LastName) == "" {
			add(string(FieldLastName), "last name is required")
		}
		if strings.TrimSpace(p.Phone) == "" {
			add(string(FieldPhone), "phone is required")
		}
		if !(p.Fare > 0) || math.IsInf(p.Fare, 0) {
			add(string(FieldFare), "fare must be greater than 0")
		}
		if email := strings.TrimSpace(p.Email); email != "" {
			if err := validate.Var(email, "email"); err != nil {
				add(string(FieldEmail), "email address is malformed")
			}
		}
	}
	return errs
}

// truncateDay drops the clock part, keeping the date in its own location.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/railbook/railbook/internal/booking"
	"gopkg.in/yaml.v3"
)

// bookingFile describes a booking for `railbook book --file`. Train and
// stations may be ids, codes or names; they are resolved like typed input.
type bookingFile struct {
	Train      string          `yaml:"train"`
	Date       string          `yaml:"date"`
	From       string          `yaml:"from"`
	To         string          `yaml:"to"`
	Passengers []passengerFile `yaml:"passengers"`
}

type passengerFile struct {
	FirstName           string `yaml:"first_name"`
	LastName            string `yaml:"last_name"`
	Email               string `yaml:"email"`
	Phone               string `yaml:"phone"`
	DateOfBirth         string `yaml:"date_of_birth"`
	Gender              string `yaml:"gender"`
	Address             string `yaml:"address"`
	SpecialRequirements string `yaml:"special_requirements"`
	Fare                string `yaml:"fare"`
}

func (p passengerFile) values() map[booking.PassengerField]string {
	return map[booking.PassengerField]string{
		booking.FieldFirstName:           p.FirstName,
		booking.FieldLastName:            p.LastName,
		booking.FieldEmail:               p.Email,
		booking.FieldPhone:               p.Phone,
		booking.FieldDateOfBirth:         p.DateOfBirth,
		booking.FieldGender:              p.Gender,
		booking.FieldAddress:             p.Address,
		booking.FieldSpecialRequirements: p.SpecialRequirements,
		booking.FieldFare:                p.Fare,
	}
}

func readBookingFile(path string) (*bookingFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read booking file: %w", err)
	}
	var f bookingFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse booking file %s: %w", path, err)
	}
	if len(f.Passengers) == 0 {
		return nil, fmt.Errorf("booking file %s lists no passengers", path)
	}
	return &f, nil
}

// apply fills the wizard from the file and walks it to the review step.
// Blank journey values are left unset so step validation reports them.
func (f *bookingFile) apply(wiz *booking.Wizard) error {
	ref := wiz.Reference()

	if strings.TrimSpace(f.Train) != "" {
		t, err := ref.ResolveTrain(f.Train)
		if err != nil {
			return fmt.Errorf("train: %w", err)
		}
		if err := wiz.SetTrain(t.ID); err != nil {
			return err
		}
	}
	if strings.TrimSpace(f.Date) != "" {
		date, err := booking.ParseDate(f.Date)
		if err != nil {
			return fmt.Errorf("date: %w", err)
		}
		if err := wiz.SetJourneyDate(date); err != nil {
			return err
		}
	}
	if strings.TrimSpace(f.From) != "" {
		s, err := ref.ResolveStation(f.From)
		if err != nil {
			return fmt.Errorf("from: %w", err)
		}
		if err := wiz.SetSourceStation(s.Code); err != nil {
			return err
		}
	}
	if strings.TrimSpace(f.To) != "" {
		s, err := ref.ResolveStation(f.To)
		if err != nil {
			return fmt.Errorf("to: %w", err)
		}
		if err := wiz.SetDestinationStation(s.Code); err != nil {
			return err
		}
	}
	if err := wiz.Advance(); err != nil {
		return err
	}

	for i, p := range f.Passengers {
		if i > 0 {
			if _, err := wiz.AddPassenger(); err != nil {
				return err
			}
		}
		values := p.values()
		for _, field := range booking.PassengerFields {
			if err := wiz.UpdatePassengerField(i, field, values[field]); err != nil {
				return err
			}
		}
	}
	return wiz.Advance()
}

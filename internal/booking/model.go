// Package booking holds the reservation domain: reference data, the booking
// draft, the wizard state machine that edits it, and the review projection.
package booking

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire and display format for calendar dates.
const DateLayout = "2006-01-02"

// Station is a railway station as served by GET /stations.
type Station struct {
	Code           string   `json:"station_code"`
	Name           string   `json:"station_name"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	TotalPlatforms int      `json:"total_platforms"`
	Facilities     string   `json:"facilities,omitempty"`
}

// Train is a train as served by GET /trains.
type Train struct {
	ID                string `json:"train_id"`
	Name              string `json:"train_name"`
	Type              string `json:"train_type"`
	TotalCapacity     int    `json:"total_capacity"`
	Frequency         string `json:"frequency"`
	SpecialAttributes string `json:"special_attributes,omitempty"`
}

// Train types and frequencies accepted by the reservation service.
var (
	TrainTypes       = []string{"express", "passenger", "special", "devotional"}
	TrainFrequencies = []string{"daily", "weekly", "bi-weekly", "special"}
)

// ReferenceData is the immutable lookup data a wizard is built with.
type ReferenceData struct {
	Stations []Station
	Trains   []Train
}

// Gender is a passenger's declared gender. The zero value means unset.
type Gender string

const (
	GenderUnset  Gender = ""
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// Passenger is one traveller on a booking.
type Passenger struct {
	FirstName           string
	LastName            string
	Email               string
	Phone               string
	DateOfBirth         time.Time // zero = not given
	Gender              Gender
	Address             string
	SpecialRequirements string
	Fare                float64
}

// FullName joins first and last name.
func (p Passenger) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// Draft is the in-progress booking held by a Wizard.
type Draft struct {
	ID                 string
	TrainID            string
	JourneyDate        time.Time // zero = unset
	SourceStation      string
	DestinationStation string
	Passengers         []Passenger
}

// NewDraft returns an empty draft with a single blank passenger.
func NewDraft() Draft {
	return Draft{
		ID:         uuid.NewString(),
		Passengers: []Passenger{{}},
	}
}

// TotalFare sums the passenger fares.
func (d Draft) TotalFare() float64 {
	var total float64
	for _, p := range d.Passengers {
		total += p.Fare
	}
	return total
}

// clone returns a deep copy so callers can't reach into the wizard's slice.
func (d Draft) clone() Draft {
	c := d
	c.Passengers = append([]Passenger(nil), d.Passengers...)
	return c
}

// ReservationRequest is the POST /reservations body.
type ReservationRequest struct {
	TrainID            string             `json:"train_id"`
	JourneyDate        string             `json:"journey_date"`
	SourceStation      string             `json:"source_station"`
	DestinationStation string             `json:"destination_station"`
	TotalFare          float64            `json:"total_fare"`
	Passengers         []PassengerRequest `json:"passengers"`

	// IdempotencyKey travels as a header, not in the body.
	IdempotencyKey string `json:"-"`
}

// PassengerRequest is one passenger inside a ReservationRequest.
type PassengerRequest struct {
	FirstName           string  `json:"first_name"`
	LastName            string  `json:"last_name"`
	Email               string  `json:"email,omitempty"`
	Phone               string  `json:"phone"`
	DateOfBirth         string  `json:"date_of_birth,omitempty"`
	Gender              string  `json:"gender,omitempty"`
	Address             string  `json:"address,omitempty"`
	SpecialRequirements string  `json:"special_requirements,omitempty"`
	Fare                float64 `json:"fare"`
}

// Request serializes the draft for the reservation service.
func (d Draft) Request() ReservationRequest {
	req := ReservationRequest{
		TrainID:            d.TrainID,
		SourceStation:      d.SourceStation,
		DestinationStation: d.DestinationStation,
		TotalFare:          d.TotalFare(),
		IdempotencyKey:     d.ID,
		Passengers:         make([]PassengerRequest, 0, len(d.Passengers)),
	}
	if !d.JourneyDate.IsZero() {
		req.JourneyDate = d.JourneyDate.Format(DateLayout)
	}
	for _, p := range d.Passengers {
		pr := PassengerRequest{
			FirstName:           p.FirstName,
			LastName:            p.LastName,
			Email:               p.Email,
			Phone:               p.Phone,
			Gender:              string(p.Gender),
			Address:             p.Address,
			SpecialRequirements: p.SpecialRequirements,
			Fare:                p.Fare,
		}
		if !p.DateOfBirth.IsZero() {
			pr.DateOfBirth = p.DateOfBirth.Format(DateLayout)
		}
		req.Passengers = append(req.Passengers, pr)
	}
	return req
}

// Reservation is a confirmed booking as returned by the reservation service.
type Reservation struct {
	PNR                string             `json:"pnr"`
	TrainID            string             `json:"train_id"`
	JourneyDate        string             `json:"journey_date"`
	SourceStation      string             `json:"source_station"`
	DestinationStation string             `json:"destination_station"`
	BookingStatus      string             `json:"booking_status"`
	TotalFare          float64            `json:"total_fare"`
	Passengers         []PassengerRequest `json:"passengers,omitempty"`
	Message            string             `json:"message,omitempty"`
}

// Package ticket renders confirmed reservations as markdown tickets.
package ticket

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/railbook/railbook/internal/booking"
	"github.com/railbook/railbook/internal/logger"
)

// Variables holds the data injected into template placeholders.
type Variables struct {
	PNR        string // {{pnr}}
	TrainID    string // {{train_id}}
	TrainName  string // {{train_name}}
	Date       string // {{date}}
	From       string // {{from}}
	FromName   string // {{from_name}}
	To         string // {{to}}
	ToName     string // {{to_name}}
	Status     string // {{status}}
	Issued     string // {{issued}}
	Passengers string // {{passengers}}, a markdown table
	Total      string // {{total}}
}

// Render replaces {{variable}} placeholders in template with actual values.
// Unknown placeholders are left as they are.
func Render(template string, vars Variables) string {
	r := strings.NewReplacer(
		"{{pnr}}", vars.PNR,
		"{{train_id}}", vars.TrainID,
		"{{train_name}}", vars.TrainName,
		"{{train}}", vars.TrainName,
		"{{date}}", vars.Date,
		"{{from}}", vars.From,
		"{{from_name}}", vars.FromName,
		"{{to}}", vars.To,
		"{{to_name}}", vars.ToName,
		"{{status}}", vars.Status,
		"{{issued}}", vars.Issued,
		"{{passengers}}", vars.Passengers,
		"{{total}}", vars.Total,
	)
	return r.Replace(template)
}

// FromReservation builds the ticket variables. Names missing from ref fall
// back to the raw ids.
func FromReservation(r booking.Reservation, ref booking.ReferenceData, p booking.Projector, issued time.Time) Variables {
	v := Variables{
		PNR:        r.PNR,
		TrainID:    r.TrainID,
		TrainName:  r.TrainID,
		Date:       r.JourneyDate,
		From:       r.SourceStation,
		FromName:   r.SourceStation,
		To:         r.DestinationStation,
		ToName:     r.DestinationStation,
		Status:     r.BookingStatus,
		Issued:     issued.Format("2006-01-02 15:04"),
		Passengers: formatPassengers(r.Passengers, p),
		Total:      p.FormatFare(r.TotalFare),
	}
	if t, ok := ref.Train(r.TrainID); ok {
		v.TrainName = t.Name
	}
	if s, ok := ref.Station(r.SourceStation); ok {
		v.FromName = s.Name
	}
	if s, ok := ref.Station(r.DestinationStation); ok {
		v.ToName = s.Name
	}
	if v.Status == "" {
		v.Status = "confirmed"
	}
	return v
}

func formatPassengers(ps []booking.PassengerRequest, p booking.Projector) string {
	if len(ps) == 0 {
		return "_No passenger details on record._"
	}
	var sb strings.Builder
	sb.WriteString("| # | Name | Gender | Date of birth | Fare |\n")
	sb.WriteString("|---|------|--------|---------------|------|\n")
	for i, pr := range ps {
		name := strings.TrimSpace(pr.FirstName + " " + pr.LastName)
		fmt.Fprintf(&sb, "| %d | %s | %s | %s | %s |\n",
			i+1, orDash(name), orDash(pr.Gender), orDash(pr.DateOfBirth), p.FormatFare(pr.Fare))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// LoadFromFile loads a template from a file.
func LoadFromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read ticket template %s: %w", path, err)
	}
	return string(data), nil
}

// GetTemplate returns the template at customPath, or the default when empty.
func GetTemplate(customPath string) (string, error) {
	if customPath == "" {
		return DefaultTemplate, nil
	}
	return LoadFromFile(customPath)
}

// FileName is "ticket-<pnr>-<train-slug>.md".
func FileName(v Variables) string {
	name := "ticket-" + slug.Make(v.PNR)
	if s := slug.Make(v.TrainName); s != "" {
		name += "-" + s
	}
	return name + ".md"
}

// Write renders the ticket into dir, creating it if needed, and returns the
// file path.
func Write(dir, template string, v Variables) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating ticket directory: %w", err)
	}
	path := filepath.Join(dir, FileName(v))
	if err := os.WriteFile(path, []byte(Render(template, v)), 0644); err != nil {
		return "", fmt.Errorf("writing ticket: %w", err)
	}
	logger.Info("ticket for %s written to %s", v.PNR, path)
	return path, nil
}

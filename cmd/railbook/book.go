package main

import (
	"context"
	"fmt"
	"time"

	"charm.land/glamour/v2"
	"github.com/railbook/railbook/internal/booking"
	"github.com/railbook/railbook/internal/hooks"
	"github.com/railbook/railbook/internal/journal"
	"github.com/railbook/railbook/internal/ticket"
	"github.com/railbook/railbook/internal/tui/bookwizard"
	"github.com/railbook/railbook/internal/tui/theme"
	"github.com/spf13/cobra"
)

var bookFlags struct {
	file     string
	ticket   bool
	template string
	yes      bool
}

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Book a ticket",
	Long: `Book a ticket in a three step wizard: journey, passengers, review.

Without --file the wizard runs as a full-screen TUI. With --file the booking is
read from a YAML file and submitted without interaction:

  train: Rajdhani Express
  date: 2025-06-01
  from: MUM
  to: New Delhi
  passengers:
    - first_name: Asha
      last_name: Rao
      phone: "9876543210"
      fare: 1450

Hooks in .railbook.hooks.yml run after each confirmed booking.`,
	RunE: runBook,
}

func init() {
	bookCmd.Flags().StringVarP(&bookFlags.file, "file", "f", "", "Book from a YAML description instead of the TUI")
	bookCmd.Flags().BoolVarP(&bookFlags.ticket, "ticket", "t", false, "Write a markdown ticket for each confirmed booking")
	bookCmd.Flags().StringVar(&bookFlags.template, "template", "", "Custom ticket template file")
	bookCmd.Flags().BoolVarP(&bookFlags.yes, "yes", "y", false, "With --file, submit without printing the review first")
}

func runBook(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	ref, err := e.client.LoadReferenceData(ctx)
	if err != nil {
		return fmt.Errorf("failed to load stations and trains: %w", err)
	}
	e.openJournal(ctx)

	if bookFlags.file != "" {
		return e.bookFromFile(ctx, ref, bookFlags.file)
	}
	return e.bookInteractive(ctx, ref)
}

func (e *env) bookInteractive(ctx context.Context, ref booking.ReferenceData) error {
	wiz := booking.NewWizard(ref)
	result, err := bookwizard.Run(ctx, wiz, e.client,
		bookwizard.WithProjector(e.proj),
		bookwizard.OnSubmitted(func(req booking.ReservationRequest, res booking.Reservation) {
			e.record(ctx, journal.ReservationCreated(res, req.IdempotencyKey))
		}),
		bookwizard.OnSubmitFailed(func(req booking.ReservationRequest, err error) {
			e.record(ctx, journal.SubmitFailed(req, err))
		}),
	)
	if err != nil {
		return fmt.Errorf("booking wizard failed: %w", err)
	}

	if result.Abandoned != nil && draftTouched(*result.Abandoned) {
		e.record(ctx, journal.DraftCancelled(*result.Abandoned))
	}
	for _, res := range result.Reservations {
		if err := e.confirmed(ctx, res, ref); err != nil {
			return err
		}
	}
	if len(result.Reservations) == 0 && result.Cancelled {
		_, _ = fmt.Fprintln(e.out, theme.Current().S().Dim.Render("Booking cancelled."))
	}
	return nil
}

func (e *env) bookFromFile(ctx context.Context, ref booking.ReferenceData, path string) error {
	f, err := readBookingFile(path)
	if err != nil {
		return err
	}

	wiz := booking.NewWizard(ref, booking.WithSubmitter(e.client))
	if err := f.apply(wiz); err != nil {
		return fmt.Errorf("booking file %s: %w", path, err)
	}

	draft := wiz.Draft()
	if !bookFlags.yes {
		summary := e.proj.Project(draft, ref).Markdown()
		_, _ = fmt.Fprintln(e.out, renderMarkdown(summary))
	}

	res, err := wiz.Submit(ctx)
	if err != nil {
		e.record(ctx, journal.SubmitFailed(draft.Request(), err))
		return fmt.Errorf("booking was not accepted: %w", err)
	}
	e.record(ctx, journal.ReservationCreated(*res, draft.ID))
	return e.confirmed(ctx, *res, ref)
}

// confirmed prints a booked reservation, then writes its ticket and runs
// post_submit hooks.
func (e *env) confirmed(ctx context.Context, res booking.Reservation, ref booking.ReferenceData) error {
	s := theme.Current().S()
	_, _ = fmt.Fprintf(e.out, "%s %s  %s on %s, %s → %s, %s\n",
		s.Success.Render("✓ Booked"), s.Label.Render(res.PNR),
		trainName(ref, res.TrainID), res.JourneyDate,
		res.SourceStation, res.DestinationStation, e.proj.FormatFare(res.TotalFare))

	if bookFlags.ticket {
		path, err := e.writeTicket(res, ref, bookFlags.template)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(e.out, "Ticket written to: %s\n", path)
	}

	e.runHooks(ctx, postSubmitHooks, hooks.VariablesFor(res, ref, e.proj))
	return nil
}

func (e *env) writeTicket(res booking.Reservation, ref booking.ReferenceData, templatePath string) (string, error) {
	tmpl, err := ticket.GetTemplate(templatePath)
	if err != nil {
		return "", err
	}
	return ticket.Write(e.cfg.TicketDir, tmpl, ticket.FromReservation(res, ref, e.proj, time.Now()))
}

// draftTouched reports whether the user typed anything into d.
func draftTouched(d booking.Draft) bool {
	if d.TrainID != "" || !d.JourneyDate.IsZero() || d.SourceStation != "" || d.DestinationStation != "" {
		return true
	}
	for _, p := range d.Passengers {
		if p != (booking.Passenger{}) {
			return true
		}
	}
	return false
}

func trainName(ref booking.ReferenceData, id string) string {
	if t, ok := ref.Train(id); ok {
		return t.Name
	}
	return id
}

// renderMarkdown renders for the terminal, falling back to the raw text.
func renderMarkdown(content string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return out
}

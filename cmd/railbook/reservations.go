package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/railbook/railbook/internal/booking"
	"github.com/railbook/railbook/internal/hooks"
	"github.com/railbook/railbook/internal/journal"
	"github.com/railbook/railbook/internal/logger"
	"github.com/railbook/railbook/internal/ticket"
	"github.com/railbook/railbook/internal/tui/theme"
	"github.com/spf13/cobra"
)

var reservationsCmd = &cobra.Command{
	Use:     "reservations",
	Aliases: []string{"res"},
	Short:   "List, show and delete reservations",
}

var reservationShowFlags struct {
	ticket   bool
	template string
}

var reservationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reservations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		list, err := e.client.ListReservations(cmd.Context())
		if err != nil {
			return err
		}
		if len(list) == 0 {
			_, _ = fmt.Fprintln(e.out, "No reservations.")
			return nil
		}

		rows := make([][]string, 0, len(list))
		for _, r := range list {
			rows = append(rows, []string{
				r.PNR, r.TrainID, r.JourneyDate,
				r.SourceStation + " → " + r.DestinationStation,
				fmt.Sprint(len(r.Passengers)), r.BookingStatus, e.proj.FormatFare(r.TotalFare),
			})
		}
		_, _ = fmt.Fprintln(e.out, renderTable(
			[]string{"PNR", "Train", "Date", "Route", "Pax", "Status", "Total"}, rows))
		return nil
	},
}

var reservationsShowCmd = &cobra.Command{
	Use:   "show <pnr>",
	Short: "Show a reservation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		res, err := e.client.GetReservation(ctx, strings.ToUpper(args[0]))
		if err != nil {
			return err
		}
		ref := e.referenceData(cmd)

		vars := ticket.FromReservation(*res, ref, e.proj, time.Now())
		_, _ = fmt.Fprint(e.out, renderMarkdown(ticket.Render(ticket.DefaultTemplate, vars)))

		if reservationShowFlags.ticket {
			path, err := e.writeTicket(*res, ref, reservationShowFlags.template)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(e.out, "Ticket written to: %s\n", path)
		}
		return nil
	},
}

var reservationsDeleteCmd = &cobra.Command{
	Use:     "delete <pnr>",
	Aliases: []string{"rm"},
	Short:   "Delete a reservation",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		pnr := strings.ToUpper(args[0])
		res, err := e.client.GetReservation(ctx, pnr)
		if err != nil {
			return err
		}
		if err := e.client.DeleteReservation(ctx, pnr); err != nil {
			return err
		}
		e.openJournal(ctx)
		e.record(ctx, journal.ReservationDeleted(pnr))

		_, _ = fmt.Fprintf(e.out, "%s reservation %s\n", theme.Current().S().Success.Render("✓ Deleted"), pnr)
		e.runHooks(ctx, postDeleteHooks, hooks.VariablesFor(*res, e.referenceData(cmd), e.proj))
		return nil
	},
}

// referenceData loads stations and trains for display. Without them names
// fall back to ids, which is not worth failing a command over.
func (e *env) referenceData(cmd *cobra.Command) booking.ReferenceData {
	ref, err := e.client.LoadReferenceData(cmd.Context())
	if err != nil {
		logger.Warn("Showing ids only, reference data unavailable: %v", err)
	}
	return ref
}

func init() {
	rootCmd.AddCommand(reservationsCmd)
	reservationsCmd.AddCommand(reservationsListCmd)
	reservationsCmd.AddCommand(reservationsShowCmd)
	reservationsCmd.AddCommand(reservationsDeleteCmd)

	reservationsShowCmd.Flags().BoolVarP(&reservationShowFlags.ticket, "ticket", "t", false, "Also write the ticket to the ticket directory")
	reservationsShowCmd.Flags().StringVar(&reservationShowFlags.template, "template", "", "Custom ticket template file")
}

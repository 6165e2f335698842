package main

import (
	"fmt"
	"strings"

	"github.com/railbook/railbook/internal/journal"
	"github.com/railbook/railbook/internal/tui/theme"
	"github.com/spf13/cobra"
)

var historyFlags struct {
	action string
	limit  int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show what railbook booked, cancelled and failed to book",
	Long: `Replay the local booking journal, oldest first.

The journal lives in <data_dir>/journal and only records what this machine
did; it is not the reservation service's record.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVarP(&historyFlags.action, "action", "a", "",
		"Only show one action: reservation_created, reservation_deleted, submit_failed, draft_cancelled")
	historyCmd.Flags().IntVarP(&historyFlags.limit, "limit", "n", 0, "Only show the last n entries")
}

func parseAction(s string) (journal.Action, error) {
	a := journal.Action(strings.ToLower(s))
	switch a {
	case "", journal.ActionReservationCreated, journal.ActionReservationDeleted,
		journal.ActionSubmitFailed, journal.ActionDraftCancelled:
		return a, nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

func runHistory(cmd *cobra.Command, args []string) error {
	action, err := parseAction(historyFlags.action)
	if err != nil {
		return err
	}

	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if !e.cfg.Journal {
		return fmt.Errorf("the booking journal is disabled (journal: false)")
	}
	ctx := cmd.Context()
	j, err := journal.Open(ctx, e.cfg.JournalDir())
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	e.journal = j

	entries, err := j.History(ctx, action)
	if err != nil {
		return err
	}
	if historyFlags.limit > 0 && len(entries) > historyFlags.limit {
		entries = entries[len(entries)-historyFlags.limit:]
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(e.out, theme.Current().S().Dim.Render("Nothing recorded yet."))
		return nil
	}
	for _, entry := range entries {
		_, _ = fmt.Fprintln(e.out, entry.String())
	}
	return nil
}

package main

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/railbook/railbook/internal/logger"
	"github.com/railbook/railbook/internal/tui/theme"
	"github.com/spf13/cobra"
)

const (
	logoText1 = "█▀█ ▄▀█ █ █   █▀▄ █▀█ █▀█ █▄▀"
	logoText2 = "█▀▄ █▀█ █ █▄▄ █▄█ █▄█ █▄█ █ █"
)

// Version set via ldflags during build
var version = "dev"

func main() {
	defer func() { _ = logger.Close() }()

	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version)); err != nil {
		logger.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}

var rootFlags struct {
	baseURL   string
	dataDir   string
	logLevel  string
	logFile   string
	timeout   int
	noJournal bool
}

var rootCmd = &cobra.Command{
	Use:          "railbook",
	Short:        "Book train tickets against a reservation service",
	SilenceUsage: true,
}

// renderLogo creates the logo with gradient colors
func renderLogo() string {
	t := theme.NewCatppuccinMocha()
	line1 := theme.ApplyGradient(logoText1, t.Primary, t.Secondary)
	line2 := theme.ApplyGradient(logoText2, t.Primary, t.Secondary)
	return strings.Join([]string{line1, line2}, "\n")
}

func init() {
	rootCmd.Long = renderLogo() + `

railbook is a terminal client for a train reservation service. It walks you
through a booking (journey, passengers, review) in a full-screen TUI, lists and
manages stations, trains and reservations, and keeps a local journal of what
it booked in an embedded NATS JetStream store.

Run 'railbook serve' for a local development reservation service.`

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.baseURL, "base-url", "", "Reservation service URL (default: from config)")
	pf.StringVar(&rootFlags.dataDir, "data-dir", "", "Data directory for the booking journal (default: from config)")
	pf.StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&rootFlags.logFile, "log-file", "", "Write logs to this file")
	pf.IntVar(&rootFlags.timeout, "timeout", 0, "Request timeout in seconds (0 keeps the configured value)")
	pf.BoolVar(&rootFlags.noJournal, "no-journal", false, "Do not record bookings in the local journal")

	rootCmd.AddCommand(bookCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(setupCmd)
}

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/railbook/railbook/internal/devserver"
	"github.com/spf13/cobra"
)

var serveFlags struct {
	addr  string
	empty bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local reservation service for development",
	Long: `Run an in-memory reservation service with the same REST API railbook talks to.

It starts seeded with a handful of stations and trains unless --empty is given.
Nothing is persisted; stopping the server forgets every reservation.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", "", "Listen address (default: serve_addr from config)")
	serveCmd.Flags().BoolVar(&serveFlags.empty, "empty", false, "Start without seed stations and trains")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	addr := cfg.ServeAddr
	if serveFlags.addr != "" {
		addr = serveFlags.addr
	}

	store := devserver.NewSeededStore()
	if serveFlags.empty {
		store = devserver.NewStore()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Reservation service on http://%s/api (Ctrl+C to stop)\n", addr)
	return devserver.New(store).ListenAndServe(ctx, addr)
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/railbook/railbook/internal/api"
	"github.com/railbook/railbook/internal/booking"
	"github.com/railbook/railbook/internal/config"
	"github.com/railbook/railbook/internal/hooks"
	"github.com/railbook/railbook/internal/journal"
	"github.com/railbook/railbook/internal/logger"
	"github.com/spf13/cobra"
)

// env is what most commands need: resolved config, a service client and,
// when enabled, the booking journal.
type env struct {
	cfg     *config.Config
	client  *api.Client
	journal *journal.Journal
	proj    booking.Projector
	out     io.Writer
}

// loadConfig loads config files and environment, then applies flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = rootFlags.baseURL
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = rootFlags.dataDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = rootFlags.logLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = rootFlags.logFile
	}
	if flags.Changed("timeout") {
		cfg.Timeout = rootFlags.timeout
	}
	if rootFlags.noJournal {
		cfg.Journal = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := logger.Setup(cfg.LogLevel, cfg.LogFile); err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return cfg, nil
}

func newEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger.Debug("Using reservation service at %s", cfg.BaseURL)
	return &env{
		cfg:    cfg,
		client: api.New(cfg.BaseURL, api.WithTimeout(cfg.RequestTimeout())),
		proj:   booking.Projector{Currency: cfg.Currency},
		out:    styledOutput(cmd.OutOrStdout()),
	}, nil
}

// styledOutput downsamples colors to what w can show. Non-terminals get
// plain text.
func styledOutput(w io.Writer) io.Writer {
	return colorprofile.NewWriter(w, os.Environ())
}

// openJournal opens the journal when enabled. Failing to open it only
// disables it; the journal is never a reason not to book.
func (e *env) openJournal(ctx context.Context) {
	if !e.cfg.Journal {
		return
	}
	j, err := journal.Open(ctx, e.cfg.JournalDir())
	if err != nil {
		logger.Warn("Booking journal disabled: %v", err)
		return
	}
	e.journal = j
}

func (e *env) record(ctx context.Context, entry journal.Entry) {
	if err := e.journal.Record(ctx, entry); err != nil {
		logger.Warn("Failed to record %s in journal: %v", entry.Action, err)
	}
}

// runHooks runs the hooks selected from .railbook.hooks.yml and prints
// their piped output.
func (e *env) runHooks(ctx context.Context, pick func(hooks.HooksConfig) []*hooks.HookConfig, vars hooks.Variables) {
	hc, err := hooks.LoadConfig(".")
	if err != nil {
		logger.Warn("Skipping hooks: %v", err)
		return
	}
	if hc == nil {
		return
	}
	out, err := hooks.ExecuteAll(ctx, pick(hc.Hooks), ".", vars)
	if err != nil {
		logger.Warn("Hooks interrupted: %v", err)
	}
	if out != "" {
		_, _ = fmt.Fprintln(e.out, out)
	}
}

func postSubmitHooks(h hooks.HooksConfig) []*hooks.HookConfig { return h.PostSubmit }
func postDeleteHooks(h hooks.HooksConfig) []*hooks.HookConfig { return h.PostDelete }

func (e *env) Close() {
	if err := e.journal.Close(); err != nil {
		logger.Warn("Failed to close journal: %v", err)
	}
}

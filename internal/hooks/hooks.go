// Package hooks runs user shell commands after bookings are made or deleted.
package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/railbook/railbook/internal/booking"
	"github.com/railbook/railbook/internal/logger"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the hooks configuration file.
const ConfigFileName = ".railbook.hooks.yml"

// LoadConfig loads the hooks configuration from workDir.
// Returns nil if the config file doesn't exist (hooks are optional).
func LoadConfig(workDir string) (*Config, error) {
	configPath := filepath.Join(workDir, ConfigFileName)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("No hooks config found at %s", configPath)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read hooks config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse hooks config: %w", err)
	}

	logger.Debug("Loaded hooks config from %s (version: %d, %d post_submit, %d post_delete)",
		configPath, cfg.Version, len(cfg.Hooks.PostSubmit), len(cfg.Hooks.PostDelete))
	return &cfg, nil
}

// Variables are expanded as {{pnr}}, {{train}}, {{date}}, {{from}}, {{to}}
// and {{total}} in commands, and exported as RAILBOOK_PNR and so on.
type Variables struct {
	PNR   string
	Train string
	Date  string
	From  string
	To    string
	Total string
}

// VariablesFor describes a reservation, resolving the train name from ref.
func VariablesFor(r booking.Reservation, ref booking.ReferenceData, p booking.Projector) Variables {
	train := r.TrainID
	if t, ok := ref.Train(r.TrainID); ok {
		train = t.Name
	}
	return Variables{
		PNR:   r.PNR,
		Train: train,
		Date:  r.JourneyDate,
		From:  r.SourceStation,
		To:    r.DestinationStation,
		Total: p.FormatFare(r.TotalFare),
	}
}

func (v Variables) pairs() [][2]string {
	return [][2]string{
		{"pnr", v.PNR},
		{"train", v.Train},
		{"date", v.Date},
		{"from", v.From},
		{"to", v.To},
		{"total", v.Total},
	}
}

// Execute runs a hook command and returns its output.
// On failure or timeout the problem is reported in the output and the error
// is nil. Only context cancellation is returned as an error.
func Execute(ctx context.Context, hook *HookConfig, workDir string, vars Variables) (string, error) {
	if hook == nil || hook.Command == "" {
		return "", nil
	}

	command := expandVariables(hook.Command, vars)
	logger.Debug("Executing hook command: %s", command)

	timeout := hook.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	execCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "sh", "-c", command)
	cmd.Dir = workDir
	cmd.WaitDelay = time.Second
	cmd.Env = os.Environ()
	for _, kv := range vars.pairs() {
		cmd.Env = append(cmd.Env, "RAILBOOK_"+strings.ToUpper(kv[0])+"="+kv[1])
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		logger.Warn("Hook command timed out after %ds: %s", timeout, command)
		return fmt.Sprintf("[Hook timed out after %ds]\nPartial output:\n%s", timeout, stdout.String()), nil
	}

	output := stdout.String()
	if stderr.Len() > 0 {
		output += "\n[stderr]\n" + stderr.String()
	}
	if err != nil {
		logger.Warn("Hook command failed: %v", err)
		return fmt.Sprintf("[Hook command failed: %v]\n%s", err, output), nil
	}

	logger.Debug("Hook executed successfully, output length: %d bytes", len(output))
	return output, nil
}

// ExecuteAll runs hooks in order and joins the output of those with
// pipe_output set, separated by blank lines.
func ExecuteAll(ctx context.Context, hooks []*HookConfig, workDir string, vars Variables) (string, error) {
	var parts []string
	for _, h := range hooks {
		out, err := Execute(ctx, h, workDir, vars)
		if err != nil {
			return strings.Join(parts, "\n"), err
		}
		if h != nil && h.PipeOutput && out != "" {
			parts = append(parts, out)
		}
	}
	return strings.Join(parts, "\n"), nil
}

// expandVariables replaces {{variable}} placeholders in the command string.
func expandVariables(command string, vars Variables) string {
	result := command
	for _, kv := range vars.pairs() {
		result = strings.ReplaceAll(result, "{{"+kv[0]+"}}", kv[1])
	}
	return result
}

package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/railbook/railbook/internal/devserver"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in a temp dir with no global config.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	for _, key := range []string{"BASE_URL", "TIMEOUT", "DATA_DIR", "LOG_LEVEL", "LOG_FILE", "CURRENCY", "JOURNAL", "TICKET_DIR", "SERVE_ADDR"} {
		t.Setenv("RAILBOOK_"+key, "")
	}
	return dir
}

// startService runs a seeded reservation service and returns its base URL.
func startService(t *testing.T) (string, *devserver.Store) {
	t.Helper()
	store := devserver.NewSeededStore()
	srv := httptest.NewServer(devserver.New(store).Handler())
	t.Cleanup(srv.Close)
	return srv.URL + "/api", store
}

// resetFlags puts every flag back to its default so commands can run more
// than once in one process.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

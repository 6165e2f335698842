package journal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/railbook/railbook/internal/logger"
)

const (
	serverName   = "railbook-journal"
	maxStore     = 64 << 20 // bytes of JetStream file storage per journal
	readyTimeout = 4 * time.Second
	drainTimeout = 2 * time.Second
	stopTimeout  = 5 * time.Second
)

var errNotDir = errors.New("not a directory")

// store is the embedded JetStream server behind one journal directory and
// the in-process connection to it. It never opens a network port.
type store struct {
	dir string
	ns  *server.Server
	nc  *nats.Conn
}

// openStore creates dir if needed and starts the server on it. Every error
// names the directory so a bad --journal-dir is easy to spot.
func openStore(dir string) (*store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("journal store %s: %w", dir, err)
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		return nil, fmt.Errorf("journal store %s: %w", abs, errNotDir)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("journal store %s: %w", abs, err)
	}

	logger.Debug("Starting journal store in %s", abs)
	ns, err := server.NewServer(&server.Options{
		ServerName:        serverName,
		JetStream:         true,
		JetStreamMaxStore: maxStore,
		StoreDir:          abs,
		DontListen:        true,
		NoSigs:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("journal store %s: %w", abs, err)
	}

	go ns.Start()
	if !ns.ReadyForConnections(readyTimeout) {
		ns.Shutdown()
		return nil, fmt.Errorf("journal store %s: not ready after %s", abs, readyTimeout)
	}

	nc, err := nats.Connect("", nats.InProcessServer(ns), nats.Name("railbook"))
	if err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("journal store %s: connect: %w", abs, err)
	}
	return &store{dir: abs, ns: ns, nc: nc}, nil
}

// close drains the connection, then stops the server. Both steps are
// bounded so a wedged store cannot hang the CLI on exit.
func (s *store) close() error {
	drained := make(chan error, 1)
	go func() { drained <- s.nc.Drain() }()

	select {
	case err := <-drained:
		if err != nil {
			logger.Warn("Journal %s: drain failed, closing: %v", s.dir, err)
			s.nc.Close()
		}
	case <-time.After(drainTimeout):
		logger.Warn("Journal %s: drain timed out after %s, closing", s.dir, drainTimeout)
		s.nc.Close()
	}

	s.ns.Shutdown()
	stopped := make(chan struct{})
	go func() {
		s.ns.WaitForShutdown()
		close(stopped)
	}()

	select {
	case <-stopped:
		logger.Debug("Journal store %s closed", s.dir)
		return nil
	case <-time.After(stopTimeout):
		return fmt.Errorf("journal store %s: shutdown timed out after %s", s.dir, stopTimeout)
	}
}

// Package watchdog shuts the pipeline down when the train stream stalls.
package watchdog

import (
	"log/slog"
	"time"
)

// NewWatchdog returns a runner that invokes shutdown if no value arrives on
// the input within two consecutive timeout intervals. It exits when the input
// channel closes.
func NewWatchdog[T any](timeout time.Duration, shutdown func() error, input <-chan T) func() error {
	return func() error {
		t := time.NewTicker(timeout)
		defer t.Stop()
		awake := true
		slog.Debug("watchdog started", "timeout", timeout)
		for {
			select {
			case _, ok := <-input:
				if !ok {
					return nil
				}
				awake = true
			case <-t.C:
				if !awake {
					slog.Error("no trains received, shutting down pipeline", "timeout", timeout)
					return shutdown()
				}
				awake = false
			}
		}
	}
}

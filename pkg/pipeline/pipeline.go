// Package pipeline runs the per-train processor chain. A train is processed
// to completion by one processor before the next runs; recoverable errors are
// logged and the train is skipped for that processor only.
package pipeline

import (
	"errors"
	"log/slog"

	"github.com/foamline/foamline/pkg/config"
	"github.com/foamline/foamline/pkg/record"
)

// Processor is one sequential stage of the train pipeline. Update refreshes
// its configuration snapshot from the external store; Process transforms the
// shared record in place.
type Processor interface {
	Name() string
	Update(store config.Store) error
	Process(t *record.Train) error
}

// Chain runs processors in order for each train. One processor failing does
// not stop its siblings.
type Chain struct {
	procs []Processor
}

func NewChain(procs ...Processor) *Chain {
	return &Chain{procs: procs}
}

// Run refreshes every processor's configuration and processes the train.
// Processing errors drop the train's contribution for that processor;
// configuration errors halt the processor for this train and are logged at
// error level. Sibling processors continue either way.
func (c *Chain) Run(store config.Store, t *record.Train) {
	for _, p := range c.procs {
		if err := p.Update(store); err != nil {
			slog.Error("configuration refresh failed", "processor", p.Name(), "train", t.ID, "error", err)
			continue
		}
		if err := p.Process(t); err != nil {
			var procErr *ProcessingError
			if errors.As(err, &procErr) {
				slog.Warn("train skipped", "processor", p.Name(), "train", t.ID, "error", err)
				continue
			}
			slog.Error("processing failed", "processor", p.Name(), "train", t.ID, "error", err)
		}
	}
}

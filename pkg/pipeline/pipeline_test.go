package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/foamline/foamline/pkg/config"
	"github.com/foamline/foamline/pkg/record"
)

type fakeProcessor struct {
	name       string
	updateErr  error
	processErr error

	updated   int
	processed int
}

func (f *fakeProcessor) Name() string { return f.name }

func (f *fakeProcessor) Update(config.Store) error {
	f.updated++
	return f.updateErr
}

func (f *fakeProcessor) Process(*record.Train) error {
	f.processed++
	return f.processErr
}

func TestChainRunsProcessorsInOrder(t *testing.T) {
	var order []string
	mk := func(name string) *orderedProcessor {
		return &orderedProcessor{name: name, order: &order}
	}
	c := NewChain(mk("a"), mk("b"), mk("c"))
	c.Run(config.NewMemStore(), &record.Train{ID: 1})
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

type orderedProcessor struct {
	name  string
	order *[]string
}

func (o *orderedProcessor) Name() string              { return o.name }
func (o *orderedProcessor) Update(config.Store) error { return nil }

func (o *orderedProcessor) Process(*record.Train) error {
	*o.order = append(*o.order, o.name)
	return nil
}

func TestChainContinuesPastFailures(t *testing.T) {
	bad := &fakeProcessor{name: "bad", processErr: Processingf("no data")}
	worse := &fakeProcessor{name: "worse", processErr: Parameterf("bad enum")}
	good := &fakeProcessor{name: "good"}

	c := NewChain(bad, worse, good)
	c.Run(config.NewMemStore(), &record.Train{ID: 1})

	assert.Equal(t, 1, bad.processed)
	assert.Equal(t, 1, worse.processed)
	assert.Equal(t, 1, good.processed, "siblings run despite earlier failures")
}

func TestChainSkipsProcessOnUpdateFailure(t *testing.T) {
	stale := &fakeProcessor{name: "stale", updateErr: Parameterf("bad config")}
	fresh := &fakeProcessor{name: "fresh"}

	c := NewChain(stale, fresh)
	c.Run(config.NewMemStore(), &record.Train{ID: 1})

	assert.Equal(t, 1, stale.updated)
	assert.Equal(t, 0, stale.processed, "stale configuration must not process")
	assert.Equal(t, 1, fresh.processed)
}

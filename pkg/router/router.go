// Package router broadcasts values from one input channel to any number of
// named subscribers. Processed train records flow through a Fan on their way
// to the publisher and watchdog.
package router

import (
	"log/slog"
	"sync"
)

type Fan[T any] struct {
	name    string
	mu      sync.Mutex
	input   <-chan T
	outputs map[string]chan<- T
}

func NewFan[T any](name string, input <-chan T) *Fan[T] {
	return &Fan[T]{
		name:    name,
		input:   input,
		outputs: make(map[string](chan<- T)),
	}
}

func (f *Fan[T]) Subscribe(client string) <-chan T {
	slog.Debug("subscribing to fan", "fan", f.name, "client", client)
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.outputs[client]; ok {
		panic("client already subscribed")
	}
	c := make(chan T, 1)
	f.outputs[client] = c
	return c
}

func (f *Fan[T]) Unsubscribe(client string) {
	slog.Debug("unsubscribing from fan", "fan", f.name, "client", client)
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.outputs[client]; !ok {
		panic("client not subscribed")
	}
	close(f.outputs[client])
	delete(f.outputs, client)
}

// Run forwards input values to every subscriber until the input closes, then
// closes all subscriber channels.
func (f *Fan[T]) Run() error {
	for v := range f.input {
		f.mu.Lock()
		for _, ch := range f.outputs {
			ch <- v
		}
		f.mu.Unlock()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, ch := range f.outputs {
		close(ch)
		delete(f.outputs, k)
	}
	return nil
}

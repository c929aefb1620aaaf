// Package config abstracts the external key-value parameter store behind
// typed per-train configuration snapshots, so the processors never parse
// strings themselves.
package config

import "sync"

// Store section names, one hash per processor family.
const (
	SectionGlobal      = "global"
	SectionRoi         = "roi"
	SectionCorrelation = "correlation"
)

// Store is the external configuration store polled once per train. Delete
// consumes one-shot flags such as reset requests.
type Store interface {
	Section(name string) map[string]string
	Delete(section, key string)
}

// MemStore is a map-backed Store, safe for concurrent use. Configuration
// updates land between trains; a snapshot copy is returned so no partial
// update is ever visible mid-train.
type MemStore struct {
	mu       sync.Mutex
	sections map[string]map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{sections: make(map[string]map[string]string)}
}

func (s *MemStore) Set(section, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec, ok := s.sections[section]
	if !ok {
		sec = make(map[string]string)
		s.sections[section] = sec
	}
	sec[key] = value
}

func (s *MemStore) Section(name string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.sections[name]))
	for k, v := range s.sections[name] {
		out[k] = v
	}
	return out
}

func (s *MemStore) Delete(section, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sec, ok := s.sections[section]; ok {
		delete(sec, key)
	}
}

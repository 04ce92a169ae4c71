// Package prefs provides the preference stores backing the monitor
// configuration.
package prefs

import (
	"slices"
	"sync"
)

// values is the typed key value set shared by the in-process stores.
type values struct {
	Bools map[string]bool     `yaml:"bools,omitempty"`
	Ints  map[string]int      `yaml:"ints,omitempty"`
	Lists map[string][]string `yaml:"lists,omitempty"`
}

func (v *values) init() {
	if v.Bools == nil {
		v.Bools = make(map[string]bool)
	}
	if v.Ints == nil {
		v.Ints = make(map[string]int)
	}
	if v.Lists == nil {
		v.Lists = make(map[string][]string)
	}
}

// MemoryStore keeps the preferences in memory only.
type MemoryStore struct {
	mtx  sync.RWMutex
	vals values
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	s.vals.init()
	return s
}

func (s *MemoryStore) GetBool(key string, def bool) bool {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	if v, ok := s.vals.Bools[key]; ok {
		return v
	}
	return def
}

func (s *MemoryStore) SetBool(key string, value bool) {
	s.mtx.Lock()
	s.vals.Bools[key] = value
	s.mtx.Unlock()
}

func (s *MemoryStore) GetInt(key string, def int) int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	if v, ok := s.vals.Ints[key]; ok {
		return v
	}
	return def
}

func (s *MemoryStore) SetInt(key string, value int) {
	s.mtx.Lock()
	s.vals.Ints[key] = value
	s.mtx.Unlock()
}

// GetStringList returns a copy of the list, nil if unset.
func (s *MemoryStore) GetStringList(key string) []string {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return slices.Clone(s.vals.Lists[key])
}

func (s *MemoryStore) SetStringList(key string, value []string) {
	s.mtx.Lock()
	s.vals.Lists[key] = slices.Clone(value)
	s.mtx.Unlock()
}

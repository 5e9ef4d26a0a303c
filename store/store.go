// Package store keeps script sources by name so that loaded scripts survive engine restarts.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned when a script with requested name is not stored.
var ErrNotFound = errors.New("script not found")

// Record is a stored script source.
type Record struct {
	Name    string    `json:"-"`
	Source  string    `json:"source"`
	Updated time.Time `json:"updated"`
}

// Store persists script records. Implementations must be safe for concurrent use.
type Store interface {
	Put(ctx context.Context, name, source string) error
	Get(ctx context.Context, name string) (*Record, error)
	Delete(ctx context.Context, name string) error
	// List returns sorted names of stored scripts.
	List(ctx context.Context) ([]string, error)
}

// Memory is an in-process Store.
type Memory struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]Record), now: time.Now}
}

func (m *Memory) Put(ctx context.Context, name, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[name] = Record{Name: name, Source: source, Updated: m.now()}
	return nil
}

func (m *Memory) Get(ctx context.Context, name string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, found := m.records[name]
	if !found {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// Delete removes a record. Deleting a missing record is not an error.
func (m *Memory) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, name)
	return nil
}

func (m *Memory) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.records))
	for name := range m.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

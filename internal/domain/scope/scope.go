package scope

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultGlobalSize bounds the process-wide store when no size is given
const DefaultGlobalSize = 10000

// Store holds rule variables
type Store interface {
	Get(key string) (string, bool)
	Put(key, value string)
}

// Map is a mutex-guarded Store. Putting "" deletes the key.
type Map struct {
	mu   sync.RWMutex
	vars map[string]string
}

// NewMap creates a store seeded with initial
func NewMap(initial map[string]string) *Map {
	m := &Map{vars: make(map[string]string, len(initial))}
	for k, v := range initial {
		m.vars[k] = v
	}
	return m
}

func (m *Map) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vars[key]
	return v, ok
}

func (m *Map) Put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value == "" {
		delete(m.vars, key)
		return
	}
	m.vars[key] = value
}

// Snapshot returns a copy of every variable
func (m *Map) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.vars))
	for k, v := range m.vars {
		out[k] = v
	}
	return out
}

// Global is the process-wide fallback store. The least recently used
// entries are evicted beyond its size.
type Global struct {
	cache *lru.Cache[string, string]
}

// NewGlobal creates a global store
func NewGlobal(size int) (*Global, error) {
	if size <= 0 {
		size = DefaultGlobalSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create global store: %w", err)
	}
	return &Global{cache: cache}, nil
}

func (g *Global) Get(key string) (string, bool) {
	return g.cache.Get(key)
}

func (g *Global) Put(key, value string) {
	if value == "" {
		g.cache.Remove(key)
		return
	}
	g.cache.Add(key, value)
}

// Len returns the number of stored variables
func (g *Global) Len() int { return g.cache.Len() }

// Chain resolves variables innermost first
type Chain []Store

// NewChain builds a chain, dropping nil stores
func NewChain(stores ...Store) Chain {
	out := make(Chain, 0, len(stores))
	for _, s := range stores {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Get returns the first store's value for key, or "" when none has it
func (c Chain) Get(key string) string {
	for _, s := range c {
		if v, ok := s.Get(key); ok {
			return v
		}
	}
	return ""
}

// Put writes to the innermost store and reports whether one existed
func (c Chain) Put(key, value string) bool {
	if len(c) == 0 {
		return false
	}
	c[0].Put(key, value)
	return true
}

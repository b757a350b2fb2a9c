package resilience

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultGroupSize bounds the number of tracked keys
const DefaultGroupSize = 1024

// Group hands out one breaker per key, so a failing host does not block
// requests to healthy ones. Least recently used keys are forgotten.
type Group struct {
	settings Settings
	breakers *lru.Cache[string, *Breaker]
}

// NewGroup creates a group whose breakers share settings
func NewGroup(settings Settings, size int) (*Group, error) {
	if size <= 0 {
		size = DefaultGroupSize
	}
	cache, err := lru.New[string, *Breaker](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create breaker group: %w", err)
	}
	return &Group{settings: settings, breakers: cache}, nil
}

// Get returns the breaker for key, creating it on first use
func (g *Group) Get(key string) *Breaker {
	if b, ok := g.breakers.Get(key); ok {
		return b
	}
	b := New(key, g.settings)
	if prev, ok, _ := g.breakers.PeekOrAdd(key, b); ok {
		return prev
	}
	return b
}

// State returns the state of key's breaker; unknown keys are closed
func (g *Group) State(key string) State {
	if b, ok := g.breakers.Peek(key); ok {
		return b.State()
	}
	return StateClosed
}

// Len returns the number of tracked keys
func (g *Group) Len() int {
	return g.breakers.Len()
}

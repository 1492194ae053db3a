package tree

import (
	"sync"

	"github.com/GriffinCanCode/LanDrop/backend/internal/shared/types"
)

// Expansion tracks which folders are collapsed. Folders are expanded until
// explicitly collapsed; each folder's state is independent of its parent.
type Expansion struct {
	mu    sync.RWMutex
	state map[string]bool
}

// NewExpansion returns an expansion with every folder open.
func NewExpansion() *Expansion {
	return &Expansion{state: make(map[string]bool)}
}

// IsExpanded reports the state of the folder at rel.
func (e *Expansion) IsExpanded(rel string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	expanded, ok := e.state[rel]
	return !ok || expanded
}

// Set records an explicit state for rel.
func (e *Expansion) Set(rel string, expanded bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state[rel] = expanded
}

func (e *Expansion) Expand(rel string)   { e.Set(rel, true) }
func (e *Expansion) Collapse(rel string) { e.Set(rel, false) }

// Toggle flips rel and returns the new state.
func (e *Expansion) Toggle(rel string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	expanded, ok := e.state[rel]
	next := ok && !expanded
	e.state[rel] = next
	return next
}

// CollapseAll collapses every folder in entries.
func (e *Expansion) CollapseAll(entries []types.Entry) {
	Walk(entries, func(entry types.Entry, _ int) bool {
		if entry.Type() == types.TypeDirectory {
			e.Collapse(entry.RelPath())
		}
		return true
	})
}

// Reset forgets all explicit state.
func (e *Expansion) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	clear(e.state)
}

// Package selection tracks which catalog entries are marked for a bulk action.
package selection

import (
	"sort"
	"sync"
)

// Tracker holds a selection that is always a subset of the last catalog it
// was reconciled against.
type Tracker struct {
	mu       sync.RWMutex
	catalog  []string
	known    map[string]struct{}
	selected map[string]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{
		known:    make(map[string]struct{}),
		selected: make(map[string]struct{}),
	}
}

// Reconcile replaces the catalog id set and drops selected ids that left it.
// It returns the pruned ids.
func (t *Tracker) Reconcile(ids []string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.catalog = t.catalog[:0]
	t.known = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := t.known[id]; dup {
			continue
		}
		t.known[id] = struct{}{}
		t.catalog = append(t.catalog, id)
	}

	var pruned []string
	for id := range t.selected {
		if _, ok := t.known[id]; !ok {
			delete(t.selected, id)
			pruned = append(pruned, id)
		}
	}
	sort.Strings(pruned)
	return pruned
}

// Remove drops ids from the catalog and the selection.
func (t *Tracker) Remove(ids ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
		delete(t.known, id)
		delete(t.selected, id)
	}

	kept := t.catalog[:0]
	for _, id := range t.catalog {
		if _, gone := drop[id]; !gone {
			kept = append(kept, id)
		}
	}
	t.catalog = kept
}

// Toggle flips membership of id. Ids outside the catalog are ignored.
func (t *Tracker) Toggle(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.known[id]; !ok {
		return false
	}
	if _, ok := t.selected[id]; ok {
		delete(t.selected, id)
		return false
	}
	t.selected[id] = struct{}{}
	return true
}

// ToggleAll clears the selection when it already covers the whole catalog,
// otherwise selects every catalog id.
func (t *Tracker) ToggleAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.selected) == len(t.catalog) {
		t.selected = make(map[string]struct{})
		return
	}

	t.selected = make(map[string]struct{}, len(t.catalog))
	for _, id := range t.catalog {
		t.selected[id] = struct{}{}
	}
}

func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selected = make(map[string]struct{})
}

func (t *Tracker) Has(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.selected[id]
	return ok
}

func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.selected)
}

// IDs returns the selection in catalog order.
func (t *Tracker) IDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]string, 0, len(t.selected))
	for _, id := range t.catalog {
		if _, ok := t.selected[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Catalog returns the ids of the last reconciled catalog.
func (t *Tracker) Catalog() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.catalog...)
}

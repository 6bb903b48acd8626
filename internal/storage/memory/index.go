package memory

import (
	"sync"

	"github.com/yndnr/tokrelay-go/pkg/cmap"
)

// IDSet is a concurrent-safe set of ids.
type IDSet struct {
	mu    sync.RWMutex
	items map[string]struct{}
}

// NewIDSet creates an empty set.
func NewIDSet() *IDSet {
	return &IDSet{items: make(map[string]struct{})}
}

// Add adds id to the set.
func (s *IDSet) Add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = struct{}{}
}

// Remove removes id from the set.
func (s *IDSet) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

// Contains reports whether id is in the set.
func (s *IDSet) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[id]
	return ok
}

// Len returns the number of ids.
func (s *IDSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Items returns a copy of all ids.
func (s *IDSet) Items() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]string, 0, len(s.items))
	for id := range s.items {
		items = append(items, id)
	}
	return items
}

// OwnerIndex maps an owner to the ids of the tokens issued to it.
type OwnerIndex struct {
	index *cmap.Map[int64, *IDSet]
}

// NewOwnerIndex creates an empty index.
func NewOwnerIndex() *OwnerIndex {
	return &OwnerIndex{index: cmap.New[int64, *IDSet]()}
}

// Add records tokenID under owner.
func (i *OwnerIndex) Add(owner int64, tokenID string) {
	set := i.index.Compute(owner, func(old *IDSet, exists bool) (*IDSet, bool) {
		if exists {
			return old, true
		}
		return NewIDSet(), true
	})
	set.Add(tokenID)
}

// Get returns the token ids of owner.
func (i *OwnerIndex) Get(owner int64) []string {
	set, ok := i.index.Get(owner)
	if !ok {
		return nil
	}
	return set.Items()
}

// Count returns the number of tokens of owner.
func (i *OwnerIndex) Count(owner int64) int {
	set, ok := i.index.Get(owner)
	if !ok {
		return 0
	}
	return set.Len()
}

// Package store holds the in-memory recipe collection that every view reads
// from and writes through.
package store

import (
	"errors"
	"fmt"
	"sync"

	"recipebox/models"
)

// ErrNotFound is returned by Update when no recipe carries the given id.
var ErrNotFound = errors.New("recipe not found")

// Op names the mutation that produced an Event.
type Op string

const (
	OpLoad   Op = "load"
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event is delivered to listeners after every mutation. Recipes is the
// collection as it stands once the mutation has been applied.
type Event struct {
	Op      Op
	ID      string
	Recipes []models.Recipe
}

// Listener receives store events. It must not call Load, Add, Update or Delete.
type Listener func(Event)

// Store owns the authoritative, insertion-ordered recipe collection.
//
// Mutations are serialized and each one notifies every listener before it
// returns, so a caller that has just mutated the store can rely on every
// subscriber having seen the new snapshot.
type Store struct {
	writeMu sync.Mutex

	mu      sync.RWMutex
	recipes []models.Recipe

	listenersMu sync.Mutex
	listeners   map[uint64]Listener
	order       []uint64
	nextID      uint64
}

func New() *Store {
	return &Store{listeners: make(map[uint64]Listener)}
}

// Load replaces the whole collection with recipes.
func (s *Store) Load(recipes []models.Recipe) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := make([]models.Recipe, len(recipes))
	for i, r := range recipes {
		next[i] = r.Clone()
	}

	s.mu.Lock()
	s.recipes = next
	s.mu.Unlock()

	s.notify(Event{Op: OpLoad})
}

// Add appends r. The caller is responsible for giving r a fresh id; Add does
// not deduplicate.
func (s *Store) Add(r models.Recipe) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.recipes = append(s.recipes, r.Clone())
	s.mu.Unlock()

	s.notify(Event{Op: OpAdd, ID: r.ID})
}

// Update replaces the recipe with r.ID wholesale, keeping its position.
func (s *Store) Update(r models.Recipe) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	idx := s.indexOf(r.ID)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("update %q: %w", r.ID, ErrNotFound)
	}
	s.recipes[idx] = r.Clone()
	s.mu.Unlock()

	s.notify(Event{Op: OpUpdate, ID: r.ID})
	return nil
}

// Delete removes the recipe with id. Deleting an absent id is a no-op and
// does not notify listeners.
func (s *Store) Delete(id string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	next := make([]models.Recipe, 0, len(s.recipes)-1)
	next = append(next, s.recipes[:idx]...)
	next = append(next, s.recipes[idx+1:]...)
	s.recipes = next
	s.mu.Unlock()

	s.notify(Event{Op: OpDelete, ID: id})
}

// Snapshot returns a copy of the collection in display order. Changing the
// returned slice has no effect on the store.
func (s *Store) Snapshot() []models.Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Get returns the recipe with id, if present.
func (s *Store) Get(id string) (models.Recipe, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return models.Recipe{}, false
	}
	return s.recipes[idx].Clone(), true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recipes)
}

// Subscribe registers l and returns a function that removes it. Listeners are
// called in subscription order.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.order = append(s.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			defer s.listenersMu.Unlock()
			delete(s.listeners, id)
			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// notify must be called with writeMu held and mu released.
func (s *Store) notify(ev Event) {
	s.listenersMu.Lock()
	ls := make([]Listener, 0, len(s.order))
	for _, id := range s.order {
		ls = append(ls, s.listeners[id])
	}
	s.listenersMu.Unlock()

	if len(ls) == 0 {
		return
	}
	for _, l := range ls {
		e := ev
		e.Recipes = s.Snapshot()
		l(e)
	}
}

func (s *Store) snapshotLocked() []models.Recipe {
	out := make([]models.Recipe, len(s.recipes))
	for i, r := range s.recipes {
		out[i] = r.Clone()
	}
	return out
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id string) int {
	for i, r := range s.recipes {
		if r.ID == id {
			return i
		}
	}
	return -1
}

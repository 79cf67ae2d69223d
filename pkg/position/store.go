// Package position holds the session-scoped id→position map that
// outlives individual scene builds. The store is the single source of
// truth for "where is this element now": layouts write into it on
// completion, drags update it per step, and renders consult it to
// decide between fresh and incremental placement.
package position

import (
	"maps"

	"github.com/schematiq/schematiq/pkg/geom"
	"github.com/schematiq/schematiq/pkg/scene"
)

// Store maps element IDs to their current canvas position. Containers
// are never stored; their extent derives from children. The zero value
// is not usable, use NewStore.
//
// Store is not safe for concurrent use without external
// synchronization; engine sessions own exactly one store each.
type Store struct {
	pos map[string]geom.Point
}

// NewStore returns an empty position store.
func NewStore() *Store {
	return &Store{pos: make(map[string]geom.Point)}
}

// Get returns the stored position for id and whether one exists.
func (s *Store) Get(id string) (geom.Point, bool) {
	p, ok := s.pos[id]
	return p, ok
}

// Set stores the position for id, replacing any previous value.
func (s *Store) Set(id string, p geom.Point) { s.pos[id] = p }

// Has reports whether a position is stored for id.
func (s *Store) Has(id string) bool { _, ok := s.pos[id]; return ok }

// Delete removes the stored position for id, if any.
func (s *Store) Delete(id string) { delete(s.pos, id) }

// Clear removes every stored position. Used for explicit fresh-layout
// and new-data-source requests; ordinary re-renders never clear.
func (s *Store) Clear() { s.pos = make(map[string]geom.Point) }

// Len returns the number of stored positions.
func (s *Store) Len() int { return len(s.pos) }

// Empty reports whether the store holds no positions, which marks the
// next render as a fresh layout rather than an incremental one.
func (s *Store) Empty() bool { return len(s.pos) == 0 }

// Snapshot returns the stored positions of every positioned element in
// the scene graph. Elements without a stored position are omitted.
func (s *Store) Snapshot(g *scene.Graph) map[string]geom.Point {
	out := make(map[string]geom.Point)
	for _, e := range g.Positioned() {
		if p, ok := s.pos[e.ID]; ok {
			out[e.ID] = p
		}
	}
	return out
}

// All returns a copy of every stored position keyed by element ID.
func (s *Store) All() map[string]geom.Point {
	return maps.Clone(s.pos)
}

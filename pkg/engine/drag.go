package engine

import (
	"context"

	"github.com/schematiq/schematiq/pkg/collide"
	"github.com/schematiq/schematiq/pkg/geom"
	"github.com/schematiq/schematiq/pkg/layout"
	"github.com/schematiq/schematiq/pkg/observability"
	"github.com/schematiq/schematiq/pkg/scene"
)

// DragStep handles one pointer-move event while an element is dragged.
// The dragged element's stored position follows the pointer, then one
// collision pass pushes everything else clear. Every displacement is
// written to the store as it happens, so interrupting the drag at any
// step leaves a consistent scene.
func (s *Session) DragStep(ctx context.Context, id string, p geom.Point) error {
	if err := s.requireScene(); err != nil {
		return err
	}
	if s.drag == nil || s.drag.Dragged != id {
		s.drag = collide.NewSession(id)
		for _, el := range s.graph.Positioned() {
			if el.Kind == scene.KindGroupLabel {
				s.drag.MarkPassive(el.ID)
			}
		}
	}
	s.store.Set(id, p)

	rects := s.collisionRects()
	res := s.resolver.Resolve(s.drag, rects)
	for mid, c := range res.Moved {
		s.store.Set(mid, c)
	}
	observability.Drag().OnDragStep(ctx, id, len(res.Moved))
	observability.Drag().OnResolveComplete(ctx, res.Iterations, res.CeilingHit)

	// Moving a group member changes the group box; re-pin the labels,
	// except those the resolver just displaced: snapping them back
	// would recreate the violation the pass cleared.
	s.refreshLabels(res.Moved)
	return s.apply()
}

// DragEnd handles pointer release: the final position is stored and the
// drag's pushed-set bookkeeping is discarded, so the next drag starts
// fresh.
func (s *Session) DragEnd(ctx context.Context, id string, p geom.Point) error {
	if err := s.requireScene(); err != nil {
		return err
	}
	s.store.Set(id, p)
	s.drag = nil
	s.refreshLabels(nil)
	return s.apply()
}

// collisionRects builds the live element boxes the resolver works on:
// every positioned element, group labels included, so a dragged node
// cannot slide under a neighboring group's title.
func (s *Session) collisionRects() map[string]geom.Rect {
	m := s.layout.Metrics()
	rects := make(map[string]geom.Rect)
	for _, el := range s.graph.Positioned() {
		p, ok := s.store.Get(el.ID)
		if !ok {
			continue
		}
		rects[el.ID] = m.RectOf(el, p)
	}
	return rects
}

// refreshLabels recomputes derived label positions from current member
// boxes and stores them, leaving out any label in skip.
func (s *Session) refreshLabels(skip map[string]geom.Point) {
	pos := s.store.All()
	m := s.layout.Metrics()
	layout.Finish(s.graph, m, pos)
	for _, el := range s.graph.Positioned() {
		if el.Kind != scene.KindGroupLabel {
			continue
		}
		if _, moved := skip[el.ID]; moved {
			continue
		}
		if p, ok := pos[el.ID]; ok {
			s.store.Set(el.ID, p)
		}
	}
}

// Package collide implements the live overlap avoidance that runs on
// every drag step. The resolver pushes elements out of the dragged
// element's way, cascades the displacement through secondary
// violations, and guarantees the configured minimum padding between
// every participating pair when it converges. It never moves the
// dragged element.
package collide

import (
	"sort"

	"github.com/schematiq/schematiq/pkg/geom"
)

// convergence tolerance; keeps float rounding at exactly-padding
// separations from reading as fresh violations.
const epsilon = 1e-6

// Resolver holds the tuning shared by all drag sessions.
type Resolver struct {
	// Padding is the minimum gap to restore between element boxes.
	Padding float64

	// MaxIterations bounds the pairwise re-scan. The resolver runs
	// inside a pointer-move handler, so beyond the ceiling a slight
	// residual overlap is accepted rather than blocking input.
	MaxIterations int
}

// NewResolver returns a resolver with standard tuning.
func NewResolver() *Resolver {
	return &Resolver{Padding: 12, MaxIterations: 50}
}

// Session tracks one drag interaction. The pushed set records elements
// the drag has already displaced: the dragged element resolves
// "too close" against each neighbor only once per drag, so it can rest
// against an element it pushed without perpetually fighting it, while
// true overlaps are always resolved.
type Session struct {
	Dragged string
	passive map[string]bool
	pushed  map[string]bool
}

// NewSession starts bookkeeping for a drag of the given element.
func NewSession(dragged string) *Session {
	return &Session{
		Dragged: dragged,
		passive: make(map[string]bool),
		pushed:  make(map[string]bool),
	}
}

// MarkPassive flags an element that resolves only against the dragged
// element. Derived geometry like group labels participates so the drag
// cannot slide under it, while pairs among everything else leave it
// where the layout pinned it.
func (s *Session) MarkPassive(id string) { s.passive[id] = true }

// Pushed reports whether the element was already displaced this drag.
func (s *Session) Pushed(id string) bool { return s.pushed[id] }

// Result reports one resolution pass.
type Result struct {
	// Moved maps displaced element IDs to their new centers. The
	// dragged element never appears here.
	Moved map[string]geom.Point

	// Iterations is the number of full pair scans performed.
	Iterations int

	// CeilingHit is true when the iteration bound was reached with
	// violations remaining.
	CeilingHit bool
}

// Resolve runs overlap avoidance over the element boxes for one drag
// step. rects must contain every visible positioned element, keyed by
// ID and including the dragged element at its live position; entries
// other than the dragged one are updated in place.
func (r *Resolver) Resolve(sess *Session, rects map[string]geom.Rect) Result {
	ids := make([]string, 0, len(rects))
	for id := range rects {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	res := Result{Moved: make(map[string]geom.Point)}
	for res.Iterations < r.MaxIterations {
		res.Iterations++
		violated := false
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				a, b := ids[i], ids[j]
				if rects[a].Gap(rects[b]) >= r.Padding-epsilon {
					continue
				}
				switch sess.Dragged {
				case a:
					violated = r.pushFromDragged(sess, rects, res.Moved, a, b) || violated
				case b:
					violated = r.pushFromDragged(sess, rects, res.Moved, b, a) || violated
				default:
					if sess.passive[a] || sess.passive[b] {
						continue
					}
					violated = r.resolvePair(sess, rects, res.Moved, a, b) || violated
				}
			}
		}
		if !violated {
			return res
		}
	}
	res.CeilingHit = true
	return res
}

// pushFromDragged moves other fully out of the dragged element's box.
// True overlaps always resolve; a merely too-close neighbor is pushed
// only the first time the drag meets it.
func (r *Resolver) pushFromDragged(sess *Session, rects map[string]geom.Rect, moved map[string]geom.Point, dragged, other string) bool {
	rd, ro := rects[dragged], rects[other]
	overlapping := rd.Gap(ro) < epsilon
	if !overlapping && sess.pushed[other] {
		return false
	}
	sess.pushed[other] = true

	dx, dy := pushVector(rd, ro, r.Padding)
	ro.Center = ro.Center.Add(dx, dy)
	rects[other] = ro
	moved[other] = ro.Center
	return true
}

// resolvePair settles a violation between two non-dragged elements. An
// element the drag already pushed stays put so the cascade cannot undo
// the drag's direct effect; otherwise the displacement is split evenly.
func (r *Resolver) resolvePair(sess *Session, rects map[string]geom.Rect, moved map[string]geom.Point, a, b string) bool {
	ra, rb := rects[a], rects[b]
	dx, dy := pushVector(ra, rb, r.Padding)

	move := func(id string, rect geom.Rect, mx, my float64) {
		rect.Center = rect.Center.Add(mx, my)
		rects[id] = rect
		moved[id] = rect.Center
		sess.pushed[id] = true
	}

	switch {
	case sess.pushed[a] && !sess.pushed[b]:
		move(b, rb, dx, dy)
	case sess.pushed[b] && !sess.pushed[a]:
		move(a, ra, -dx, -dy)
	default:
		move(a, ra, -dx/2, -dy/2)
		move(b, rb, dx/2, dy/2)
	}
	return true
}

// pushVector returns the displacement that moves `to` away from `from`
// along whichever axis needs the smaller shift, leaving exactly the
// minimum padding and nothing more. Minimizing the moved distance keeps
// visual disruption to unrelated geometry low.
func pushVector(from, to geom.Rect, padding float64) (dx, dy float64) {
	needX := padding - from.GapX(to)
	needY := padding - from.GapY(to)
	if needX <= needY {
		if to.Center.X >= from.Center.X {
			return needX, 0
		}
		return -needX, 0
	}
	if to.Center.Y >= from.Center.Y {
		return 0, needY
	}
	return 0, -needY
}

// Package layout assigns canvas positions to scene-graph elements.
//
// The engine offers one deterministic family (two-pass compact, two
// brick-pack variants) computed entirely in-process, and two delegated
// families (rank-based hierarchical, force-directed) that hand global
// placement to an external solver seeded with the table-order
// pre-layout. Every run ends with the same post-passes (label pinning,
// mux-cluster compaction) and writes the final position of every
// positioned element back to the session's position store, so
// subsequent incremental renders observe current coordinates.
package layout

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/schematiq/schematiq/pkg/geom"
	"github.com/schematiq/schematiq/pkg/layout/solver"
	"github.com/schematiq/schematiq/pkg/observability"
	"github.com/schematiq/schematiq/pkg/position"
	"github.com/schematiq/schematiq/pkg/scene"
)

// Algorithm selects a layout family.
type Algorithm string

const (
	// AlgorithmCompact is the deterministic two-pass layout, also the
	// fallback when a delegated solver fails.
	AlgorithmCompact Algorithm = "compact"
	// AlgorithmBrickVertical bin-packs groups into rows.
	AlgorithmBrickVertical Algorithm = "brick-vertical"
	// AlgorithmBrickHorizontal bin-packs groups into columns.
	AlgorithmBrickHorizontal Algorithm = "brick-horizontal"
	// AlgorithmHierarchical delegates to the rank-based solver.
	AlgorithmHierarchical Algorithm = "hierarchical"
	// AlgorithmForce delegates to the force-directed solver.
	AlgorithmForce Algorithm = "force"
)

// Valid reports whether the algorithm is known.
func (a Algorithm) Valid() bool {
	switch a {
	case AlgorithmCompact, AlgorithmBrickVertical, AlgorithmBrickHorizontal,
		AlgorithmHierarchical, AlgorithmForce:
		return true
	}
	return false
}

// Default placement constants for incremental renders.
var (
	// neighborDelta offsets a new element from its first positioned
	// neighbor.
	neighborDelta = geom.Point{X: 48, Y: 48}
	// defaultOrigin is where unconnected new elements land.
	defaultOrigin = geom.Point{}
)

// Options configure an Engine.
type Options struct {
	// Metrics override the default geometry. Zero value uses defaults.
	Metrics *Metrics

	// Hierarchical and Force override the delegated solvers, mainly for
	// tests. Nil constructs Graphviz-backed solvers per run.
	Hierarchical solver.Solver
	Force        solver.Solver

	// Logger receives fallback warnings. Nil discards.
	Logger *log.Logger
}

// RunOptions configure a single layout run.
type RunOptions struct {
	Algorithm Algorithm
	Direction Direction

	// Force tunes the force-directed solver. Zero values derive tuning
	// from the current metrics.
	Force solver.ForceOptions
}

// Engine computes layouts against one position store. Not safe for
// concurrent use; each session owns exactly one engine.
type Engine struct {
	store   *position.Store
	metrics Metrics
	logger  *log.Logger

	hier  solver.Solver
	force solver.Solver

	// gen invalidates stale write-backs when layout runs overlap:
	// starting a run bumps the generation, and a completed run only
	// commits if its generation is still current.
	gen uint64
}

// NewEngine creates a layout engine bound to the given store.
func NewEngine(store *position.Store, opts Options) *Engine {
	m := DefaultMetrics()
	if opts.Metrics != nil {
		m = *opts.Metrics
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Engine{
		store:   store,
		metrics: m,
		logger:  logger,
		hier:    opts.Hierarchical,
		force:   opts.Force,
	}
}

// Metrics returns the engine's current geometry.
func (e *Engine) Metrics() Metrics { return e.metrics }

// SetExtraSpacing applies the user's 0-100 spacing boost.
func (e *Engine) SetExtraSpacing(extra float64) { e.metrics.ExtraSpacing = extra }

// SetLinksHidden switches the widened spacing used when edges are not
// drawn.
func (e *Engine) SetLinksHidden(hidden bool) { e.metrics.LinksHidden = hidden }

// Run computes a full layout and writes every resulting position back
// to the store. Delegated algorithms that fail are recovered locally:
// the engine logs a warning and falls back to the compact layout, so
// Run only errors on invalid options or a stale generation.
func (e *Engine) Run(ctx context.Context, g *scene.Graph, opts RunOptions) error {
	if !opts.Algorithm.Valid() {
		return fmt.Errorf("unknown layout algorithm %q", opts.Algorithm)
	}
	dir := opts.Direction
	if dir == "" {
		dir = DirectionTB
	}
	if !dir.Valid() {
		return fmt.Errorf("unknown layout direction %q", dir)
	}

	e.gen++
	gen := e.gen
	start := time.Now()
	observability.Engine().OnLayoutStart(ctx, string(opts.Algorithm), len(g.Positioned()))

	var pos map[string]geom.Point
	switch opts.Algorithm {
	case AlgorithmCompact:
		pos = Compact(g, e.metrics, dir)
	case AlgorithmBrickVertical:
		pos = Brick(g, e.metrics, true)
	case AlgorithmBrickHorizontal:
		pos = Brick(g, e.metrics, false)
	case AlgorithmHierarchical:
		pos = e.delegate(ctx, g, dir, e.hierarchicalSolver(dir), e.recenterGroups(dir))
	case AlgorithmForce:
		pos = e.delegate(ctx, g, dir, e.forceSolver(opts.Force), nil)
	}

	err := e.commit(gen, g, pos)
	observability.Engine().OnLayoutComplete(ctx, string(opts.Algorithm), time.Since(start), err)
	return err
}

// ErrStaleRun is returned when a newer layout run superseded this one
// before it could write back.
var ErrStaleRun = fmt.Errorf("layout run superseded")

// commit enforces the write-after-layout discipline: the post-layout
// position of every positioned element is stored, unless a newer run
// has taken over in the meantime.
func (e *Engine) commit(gen uint64, g *scene.Graph, pos map[string]geom.Point) error {
	if gen != e.gen {
		e.logger.Warn("discarding stale layout result", "generation", gen)
		return ErrStaleRun
	}
	for _, el := range g.Positioned() {
		if p, ok := pos[el.ID]; ok {
			e.store.Set(el.ID, p)
		}
	}
	return nil
}

// PlaceNew assigns positions to elements the store has never seen:
// next to a connected, already-positioned neighbor at a fixed offset,
// or at the default origin when unconnected. Existing positions are
// left untouched, which is what makes re-renders of unchanged data
// idempotent.
func (e *Engine) PlaceNew(g *scene.Graph) {
	for _, el := range g.Positioned() {
		if el.Kind == scene.KindGroupLabel || e.store.Has(el.ID) {
			continue
		}
		p := defaultOrigin
		for _, n := range g.Neighbors(el.ID) {
			if np, ok := e.store.Get(n); ok {
				p = np.Add(neighborDelta.X, neighborDelta.Y)
				break
			}
		}
		e.store.Set(el.ID, p)
	}

	// Labels are derived, not connected; pin them from current member
	// boxes and store the result.
	pos := e.store.All()
	Finish(g, e.metrics, pos)
	for _, el := range g.Positioned() {
		if p, ok := pos[el.ID]; ok {
			e.store.Set(el.ID, p)
		}
	}
}

// hierarchicalSolver returns the injected solver or a dot-backed one
// tuned to current spacing.
func (e *Engine) hierarchicalSolver(dir Direction) solver.Solver {
	if e.hier != nil {
		return e.hier
	}
	return solver.NewHierarchical(solver.HierarchicalOptions{
		RankDir: string(dir),
		NodeSep: e.metrics.MemberGap(),
		RankSep: e.metrics.ContainerGap(),
	})
}

// forceSolver returns the injected solver or an fdp-backed one. When
// links are hidden the spring length widens and the iteration budget
// drops: with fewer edges to satisfy the simulation settles faster,
// and the extra room substitutes for the missing edge cues.
func (e *Engine) forceSolver(opts solver.ForceOptions) solver.Solver {
	if e.force != nil {
		return e.force
	}
	if opts.Spring == 0 {
		opts.Spring = e.metrics.NodeWidth + e.metrics.MemberGap()
		if e.metrics.LinksHidden {
			opts.Spring *= 2
		}
	}
	if opts.Iterations == 0 {
		opts.Iterations = 600
		if e.metrics.LinksHidden {
			opts.Iterations = 200
		}
	}
	return solver.NewForceDirected(opts)
}

// delegate runs a solver over the table-order seed and applies an
// optional rearrangement to its result. Any solver failure falls back
// to the compact deterministic layout with a warning.
func (e *Engine) delegate(ctx context.Context, g *scene.Graph, dir Direction, s solver.Solver, rearrange func(*scene.Graph, solver.Result) map[string]geom.Point) map[string]geom.Point {
	in := e.solverInput(g, dir)
	res, err := s.Place(ctx, in)
	if err != nil {
		e.logger.Warn("layout solver failed, falling back to compact layout",
			"solver", s.Name(), "err", err)
		return Compact(g, e.metrics, dir)
	}

	var pos map[string]geom.Point
	if rearrange != nil {
		pos = rearrange(g, res)
	} else {
		pos = make(map[string]geom.Point, len(res))
		for id, p := range res {
			pos[id] = p
		}
	}
	Finish(g, e.metrics, pos)
	return pos
}

// solverInput collects the solvable boxes (nodes and clones, labels
// excluded) with their seed positions, plus the scene edges.
func (e *Engine) solverInput(g *scene.Graph, dir Direction) solver.Input {
	seed := Seed(g, e.metrics, dir)
	var in solver.Input
	for _, el := range g.Positioned() {
		if el.Kind == scene.KindGroupLabel {
			continue
		}
		w, h := e.metrics.Size(el)
		in.Nodes = append(in.Nodes, solver.Node{
			ID:     el.ID,
			Pos:    seed[el.ID],
			Width:  w,
			Height: h,
		})
	}
	for _, ed := range g.Edges() {
		in.Edges = append(in.Edges, solver.Edge{From: ed.Source, To: ed.Target})
	}
	return in
}

// recenterGroups builds the hierarchical post-step: each container's
// members are re-packed with the compact per-group packing, centered on
// the centroid the solver gave that container. Inter-group topology is
// the solver's; local density is the compact layout's.
func (e *Engine) recenterGroups(dir Direction) func(*scene.Graph, solver.Result) map[string]geom.Point {
	horizontal := dir == DirectionTB
	return func(g *scene.Graph, res solver.Result) map[string]geom.Point {
		pos := make(map[string]geom.Point)
		for _, c := range g.Containers() {
			local := make(map[string]geom.Point)
			packContainer(g, c.ID, e.metrics, horizontal, local)

			var cx, cy float64
			var n int
			_, nodes := splitMembers(g, c.ID)
			for _, el := range nodes {
				if p, ok := res[el.ID]; ok {
					cx += p.X
					cy += p.Y
					n++
				}
			}
			if n == 0 {
				continue
			}
			centroid := geom.Point{X: cx / float64(n), Y: cy / float64(n)}

			box, ok := e.metrics.MembersBox(g, c.ID, local)
			if !ok {
				continue
			}
			dx := centroid.X - box.Center.X
			dy := centroid.Y - box.Center.Y
			for _, el := range g.Members(c.ID) {
				if p, ok := local[el.ID]; ok {
					pos[el.ID] = p.Add(dx, dy)
				}
			}
		}
		return pos
	}
}

// Package engine ties the scene builder, layout engine, position store,
// and collision resolver together behind a session façade.
//
// A Session is the explicit context object the host application owns:
// it holds the renderer binding, the position store, the camera, and
// the in-progress drag, so multiple independent diagrams can coexist
// without shared module state. Sessions are single-goroutine by
// contract, callers that share one across goroutines must serialize
// access themselves.
package engine

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/schematiq/schematiq/pkg/collide"
	"github.com/schematiq/schematiq/pkg/errors"
	"github.com/schematiq/schematiq/pkg/geom"
	"github.com/schematiq/schematiq/pkg/layout"
	"github.com/schematiq/schematiq/pkg/layout/solver"
	"github.com/schematiq/schematiq/pkg/observability"
	"github.com/schematiq/schematiq/pkg/position"
	"github.com/schematiq/schematiq/pkg/scene"
)

// Curve selects the edge rendering style. It only affects the
// renderer, the engine passes it through untouched.
type Curve string

// Edge curve styles.
const (
	CurveBasis  Curve = "basis"
	CurveLinear Curve = "linear"
	CurveStep   Curve = "step"
)

// LayoutKind names the layout applied on a fresh render.
type LayoutKind string

// Layout settings values.
const (
	LayoutForceDirected  LayoutKind = "force-directed"
	LayoutHierarchicalTB LayoutKind = "hierarchical-TB"
	LayoutHierarchicalLR LayoutKind = "hierarchical-LR"
	LayoutCompactTB      LayoutKind = "compact-TB"
	LayoutCompactLR      LayoutKind = "compact-LR"
)

// Settings carry the per-diagram display configuration.
type Settings struct {
	Direction layout.Direction `json:"direction,omitempty"`
	Curve     Curve            `json:"curve,omitempty"`
	Layout    LayoutKind       `json:"layout,omitempty"`
}

// RenderInput is everything one render call needs.
type RenderInput struct {
	Records           []scene.Record  `json:"records"`
	Settings          Settings        `json:"settings"`
	HiddenGroups      map[string]bool `json:"hidden_groups,omitempty"`
	HideUnlinkedNodes bool            `json:"hide_unlinked_nodes,omitempty"`
	HideLinkedNodes   bool            `json:"hide_linked_nodes,omitempty"`
	HideLinks         bool            `json:"hide_links,omitempty"`
	HideLinkLabels    bool            `json:"hide_link_labels,omitempty"`

	// Container names the render surface the renderer must provide.
	Container string `json:"container"`
}

// SceneHandle summarizes the result of a render call.
type SceneHandle struct {
	ID           string `json:"id"`
	Container    string `json:"container"`
	ElementCount int    `json:"element_count"`
	EdgeCount    int    `json:"edge_count"`
	Fresh        bool   `json:"fresh"`
}

// TargetKind classifies what a pointer event hit.
type TargetKind string

// Secondary-click target kinds.
const (
	TargetNode  TargetKind = "node"
	TargetGroup TargetKind = "group"
	TargetEdge  TargetKind = "edge"
)

// Target identifies the element a pointer event landed on.
type Target struct {
	Kind TargetKind
	ID   string
}

// Renderer is the external collaborator that paints scene graphs and
// pushes pointer events back into the session. The engine never polls
// it.
type Renderer interface {
	// HasContainer reports whether the named render surface exists.
	HasContainer(handle string) bool

	// Viewport returns the drawable area in canvas points.
	Viewport() (width, height float64)

	// Apply paints the scene with the given positions under the camera.
	Apply(g *scene.Graph, pos map[string]geom.Point, cam Camera) error
}

// Options configure a session.
type Options struct {
	// Metrics override the default layout geometry.
	Metrics *layout.Metrics

	// Resolver overrides collision tuning. Nil uses defaults.
	Resolver *collide.Resolver

	// Hierarchical and Force inject solvers, mainly for tests.
	Hierarchical solver.Solver
	Force        solver.Solver

	// Logger for warnings. Nil discards.
	Logger *log.Logger
}

// DefaultFitPadding is the margin FitToScreen leaves around content.
const DefaultFitPadding = 40.0

// Session is one independent diagram instance.
type Session struct {
	id       string
	renderer Renderer
	store    *position.Store
	layout   *layout.Engine
	resolver *collide.Resolver
	camera   Camera
	logger   *log.Logger

	graph *scene.Graph
	input RenderInput
	drag  *collide.Session

	onSecondary func(Target)
}

// NewSession creates a session bound to a renderer.
func NewSession(r Renderer, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	store := position.NewStore()
	resolver := opts.Resolver
	if resolver == nil {
		resolver = collide.NewResolver()
	}
	return &Session{
		id:       uuid.NewString(),
		renderer: r,
		store:    store,
		layout: layout.NewEngine(store, layout.Options{
			Metrics:      opts.Metrics,
			Hierarchical: opts.Hierarchical,
			Force:        opts.Force,
			Logger:       logger,
		}),
		resolver: resolver,
		camera:   NewCamera(),
		logger:   logger,
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Scene returns the most recently built scene graph, or nil before the
// first render.
func (s *Session) Scene() *scene.Graph { return s.graph }

// Positions returns the stored positions of the current scene.
func (s *Session) Positions() map[string]geom.Point {
	if s.graph == nil {
		return map[string]geom.Point{}
	}
	return s.store.Snapshot(s.graph)
}

// ImportPositions seeds the position store, typically from a saved
// diagram or a cached layout. A subsequent render sees a non-empty
// store and therefore runs incrementally instead of laying out fresh.
func (s *Session) ImportPositions(pos map[string]geom.Point) {
	for id, p := range pos {
		s.store.Set(id, p)
	}
}

// Render builds the scene graph from records and triggers the initial
// or incremental layout as appropriate. A fresh render (empty position
// store) runs the configured layout and fits the camera; an incremental
// one only places elements the store has never seen and leaves every
// existing position untouched.
func (s *Session) Render(ctx context.Context, in RenderInput) (*SceneHandle, error) {
	if s.renderer == nil || !s.renderer.HasContainer(in.Container) {
		return nil, errors.New(errors.ErrCodeContainerNotFound,
			"render container %q not found", in.Container)
	}

	start := time.Now()
	observability.Engine().OnBuildStart(ctx, len(in.Records))
	g := scene.Build(in.Records, scene.BuildOptions{
		HiddenGroups:   in.HiddenGroups,
		HideUnlinked:   in.HideUnlinkedNodes,
		HideLinked:     in.HideLinkedNodes,
		HideLinks:      in.HideLinks,
		HideLinkLabels: in.HideLinkLabels,
	})
	observability.Engine().OnBuildComplete(ctx, g.ElementCount(), g.EdgeCount(), time.Since(start))

	s.graph = g
	s.input = in
	s.layout.SetLinksHidden(in.HideLinks)

	fresh := s.store.Empty()
	if fresh {
		if err := s.layout.Run(ctx, g, runOptions(in.Settings)); err != nil {
			return nil, err
		}
		s.FitToScreen(DefaultFitPadding)
	} else {
		s.layout.PlaceNew(g)
	}

	if err := s.apply(); err != nil {
		return nil, err
	}
	return &SceneHandle{
		ID:           s.id,
		Container:    in.Container,
		ElementCount: g.ElementCount(),
		EdgeCount:    g.EdgeCount(),
		Fresh:        fresh,
	}, nil
}

// runOptions maps display settings to a layout run.
func runOptions(set Settings) layout.RunOptions {
	dir := set.Direction
	if dir == "" {
		dir = layout.DirectionTB
	}
	switch set.Layout {
	case LayoutForceDirected:
		return layout.RunOptions{Algorithm: layout.AlgorithmForce, Direction: dir}
	case LayoutHierarchicalTB:
		return layout.RunOptions{Algorithm: layout.AlgorithmHierarchical, Direction: layout.DirectionTB}
	case LayoutHierarchicalLR:
		return layout.RunOptions{Algorithm: layout.AlgorithmHierarchical, Direction: layout.DirectionLR}
	case LayoutCompactLR:
		return layout.RunOptions{Algorithm: layout.AlgorithmCompact, Direction: layout.DirectionLR}
	default:
		return layout.RunOptions{Algorithm: layout.AlgorithmCompact, Direction: dir}
	}
}

// apply paints the current scene through the renderer.
func (s *Session) apply() error {
	return s.renderer.Apply(s.graph, s.store.Snapshot(s.graph), s.camera)
}

// requireScene guards the layout operations that need a prior render.
func (s *Session) requireScene() error {
	if s.graph == nil {
		return errors.New(errors.ErrCodeNotFound, "no scene rendered yet")
	}
	return nil
}

// run executes one layout, refits the camera, and repaints.
func (s *Session) run(ctx context.Context, opts layout.RunOptions, clear bool) error {
	if err := s.requireScene(); err != nil {
		return err
	}
	if clear {
		s.store.Clear()
	}
	if err := s.layout.Run(ctx, s.graph, opts); err != nil {
		return err
	}
	s.FitToScreen(DefaultFitPadding)
	return s.apply()
}

// RunAutoLayout runs the deterministic compact layout. Unlike the
// other layout operations it keeps the store, so it can be invoked
// incrementally over a scene the user already adjusted.
func (s *Session) RunAutoLayout(ctx context.Context, dir layout.Direction) error {
	if !dir.Valid() {
		return errors.New(errors.ErrCodeInvalidDirection, "unknown direction %q", dir)
	}
	return s.run(ctx, layout.RunOptions{Algorithm: layout.AlgorithmCompact, Direction: dir}, false)
}

// RunHierarchicalLayout clears positions and delegates to the
// rank-based solver.
func (s *Session) RunHierarchicalLayout(ctx context.Context, dir layout.Direction) error {
	if !dir.Valid() {
		return errors.New(errors.ErrCodeInvalidDirection, "unknown direction %q", dir)
	}
	return s.run(ctx, layout.RunOptions{Algorithm: layout.AlgorithmHierarchical, Direction: dir}, true)
}

// RunForceDirectedLayout clears positions and delegates to the
// force-directed solver.
func (s *Session) RunForceDirectedLayout(ctx context.Context, opts solver.ForceOptions) error {
	return s.run(ctx, layout.RunOptions{Algorithm: layout.AlgorithmForce, Force: opts}, true)
}

// RunCompactVerticalLayout clears positions and bin-packs groups into
// rows.
func (s *Session) RunCompactVerticalLayout(ctx context.Context) error {
	return s.run(ctx, layout.RunOptions{Algorithm: layout.AlgorithmBrickVertical}, true)
}

// RunCompactHorizontalLayout clears positions and bin-packs groups
// into columns.
func (s *Session) RunCompactHorizontalLayout(ctx context.Context) error {
	return s.run(ctx, layout.RunOptions{Algorithm: layout.AlgorithmBrickHorizontal}, true)
}

// SetNodeSpacing applies the user's extra spacing in the 0-100 range.
func (s *Session) SetNodeSpacing(extra int) error {
	if extra < 0 || extra > 100 {
		return errors.New(errors.ErrCodeInvalidSpacing, "spacing %d out of range 0-100", extra)
	}
	s.layout.SetExtraSpacing(float64(extra))
	return nil
}

// VisibleNodeIDs returns the sorted IDs of drawn nodes and clones,
// excluding groups and labels. Used for filtered downstream export.
func (s *Session) VisibleNodeIDs() []string {
	if s.graph == nil {
		return nil
	}
	ids := s.graph.NodeIDs()
	sort.Strings(ids)
	return ids
}

// ClearPositions drops all stored positions, so the next render is a
// fresh layout. Used when a new dataset replaces the current one.
func (s *Session) ClearPositions() {
	s.store.Clear()
	s.drag = nil
}

// SetSecondaryClickHandler registers the host callback for
// secondary-click events on nodes, groups, and edges.
func (s *Session) SetSecondaryClickHandler(fn func(Target)) { s.onSecondary = fn }

// SecondaryClick dispatches a renderer-reported secondary click.
func (s *Session) SecondaryClick(t Target) {
	if s.onSecondary != nil {
		s.onSecondary(t)
	}
}

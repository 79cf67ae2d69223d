// Package solver delegates global 2D placement to external layout
// engines. The layout engine seeds a solver with the table-order
// pre-layout, hands it the node boxes and edges, and reads back one
// position per node; everything else (labels, cluster compaction,
// group re-centering) stays in the caller.
//
// The shipped implementation drives Graphviz: the dot engine for
// rank-based hierarchical placement and fdp for force-directed
// placement. Callers must treat every Place error as recoverable and
// fall back to the deterministic compact layout.
package solver

import (
	"context"
	"errors"

	"github.com/schematiq/schematiq/pkg/geom"
)

// ErrUnavailable is returned when the underlying engine cannot be
// initialized at all. Callers recover by falling back to the compact
// deterministic layout, the error is never fatal.
var ErrUnavailable = errors.New("layout solver unavailable")

// Node is one solvable box: the element's ID, its seed position from
// the table-order pre-layout, and its drawn dimensions.
type Node struct {
	ID            string
	Pos           geom.Point
	Width, Height float64
}

// Edge is a directed connection between two solvable nodes.
type Edge struct {
	From, To string
}

// Input is the complete problem handed to a solver.
type Input struct {
	Nodes []Node
	Edges []Edge
}

// Result maps node IDs to solved canvas positions. A solver must
// return a position for every input node.
type Result map[string]geom.Point

// Solver computes global placements for a set of boxes and edges.
type Solver interface {
	// Name identifies the solver in logs and warnings.
	Name() string

	// Place solves the input and returns one position per node.
	// Implementations should honor ctx cancellation.
	Place(ctx context.Context, in Input) (Result, error)
}

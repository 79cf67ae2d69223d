package solver

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-graphviz"
)

// points per inch, the unit Graphviz reads sizes in and writes plain
// output coordinates in.
const dpi = 72.0

// Graphviz delegates placement to a Graphviz layout engine.
type Graphviz struct {
	name   string
	engine graphviz.Layout
	attrs  map[string]string
}

// HierarchicalOptions tune the rank-based solver.
type HierarchicalOptions struct {
	// RankDir is the Graphviz rank direction, "TB" or "LR".
	RankDir string
	// NodeSep and RankSep are separations in points. Zero keeps the
	// engine defaults.
	NodeSep float64
	RankSep float64
}

// NewHierarchical returns a rank-based solver backed by the dot engine.
func NewHierarchical(opts HierarchicalOptions) *Graphviz {
	if opts.RankDir == "" {
		opts.RankDir = "TB"
	}
	attrs := map[string]string{"rankdir": opts.RankDir}
	if opts.NodeSep > 0 {
		attrs["nodesep"] = fmt.Sprintf("%.2f", opts.NodeSep/dpi)
	}
	if opts.RankSep > 0 {
		attrs["ranksep"] = fmt.Sprintf("%.2f", opts.RankSep/dpi)
	}
	return &Graphviz{name: "graphviz-dot", engine: graphviz.DOT, attrs: attrs}
}

// ForceOptions tune the force-directed solver.
type ForceOptions struct {
	// Spring is the ideal edge length in points. Zero keeps the engine
	// default.
	Spring float64
	// Iterations bounds the simulation. Zero keeps the engine default.
	Iterations int
}

// NewForceDirected returns a force-directed solver backed by the fdp
// engine. Seed positions from the input bias the otherwise organic
// result toward the caller's pre-layout.
func NewForceDirected(opts ForceOptions) *Graphviz {
	attrs := map[string]string{"start": "self"}
	if opts.Spring > 0 {
		attrs["K"] = fmt.Sprintf("%.2f", opts.Spring/dpi)
	}
	if opts.Iterations > 0 {
		attrs["maxiter"] = fmt.Sprintf("%d", opts.Iterations)
	}
	return &Graphviz{name: "graphviz-fdp", engine: graphviz.FDP, attrs: attrs}
}

// Name identifies the solver in logs.
func (s *Graphviz) Name() string { return s.name }

// Place renders the input through the configured Graphviz engine and
// parses node positions out of the plain output format.
func (s *Graphviz) Place(ctx context.Context, in Input) (Result, error) {
	if len(in.Nodes) == 0 {
		return Result{}, nil
	}
	for _, n := range in.Nodes {
		if !quoteSafe(n.ID) {
			return nil, fmt.Errorf("node ID %q cannot be DOT-quoted", n.ID)
		}
	}

	dot := s.toDOT(in)

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer gv.Close()
	gv.SetLayout(s.engine)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.Format("plain"), &buf); err != nil {
		return nil, fmt.Errorf("solve (%s): %w", s.name, err)
	}

	res, err := ParsePlain(buf.String())
	if err != nil {
		return nil, err
	}
	for _, n := range in.Nodes {
		if _, ok := res[n.ID]; !ok {
			return nil, fmt.Errorf("solver dropped node %q", n.ID)
		}
	}
	return res, nil
}

// toDOT serializes the input for Graphviz: fixed-size boxes with seed
// positions, graph attributes from the solver configuration. Attribute
// keys are emitted sorted for deterministic output.
func (s *Graphviz) toDOT(in Input) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")

	keys := make([]string, 0, len(s.attrs))
	for k := range s.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&buf, "  %s=%q;\n", k, s.attrs[k])
	}
	buf.WriteString("  node [shape=box, fixedsize=true];\n\n")

	for _, n := range in.Nodes {
		fmt.Fprintf(&buf, "  %q [width=%.3f, height=%.3f, pos=\"%.2f,%.2f\"];\n",
			n.ID, n.Width/dpi, n.Height/dpi, n.Pos.X/dpi, -n.Pos.Y/dpi)
	}

	buf.WriteString("\n")
	for _, e := range in.Edges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// quoteSafe reports whether a DOT-quoted string round-trips through the
// plain output tokenizer. IDs with embedded quotes would not.
func quoteSafe(id string) bool { return !strings.ContainsRune(id, '"') }

package solver

import (
	"math"
	"strings"
	"testing"

	"github.com/schematiq/schematiq/pkg/geom"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestHierarchicalAttrs(t *testing.T) {
	s := NewHierarchical(HierarchicalOptions{RankDir: "LR", NodeSep: 36, RankSep: 72})
	dot := s.toDOT(Input{Nodes: []Node{{ID: "a", Width: 160, Height: 40}}})

	for _, want := range []string{
		`rankdir="LR";`,
		`nodesep="0.50";`,
		`ranksep="1.00";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}

	// Default rank direction.
	s = NewHierarchical(HierarchicalOptions{})
	if dot := s.toDOT(Input{}); !strings.Contains(dot, `rankdir="TB";`) {
		t.Errorf("default DOT missing TB rankdir:\n%s", dot)
	}
}

func TestForceDirectedAttrs(t *testing.T) {
	s := NewForceDirected(ForceOptions{Spring: 144, Iterations: 300})
	dot := s.toDOT(Input{})

	for _, want := range []string{
		`start="self";`,
		`K="2.00";`,
		`maxiter="300";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTNodesAndEdges(t *testing.T) {
	s := NewHierarchical(HierarchicalOptions{})
	dot := s.toDOT(Input{
		Nodes: []Node{
			{ID: "Power/Rail MUX", Pos: geom.Point{X: 72, Y: 144}, Width: 160, Height: 40},
			{ID: "b", Width: 160, Height: 40},
		},
		Edges: []Edge{{From: "Power/Rail MUX", To: "b"}},
	})

	// IDs with spaces are quoted; seed Y flips sign for Graphviz's
	// upward axis.
	if !strings.Contains(dot, `"Power/Rail MUX" [width=2.222, height=0.556, pos="1.00,-2.00"];`) {
		t.Errorf("node line missing:\n%s", dot)
	}
	if !strings.Contains(dot, `"Power/Rail MUX" -> "b";`) {
		t.Errorf("edge line missing:\n%s", dot)
	}
}

func TestParsePlain(t *testing.T) {
	out := strings.Join([]string{
		"graph 1.0 4.0 3.0",
		`node a 1.0 2.5 2.222 0.556 "a" solid box black white`,
		`node "with space" 2.0 1.0 2.222 0.556 "x" solid box black white`,
		"edge a b 2 1.0 2.0 2.0 1.0 solid black",
		"stop",
	}, "\n")

	res, err := ParsePlain(out)
	if err != nil {
		t.Fatalf("ParsePlain: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("nodes = %d, want 2", len(res))
	}

	// Inches scale by 72; Y counts down from the graph height.
	if p := res["a"]; !almostEqual(p.X, 72) || !almostEqual(p.Y, (3.0-2.5)*72) {
		t.Errorf("a = %+v", p)
	}
	if p := res["with space"]; !almostEqual(p.X, 144) || !almostEqual(p.Y, 144) {
		t.Errorf("with space = %+v", p)
	}
}

func TestParsePlainErrors(t *testing.T) {
	if _, err := ParsePlain("graph 1.0 4.0"); err == nil {
		t.Error("truncated graph line should error")
	}
	if _, err := ParsePlain("graph 1.0 4.0 3.0\nnode a 1.0 oops"); err == nil {
		t.Error("non-numeric coordinate should error")
	}
	if _, err := ParsePlain(`node "unterminated 1.0 2.0`); err == nil {
		t.Error("unterminated quote should error")
	}
}

func TestQuoteSafe(t *testing.T) {
	if !quoteSafe("Power/Rail MUX") {
		t.Error("spaces and slashes are fine")
	}
	if quoteSafe(`a"b`) {
		t.Error("embedded quotes cannot round-trip")
	}
}

package collide

import (
	"math"
	"testing"

	"github.com/schematiq/schematiq/pkg/geom"
)

func rect(x, y float64) geom.Rect {
	return geom.RectAt(geom.Point{X: x, Y: y}, 40, 20)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestResolveNoViolations(t *testing.T) {
	r := NewResolver()
	sess := NewSession("d")
	rects := map[string]geom.Rect{
		"d": rect(0, 0),
		"a": rect(200, 0),
	}

	res := r.Resolve(sess, rects)
	if len(res.Moved) != 0 {
		t.Errorf("moved = %v, want none", res.Moved)
	}
	if res.Iterations != 1 || res.CeilingHit {
		t.Errorf("iterations = %d, ceiling = %v", res.Iterations, res.CeilingHit)
	}
}

func TestResolvePushesToExactPadding(t *testing.T) {
	r := NewResolver()
	sess := NewSession("d")
	rects := map[string]geom.Rect{
		"d": rect(0, 0),
		"a": rect(44, 0), // horizontal gap 4, under the 12 padding
	}

	res := r.Resolve(sess, rects)
	p, ok := res.Moved["a"]
	if !ok {
		t.Fatal("neighbor should have been pushed")
	}
	if !almostEqual(p.X, 52) || !almostEqual(p.Y, 0) {
		t.Errorf("pushed to %+v, want (52, 0)", p)
	}
	if g := rects["d"].Gap(rects["a"]); !almostEqual(g, r.Padding) {
		t.Errorf("gap after push = %v, want exactly %v", g, r.Padding)
	}
	if _, ok := res.Moved["d"]; ok {
		t.Error("the dragged element must never move")
	}
}

func TestResolvePicksSmallerAxis(t *testing.T) {
	r := NewResolver()
	sess := NewSession("d")
	// Vertical shift of 2 restores padding; horizontal would need 52.
	rects := map[string]geom.Rect{
		"d": rect(0, 0),
		"a": rect(0, 30),
	}

	res := r.Resolve(sess, rects)
	p, ok := res.Moved["a"]
	if !ok {
		t.Fatal("neighbor should have been pushed")
	}
	if !almostEqual(p.X, 0) || !almostEqual(p.Y, 32) {
		t.Errorf("pushed to %+v, want (0, 32)", p)
	}
}

func TestResolvePushesNeighborOncePerDrag(t *testing.T) {
	r := NewResolver()
	sess := NewSession("d")

	// First step: too close, gets pushed.
	rects := map[string]geom.Rect{"d": rect(0, 0), "a": rect(44, 0)}
	res := r.Resolve(sess, rects)
	if _, ok := res.Moved["a"]; !ok {
		t.Fatal("first encounter should push")
	}
	if !sess.Pushed("a") {
		t.Error("neighbor should be recorded as pushed")
	}

	// Next step: dragged closes in again but does not overlap. The
	// neighbor already yielded once, so it stays put.
	rects = map[string]geom.Rect{"d": rect(4, 0), "a": rect(52, 0)}
	res = r.Resolve(sess, rects)
	if len(res.Moved) != 0 {
		t.Errorf("too-close neighbor pushed twice: %v", res.Moved)
	}

	// A true overlap always resolves, pushed or not.
	rects = map[string]geom.Rect{"d": rect(20, 0), "a": rect(52, 0)}
	res = r.Resolve(sess, rects)
	p, ok := res.Moved["a"]
	if !ok {
		t.Fatal("overlap must always resolve")
	}
	if !almostEqual(p.X, 72) {
		t.Errorf("pushed to %+v, want x=72", p)
	}
}

func TestResolveCascadesThroughNeighbors(t *testing.T) {
	r := NewResolver()
	sess := NewSession("d")
	rects := map[string]geom.Rect{
		"d": rect(0, 0),
		"a": rect(44, 0),
		"b": rect(96, 0),
	}

	res := r.Resolve(sess, rects)
	if res.CeilingHit {
		t.Fatal("cascade should converge")
	}
	// The drag pushes a into b; b is displaced in turn, never a back.
	if p := res.Moved["a"]; !almostEqual(p.X, 52) {
		t.Errorf("a at %+v, want x=52", p)
	}
	if p := res.Moved["b"]; !almostEqual(p.X, 104) {
		t.Errorf("b at %+v, want x=104", p)
	}
	for _, pair := range [][2]string{{"d", "a"}, {"a", "b"}, {"d", "b"}} {
		if g := rects[pair[0]].Gap(rects[pair[1]]); g < r.Padding-epsilon {
			t.Errorf("gap %s-%s = %v, want >= %v", pair[0], pair[1], g, r.Padding)
		}
	}
}

func TestResolvePairSplitsEvenly(t *testing.T) {
	r := NewResolver()
	sess := NewSession("far")
	rects := map[string]geom.Rect{
		"far": rect(1000, 1000),
		"a":   rect(0, 0),
		"b":   rect(44, 0),
	}

	res := r.Resolve(sess, rects)
	pa, pb := res.Moved["a"], res.Moved["b"]
	if !almostEqual(pa.X, -4) || !almostEqual(pb.X, 48) {
		t.Errorf("split = %+v / %+v, want x=-4 / x=48", pa, pb)
	}
	if g := rects["a"].Gap(rects["b"]); !almostEqual(g, r.Padding) {
		t.Errorf("gap after split = %v, want %v", g, r.Padding)
	}
}

func TestResolveIterationCeiling(t *testing.T) {
	r := &Resolver{Padding: 12, MaxIterations: 1}
	sess := NewSession("d")
	rects := map[string]geom.Rect{
		"d": rect(0, 0),
		"a": rect(10, 0),
		"b": rect(20, 0),
	}

	res := r.Resolve(sess, rects)
	if !res.CeilingHit {
		t.Error("expected the iteration bound to be reported")
	}
	if res.Iterations != 1 {
		t.Errorf("iterations = %d, want 1", res.Iterations)
	}
}

func TestResolvePassiveOnlyAgainstDragged(t *testing.T) {
	r := NewResolver()
	sess := NewSession("d")
	sess.MarkPassive("label")
	sess.MarkPassive("far-label")

	rects := map[string]geom.Rect{
		"d":         rect(0, 0),
		"label":     rect(10, 0), // overlaps the dragged element
		"c":         rect(200, 0),
		"far-label": rect(204, 0), // overlaps c, but neither is dragged
	}
	res := r.Resolve(sess, rects)

	// The dragged element pushes a passive rect to exact padding.
	if _, ok := res.Moved["label"]; !ok {
		t.Fatal("overlapped passive rect should be pushed")
	}
	if g := rects["d"].Gap(rects["label"]); !almostEqual(g, r.Padding) {
		t.Errorf("gap to pushed label = %v, want %v", g, r.Padding)
	}

	// Violations among non-dragged elements leave passive rects alone.
	if _, ok := res.Moved["far-label"]; ok {
		t.Error("passive rect should not resolve against non-dragged elements")
	}
	if _, ok := res.Moved["c"]; ok {
		t.Error("element paired only with a passive rect should not move")
	}
	if res.CeilingHit {
		t.Error("skipped passive pairs must not count as violations")
	}
}

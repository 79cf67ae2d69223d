package render

import (
	"strings"
	"testing"

	"github.com/schematiq/schematiq/pkg/engine"
	"github.com/schematiq/schematiq/pkg/geom"
	"github.com/schematiq/schematiq/pkg/layout"
	"github.com/schematiq/schematiq/pkg/scene"
)

func buildScene(t *testing.T, records []scene.Record) (*scene.Graph, map[string]geom.Point) {
	t.Helper()
	g := scene.Build(records, scene.BuildOptions{})
	pos := layout.Compact(g, layout.DefaultMetrics(), layout.DirectionTB)
	return g, pos
}

func TestRenderSVGEmptyScene(t *testing.T) {
	g := scene.Build(nil, scene.BuildOptions{})
	out := string(RenderSVG(g, map[string]geom.Point{}))
	if !strings.Contains(out, "<svg") {
		t.Errorf("output = %q", out)
	}
}

func TestRenderSVGDrawsScene(t *testing.T) {
	g, pos := buildScene(t, []scene.Record{
		{Group: "Power", Node: "PSU", ID: "Power/PSU", LinkedID: "Control/MCU", LinkLabel: "5V", LinkArrow: scene.ArrowTo},
		{Group: "Control", Node: "MCU", ID: "Control/MCU"},
		{Group: "Control", Node: "Spare", ID: "Control/Spare"},
	})
	out := string(RenderSVG(g, pos))

	// Group borders, dashed.
	if strings.Count(out, `stroke-dasharray="6 4"`) != 2 {
		t.Errorf("group borders = %d, want 2", strings.Count(out, `stroke-dasharray="6 4"`))
	}
	// Node labels and group labels.
	for _, want := range []string{">PSU</text>", ">MCU</text>", ">Power</text>", ">Control</text>"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s", want)
		}
	}
	// Linked nodes use the accent stroke, unlinked ones do not.
	if strings.Count(out, `stroke="#4078c0"`) != 2 {
		t.Errorf("linked strokes = %d, want 2", strings.Count(out, `stroke="#4078c0"`))
	}
	// One edge with an arrowhead and a midpoint label.
	if !strings.Contains(out, `marker-end="url(#arrow)"`) {
		t.Error("missing arrow marker")
	}
	if !strings.Contains(out, ">5V</text>") {
		t.Error("missing link label")
	}
}

func TestRenderSVGHidesLinkLabels(t *testing.T) {
	g, pos := buildScene(t, []scene.Record{
		{Group: "A", Node: "x", ID: "A/x", LinkedID: "B/y", LinkLabel: "bus"},
		{Group: "B", Node: "y", ID: "B/y"},
	})
	out := string(RenderSVG(g, pos, WithoutLinkLabels()))
	if strings.Contains(out, ">bus</text>") {
		t.Error("link label should be suppressed")
	}
	if !strings.Contains(out, "<path") {
		t.Error("edge path should still draw")
	}
}

func TestRenderSVGHonorsSceneLinkLabelFlag(t *testing.T) {
	records := []scene.Record{
		{Group: "A", Node: "x", ID: "A/x", LinkedID: "B/y", LinkLabel: "bus"},
		{Group: "B", Node: "y", ID: "B/y"},
	}
	g := scene.Build(records, scene.BuildOptions{HideLinkLabels: true})
	pos := layout.Compact(g, layout.DefaultMetrics(), layout.DirectionTB)

	// The scene carries the flag; no renderer option needed.
	out := string(RenderSVG(g, pos))
	if strings.Contains(out, ">bus</text>") {
		t.Error("scene-level flag should suppress the link label")
	}
	if !strings.Contains(out, "<path") {
		t.Error("edge path should still draw")
	}
}

func TestRenderSVGMuxCluster(t *testing.T) {
	g, pos := buildScene(t, []scene.Record{
		{Group: "Power", Node: "Rail MUX", ID: "Power/Rail MUX", LinkedID: "Control/MCU"},
		{Group: "Control", Node: "MCU", ID: "Control/MCU"},
	})
	out := string(RenderSVG(g, pos))

	// Clusters get the tighter dash and the clone gets the muted fill.
	if !strings.Contains(out, `stroke-dasharray="2 3"`) {
		t.Error("missing cluster border")
	}
	if !strings.Contains(out, `fill="#f3f3f3"`) {
		t.Error("missing clone fill")
	}
}

func TestRenderSVGCurves(t *testing.T) {
	g, pos := buildScene(t, []scene.Record{
		{Group: "A", Node: "x", ID: "A/x", LinkedID: "B/y"},
		{Group: "B", Node: "y", ID: "B/y"},
	})

	if out := string(RenderSVG(g, pos, WithCurve("basis"))); !strings.Contains(out, " Q ") {
		t.Error("basis curve should emit a quadratic path")
	}
	out := string(RenderSVG(g, pos, WithCurve("step")))
	body := out[strings.Index(out, "</defs>"):] // the marker path also uses L commands
	if strings.Count(body, " L ") != 3 {
		t.Errorf("step segments = %d, want 3", strings.Count(body, " L "))
	}
}

func TestRenderSVGEscapesText(t *testing.T) {
	g, pos := buildScene(t, []scene.Record{
		{Group: "A", Node: "R<1> & co", ID: "A/r"},
	})
	out := string(RenderSVG(g, pos))
	if !strings.Contains(out, "R&lt;1&gt; &amp; co") {
		t.Error("labels should be XML-escaped")
	}
	if strings.Contains(out, "R<1>") {
		t.Error("raw markup leaked into the output")
	}
}

func TestSurfaceRetainsLatest(t *testing.T) {
	s := NewSurface("canvas", 1600, 1000)
	if !s.HasContainer("canvas") || s.HasContainer("other") {
		t.Error("container handle mismatch")
	}
	if w, h := s.Viewport(); w != 1600 || h != 1000 {
		t.Errorf("viewport = %vx%v", w, h)
	}
	if s.Latest() != nil {
		t.Error("no artifact before first Apply")
	}

	g, pos := buildScene(t, []scene.Record{{Group: "A", Node: "x", ID: "A/x"}})
	if err := s.Apply(g, pos, engine.Camera{}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !strings.Contains(string(s.Latest()), ">x</text>") {
		t.Error("latest artifact should contain the scene")
	}
}

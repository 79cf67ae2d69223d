// Package render turns a positioned scene graph into output artifacts.
// The SVG sink is the reference renderer: every element kind the scene
// builder emits has a visual here, and the server and CLI both ship
// its output.
package render

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/schematiq/schematiq/pkg/geom"
	"github.com/schematiq/schematiq/pkg/layout"
	"github.com/schematiq/schematiq/pkg/scene"
)

// groupPad is the margin between a container border and its members.
const groupPad = 12.0

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	metrics        layout.Metrics
	curve          string
	hideLinkLabels bool
}

// WithMetrics overrides the geometry used for element sizing.
func WithMetrics(m layout.Metrics) SVGOption { return func(r *svgRenderer) { r.metrics = m } }

// WithCurve selects the edge style: "linear", "basis", or "step".
func WithCurve(curve string) SVGOption { return func(r *svgRenderer) { r.curve = curve } }

// WithoutLinkLabels suppresses edge label text.
func WithoutLinkLabels() SVGOption { return func(r *svgRenderer) { r.hideLinkLabels = true } }

// RenderSVG draws the scene at the given positions. Elements without a
// stored position are skipped, so a partially laid out scene still
// renders.
func RenderSVG(g *scene.Graph, pos map[string]geom.Point, opts ...SVGOption) []byte {
	r := svgRenderer{metrics: layout.DefaultMetrics(), curve: "linear"}
	for _, opt := range opts {
		opt(&r)
	}

	box, ok := r.metrics.SceneBox(g, pos)
	if !ok {
		return []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 1 1"/>`)
	}
	// Margin around content.
	box.Width += 4 * groupPad
	box.Height += 4 * groupPad

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		box.Left(), box.Top(), box.Width, box.Height, box.Width, box.Height)
	renderDefs(&buf)

	r.renderContainers(&buf, g, pos)
	r.renderEdges(&buf, g, pos)
	r.renderNodes(&buf, g, pos)

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderDefs(buf *bytes.Buffer) {
	buf.WriteString(`  <defs>
    <marker id="arrow" viewBox="0 0 10 10" refX="9" refY="5" markerWidth="7" markerHeight="7" orient="auto-start-reverse">
      <path d="M 0 0 L 10 5 L 0 10 z" fill="#555"/>
    </marker>
  </defs>
`)
}

// renderContainers draws group and cluster borders behind everything
// else, sorted by ID for stable output.
func (r *svgRenderer) renderContainers(buf *bytes.Buffer, g *scene.Graph, pos map[string]geom.Point) {
	containers := g.Containers()
	slices.SortFunc(containers, func(a, b *scene.Element) int {
		return cmp.Compare(a.ID, b.ID)
	})
	for _, c := range containers {
		box, ok := r.metrics.MembersBox(g, c.ID, pos)
		if !ok {
			continue
		}
		dash := "6 4"
		if c.Kind == scene.KindMuxCluster {
			dash = "2 3"
		}
		fmt.Fprintf(buf,
			`  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="6" fill="none" stroke="#999" stroke-dasharray="%s"/>`+"\n",
			box.Left()-groupPad, box.Top()-groupPad,
			box.Width+2*groupPad, box.Height+2*groupPad, dash)
	}
}

// renderNodes draws labels, nodes, and clones.
func (r *svgRenderer) renderNodes(buf *bytes.Buffer, g *scene.Graph, pos map[string]geom.Point) {
	els := g.Positioned()
	slices.SortFunc(els, func(a, b *scene.Element) int {
		return cmp.Compare(a.ID, b.ID)
	})
	for _, el := range els {
		p, ok := pos[el.ID]
		if !ok {
			continue
		}
		w, h := r.metrics.Size(el)
		switch el.Kind {
		case scene.KindGroupLabel:
			fmt.Fprintf(buf,
				`  <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle" font-size="13" font-weight="bold" fill="#333">%s</text>`+"\n",
				p.X, p.Y, escape(el.Label))
		case scene.KindNode, scene.KindMuxClone:
			fill := "#fff"
			if el.Kind == scene.KindMuxClone {
				fill = "#f3f3f3"
			}
			stroke := "#888"
			if el.Linked {
				stroke = "#4078c0"
			}
			fmt.Fprintf(buf,
				`  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="4" fill="%s" stroke="%s"/>`+"\n",
				p.X-w/2, p.Y-h/2, w, h, fill, stroke)
			fmt.Fprintf(buf,
				`  <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle" font-size="12">%s</text>`+"\n",
				p.X, p.Y, escape(el.Label))
		}
	}
}

// renderEdges draws links between element centers with the configured
// curve and arrowheads.
func (r *svgRenderer) renderEdges(buf *bytes.Buffer, g *scene.Graph, pos map[string]geom.Point) {
	edges := slices.Clone(g.Edges())
	slices.SortFunc(edges, func(a, b scene.Edge) int {
		return cmp.Compare(a.ID, b.ID)
	})
	for _, e := range edges {
		src, okS := pos[e.Source]
		dst, okD := pos[e.Target]
		if !okS || !okD {
			continue
		}
		markers := ""
		switch e.Arrow {
		case scene.ArrowTo:
			markers = ` marker-end="url(#arrow)"`
		case scene.ArrowFrom:
			markers = ` marker-start="url(#arrow)"`
		case scene.ArrowBoth:
			markers = ` marker-start="url(#arrow)" marker-end="url(#arrow)"`
		}
		fmt.Fprintf(buf, `  <path d="%s" fill="none" stroke="#555"%s/>`+"\n",
			r.edgePath(src, dst), markers)

		if e.Label != "" && !r.hideLinkLabels && !g.LinkLabelsHidden() {
			mx, my := (src.X+dst.X)/2, (src.Y+dst.Y)/2
			fmt.Fprintf(buf,
				`  <text x="%.1f" y="%.1f" text-anchor="middle" font-size="10" fill="#777">%s</text>`+"\n",
				mx, my-4, escape(e.Label))
		}
	}
}

// edgePath builds the SVG path between two centers.
func (r *svgRenderer) edgePath(a, b geom.Point) string {
	switch r.curve {
	case "step":
		my := (a.Y + b.Y) / 2
		return fmt.Sprintf("M %.1f %.1f L %.1f %.1f L %.1f %.1f L %.1f %.1f",
			a.X, a.Y, a.X, my, b.X, my, b.X, b.Y)
	case "basis":
		// Quadratic bend perpendicular to the segment midpoint.
		mx, my := (a.X+b.X)/2, (a.Y+b.Y)/2
		dx, dy := b.X-a.X, b.Y-a.Y
		return fmt.Sprintf("M %.1f %.1f Q %.1f %.1f %.1f %.1f",
			a.X, a.Y, mx-dy*0.15, my+dx*0.15, b.X, b.Y)
	default:
		return fmt.Sprintf("M %.1f %.1f L %.1f %.1f", a.X, a.Y, b.X, b.Y)
	}
}

func escape(s string) string {
	return strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	).Replace(s)
}

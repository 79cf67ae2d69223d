package layout

import (
	"github.com/schematiq/schematiq/pkg/geom"
	"github.com/schematiq/schematiq/pkg/scene"
)

// Finish runs the post-passes every layout variant ends with: group
// labels are pinned over the top-left corner of their members' bounding
// box, and mux clusters are re-compacted so the label sits directly
// above the single clone with a minimal fixed gap. Labels never
// participate in collision bookkeeping, so their placement is purely
// derived. Mux clusters never grow, unlike regular groups.
func Finish(g *scene.Graph, m Metrics, pos map[string]geom.Point) {
	for _, c := range g.Containers() {
		if c.Kind == scene.KindMuxCluster {
			compactCluster(g, c.ID, m, pos)
			continue
		}
		label, nodes := splitMembers(g, c.ID)
		if label != nil {
			placeLabel(label, nodes, m, pos)
		}
	}
}

// placeLabel centers the label over the top-left corner of the member
// bounding box, one label gap above it.
func placeLabel(label *scene.Element, nodes []*scene.Element, m Metrics, pos map[string]geom.Point) {
	var rects []geom.Rect
	for _, e := range nodes {
		if p, ok := pos[e.ID]; ok {
			rects = append(rects, m.RectOf(e, p))
		}
	}
	box, ok := geom.BoundingBox(rects)
	if !ok {
		return
	}
	lw, lh := m.Size(label)
	pos[label.ID] = geom.Point{
		X: box.Left() + lw/2,
		Y: box.Top() - m.LabelGap - lh/2,
	}
}

// compactCluster pins a mux cluster's label centered directly above its
// clone. The clone keeps its position; only the label moves.
func compactCluster(g *scene.Graph, cid string, m Metrics, pos map[string]geom.Point) {
	label, nodes := splitMembers(g, cid)
	if label == nil || len(nodes) == 0 {
		return
	}
	clone := nodes[0]
	p, ok := pos[clone.ID]
	if !ok {
		return
	}
	_, ch := m.Size(clone)
	_, lh := m.Size(label)
	pos[label.ID] = geom.Point{
		X: p.X,
		Y: p.Y - ch/2 - m.LabelGap - lh/2,
	}
}

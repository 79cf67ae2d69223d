package layout

import (
	"github.com/schematiq/schematiq/pkg/geom"
	"github.com/schematiq/schematiq/pkg/scene"
)

// Compact computes the deterministic two-pass layout.
//
// Pass 1 packs each container locally: member nodes along the primary
// axis at minimum spacing, centered on a local origin, with the label
// over the top-left corner of the member run. Pass 2 stacks the
// containers along the secondary axis using the actual post-pass-1
// bounding boxes, label included. Measuring after placement is what
// guarantees zero overlap without iterative repair; box-size estimates
// made before the label exists undercount the needed space.
//
// Compact is also the fallback when a delegated solver fails.
func Compact(g *scene.Graph, m Metrics, dir Direction) map[string]geom.Point {
	pos := make(map[string]geom.Point)
	horizontal := dir == DirectionTB

	for _, c := range g.Containers() {
		packContainer(g, c.ID, m, horizontal, pos)
	}

	stackContainers(g, m, horizontal, pos)
	Finish(g, m, pos)
	return pos
}

// packContainer lays out one container's members around a local origin
// and records their positions in pos.
func packContainer(g *scene.Graph, cid string, m Metrics, horizontal bool, pos map[string]geom.Point) {
	label, nodes := splitMembers(g, cid)
	if len(nodes) == 0 {
		if label != nil {
			pos[label.ID] = geom.Point{}
		}
		return
	}

	gap := m.MemberGap()
	var extent float64
	for i, e := range nodes {
		w, h := m.Size(e)
		if horizontal {
			extent += w
		} else {
			extent += h
		}
		if i > 0 {
			extent += gap
		}
	}

	cursor := -extent / 2
	for _, e := range nodes {
		w, h := m.Size(e)
		if horizontal {
			pos[e.ID] = geom.Point{X: cursor + w/2, Y: 0}
			cursor += w + gap
		} else {
			pos[e.ID] = geom.Point{X: 0, Y: cursor + h/2}
			cursor += h + gap
		}
	}

	if label != nil {
		placeLabel(label, nodes, m, pos)
	}
}

// stackContainers shifts each container so the boxes follow one another
// along the secondary axis with the configured gap, aligned at a common
// leading edge on the primary axis.
func stackContainers(g *scene.Graph, m Metrics, horizontal bool, pos map[string]geom.Point) {
	var cursor float64
	for _, c := range g.Containers() {
		box, ok := m.MembersBox(g, c.ID, pos)
		if !ok {
			continue
		}
		var dx, dy float64
		if horizontal {
			dx = -box.Left()
			dy = cursor - box.Top()
			cursor += box.Height + m.ContainerGap()
		} else {
			dx = cursor - box.Left()
			dy = -box.Top()
			cursor += box.Width + m.ContainerGap()
		}
		shiftMembers(g, c.ID, dx, dy, pos)
	}
}

// splitMembers separates a container's label from its drawn members.
func splitMembers(g *scene.Graph, cid string) (label *scene.Element, nodes []*scene.Element) {
	for _, e := range g.Members(cid) {
		if e.Kind == scene.KindGroupLabel {
			label = e
			continue
		}
		nodes = append(nodes, e)
	}
	return label, nodes
}

// shiftMembers translates every positioned member of a container.
func shiftMembers(g *scene.Graph, cid string, dx, dy float64, pos map[string]geom.Point) {
	for _, e := range g.Members(cid) {
		if p, ok := pos[e.ID]; ok {
			pos[e.ID] = p.Add(dx, dy)
		}
	}
}

package layout

import (
	"github.com/schematiq/schematiq/pkg/geom"
	"github.com/schematiq/schematiq/pkg/scene"
)

// Seed computes the table-order pre-layout used to bias delegated
// solvers toward the user's original row order: containers in display
// order along the primary axis, members in table order along the
// secondary axis. The grid is coarse, it only has to break solver ties
// predictably, not look good.
func Seed(g *scene.Graph, m Metrics, dir Direction) map[string]geom.Point {
	pos := make(map[string]geom.Point)
	memberStep := m.NodeWidth + m.MemberGap()
	groupStep := m.NodeHeight + m.ContainerGap()

	for gi, c := range g.Containers() {
		for mi, e := range g.Members(c.ID) {
			if dir == DirectionTB {
				pos[e.ID] = geom.Point{X: float64(mi) * memberStep, Y: float64(gi) * groupStep}
			} else {
				pos[e.ID] = geom.Point{X: float64(gi) * groupStep, Y: float64(mi) * memberStep}
			}
		}
	}
	return pos
}

package layout

import (
	"math"

	"github.com/schematiq/schematiq/pkg/geom"
	"github.com/schematiq/schematiq/pkg/scene"
)

// Brick computes a greedy bin-packed layout of whole containers. The
// vertical variant fills rows left to right and stacks them downward;
// the horizontal variant fills columns top to bottom and stacks them
// rightward. Members inside a container run along the opposite axis
// from the bin direction, which keeps individual bricks flat.
//
// The target row/column extent is sqrt of the summed container area,
// biasing the result toward a square aspect ratio: containers are
// appended to the current bin until adding the next one would exceed
// the target, then a new bin starts.
func Brick(g *scene.Graph, m Metrics, vertical bool) map[string]geom.Point {
	pos := make(map[string]geom.Point)

	for _, c := range g.Containers() {
		packContainer(g, c.ID, m, vertical, pos)
	}

	containers := g.Containers()
	boxes := make(map[string]geom.Rect, len(containers))
	var totalArea float64
	for _, c := range containers {
		if box, ok := m.MembersBox(g, c.ID, pos); ok {
			boxes[c.ID] = box
			totalArea += box.Area()
		}
	}
	target := math.Sqrt(totalArea)
	gap := m.ContainerGap()

	var along, across, binDepth float64
	for _, c := range containers {
		box, ok := boxes[c.ID]
		if !ok {
			continue
		}
		extent := box.Width
		depth := box.Height
		if !vertical {
			extent = box.Height
			depth = box.Width
		}
		if along > 0 && along+extent > target {
			across += binDepth + gap
			along = 0
			binDepth = 0
		}
		if vertical {
			shiftMembers(g, c.ID, along-box.Left(), across-box.Top(), pos)
		} else {
			shiftMembers(g, c.ID, across-box.Left(), along-box.Top(), pos)
		}
		along += extent + gap
		if depth > binDepth {
			binDepth = depth
		}
	}

	Finish(g, m, pos)
	return pos
}

package layout

import (
	"github.com/schematiq/schematiq/pkg/geom"
	"github.com/schematiq/schematiq/pkg/scene"
)

// Direction selects the primary layout axis.
type Direction string

const (
	// DirectionTB stacks groups top-to-bottom with members in rows.
	DirectionTB Direction = "TB"
	// DirectionLR stacks groups left-to-right with members in columns.
	DirectionLR Direction = "LR"
)

// Valid reports whether the direction is one of TB or LR.
func (d Direction) Valid() bool { return d == DirectionTB || d == DirectionLR }

// Metrics holds the geometry constants every layout shares: element
// dimensions and the spacing knobs the user can widen.
type Metrics struct {
	NodeWidth   float64 // drawn node width
	NodeHeight  float64 // drawn node height
	LabelChar   float64 // estimated glyph width for label sizing
	LabelHeight float64

	NodeGap  float64 // minimum spacing between members of a group
	GroupGap float64 // gap between stacked group bounding boxes
	LabelGap float64 // gap between a label and its members

	// ExtraSpacing is the user's 0-100 spacing boost, added to member
	// and group gaps proportionally.
	ExtraSpacing float64

	// LinksHidden widens spacing: with no edges drawn there is no
	// visual cue tying neighbors together, so crowding reads as noise.
	LinksHidden bool
}

// DefaultMetrics returns the engine's standard geometry.
func DefaultMetrics() Metrics {
	return Metrics{
		NodeWidth:   160,
		NodeHeight:  40,
		LabelChar:   8,
		LabelHeight: 22,
		NodeGap:     24,
		GroupGap:    48,
		LabelGap:    8,
	}
}

// MemberGap returns the effective spacing between group members.
func (m Metrics) MemberGap() float64 {
	gap := m.NodeGap + m.ExtraSpacing
	if m.LinksHidden {
		gap *= 1.5
	}
	return gap
}

// ContainerGap returns the effective spacing between group boxes.
func (m Metrics) ContainerGap() float64 {
	gap := m.GroupGap + 2*m.ExtraSpacing
	if m.LinksHidden {
		gap *= 1.5
	}
	return gap
}

// Size returns the drawn dimensions of a positioned element.
// Containers have no intrinsic size; they derive extent from children.
func (m Metrics) Size(e *scene.Element) (w, h float64) {
	switch e.Kind {
	case scene.KindGroupLabel:
		w = float64(len(e.Label)) * m.LabelChar
		if w < m.NodeWidth/2 {
			w = m.NodeWidth / 2
		}
		return w, m.LabelHeight
	default:
		return m.NodeWidth, m.NodeHeight
	}
}

// RectOf builds the bounding rectangle of an element centered at p.
func (m Metrics) RectOf(e *scene.Element, p geom.Point) geom.Rect {
	w, h := m.Size(e)
	return geom.RectAt(p, w, h)
}

// MembersBox returns the bounding box of a container's members under
// the given positions, and false when no member has a position yet.
func (m Metrics) MembersBox(g *scene.Graph, containerID string, pos map[string]geom.Point) (geom.Rect, bool) {
	var rects []geom.Rect
	for _, e := range g.Members(containerID) {
		if p, ok := pos[e.ID]; ok {
			rects = append(rects, m.RectOf(e, p))
		}
	}
	return geom.BoundingBox(rects)
}

// SceneBox returns the bounding box of every positioned element.
func (m Metrics) SceneBox(g *scene.Graph, pos map[string]geom.Point) (geom.Rect, bool) {
	var rects []geom.Rect
	for _, e := range g.Positioned() {
		if p, ok := pos[e.ID]; ok {
			rects = append(rects, m.RectOf(e, p))
		}
	}
	return geom.BoundingBox(rects)
}

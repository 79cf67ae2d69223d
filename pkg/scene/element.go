package scene

// ElementKind distinguishes the variants of a scene element.
type ElementKind int

const (
	// KindGroup is a compound container, one per distinct group name.
	KindGroup ElementKind = iota
	// KindGroupLabel is the virtual first child of a container carrying
	// its visible title.
	KindGroupLabel
	// KindNode is a regular node backed by one visible record.
	KindNode
	// KindMuxClone is a rendering stand-in for a multiplexer inside one
	// destination-scoped cluster.
	KindMuxClone
	// KindMuxCluster is a compact container holding exactly one label
	// and one clone. Unlike regular groups it never grows.
	KindMuxCluster
)

// String returns the kind's lowercase name for logs and serialization.
func (k ElementKind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindGroupLabel:
		return "label"
	case KindNode:
		return "node"
	case KindMuxClone:
		return "muxclone"
	case KindMuxCluster:
		return "muxcluster"
	}
	return "unknown"
}

// Element is one entry of the scene graph. Which fields are meaningful
// depends on Kind:
//
//	Group:      ID, Label (group name), Order
//	GroupLabel: ID, Parent, Label
//	Node:       ID (record ID), Parent, Label, Linked
//	MuxClone:   ID, Parent (cluster), Label, OriginalID (record ID)
//	MuxCluster: ID, Label (origin group name), OriginGroup, DestGroup, Order
type Element struct {
	ID     string
	Kind   ElementKind
	Parent string
	Label  string
	Order  int

	// Linked marks nodes that participate in at least one visible link.
	// The flag is computed before visibility filtering so it stays
	// stable when links are later hidden.
	Linked bool

	// OriginalID is the multiplexer record a clone stands in for.
	OriginalID string

	// OriginGroup and DestGroup scope a MuxCluster to the multiplexer's
	// home group and the consumer group it was emitted for.
	OriginGroup string
	DestGroup   string
}

// IsContainer reports whether the element holds children.
func (e *Element) IsContainer() bool {
	return e.Kind == KindGroup || e.Kind == KindMuxCluster
}

// IsPositioned reports whether the element carries its own position.
// Containers derive their extent from children instead.
func (e *Element) IsPositioned() bool { return !e.IsContainer() }

// Edge is a directed connection between two positioned elements.
// Both endpoints must exist in the graph the edge belongs to.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
	Arrow  Arrow  `json:"arrow,omitempty"`
}

// Graph is the derived scene: containers in display order, their
// members, and edges. Graphs are rebuilt from records on every render
// and never mutated in place; the position store is the only state
// that outlives a build.
type Graph struct {
	elements map[string]*Element
	order    []string            // container IDs in display order
	members  map[string][]string // container ID -> member IDs, label first
	edges    []Edge

	hideLinkLabels bool
}

// NewGraph returns an empty scene graph.
func NewGraph() *Graph {
	return &Graph{
		elements: make(map[string]*Element),
		members:  make(map[string][]string),
	}
}

// addContainer registers a container element and appends it to the
// display order.
func (g *Graph) addContainer(e *Element) {
	e.Order = len(g.order)
	g.elements[e.ID] = e
	g.order = append(g.order, e.ID)
}

// addMember registers a child element under its parent container.
func (g *Graph) addMember(e *Element) {
	g.elements[e.ID] = e
	g.members[e.Parent] = append(g.members[e.Parent], e.ID)
}

// Element returns the element with the given ID, or nil.
func (g *Graph) Element(id string) *Element { return g.elements[id] }

// Has reports whether an element with the given ID exists.
func (g *Graph) Has(id string) bool { _, ok := g.elements[id]; return ok }

// Containers returns all containers in display order: regular groups
// in first-occurrence order of their group name, then mux clusters in
// discovery order. This ordering is the contract all layouts rely on.
func (g *Graph) Containers() []*Element {
	out := make([]*Element, len(g.order))
	for i, id := range g.order {
		out[i] = g.elements[id]
	}
	return out
}

// Members returns the children of a container in insertion order, with
// the container's label first. The returned slice must not be modified.
func (g *Graph) Members(containerID string) []*Element {
	ids := g.members[containerID]
	out := make([]*Element, len(ids))
	for i, id := range ids {
		out[i] = g.elements[id]
	}
	return out
}

// Edges returns all edges in emission order.
func (g *Graph) Edges() []Edge { return g.edges }

// LinkLabelsHidden reports whether renderers should suppress edge
// label text for this scene.
func (g *Graph) LinkLabelsHidden() bool { return g.hideLinkLabels }

// Positioned returns every element that carries its own position
// (everything except containers), walking containers in display order.
func (g *Graph) Positioned() []*Element {
	var out []*Element
	for _, cid := range g.order {
		out = append(out, g.Members(cid)...)
	}
	return out
}

// NodeIDs returns the IDs of drawn nodes and mux clones, excluding
// containers and labels. Used for filtered downstream export.
func (g *Graph) NodeIDs() []string {
	var out []string
	for _, e := range g.Positioned() {
		if e.Kind == KindNode || e.Kind == KindMuxClone {
			out = append(out, e.ID)
		}
	}
	return out
}

// Neighbors returns the IDs connected to id by any edge, in edge order.
func (g *Graph) Neighbors(id string) []string {
	var out []string
	for _, e := range g.edges {
		switch id {
		case e.Source:
			out = append(out, e.Target)
		case e.Target:
			out = append(out, e.Source)
		}
	}
	return out
}

// ElementCount returns the total number of elements (containers included).
func (g *Graph) ElementCount() int { return len(g.elements) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

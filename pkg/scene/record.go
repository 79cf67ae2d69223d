package scene

import "strings"

// Arrow describes the head style of a link between two records.
type Arrow string

// Arrow styles for edges.
const (
	ArrowTo   Arrow = "to"   // head at the target end
	ArrowFrom Arrow = "from" // head at the source end
	ArrowBoth Arrow = "both" // heads at both ends
	ArrowNone Arrow = "none" // undirected line
)

// MuxSuffix marks a record's node name as a multiplexer. Records whose
// node name ends with this suffix are virtualized into per-destination
// clusters instead of being drawn inside their home group.
const MuxSuffix = " MUX"

// Record is one input row of the diagram table. Records are the
// immutable source data from which scene graphs are derived; the
// builder never mutates them.
//
// ID is unique across all records by convention (group + node). A
// non-empty LinkedID should reference another record's ID; dangling
// references are dropped silently at edge-build time.
type Record struct {
	Group      string `json:"group"`
	Node       string `json:"node"`
	ID         string `json:"id"`
	LinkedID   string `json:"linked_id,omitempty"`
	HiddenNode bool   `json:"hidden_node,omitempty"`
	HiddenLink bool   `json:"hidden_link,omitempty"`
	LinkLabel  string `json:"link_label,omitempty"`
	LinkArrow  Arrow  `json:"link_arrow,omitempty"`
}

// IsBlank reports whether the record carries no identity at all.
// Blank rows are excluded from the scene graph without error.
func (r Record) IsBlank() bool { return r.Group == "" && r.Node == "" }

// IsMux reports whether the record's node name carries the multiplexer
// suffix marker.
func (r Record) IsMux() bool { return strings.HasSuffix(r.Node, MuxSuffix) }

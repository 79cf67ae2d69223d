package scene

import "fmt"

// BuildOptions are the visibility filters applied while deriving a
// scene graph from records. The zero value shows everything.
type BuildOptions struct {
	// HiddenGroups excludes whole groups by name.
	HiddenGroups map[string]bool

	// HideUnlinked excludes nodes that participate in no visible link.
	HideUnlinked bool

	// HideLinked excludes nodes that participate in at least one
	// visible link.
	HideLinked bool

	// HideLinks suppresses edge emission entirely. Linked-status flags
	// and mux clustering are unaffected, so node styling and group
	// structure stay stable while links are toggled.
	HideLinks bool

	// HideLinkLabels keeps edges but suppresses their label text.
	// Carried on the graph so every renderer honors it.
	HideLinkLabels bool
}

// Element ID construction. Container and label IDs live in a separate
// namespace from record IDs so synthetic elements can never collide
// with input rows.
func groupID(name string) string          { return "g:" + name }
func groupLabelID(name string) string     { return "g:" + name + ":label" }
func clusterID(muxID, dest string) string { return muxID + "@" + dest }
func clusterLabelID(cid string) string    { return cid + ":label" }
func cloneID(cid string) string           { return cid + ":node" }

// Build derives a scene graph from records under the given filters.
//
// The builder works in four passes: linked-status computation over the
// unfiltered record set, visibility filtering, multiplexer
// virtualization, and finally element plus edge emission. Regular
// groups appear in first-occurrence order of their group name; mux
// clusters are appended afterward in the order their owning
// multiplexer/destination pairs are discovered.
func Build(records []Record, opts BuildOptions) *Graph {
	b := &builder{
		records: records,
		opts:    opts,
		graph:   NewGraph(),
		byID:    make(map[string]Record, len(records)),
		linked:  make(map[string]bool),
		visible: make(map[string]bool),
		buckets: make(map[string]map[string]bool),
	}
	b.graph.hideLinkLabels = opts.HideLinkLabels
	return b.build()
}

type builder struct {
	records []Record
	opts    BuildOptions
	graph   *Graph

	byID    map[string]Record
	linked  map[string]bool
	visible map[string]bool

	// muxes lists multiplexer record IDs with at least one qualifying
	// connection, in record order. buckets maps mux ID -> destination
	// groups; bucketOrder preserves discovery order per mux.
	muxes       []string
	buckets     map[string]map[string]bool
	bucketOrder map[string][]string
}

func (b *builder) build() *Graph {
	b.index()
	b.computeLinked()
	b.computeVisible()
	b.collectMuxBuckets()
	b.emitGroups()
	b.emitClusters()
	b.emitEdges()
	return b.graph
}

// index records by ID, keeping the first occurrence when input breaks
// the uniqueness convention.
func (b *builder) index() {
	for _, r := range b.records {
		if r.IsBlank() {
			continue
		}
		if _, dup := b.byID[r.ID]; !dup {
			b.byID[r.ID] = r
		}
	}
}

// computeLinked derives the linked set from all records with a visible
// link, before any node-level filtering. This keeps the bold/thin node
// distinction stable even when links are later hidden from view.
func (b *builder) computeLinked() {
	for _, r := range b.records {
		if r.IsBlank() || r.HiddenLink || r.LinkedID == "" {
			continue
		}
		b.linked[r.ID] = true
		b.linked[r.LinkedID] = true
	}
}

func (b *builder) computeVisible() {
	for id, r := range b.byID {
		b.visible[id] = b.isVisible(r)
	}
}

func (b *builder) isVisible(r Record) bool {
	if r.IsBlank() || r.HiddenNode || b.opts.HiddenGroups[r.Group] {
		return false
	}
	if b.opts.HideUnlinked && !b.linked[r.ID] {
		return false
	}
	if b.opts.HideLinked && b.linked[r.ID] {
		return false
	}
	return true
}

// collectMuxBuckets finds, for every visible multiplexer, the groups of
// its connection endpoints: outgoing first (the multiplexer's own
// link), then incoming links in record order.
func (b *builder) collectMuxBuckets() {
	b.bucketOrder = make(map[string][]string)

	addBucket := func(muxID, dest string) {
		if b.buckets[muxID] == nil {
			b.buckets[muxID] = make(map[string]bool)
			b.muxes = append(b.muxes, muxID)
		}
		if !b.buckets[muxID][dest] {
			b.buckets[muxID][dest] = true
			b.bucketOrder[muxID] = append(b.bucketOrder[muxID], dest)
		}
	}

	for _, r := range b.records {
		if !b.visible[r.ID] {
			continue
		}
		if r.IsMux() && !r.HiddenLink && r.LinkedID != "" {
			if other, ok := b.byID[r.LinkedID]; ok && b.visible[other.ID] {
				addBucket(r.ID, other.Group)
			}
		}
		if !r.IsMux() && !r.HiddenLink && r.LinkedID != "" {
			if other, ok := b.byID[r.LinkedID]; ok && other.IsMux() && b.visible[other.ID] {
				addBucket(other.ID, r.Group)
			}
		}
	}
}

// hasClusters reports whether the record is a multiplexer that was
// virtualized. Such records are never drawn inside their home group.
func (b *builder) hasClusters(id string) bool {
	return len(b.buckets[id]) > 0
}

// emitGroups creates regular groups in first-occurrence order and one
// node per visible, non-virtualized record.
func (b *builder) emitGroups() {
	seen := make(map[string]bool, len(b.records))
	for _, r := range b.records {
		if !b.visible[r.ID] || seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		if b.hasClusters(r.ID) {
			continue
		}
		gid := groupID(r.Group)
		if !b.graph.Has(gid) {
			b.graph.addContainer(&Element{ID: gid, Kind: KindGroup, Label: r.Group})
			b.graph.addMember(&Element{
				ID:     groupLabelID(r.Group),
				Kind:   KindGroupLabel,
				Parent: gid,
				Label:  r.Group,
			})
		}
		b.graph.addMember(&Element{
			ID:     r.ID,
			Kind:   KindNode,
			Parent: gid,
			Label:  r.Node,
			Linked: b.linked[r.ID],
		})
	}
}

// emitClusters appends one MuxCluster per (multiplexer, destination
// group) pair, each holding a label showing the origin group and a
// single clone of the multiplexer node.
func (b *builder) emitClusters() {
	for _, muxID := range b.muxes {
		mux := b.byID[muxID]
		for _, dest := range b.bucketOrder[muxID] {
			cid := clusterID(muxID, dest)
			b.graph.addContainer(&Element{
				ID:          cid,
				Kind:        KindMuxCluster,
				Label:       mux.Group,
				OriginGroup: mux.Group,
				DestGroup:   dest,
			})
			b.graph.addMember(&Element{
				ID:     clusterLabelID(cid),
				Kind:   KindGroupLabel,
				Parent: cid,
				Label:  mux.Group,
			})
			b.graph.addMember(&Element{
				ID:         cloneID(cid),
				Kind:       KindMuxClone,
				Parent:     cid,
				Label:      mux.Node,
				OriginalID: muxID,
				Linked:     b.linked[muxID],
			})
		}
	}
}

// endpointID resolves the drawn element standing in for a record when
// it participates in an edge with otherGroup on the far side. For a
// virtualized multiplexer this is the clone scoped to the far group.
func (b *builder) endpointID(r Record, otherGroup string) string {
	if b.hasClusters(r.ID) {
		return cloneID(clusterID(r.ID, otherGroup))
	}
	return r.ID
}

// emitEdges builds one edge per visible record with a visible link.
// Edges whose endpoints did not survive filtering are dropped silently.
func (b *builder) emitEdges() {
	if b.opts.HideLinks {
		return
	}
	seen := make(map[string]bool, len(b.records))
	for _, r := range b.records {
		if !b.visible[r.ID] || seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		if r.HiddenLink || r.LinkedID == "" {
			continue
		}
		target, ok := b.byID[r.LinkedID]
		if !ok || !b.visible[target.ID] {
			continue
		}
		src := b.endpointID(r, target.Group)
		dst := b.endpointID(target, r.Group)
		if !b.graph.Has(src) || !b.graph.Has(dst) {
			continue
		}
		b.graph.edges = append(b.graph.edges, Edge{
			ID:     fmt.Sprintf("%s->%s", src, dst),
			Source: src,
			Target: dst,
			Label:  r.LinkLabel,
			Arrow:  r.LinkArrow,
		})
	}
}

package fit

import (
	"github.com/sanonone/tsgroups/pkg/groups"
)

// treeIndex is the depth-first numbering of a two-rooted hierarchy.
type treeIndex struct {
	top [2]groups.NodeID
	// Reachable nodes: top 1, its descendants, top 2, its descendants.
	order []groups.NodeID
	// Arena-indexed position in order, -1 when unreachable.
	pos []int
}

// indexTree numbers every node reachable from the two top nodes. Nothing
// is written to the hierarchy; see treeIndex.commit.
func indexTree(h Hierarchy) (*treeIndex, error) {
	tops := h.Top()
	if len(tops) != 2 {
		return nil, &StructuralError{TopNodes: labels(h, tops)}
	}
	ti := &treeIndex{
		top: [2]groups.NodeID{tops[0], tops[1]},
		pos: make([]int, h.Len()),
	}
	for i := range ti.pos {
		ti.pos[i] = -1
	}
	for _, top := range tops {
		ti.order = append(ti.order, top)
		ti.order = append(ti.order, h.Descendants(top)...)
	}
	for i, id := range ti.order {
		ti.pos[id] = i
	}
	return ti, nil
}

func (ti *treeIndex) isTop(id groups.NodeID) bool {
	return id == ti.top[0] || id == ti.top[1]
}

func (ti *treeIndex) commit(h Hierarchy) {
	for i, id := range ti.order {
		h.SetIndex(id, i)
	}
}

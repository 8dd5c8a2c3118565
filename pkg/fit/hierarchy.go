package fit

import (
	"github.com/sanonone/tsgroups/pkg/groups"
	"github.com/sanonone/tsgroups/pkg/reaction"
)

// Hierarchy is the group tree the fitter reads and annotates.
// *groups.Tree implements it.
type Hierarchy interface {
	// Len returns the arena size; valid NodeIDs are [0, Len).
	Len() int
	Node(id groups.NodeID) *groups.Node
	Top() []groups.NodeID
	// Descendants lists the nodes below id in depth-first pre-order.
	Descendants(id groups.NodeID) []groups.NodeID
	// Ancestors lists the parents of id, nearest first, top node included.
	Ancestors(id groups.NodeID) []groups.NodeID
	// DescendTree returns the most specific node under root matching mol.
	DescendTree(mol *reaction.Molecule, atoms []reaction.Atom, root groups.NodeID) (groups.NodeID, bool)
	SetIndex(id groups.NodeID, index int)
}

var _ Hierarchy = (*groups.Tree)(nil)

func labels(h Hierarchy, ids []groups.NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = h.Node(id).Label
	}
	return out
}

package groups

import (
	"github.com/sanonone/tsgroups/pkg/reaction"
)

// NodeID is the position of a node in its tree's arena. It is stable for
// the life of the tree and independent of the depth-first Index.
type NodeID int

// NoNode marks the absence of a node (e.g. the parent of a top node).
const NoNode NodeID = -1

// Node is one group of the hierarchy.
type Node struct {
	// Position in the owning tree's arena.
	ID NodeID
	// Unique name of the group.
	Label string
	// Depth-first position in the tree. Rewritten by every fit run.
	Index int
	// Parent group, NoNode for top nodes.
	Parent NodeID
	// Direct children in definition order.
	Children []NodeID
	// Structural constraints a reactant must satisfy to match the group.
	Pattern Pattern
	// Fitted transition-state distances.
	Data      reaction.DistanceData
	ShortDesc string
	LongDesc  string
}

// IsTop reports whether the node is a root of the hierarchy.
func (n *Node) IsTop() bool {
	return n.Parent == NoNode
}

// Pattern is the set of constraints on labeled atoms a structure must meet.
type Pattern struct {
	Atoms []AtomPattern `yaml:"atoms,omitempty"`
}

// AtomPattern constrains the atom carrying Label. An empty Elements list
// accepts any element and a nil Radicals accepts any radical count.
type AtomPattern struct {
	Label    string   `yaml:"label"`
	Elements []string `yaml:"elements,omitempty"`
	Tags     []string `yaml:"tags,omitempty"`
	Radicals *int     `yaml:"radicals,omitempty"`
}

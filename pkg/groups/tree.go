// Package groups provides the in-memory hierarchy of chemical groups used
// to classify reactants, from the most general groups at the top nodes down
// to the most specific ones at the leaves.
//
// Nodes live in an arena owned by the Tree and are referenced by NodeID.
// A Tree satisfies the hierarchy capabilities required by the fitter:
// top nodes, descendants, ancestors and structural descent.
package groups

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sanonone/tsgroups/pkg/reaction"
)

var (
	// ErrDuplicateLabel is returned when a label is already used in the tree.
	ErrDuplicateLabel = errors.New("duplicate group label")
	// ErrUnknownParent is returned when a parent label cannot be resolved.
	ErrUnknownParent = errors.New("unknown parent group")
)

// Tree is a forest of groups. The fitter requires exactly two top nodes,
// but the Tree itself accepts any number.
type Tree struct {
	nodes   []*Node
	top     []NodeID
	byLabel map[string]NodeID

	// Matcher is used by DescendTree. Defaults to PatternMatcher.
	Matcher Matcher
}

// NewTree returns an empty tree that matches structures with m.
// A nil m selects PatternMatcher.
func NewTree(m Matcher) *Tree {
	if m == nil {
		m = PatternMatcher{}
	}
	return &Tree{
		byLabel: make(map[string]NodeID),
		Matcher: m,
	}
}

// Add appends a group under the group labelled parent, or as a new top
// node when parent is empty. Children keep their insertion order.
func (t *Tree) Add(label, parent string, p Pattern) (*Node, error) {
	if _, ok := t.byLabel[label]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateLabel, label)
	}
	pid := NoNode
	if parent != "" {
		id, ok := t.byLabel[parent]
		if !ok {
			return nil, fmt.Errorf("%w: %q (child %q)", ErrUnknownParent, parent, label)
		}
		pid = id
	}
	n := &Node{
		ID:      NodeID(len(t.nodes)),
		Label:   label,
		Index:   len(t.nodes),
		Parent:  pid,
		Pattern: p,
	}
	t.nodes = append(t.nodes, n)
	t.byLabel[label] = n.ID
	if pid == NoNode {
		t.top = append(t.top, n.ID)
	} else {
		parentNode := t.nodes[pid]
		parentNode.Children = append(parentNode.Children, n.ID)
	}
	return n, nil
}

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node with the given id, or nil when out of range.
func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

// Lookup finds a node by label.
func (t *Tree) Lookup(label string) (*Node, bool) {
	id, ok := t.byLabel[label]
	if !ok {
		return nil, false
	}
	return t.nodes[id], true
}

// Top returns the top nodes in definition order.
func (t *Tree) Top() []NodeID {
	return append([]NodeID(nil), t.top...)
}

// SetIndex records the depth-first index of a node.
func (t *Tree) SetIndex(id NodeID, index int) {
	t.nodes[id].Index = index
}

// Descendants returns every node below id in depth-first pre-order,
// excluding id itself.
func (t *Tree) Descendants(id NodeID) []NodeID {
	var out []NodeID
	var visit func(NodeID)
	visit = func(n NodeID) {
		for _, c := range t.nodes[n].Children {
			out = append(out, c)
			visit(c)
		}
	}
	visit(id)
	return out
}

// Ancestors returns the parent chain of id, nearest first, up to and
// including its top node.
func (t *Tree) Ancestors(id NodeID) []NodeID {
	var out []NodeID
	for p := t.nodes[id].Parent; p != NoNode; p = t.nodes[p].Parent {
		out = append(out, p)
	}
	return out
}

// Walk calls f for every node in depth-first pre-order, top nodes in
// definition order. Walking stops at the first error.
func (t *Tree) Walk(f func(*Node) error) error {
	for _, top := range t.top {
		if err := f(t.nodes[top]); err != nil {
			return err
		}
		for _, d := range t.Descendants(top) {
			if err := f(t.nodes[d]); err != nil {
				return err
			}
		}
	}
	return nil
}

// DescendTree returns the most specific node under root that the structure
// matches. It reports false when root itself does not match. When several
// children match at the same level the first one is followed.
func (t *Tree) DescendTree(mol *reaction.Molecule, atoms []reaction.Atom, root NodeID) (NodeID, bool) {
	if !t.Matcher.Match(mol, atoms, t.nodes[root]) {
		return NoNode, false
	}
	cur := root
	for {
		var next []NodeID
		for _, c := range t.nodes[cur].Children {
			if t.Matcher.Match(mol, atoms, t.nodes[c]) {
				next = append(next, c)
			}
		}
		switch len(next) {
		case 0:
			return cur, true
		case 1:
		default:
			labels := make([]string, len(next))
			for i, c := range next {
				labels[i] = t.nodes[c].Label
			}
			slog.Warn("[Groups] Structure matches several children, using the first",
				"structure", mol.String(), "parent", t.nodes[cur].Label, "children", labels)
		}
		cur = next[0]
	}
}

func (t *Tree) String() string {
	var sb strings.Builder
	for _, top := range t.top {
		sb.WriteString(t.subtreeString(top))
	}
	return sb.String()
}

func (t *Tree) subtreeString(id NodeID) string {
	n := t.nodes[id]
	result := fmt.Sprintf("[%d] %s\n", n.Index, n.Label)
	if !n.Data.IsEmpty() {
		var parts []string
		for _, k := range n.Data.SortedKeys() {
			if u, ok := n.Data.Uncertainties[k]; ok {
				parts = append(parts, fmt.Sprintf("%s=%.4f±%.4f", k, n.Data.Distances[k], u))
			} else {
				parts = append(parts, fmt.Sprintf("%s=%.4f", k, n.Data.Distances[k]))
			}
		}
		result = fmt.Sprintf("%s{ %s }\n", result, strings.Join(parts, " "))
	}
	for i, c := range n.Children {
		for j, line := range strings.Split(t.subtreeString(c), "\n") {
			if len(line) == 0 {
				continue
			}
			switch {
			case j == 0:
				result = fmt.Sprintf("%s|__%s\n", result, line)
			case i == len(n.Children)-1:
				result = fmt.Sprintf("%s   %s\n", result, line)
			default:
				result = fmt.Sprintf("%s|  %s\n", result, line)
			}
		}
	}
	return result
}

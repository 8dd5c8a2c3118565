package fit

import (
	"slices"

	"github.com/tidwall/btree"

	"github.com/sanonone/tsgroups/pkg/groups"
	"github.com/sanonone/tsgroups/pkg/reaction"
)

// Template holds the direct groups of the two reactants of one reaction.
type Template [2]groups.NodeID

// resolveTemplates finds the direct group of every reactant of every
// sample. It returns the templates in sample order and the distinct direct
// groups in index order.
func resolveTemplates(h Hierarchy, ti *treeIndex, samples []reaction.Sample) ([]Template, []groups.NodeID, error) {
	templates := make([]Template, len(samples))
	seen := make([]bool, h.Len())
	var direct []groups.NodeID

	for i, s := range samples {
		structures, err := s.Reaction.Structures()
		if err != nil {
			return nil, nil, &SampleError{Sample: i, Reaction: s.Reaction.String(), Err: err}
		}
		for r, mol := range structures {
			atoms := mol.LabeledAtoms()
			found := groups.NoNode
			for _, top := range ti.top {
				if id, ok := h.DescendTree(mol, atoms, top); ok {
					found = id
					break
				}
			}
			if found == groups.NoNode {
				return nil, nil, &MatchError{
					Reaction: s.Reaction.String(),
					Position: r + 1,
					Reactant: s.Reaction.Reactants[r].String(),
					TopNodes: labels(h, ti.top[:]),
				}
			}
			templates[i][r] = found
			if !seen[found] {
				seen[found] = true
				direct = append(direct, found)
			}
		}
	}
	slices.SortFunc(direct, func(a, b groups.NodeID) int { return ti.pos[a] - ti.pos[b] })
	return templates, direct, nil
}

// ancestry caches, per node, the node itself followed by its ancestors up
// to its top node.
type ancestry struct {
	closure [][]groups.NodeID
	// Nodes to fit in index order; excludes the top nodes.
	update []groups.NodeID
	// Arena-indexed design-matrix column, -1 when not fitted.
	column []int
}

// expandAncestors builds the ancestor closure of every direct group and
// the ordered set of nodes whose contributions are fitted.
func expandAncestors(h Hierarchy, ti *treeIndex, direct []groups.NodeID) *ancestry {
	an := &ancestry{
		closure: make([][]groups.NodeID, h.Len()),
		column:  make([]int, h.Len()),
	}
	byIndex := btree.NewMap[int, groups.NodeID](16)
	for _, d := range direct {
		for _, n := range an.chain(h, d) {
			if an.closure[n] == nil {
				an.chain(h, n)
			}
			if !ti.isTop(n) {
				byIndex.Set(ti.pos[n], n)
			}
		}
	}
	an.update = byIndex.Values()
	for i := range an.column {
		an.column[i] = -1
	}
	for col, id := range an.update {
		an.column[id] = col
	}
	return an
}

func (an *ancestry) chain(h Hierarchy, id groups.NodeID) []groups.NodeID {
	if c := an.closure[id]; c != nil {
		return c
	}
	c := append([]groups.NodeID{id}, h.Ancestors(id)...)
	an.closure[id] = c
	return c
}

// fitted returns the members of the closure of id that own a column, which
// leaves out the top node. A direct match on a top node yields a single
// NoNode so that its reaction still contributes an intercept-only row.
func (an *ancestry) fitted(id groups.NodeID) []groups.NodeID {
	var out []groups.NodeID
	for _, n := range an.closure[id] {
		if an.column[n] >= 0 {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return []groups.NodeID{groups.NoNode}
	}
	return out
}

package store

import (
	"fmt"

	"github.com/sanonone/tsgroups/pkg/groups"
	"github.com/sanonone/tsgroups/pkg/reaction"
)

type treeDoc struct {
	Family string     `yaml:"family,omitempty"`
	Groups []groupDoc `yaml:"groups"`
}

// groupDoc is one group in groups.yaml. Groups are listed parents first.
type groupDoc struct {
	Label     string                `yaml:"label"`
	Parent    string                `yaml:"parent,omitempty"`
	Index     int                   `yaml:"index"`
	Pattern   groups.Pattern        `yaml:"pattern,omitempty"`
	Data      reaction.DistanceData `yaml:"data,omitempty"`
	ShortDesc string                `yaml:"short_desc,omitempty"`
	LongDesc  string                `yaml:"long_desc,omitempty"`
}

// LoadTree reads a group tree. Groups must appear after their parent.
func LoadTree(path string, m groups.Matcher) (*groups.Tree, error) {
	var doc treeDoc
	if err := decodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("failed to load group tree %s: %w", path, err)
	}
	tree := groups.NewTree(m)
	for _, g := range doc.Groups {
		n, err := tree.Add(g.Label, g.Parent, g.Pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to load group tree %s: %w", path, err)
		}
		n.Index = g.Index
		n.Data = g.Data
		n.ShortDesc = g.ShortDesc
		n.LongDesc = g.LongDesc
	}
	return tree, nil
}

// SaveTree writes the tree in depth-first order. Non-finite distances and
// uncertainties are omitted.
func SaveTree(path, family string, tree *groups.Tree) error {
	doc := treeDoc{Family: family}
	_ = tree.Walk(func(n *groups.Node) error {
		parent := ""
		if !n.IsTop() {
			parent = tree.Node(n.Parent).Label
		}
		doc.Groups = append(doc.Groups, groupDoc{
			Label:   n.Label,
			Parent:  parent,
			Index:   n.Index,
			Pattern: n.Pattern,
			Data: reaction.DistanceData{
				Distances:     finite(n.Data.Distances),
				Uncertainties: finite(n.Data.Uncertainties),
				Method:        n.Data.Method,
			},
			ShortDesc: n.ShortDesc,
			LongDesc:  n.LongDesc,
		})
		return nil
	})
	if err := encodeFile(path, doc); err != nil {
		return fmt.Errorf("failed to save group tree %s: %w", path, err)
	}
	return nil
}

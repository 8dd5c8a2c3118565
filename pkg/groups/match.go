package groups

import (
	"slices"

	"github.com/sanonone/tsgroups/pkg/reaction"
)

// Matcher decides whether a structure, through its labeled atoms, satisfies
// a group.
type Matcher interface {
	Match(mol *reaction.Molecule, atoms []reaction.Atom, n *Node) bool
}

// MatcherFunc adapts a function to the Matcher interface.
type MatcherFunc func(mol *reaction.Molecule, atoms []reaction.Atom, n *Node) bool

// Match calls f.
func (f MatcherFunc) Match(mol *reaction.Molecule, atoms []reaction.Atom, n *Node) bool {
	return f(mol, atoms, n)
}

// PatternMatcher matches a structure when every atom constraint of the
// group pattern is met by the labeled atom of the same label.
type PatternMatcher struct{}

// Match implements Matcher.
func (PatternMatcher) Match(_ *reaction.Molecule, atoms []reaction.Atom, n *Node) bool {
	for _, ap := range n.Pattern.Atoms {
		i := slices.IndexFunc(atoms, func(a reaction.Atom) bool { return a.Label == ap.Label })
		if i < 0 || !atomSatisfies(atoms[i], ap) {
			return false
		}
	}
	return true
}

func atomSatisfies(a reaction.Atom, ap AtomPattern) bool {
	if len(ap.Elements) > 0 && !slices.Contains(ap.Elements, a.Element) {
		return false
	}
	if ap.Radicals != nil && a.Radicals != *ap.Radicals {
		return false
	}
	for _, tag := range ap.Tags {
		if !a.HasTag(tag) {
			return false
		}
	}
	return true
}

// Package reaction models the training data consumed by the group fitter:
// molecules with labeled reacting atoms, reactions between them and the
// transition-state distances measured for each reaction.
package reaction

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrEmptySpecies is returned when a species carries no resonance structure.
var ErrEmptySpecies = errors.New("species has no molecule")

// Atom is one atom of a molecule. Only atoms taking part in the reaction
// carry a Label (e.g. "*1", "*2", "*3").
type Atom struct {
	Label    string   `yaml:"label,omitempty"`
	Element  string   `yaml:"element"`
	Tags     []string `yaml:"tags,omitempty"`
	Radicals int      `yaml:"radicals,omitempty"`
}

// HasTag reports whether the atom carries the given tag.
func (a Atom) HasTag(tag string) bool {
	return slices.Contains(a.Tags, tag)
}

// Molecule is a single pre-parsed structure.
type Molecule struct {
	SMILES string `yaml:"smiles"`
	Atoms  []Atom `yaml:"atoms"`
}

// LabeledAtoms returns the atoms that carry a label, ordered by label.
func (m *Molecule) LabeledAtoms() []Atom {
	var out []Atom
	for _, a := range m.Atoms {
		if a.Label != "" {
			out = append(out, a)
		}
	}
	slices.SortStableFunc(out, func(a, b Atom) int { return strings.Compare(a.Label, b.Label) })
	return out
}

func (m *Molecule) String() string { return m.SMILES }

func (*Molecule) isReactant() {}

// Species is a chemical species described by one or more resonance
// structures. The first structure is the one used for matching.
type Species struct {
	Label     string     `yaml:"label"`
	Molecules []Molecule `yaml:"molecules"`
}

func (s Species) String() string {
	if s.Label != "" {
		return s.Label
	}
	if len(s.Molecules) > 0 {
		return s.Molecules[0].SMILES
	}
	return "<empty species>"
}

func (Species) isReactant() {}

// Reactant is either a Species or a *Molecule. No other implementations
// exist outside this package.
type Reactant interface {
	fmt.Stringer
	isReactant()
}

// AsMolecule resolves a reactant to the molecule used for matching.
func AsMolecule(r Reactant) (*Molecule, error) {
	switch v := r.(type) {
	case *Molecule:
		if v == nil {
			return nil, errors.New("nil molecule")
		}
		return v, nil
	case Species:
		if len(v.Molecules) == 0 {
			return nil, fmt.Errorf("%s: %w", v, ErrEmptySpecies)
		}
		return &v.Molecules[0], nil
	default:
		return nil, fmt.Errorf("unsupported reactant type %T", r)
	}
}

// Reaction is a bimolecular reaction r1 + r2 <=> p1 + p2.
type Reaction struct {
	Label     string
	Reactants []Reactant
	Products  []Reactant
}

func (r *Reaction) String() string {
	if r.Label != "" {
		return r.Label
	}
	return joinReactants(r.Reactants) + " <=> " + joinReactants(r.Products)
}

// Structures resolves the two reactants of the reaction.
func (r *Reaction) Structures() ([2]*Molecule, error) {
	var out [2]*Molecule
	if len(r.Reactants) != 2 {
		return out, fmt.Errorf("reaction %s has %d reactants, want 2", r, len(r.Reactants))
	}
	for i, re := range r.Reactants {
		m, err := AsMolecule(re)
		if err != nil {
			return out, fmt.Errorf("reaction %s reactant %d: %w", r, i+1, err)
		}
		out[i] = m
	}
	return out, nil
}

func joinReactants(rs []Reactant) string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = r.String()
	}
	return strings.Join(parts, " + ")
}

// DistanceData holds transition-state distances keyed by atom pair
// ("d12", "d13", "d23") and optional +/- uncertainties.
type DistanceData struct {
	Distances     map[string]float64 `yaml:"distances,omitempty"`
	Uncertainties map[string]float64 `yaml:"uncertainties,omitempty"`
	Method        string             `yaml:"method,omitempty"`
}

// SortedKeys returns the distance keys in ascending order.
func (d DistanceData) SortedKeys() []string {
	return slices.Sorted(maps.Keys(d.Distances))
}

// IsEmpty reports whether no distances are set.
func (d DistanceData) IsEmpty() bool {
	return len(d.Distances) == 0
}

// Clone returns a deep copy.
func (d DistanceData) Clone() DistanceData {
	return DistanceData{
		Distances:     maps.Clone(d.Distances),
		Uncertainties: maps.Clone(d.Uncertainties),
		Method:        d.Method,
	}
}

// Sample is one training point: a reaction and its measured distances.
type Sample struct {
	Reaction  *Reaction
	Distances map[string]float64
}

// Package depository maintains the training data of a reaction family: the
// species dictionary and the depository of reactions with measured
// transition-state distances.
package depository

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sanonone/tsgroups/pkg/reaction"
)

var (
	// ErrEmptyLabel is returned when no dictionary label can be derived
	// from a structure.
	ErrEmptyLabel = errors.New("cannot derive species label")
	// ErrUnknownSpecies is returned when a reaction references a species
	// missing from the dictionary.
	ErrUnknownSpecies = errors.New("species not in dictionary")
	// ErrDuplicateSpecies is returned by Check for repeated labels or
	// structures.
	ErrDuplicateSpecies = errors.New("duplicate dictionary entry")
)

// labelElements are the elements counted into generated labels, in order.
var labelElements = []string{"C", "H", "O"}

// Dictionary maps species labels to their structures. Entries keep their
// insertion order.
type Dictionary struct {
	Species []reaction.Species
}

// Lookup returns the species with the given label.
func (d *Dictionary) Lookup(label string) (reaction.Species, bool) {
	for _, s := range d.Species {
		if s.Label == label {
			return s, true
		}
	}
	return reaction.Species{}, false
}

// LabelOf returns the label of the entry having a resonance structure with
// the given SMILES.
func (d *Dictionary) LabelOf(smiles string) (string, bool) {
	for _, s := range d.Species {
		for _, m := range s.Molecules {
			if m.SMILES == smiles {
				return s.Label, true
			}
		}
	}
	return "", false
}

// resolve returns the dictionary label for a reactant, or false when the
// reactant is not known.
func (d *Dictionary) resolve(r reaction.Reactant) (string, bool) {
	if s, ok := r.(reaction.Species); ok && s.Label != "" {
		if _, known := d.Lookup(s.Label); known {
			return s.Label, true
		}
	}
	m, err := reaction.AsMolecule(r)
	if err != nil {
		return "", false
	}
	return d.LabelOf(m.SMILES)
}

// UnknownSpecies returns the SMILES of every reactant and product of the
// reactions that the dictionary does not know, without repetitions and in
// order of first appearance.
func (d *Dictionary) UnknownSpecies(reactions []*reaction.Reaction) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range reactions {
		for _, sp := range participants(r) {
			if _, ok := d.resolve(sp); ok {
				continue
			}
			m, err := reaction.AsMolecule(sp)
			if err != nil {
				continue
			}
			if _, dup := seen[m.SMILES]; dup {
				continue
			}
			seen[m.SMILES] = struct{}{}
			out = append(out, m.SMILES)
		}
	}
	return out
}

// SpeciesLabel builds the base dictionary label of a SMILES string from its
// C, H and O character counts: "CC" gives "C2" and "[CH3]" gives "C1H1".
// Only characters are counted, so implicit hydrogens are ignored.
func SpeciesLabel(smiles string) string {
	var sb strings.Builder
	for _, el := range labelElements {
		if n := strings.Count(smiles, el); n > 0 {
			sb.WriteString(el)
			sb.WriteString(strconv.Itoa(n))
		}
	}
	return sb.String()
}

// AddSpecies adds a new entry for each SMILES not yet present and returns
// the labels given to them. A structure already in the dictionary is
// skipped. When the base label is taken, a "-N" suffix is appended with N
// one past the highest suffix in use (the bare label counting as 0).
func (d *Dictionary) AddSpecies(smiles ...string) ([]string, error) {
	var added []string
	for _, s := range smiles {
		base := SpeciesLabel(s)
		if base == "" {
			return added, fmt.Errorf("%w: %q", ErrEmptyLabel, s)
		}
		if existing, dup := d.LabelOf(s); dup {
			slog.Info("[Depository] Species already in dictionary", "smiles", s, "label", existing)
			continue
		}
		label := base
		if maxID := d.maxSuffix(base); maxID > -1 {
			label = base + "-" + strconv.Itoa(maxID+1)
		}
		d.Species = append(d.Species, reaction.Species{
			Label:     label,
			Molecules: []reaction.Molecule{{SMILES: s}},
		})
		added = append(added, label)
	}
	return added, d.Check()
}

// maxSuffix returns -1 when no entry uses base, 0 when only the bare label
// exists and otherwise the highest numeric suffix.
func (d *Dictionary) maxSuffix(base string) int {
	maxID := -1
	for _, s := range d.Species {
		if s.Label == base {
			maxID = max(maxID, 0)
			continue
		}
		prefix, id, ok := strings.Cut(s.Label, "-")
		if !ok || prefix != base {
			continue
		}
		if n, err := strconv.Atoi(id); err == nil {
			maxID = max(maxID, n)
		}
	}
	return maxID
}

// Check reports an error when two entries share a label or a first
// resonance structure.
func (d *Dictionary) Check() error {
	labels := make(map[string]struct{}, len(d.Species))
	structures := make(map[string]string, len(d.Species))
	for _, s := range d.Species {
		if _, dup := labels[s.Label]; dup {
			return fmt.Errorf("%w: label %q", ErrDuplicateSpecies, s.Label)
		}
		labels[s.Label] = struct{}{}
		if len(s.Molecules) == 0 {
			continue
		}
		smiles := s.Molecules[0].SMILES
		if other, dup := structures[smiles]; dup {
			return fmt.Errorf("%w: %q and %q share structure %s", ErrDuplicateSpecies, other, s.Label, smiles)
		}
		structures[smiles] = s.Label
	}
	return nil
}

func participants(r *reaction.Reaction) []reaction.Reactant {
	out := make([]reaction.Reactant, 0, len(r.Reactants)+len(r.Products))
	out = append(out, r.Reactants...)
	return append(out, r.Products...)
}

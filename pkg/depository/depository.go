package depository

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sanonone/tsgroups/pkg/reaction"
)

// Entry is one training reaction of the depository.
type Entry struct {
	Index     int
	Label     string
	Reaction  *reaction.Reaction
	Data      reaction.DistanceData
	ShortDesc string
	LongDesc  string
}

// Depository holds the training reactions of a family.
type Depository struct {
	Entries []Entry
}

// Samples returns the entries carrying distances as training samples, in
// index order.
func (d *Depository) Samples() []reaction.Sample {
	entries := slices.Clone(d.Entries)
	slices.SortStableFunc(entries, func(a, b Entry) int { return a.Index - b.Index })
	out := make([]reaction.Sample, 0, len(entries))
	for _, e := range entries {
		if e.Data.IsEmpty() || e.Reaction == nil {
			continue
		}
		out = append(out, reaction.Sample{Reaction: e.Reaction, Distances: e.Data.Distances})
	}
	return out
}

// NextIndex returns the index the next added entry receives.
func (d *Depository) NextIndex() int {
	last := 0
	for _, e := range d.Entries {
		last = max(last, e.Index)
	}
	return last + 1
}

// AddReactions appends one entry per sample, labelled from the dictionary
// labels of its participants as "r1 + r2 <=> p1 + p2". Participants become
// species named by their dictionary label. Nothing is added when any
// participant is missing from the dictionary.
func (d *Depository) AddReactions(samples []reaction.Sample, dict *Dictionary, method, shortDesc string) ([]Entry, error) {
	next := d.NextIndex()
	added := make([]Entry, 0, len(samples))
	for i, s := range samples {
		r := s.Reaction
		if len(r.Reactants) != 2 || len(r.Products) != 2 {
			return nil, fmt.Errorf("reaction %s: want 2 reactants and 2 products, got %d and %d",
				r, len(r.Reactants), len(r.Products))
		}
		reactants, rl, err := dictSpecies(dict, r.Reactants)
		if err != nil {
			return nil, fmt.Errorf("reaction %s: %w", r, err)
		}
		products, pl, err := dictSpecies(dict, r.Products)
		if err != nil {
			return nil, fmt.Errorf("reaction %s: %w", r, err)
		}
		label := strings.Join(rl, " + ") + " <=> " + strings.Join(pl, " + ")
		added = append(added, Entry{
			Index: next + i,
			Label: label,
			Reaction: &reaction.Reaction{
				Label:     label,
				Reactants: reactants,
				Products:  products,
			},
			Data: reaction.DistanceData{
				Distances: s.Distances,
				Method:    method,
			},
			ShortDesc: shortDesc,
		})
	}
	d.Entries = append(d.Entries, added...)
	return added, nil
}

func dictSpecies(dict *Dictionary, rs []reaction.Reactant) ([]reaction.Reactant, []string, error) {
	out := make([]reaction.Reactant, len(rs))
	labels := make([]string, len(rs))
	for i, r := range rs {
		label, ok := dict.resolve(r)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownSpecies, r)
		}
		// The reaction's own structure carries the reacting-atom labels.
		sp, _ := dict.Lookup(label)
		if m, err := reaction.AsMolecule(r); err == nil {
			sp = reaction.Species{Label: label, Molecules: []reaction.Molecule{*m}}
		}
		out[i] = sp
		labels[i] = label
	}
	return out, labels, nil
}

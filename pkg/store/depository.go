package store

import (
	"errors"
	"fmt"

	"github.com/sanonone/tsgroups/pkg/depository"
	"github.com/sanonone/tsgroups/pkg/reaction"
)

// ErrEmptyReactant is returned for a reactant entry with neither a species
// label nor a molecule.
var ErrEmptyReactant = errors.New("reactant has neither species nor molecule")

type dictionaryDoc struct {
	Species []reaction.Species `yaml:"species"`
}

type depositoryDoc struct {
	Entries []entryDoc `yaml:"entries"`
}

type entryDoc struct {
	Index     int                   `yaml:"index"`
	Label     string                `yaml:"label"`
	Reactants []reactantDoc         `yaml:"reactants"`
	Products  []reactantDoc         `yaml:"products"`
	Data      reaction.DistanceData `yaml:"data,omitempty"`
	ShortDesc string                `yaml:"short_desc,omitempty"`
	LongDesc  string                `yaml:"long_desc,omitempty"`
}

// reactantDoc refers to a dictionary species by label, gives the structure
// inline, or both. An inline structure takes precedence over the
// dictionary's.
type reactantDoc struct {
	Species  string             `yaml:"species,omitempty"`
	Molecule *reaction.Molecule `yaml:"molecule,omitempty"`
}

// LoadDictionary reads a species dictionary.
func LoadDictionary(path string) (*depository.Dictionary, error) {
	var doc dictionaryDoc
	if err := decodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("failed to load dictionary %s: %w", path, err)
	}
	return &depository.Dictionary{Species: doc.Species}, nil
}

// SaveDictionary writes a species dictionary.
func SaveDictionary(path string, dict *depository.Dictionary) error {
	if err := encodeFile(path, dictionaryDoc{Species: dict.Species}); err != nil {
		return fmt.Errorf("failed to save dictionary %s: %w", path, err)
	}
	return nil
}

// LoadDepository reads the training reactions, resolving species labels
// against dict.
func LoadDepository(path string, dict *depository.Dictionary) (*depository.Depository, error) {
	var doc depositoryDoc
	if err := decodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("failed to load depository %s: %w", path, err)
	}
	dep := &depository.Depository{Entries: make([]depository.Entry, 0, len(doc.Entries))}
	for _, e := range doc.Entries {
		reactants, err := resolveReactants(e.Reactants, dict)
		if err != nil {
			return nil, fmt.Errorf("failed to load depository %s: entry %d: %w", path, e.Index, err)
		}
		products, err := resolveReactants(e.Products, dict)
		if err != nil {
			return nil, fmt.Errorf("failed to load depository %s: entry %d: %w", path, e.Index, err)
		}
		dep.Entries = append(dep.Entries, depository.Entry{
			Index: e.Index,
			Label: e.Label,
			Reaction: &reaction.Reaction{
				Label:     e.Label,
				Reactants: reactants,
				Products:  products,
			},
			Data:      e.Data,
			ShortDesc: e.ShortDesc,
			LongDesc:  e.LongDesc,
		})
	}
	return dep, nil
}

// SaveDepository writes the training reactions.
func SaveDepository(path string, dep *depository.Depository) error {
	doc := depositoryDoc{Entries: make([]entryDoc, 0, len(dep.Entries))}
	for _, e := range dep.Entries {
		ed := entryDoc{
			Index: e.Index,
			Label: e.Label,
			Data: reaction.DistanceData{
				Distances:     finite(e.Data.Distances),
				Uncertainties: finite(e.Data.Uncertainties),
				Method:        e.Data.Method,
			},
			ShortDesc: e.ShortDesc,
			LongDesc:  e.LongDesc,
		}
		if e.Reaction != nil {
			ed.Reactants = reactantDocs(e.Reaction.Reactants)
			ed.Products = reactantDocs(e.Reaction.Products)
		}
		doc.Entries = append(doc.Entries, ed)
	}
	if err := encodeFile(path, doc); err != nil {
		return fmt.Errorf("failed to save depository %s: %w", path, err)
	}
	return nil
}

func resolveReactants(docs []reactantDoc, dict *depository.Dictionary) ([]reaction.Reactant, error) {
	out := make([]reaction.Reactant, len(docs))
	for i, d := range docs {
		switch {
		case d.Molecule != nil && d.Species != "":
			out[i] = reaction.Species{Label: d.Species, Molecules: []reaction.Molecule{*d.Molecule}}
		case d.Molecule != nil:
			out[i] = d.Molecule
		case d.Species != "":
			sp, ok := dict.Lookup(d.Species)
			if !ok {
				return nil, fmt.Errorf("%w: %s", depository.ErrUnknownSpecies, d.Species)
			}
			out[i] = sp
		default:
			return nil, fmt.Errorf("position %d: %w", i+1, ErrEmptyReactant)
		}
	}
	return out, nil
}

func reactantDocs(rs []reaction.Reactant) []reactantDoc {
	out := make([]reactantDoc, 0, len(rs))
	for _, r := range rs {
		switch v := r.(type) {
		case *reaction.Molecule:
			out = append(out, reactantDoc{Molecule: v})
		case reaction.Species:
			d := reactantDoc{Species: v.Label}
			if len(v.Molecules) > 0 {
				d.Molecule = &v.Molecules[0]
			}
			out = append(out, d)
		}
	}
	return out
}

// Batch is a set of new training reactions to append to a depository.
type Batch struct {
	Method    string
	ShortDesc string
	Samples   []reaction.Sample
}

type batchDoc struct {
	Method    string        `yaml:"method,omitempty"`
	ShortDesc string        `yaml:"short_desc,omitempty"`
	Reactions []newReaction `yaml:"reactions"`
}

type newReaction struct {
	Label     string             `yaml:"label,omitempty"`
	Reactants []reactantDoc      `yaml:"reactants"`
	Products  []reactantDoc      `yaml:"products"`
	Distances map[string]float64 `yaml:"distances"`
}

// LoadBatch reads a file of new reactions. Species labels are resolved
// against dict; unlabeled inline molecules are left for the dictionary to
// name.
func LoadBatch(path string, dict *depository.Dictionary) (*Batch, error) {
	var doc batchDoc
	if err := decodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("failed to load reactions %s: %w", path, err)
	}
	b := &Batch{Method: doc.Method, ShortDesc: doc.ShortDesc}
	for i, r := range doc.Reactions {
		reactants, err := resolveReactants(r.Reactants, dict)
		if err != nil {
			return nil, fmt.Errorf("failed to load reactions %s: reaction %d: %w", path, i+1, err)
		}
		products, err := resolveReactants(r.Products, dict)
		if err != nil {
			return nil, fmt.Errorf("failed to load reactions %s: reaction %d: %w", path, i+1, err)
		}
		if len(r.Distances) == 0 {
			return nil, fmt.Errorf("failed to load reactions %s: reaction %d has no distances", path, i+1)
		}
		b.Samples = append(b.Samples, reaction.Sample{
			Reaction: &reaction.Reaction{
				Label:     r.Label,
				Reactants: reactants,
				Products:  products,
			},
			Distances: r.Distances,
		})
	}
	return b, nil
}

// Reactions returns the reactions of the batch.
func (b *Batch) Reactions() []*reaction.Reaction {
	out := make([]*reaction.Reaction, len(b.Samples))
	for i, s := range b.Samples {
		out[i] = s.Reaction
	}
	return out
}

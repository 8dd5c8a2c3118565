package fit

import (
	"fmt"
	"maps"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/sanonone/tsgroups/pkg/groups"
	"github.com/sanonone/tsgroups/pkg/reaction"
)

// design is the linear system A·x = b. Column j < len(update) of A flags
// the contribution of ancestry.update[j]; the last column is the family
// intercept. Column k of b holds distance keys[k].
type design struct {
	keys []string
	a    *mat.Dense
	b    *mat.Dense
	// Arena-indexed set of templates each node took part in.
	provenance []map[string]struct{}
}

// distanceKeys returns the sorted keys of the first sample and checks that
// every sample carries them.
func distanceKeys(samples []reaction.Sample) ([]string, error) {
	keys := slices.Sorted(maps.Keys(samples[0].Distances))
	if len(keys) == 0 {
		return nil, &SampleError{Sample: 0, Reaction: samples[0].Reaction.String(), Err: fmt.Errorf("no distances")}
	}
	for i, s := range samples {
		for _, k := range keys {
			if _, ok := s.Distances[k]; !ok {
				return nil, &SampleError{Sample: i, Reaction: s.Reaction.String(), Err: fmt.Errorf("missing distance %q", k)}
			}
		}
	}
	return keys, nil
}

// combinations returns every pairing of one node of first with one node of
// second. Entries of first vary fastest.
func combinations(first, second []groups.NodeID) [][2]groups.NodeID {
	out := make([][2]groups.NodeID, 0, len(first)*len(second))
	for _, b := range second {
		for _, a := range first {
			out = append(out, [2]groups.NodeID{a, b})
		}
	}
	return out
}

func templateString(h Hierarchy, t Template) string {
	return fmt.Sprintf("[%s, %s]", h.Node(t[0]).Label, h.Node(t[1]).Label)
}

// buildDesign expands every sample into one row per combination of the
// fitted ancestors of its two direct groups. Every row also sets the
// intercept column.
func buildDesign(h Hierarchy, an *ancestry, templates []Template, samples []reaction.Sample, keys []string) *design {
	cols := len(an.update) + 1
	d := &design{
		keys:       keys,
		provenance: make([]map[string]struct{}, h.Len()),
	}
	var aData, bData []float64
	rows := 0
	for i, s := range samples {
		t := templates[i]
		desc := templateString(h, t)
		target := make([]float64, len(keys))
		for k, key := range keys {
			target[k] = s.Distances[key]
		}
		for _, id := range t {
			for _, n := range an.closure[id] {
				if d.provenance[n] == nil {
					d.provenance[n] = make(map[string]struct{})
				}
				d.provenance[n][desc] = struct{}{}
			}
		}
		for _, combo := range combinations(an.fitted(t[0]), an.fitted(t[1])) {
			row := make([]float64, cols)
			for _, n := range combo {
				if n != groups.NoNode {
					row[an.column[n]] = 1
				}
			}
			row[cols-1] = 1
			aData = append(aData, row...)
			bData = append(bData, target...)
			rows++
		}
	}
	d.a = mat.NewDense(rows, cols, aData)
	d.b = mat.NewDense(rows, len(keys), bData)
	return d
}

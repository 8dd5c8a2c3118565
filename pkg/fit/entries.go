package fit

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/sanonone/tsgroups/pkg/reaction"
)

// writeEntries commits the tree index and stores the fitted values on
// every reachable node. The first top node carries the family intercept;
// nodes outside the fit, the second top node included, are cleared.
func writeEntries(h Hierarchy, ti *treeIndex, an *ancestry, d *design, sol *solution, u *uncertainty) int {
	ti.commit(h)
	intercept := len(an.update)
	written := 0
	for _, id := range ti.order {
		node := h.Node(id)
		col := an.column[id]
		if id == ti.top[0] {
			col = intercept
		}
		if col < 0 {
			node.Data = reaction.DistanceData{}
			node.LongDesc = ""
			continue
		}

		data := reaction.DistanceData{
			Distances:     make(map[string]float64, len(d.keys)),
			Uncertainties: make(map[string]float64, len(d.keys)),
		}
		defined := true
		for k, key := range d.keys {
			data.Distances[key] = sol.x.At(col, k)
			if math.IsNaN(u.ci[k][col]) {
				defined = false
			}
		}
		if defined {
			for k, key := range d.keys {
				data.Uncertainties[key] = u.ci[k][col]
			}
		}
		node.Data = data
		node.ShortDesc = fmt.Sprintf("Fitted to %d distances.\n", u.counts[col])
		node.LongDesc = provenanceText(d.provenance[id])
		written++
	}
	return written
}

func provenanceText(set map[string]struct{}) string {
	lines := make([]string, 0, len(set))
	for s := range set {
		lines = append(lines, s)
	}
	slices.Sort(lines)
	return strings.Join(lines, "\n")
}

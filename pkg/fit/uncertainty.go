package fit

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sanonone/tsgroups/pkg/reaction"
)

// uncertainty holds, for every unknown (the intercept last), the number of
// reactions that touched it and, per distance key, the standard deviation
// and confidence half-width of its fitted value. Both are NaN when the
// count is below the minimum.
type uncertainty struct {
	counts []int
	stdev  [][]float64 // [key][unknown]
	ci     [][]float64 // [key][unknown]
}

// estimateUncertainty attributes the squared residual of every reaction to
// each fitted ancestor of its two direct groups and to the intercept.
// The residual is computed from the direct groups' coefficients only.
func estimateUncertainty(ctx context.Context, ti *treeIndex, an *ancestry, templates []Template,
	samples []reaction.Sample, keys []string, sol *solution, confidence float64, minCount int) (*uncertainty, error) {

	n := len(an.update) + 1
	intercept := n - 1
	u := &uncertainty{
		counts: make([]int, n),
		stdev:  make([][]float64, len(keys)),
		ci:     make([][]float64, len(keys)),
	}
	// Counts do not depend on the key.
	for _, t := range templates {
		for _, id := range t {
			for _, anc := range an.closure[id] {
				if !ti.isTop(anc) {
					u.counts[an.column[anc]]++
				}
			}
		}
		u.counts[intercept]++
	}

	g, gctx := errgroup.WithContext(ctx)
	for k, key := range keys {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sums := make([]float64, n)
			for i, t := range templates {
				predicted := sol.x.At(intercept, k)
				for _, id := range t {
					// A top node has no column and contributes nothing.
					if c := an.column[id]; c >= 0 {
						predicted += sol.x.At(c, k)
					}
				}
				d := predicted - samples[i].Distances[key]
				variance := d * d
				for _, id := range t {
					for _, anc := range an.closure[id] {
						if !ti.isTop(anc) {
							sums[an.column[anc]] += variance
						}
					}
				}
				sums[intercept] += variance
			}

			stdev := make([]float64, n)
			ci := make([]float64, n)
			for j, count := range u.counts {
				if count < minCount || count < 2 {
					stdev[j] = math.NaN()
					ci[j] = math.NaN()
					continue
				}
				dof := float64(count - 1)
				stdev[j] = math.Sqrt(sums[j] / dof)
				ci[j] = studentT(dof, confidence) * stdev[j]
			}
			u.stdev[k] = stdev
			u.ci[k] = ci
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return u, nil
}

// studentT returns the p quantile of Student's t distribution with dof
// degrees of freedom.
func studentT(dof, p float64) float64 {
	return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: dof}.Quantile(p)
}

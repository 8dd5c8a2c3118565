// Package fit estimates transition-state distances for the groups of a
// reaction family by additive group contributions.
//
// Every training reaction is classified by the most specific group each of
// its two reactants matches. The distances measured for the reaction are
// then explained as the sum of a family-wide intercept and one contribution
// per group along the ancestor chains of those two matches. Contributions
// are found by a minimum-norm least-squares fit and written, together with
// Student's t confidence half-widths, back onto the group tree.
//
// Basic usage:
//
//	u := fit.New(tree, samples, fit.DefaultOptions("H_Abstraction"))
//	res, err := u.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Intercept)
package fit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sanonone/tsgroups/pkg/metrics"
	"github.com/sanonone/tsgroups/pkg/reaction"
)

// Options configures a fit run.
type Options struct {
	// Family names the reaction family, for logs and metrics.
	Family string

	// RCond is the relative cutoff below which singular values of the
	// design matrix are treated as zero. Zero selects ε·max(rows, cols).
	RCond float64

	// Confidence is the Student's t quantile used for the confidence
	// half-width (two-sided 95% by default).
	Confidence float64

	// MinCount is the number of supporting reactions a node needs before
	// an uncertainty is reported.
	MinCount int

	// Logger receives progress and diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns the standard settings for a family:
// 97.5% quantile and at least three supporting reactions.
func DefaultOptions(family string) Options {
	return Options{
		Family:     family,
		Confidence: 0.975,
		MinCount:   3,
	}
}

// Result summarizes a completed fit.
type Result struct {
	RunID    string
	Family   string
	TreeSize int
	// Labels of the fitted nodes, in column order.
	Updated []string
	// Number of nodes written with a fitted value, the first top node
	// included.
	Written int
	Rows    int
	Columns int
	Rank    int
	Keys    []string
	// Fitted family intercept per distance key.
	Intercept map[string]float64
	// Fitted contribution per node label and distance key.
	Coefficients map[string]map[string]float64
	Warnings     []DegenerateFitWarning
	// Non-nil when the design matrix was rank deficient.
	Notice   *RankDeficiencyNotice
	Duration time.Duration
}

// Updater fits one family's group tree. The tree is an explicitly passed
// handle; the Updater only mutates it once a run has fully succeeded.
type Updater struct {
	tree    Hierarchy
	samples []reaction.Sample
	opts    Options
	log     *slog.Logger
}

// New returns an Updater for the given tree and training set.
func New(tree Hierarchy, samples []reaction.Sample, opts Options) *Updater {
	if opts.Confidence <= 0 || opts.Confidence >= 1 {
		opts.Confidence = 0.975
	}
	if opts.MinCount <= 0 {
		opts.MinCount = 3
	}
	// One reaction leaves no degrees of freedom for an interval.
	opts.MinCount = max(opts.MinCount, 2)
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Updater{
		tree:    tree,
		samples: samples,
		opts:    opts,
		log:     log.With("family", opts.Family),
	}
}

// Run executes the full pipeline: index the tree, resolve reaction
// templates, expand ancestors, build and solve the least-squares system,
// estimate uncertainties and write the entries. On error the tree is left
// untouched.
func (u *Updater) Run(ctx context.Context) (res *Result, err error) {
	start := time.Now()
	runID := uuid.New().String()
	log := u.log.With("run_id", runID)
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
			log.Error("[Fit] Run failed", "error", err)
		}
		metrics.FitRunsTotal.WithLabelValues(u.opts.Family, status).Inc()
		metrics.FitDuration.WithLabelValues(u.opts.Family).Observe(time.Since(start).Seconds())
	}()

	if len(u.samples) == 0 {
		return nil, ErrNoSamples
	}
	log.Info("[Fit] Starting", "samples", len(u.samples))

	ti, err := indexTree(u.tree)
	if err != nil {
		return nil, err
	}
	log.Info("[Fit] Indexed tree", "size", len(ti.order))

	templates, direct, err := resolveTemplates(u.tree, ti, u.samples)
	if err != nil {
		return nil, err
	}
	an := expandAncestors(u.tree, ti, direct)
	log.Info("[Fit] Resolved templates",
		"templates", len(templates), "direct_groups", len(direct), "nodes_to_update", len(an.update))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keys, err := distanceKeys(u.samples)
	if err != nil {
		return nil, err
	}
	d := buildDesign(u.tree, an, templates, u.samples, keys)
	rows, cols := d.a.Dims()
	metrics.DesignRows.WithLabelValues(u.opts.Family).Set(float64(rows))
	log.Debug("[Fit] Built design matrix", "rows", rows, "columns", cols, "keys", keys)

	sol, err := solveLeastSquares(d.a, d.b, u.opts.RCond)
	if err != nil {
		return nil, fmt.Errorf("solving %dx%d system: %w", rows, cols, err)
	}
	var notice *RankDeficiencyNotice
	if sol.rank < cols {
		notice = &RankDeficiencyNotice{Rank: sol.rank, Unknowns: cols}
		metrics.RankDeficientTotal.WithLabelValues(u.opts.Family).Inc()
		log.Info("[Fit] " + notice.String())
	}

	unc, err := estimateUncertainty(ctx, ti, an, templates, u.samples, keys, sol, u.opts.Confidence, u.opts.MinCount)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	written := writeEntries(u.tree, ti, an, d, sol, unc)
	metrics.FittedNodes.WithLabelValues(u.opts.Family).Set(float64(written))

	res = &Result{
		RunID:        runID,
		Family:       u.opts.Family,
		TreeSize:     len(ti.order),
		Updated:      labels(u.tree, an.update),
		Written:      written,
		Rows:         rows,
		Columns:      cols,
		Rank:         sol.rank,
		Keys:         keys,
		Intercept:    make(map[string]float64, len(keys)),
		Coefficients: make(map[string]map[string]float64, len(an.update)),
		Notice:       notice,
	}
	for k, key := range keys {
		res.Intercept[key] = sol.x.At(cols-1, k)
	}
	for c, id := range an.update {
		label := u.tree.Node(id).Label
		values := make(map[string]float64, len(keys))
		for k, key := range keys {
			values[key] = sol.x.At(c, k)
		}
		res.Coefficients[label] = values
		if unc.counts[c] < u.opts.MinCount {
			w := DegenerateFitWarning{Label: label, Count: unc.counts[c]}
			res.Warnings = append(res.Warnings, w)
			log.Warn("[Fit] Degenerate node", "node", label, "count", w.Count)
		}
	}
	if n := unc.counts[cols-1]; n < u.opts.MinCount {
		w := DegenerateFitWarning{Label: u.tree.Node(ti.top[0]).Label, Count: n}
		res.Warnings = append(res.Warnings, w)
		log.Warn("[Fit] Degenerate family intercept", "node", w.Label, "count", n)
	}
	if len(res.Warnings) > 0 {
		metrics.DegenerateNodesTotal.WithLabelValues(u.opts.Family).Add(float64(len(res.Warnings)))
	}
	res.Duration = time.Since(start)
	log.Info("[Fit] Finished updating entries",
		"written", written, "rank", sol.rank, "degenerate", len(res.Warnings), "duration", res.Duration)
	return res, nil
}

// RunAll runs several updaters concurrently, one per family. Each updater
// must own a distinct tree. Results are returned in the order of updaters;
// the first error cancels the remaining runs.
func RunAll(ctx context.Context, updaters []*Updater) ([]*Result, error) {
	results := make([]*Result, len(updaters))
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range updaters {
		g.Go(func() error {
			res, err := u.Run(gctx)
			if err != nil {
				return fmt.Errorf("family %s: %w", u.opts.Family, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

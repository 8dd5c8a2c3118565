package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/sanonone/tsgroups/pkg/fit"
	"github.com/sanonone/tsgroups/pkg/persistence"
	"github.com/sanonone/tsgroups/pkg/store"
)

var (
	fitSnapshot bool
	fitDryRun   bool
)

func init() {
	rootCmd.AddCommand(fitCmd)
	fitCmd.Flags().BoolVar(&fitSnapshot, "snapshot", false, "Also write groups.snap")
	fitCmd.Flags().BoolVar(&fitDryRun, "dry-run", false, "Fit without saving anything")
}

var fitCmd = &cobra.Command{
	Use:   "fit [family...]",
	Short: "Fit group distances for one or more families",
	Long: `Fit the transition-state distances of every group of the named families
from their training reactions and save the updated group trees.

Families are fitted concurrently. When no family is named, the families of
the configuration file are used.

Examples:
  # Fit one family
  tsgroups fit H_Abstraction --db ./database

  # Fit the configured families and keep a binary snapshot
  tsgroups fit --config tsgroups.yaml --snapshot`,
	RunE: runFit,
}

func runFit(cmd *cobra.Command, args []string) error {
	families := args
	if len(families) == 0 {
		families = cfg.Families
	}
	if len(families) == 0 {
		return errors.New("no family given and none configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	dbs := make([]*store.Database, len(families))
	updaters := make([]*fit.Updater, len(families))
	for i, family := range families {
		db, err := store.Open(cfg.DatabaseDir, family)
		if err != nil {
			return err
		}
		opts := cfg.FitOptions(family)
		opts.Logger = slog.Default()
		dbs[i] = db
		updaters[i] = fit.New(db.Tree(), db.Samples(), opts)
	}

	results, err := fit.RunAll(ctx, updaters)
	if err != nil {
		return err
	}

	if !fitDryRun {
		for i, db := range dbs {
			if err := save(db, results[i]); err != nil {
				return err
			}
		}
	}
	printResults(cmd, results)
	return nil
}

// save persists the fitted tree and the optional snapshot and journal.
func save(db *store.Database, res *fit.Result) error {
	if err := db.SaveTree(); err != nil {
		return err
	}
	if cfg.Snapshot || fitSnapshot {
		if err := persistence.SaveSnapshotFile(db.Path(store.SnapshotFile), db.Tree()); err != nil {
			return fmt.Errorf("family %s: %w", db.Family(), err)
		}
	}
	if !cfg.Journal {
		return nil
	}
	j, err := persistence.OpenJournal(db.Path(store.JournalFile))
	if err != nil {
		return err
	}
	rec := persistence.RunRecord{
		RunID:      res.RunID,
		Family:     res.Family,
		FinishedAt: time.Now().UTC(),
		Samples:    len(db.Samples()),
		Rows:       res.Rows,
		Columns:    res.Columns,
		Rank:       res.Rank,
		Degenerate: len(res.Warnings),
		Intercept:  res.Intercept,
	}
	if err := j.Append(rec); err != nil {
		_ = j.Close()
		return err
	}
	return j.Close()
}

func printResults(cmd *cobra.Command, results []*fit.Result) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FAMILY\tROWS\tUNKNOWNS\tRANK\tWRITTEN\tDEGENERATE\tDURATION")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			r.Family, r.Rows, r.Columns, r.Rank, r.Written, len(r.Warnings), r.Duration.Round(time.Microsecond))
	}
	w.Flush()
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		slog.Info("[CLI] Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("[CLI] Metrics server failed", "error", err)
		}
	}()
	return srv
}

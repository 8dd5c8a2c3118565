package main

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sanonone/tsgroups/pkg/persistence"
	"github.com/sanonone/tsgroups/pkg/store"
)

var treeFromSnapshot bool

func init() {
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(historyCmd)
	treeCmd.Flags().BoolVar(&treeFromSnapshot, "from-snapshot", false, "Show the values stored in groups.snap instead of groups.yaml")
}

var treeCmd = &cobra.Command{
	Use:   "tree <family>",
	Short: "Print the group tree of a family",
	Long: `Print the group tree of a family with the fitted distances of each group.

Examples:
  # Show the current tree
  tsgroups tree H_Abstraction

  # Show the last snapshot
  tsgroups tree H_Abstraction --from-snapshot`,
	Args: cobra.ExactArgs(1),
	RunE: runTree,
}

var historyCmd = &cobra.Command{
	Use:   "history <family>",
	Short: "List the recorded fit runs of a family",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func runTree(cmd *cobra.Command, args []string) error {
	db, err := store.Open(cfg.DatabaseDir, args[0])
	if err != nil {
		return err
	}
	if treeFromSnapshot {
		entries, err := persistence.LoadSnapshotFile(db.Path(store.SnapshotFile))
		if err != nil {
			return err
		}
		if missing := persistence.ApplySnapshot(db.Tree(), entries); len(missing) > 0 {
			slog.Warn("[CLI] Snapshot groups missing from tree", "groups", missing)
		}
	}
	fmt.Fprint(cmd.OutOrStdout(), db.Tree().String())
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	db, err := store.Open(cfg.DatabaseDir, args[0])
	if err != nil {
		return err
	}
	records, err := persistence.ReadJournal(db.Path(store.JournalFile))
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tFINISHED\tSAMPLES\tROWS\tUNKNOWNS\tRANK\tDEGENERATE")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			r.RunID, r.FinishedAt.Format("2006-01-02 15:04:05"), r.Samples, r.Rows, r.Columns, r.Rank, r.Degenerate)
	}
	return w.Flush()
}

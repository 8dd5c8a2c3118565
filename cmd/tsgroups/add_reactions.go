package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sanonone/tsgroups/pkg/store"
)

func init() {
	rootCmd.AddCommand(addReactionsCmd)
}

var addReactionsCmd = &cobra.Command{
	Use:   "add-reactions <family> <file>",
	Short: "Append training reactions to a family",
	Long: `Append the reactions of a YAML file to the training depository of a
family. Species missing from the dictionary are added to it first.

The file lists reactions with their structures and distances:

  method: m062x/cc-pVTZ
  short_desc: Calculated with AutoTST
  reactions:
    - reactants:
        - molecule: {smiles: CC, atoms: [...]}
        - species: C1H1
      products:
        - molecule: {smiles: "[CH2]C"}
        - molecule: {smiles: C}
      distances: {d12: 1.35, d13: 2.70, d23: 1.35}`,
	Args: cobra.ExactArgs(2),
	RunE: runAddReactions,
}

func runAddReactions(cmd *cobra.Command, args []string) error {
	db, err := store.Open(cfg.DatabaseDir, args[0])
	if err != nil {
		return err
	}
	batch, err := store.LoadBatch(args[1], db.Dictionary())
	if err != nil {
		return err
	}

	unknown := db.Dictionary().UnknownSpecies(batch.Reactions())
	added, err := db.Dictionary().AddSpecies(unknown...)
	if err != nil {
		return err
	}
	if len(added) > 0 {
		slog.Info("[CLI] Added species to dictionary", "labels", added)
	}

	entries, err := db.Depository().AddReactions(batch.Samples, db.Dictionary(), batch.Method, batch.ShortDesc)
	if err != nil {
		return err
	}
	if err := db.SaveTraining(); err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(cmd.OutOrStdout(), "%d: %s\n", e.Index, e.Label)
	}
	return nil
}

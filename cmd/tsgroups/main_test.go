package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGroups = `groups:
  - label: X_H
    pattern:
      atoms:
        - label: "*1"
        - {label: "*2", elements: [H]}
  - label: C_H
    parent: X_H
    pattern:
      atoms:
        - {label: "*1", elements: [C]}
        - {label: "*2", elements: [H]}
  - label: Y_rad
    pattern:
      atoms:
        - {label: "*3", radicals: 1}
  - label: C_rad
    parent: Y_rad
    pattern:
      atoms:
        - {label: "*3", elements: [C], radicals: 1}
`

const testDictionary = `species:
  - label: C2
    molecules:
      - smiles: CC
  - label: C1H1
    molecules:
      - smiles: "[CH3]"
        atoms:
          - {label: "*3", element: C, radicals: 1}
  - label: O1H1
    molecules:
      - smiles: "[OH]"
        atoms:
          - {label: "*3", element: O, radicals: 1}
`

const testBatch = `method: m062x/cc-pVTZ
short_desc: test batch
reactions:
  - reactants:
      - molecule: &ethane
          smiles: CC
          atoms:
            - {label: "*1", element: C}
            - {label: "*2", element: H}
      - species: C1H1
    products: [{molecule: {smiles: "[CH2]C"}}, {molecule: {smiles: C}}]
    distances: {d12: 1.35, d13: 2.70, d23: 1.35}
  - reactants: [{molecule: *ethane}, {species: O1H1}]
    products: [{molecule: {smiles: "[CH2]C"}}, {molecule: {smiles: O}}]
    distances: {d12: 1.25, d13: 2.45, d23: 1.20}
  - reactants: [{molecule: *ethane}, {species: C1H1}]
    products: [{molecule: {smiles: "[CH2]C"}}, {molecule: {smiles: C}}]
    distances: {d12: 1.37, d13: 2.68, d23: 1.33}
  - reactants:
      - molecule:
          smiles: CO
          atoms:
            - {label: "*1", element: O}
            - {label: "*2", element: H}
      - species: O1H1
    products: [{molecule: {smiles: "C[O]"}}, {molecule: {smiles: O}}]
    distances: {d12: 1.20, d13: 2.40, d23: 1.21}
`

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestCommands(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "H_Abstraction")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "groups.yaml"), []byte(testGroups), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dictionary.yaml"), []byte(testDictionary), 0o644))
	batch := filepath.Join(root, "batch.yaml")
	require.NoError(t, os.WriteFile(batch, []byte(testBatch), 0o644))

	out := execute(t, "add-reactions", "H_Abstraction", batch, "--db", root, "--log-level", "error")
	assert.Equal(t, []string{
		"1: C2 + C1H1 <=> C2H1 + C1",
		"2: C2 + O1H1 <=> C2H1 + O1",
		"3: C2 + C1H1 <=> C2H1 + C1",
		"4: C1O1 + O1H1 <=> C1O1-1 + O1",
	}, strings.Split(strings.TrimSpace(out), "\n"))
	assert.FileExists(t, filepath.Join(dir, "training.yaml"))

	out = execute(t, "fit", "H_Abstraction", "--db", root, "--snapshot", "--log-level", "error")
	assert.Contains(t, out, "FAMILY")
	assert.Contains(t, out, "H_Abstraction")
	assert.FileExists(t, filepath.Join(dir, "groups.snap"))
	assert.FileExists(t, filepath.Join(dir, "runs.journal"))

	out = execute(t, "tree", "H_Abstraction", "--db", root, "--log-level", "error")
	assert.Contains(t, out, "[0] X_H")
	assert.Contains(t, out, "|__[1] C_H")
	assert.Contains(t, out, "d12=")

	fromSnapshot := execute(t, "tree", "H_Abstraction", "--db", root, "--from-snapshot", "--log-level", "error")
	assert.Equal(t, out, fromSnapshot)

	out = execute(t, "history", "H_Abstraction", "--db", root, "--log-level", "error")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "RANK")
}

func TestFitSnapshotFlag(t *testing.T) {
	f := fitCmd.Flags().Lookup("snapshot")
	require.NotNil(t, f)
	assert.Equal(t, "Also write groups.snap", f.Usage)
	assert.Equal(t, "false", f.DefValue)
}

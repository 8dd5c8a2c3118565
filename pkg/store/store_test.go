package store

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanonone/tsgroups/pkg/depository"
	"github.com/sanonone/tsgroups/pkg/fit"
	"github.com/sanonone/tsgroups/pkg/groups"
	"github.com/sanonone/tsgroups/pkg/reaction"
)

const family = "H_Abstraction"

const groupsYAML = `family: H_Abstraction
groups:
  - label: X_H
    index: 0
    pattern:
      atoms:
        - label: "*1"
        - label: "*2"
          elements: [H]
  - label: C_H
    parent: X_H
    index: 1
    pattern:
      atoms:
        - label: "*1"
          elements: [C]
        - label: "*2"
          elements: [H]
  - label: Y_rad
    index: 2
    pattern:
      atoms:
        - label: "*3"
          radicals: 1
  - label: C_rad
    parent: Y_rad
    index: 3
    pattern:
      atoms:
        - label: "*3"
          elements: [C]
          radicals: 1
`

const dictionaryYAML = `species:
  - label: C2
    molecules:
      - smiles: CC
        atoms:
          - {label: "*1", element: C}
          - {label: "*2", element: H}
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

const trainingYAML = `entries:
  - index: 1
    label: C2 + C1H1
    reactants: [{species: C2}, {species: C1H1}]
    data:
      distances: {d12: 1.35, d13: 2.70, d23: 1.35}
  - index: 2
    label: C2 + O1H1
    reactants: [{species: C2}, {species: O1H1}]
    data:
      distances: {d12: 1.25, d13: 2.45, d23: 1.20}
  - index: 3
    label: C2 + C1H1 (repeat)
    reactants: [{species: C2}, {species: C1H1}]
    data:
      distances: {d12: 1.37, d13: 2.68, d23: 1.33}
  - index: 4
    label: CO + O1H1
    reactants:
      - molecule:
          smiles: CO
          atoms:
            - {label: "*1", element: O}
            - {label: "*2", element: H}
      - species: O1H1
    data:
      distances: {d12: 1.20, d13: 2.40, d23: 1.21}
      method: m062x/cc-pVTZ
`

func writeFamily(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, family)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return root
}

func TestOpen(t *testing.T) {
	root := writeFamily(t, map[string]string{
		TreeFile:       groupsYAML,
		DictionaryFile: dictionaryYAML,
		DepositoryFile: trainingYAML,
	})
	db, err := Open(root, family)
	require.NoError(t, err)

	assert.Equal(t, family, db.Family())
	assert.Equal(t, 4, db.Tree().Len())
	assert.Len(t, db.Dictionary().Species, 3)
	assert.Len(t, db.Depository().Entries, 4)

	samples := db.Samples()
	require.Len(t, samples, 4)
	mols, err := samples[0].Reaction.Structures()
	require.NoError(t, err)
	assert.Equal(t, "[CH3]", mols[1].SMILES)

	inline, ok := samples[3].Reaction.Reactants[0].(*reaction.Molecule)
	require.True(t, ok)
	assert.Equal(t, "O", inline.Atoms[0].Element)
	assert.Equal(t, "m062x/cc-pVTZ", db.Depository().Entries[3].Data.Method)

	cRad, ok := db.Tree().Lookup("C_rad")
	require.True(t, ok)
	require.Len(t, cRad.Pattern.Atoms, 1)
	require.NotNil(t, cRad.Pattern.Atoms[0].Radicals)
	assert.Equal(t, 1, *cRad.Pattern.Atoms[0].Radicals)
}

func TestOpenOptionalFiles(t *testing.T) {
	root := writeFamily(t, map[string]string{TreeFile: groupsYAML})
	db, err := Open(root, family)
	require.NoError(t, err)
	assert.Empty(t, db.Samples())
	assert.Empty(t, db.Dictionary().Species)

	_, err = Open(root, "missing")
	assert.ErrorContains(t, err, "family missing")
}

func TestFitAndSaveTree(t *testing.T) {
	root := writeFamily(t, map[string]string{
		TreeFile:       groupsYAML,
		DictionaryFile: dictionaryYAML,
		DepositoryFile: trainingYAML,
	})
	db, err := Open(root, family)
	require.NoError(t, err)

	res, err := fit.New(db.Tree(), db.Samples(), fit.DefaultOptions(family)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"C_H", "C_rad"}, res.Updated)
	require.NoError(t, db.SaveTree())

	reopened, err := Open(root, family)
	require.NoError(t, err)
	for _, label := range []string{"X_H", "C_H", "Y_rad", "C_rad"} {
		want, _ := db.Tree().Lookup(label)
		got, ok := reopened.Tree().Lookup(label)
		require.True(t, ok, label)
		assert.Equal(t, want.Index, got.Index, label)
		assert.Equal(t, want.Data.Distances, got.Data.Distances, label)
		assert.Len(t, got.Data.Uncertainties, len(want.Data.Uncertainties), label)
		assert.Equal(t, want.ShortDesc, got.ShortDesc, label)
		assert.Equal(t, want.LongDesc, got.LongDesc, label)
	}
	xh, _ := reopened.Tree().Lookup("X_H")
	assert.Equal(t, res.Intercept, xh.Data.Distances)
	yRad, _ := reopened.Tree().Lookup("Y_rad")
	assert.True(t, yRad.Data.IsEmpty())
}

func TestSaveTreeDropsNonFinite(t *testing.T) {
	tree := groups.NewTree(nil)
	n, err := tree.Add("T", "", groups.Pattern{})
	require.NoError(t, err)
	n.Data = reaction.DistanceData{
		Distances:     map[string]float64{"d12": 1.1, "d13": math.Inf(1)},
		Uncertainties: map[string]float64{"d12": math.NaN()},
	}
	path := filepath.Join(t.TempDir(), TreeFile)
	require.NoError(t, SaveTree(path, family, tree))

	loaded, err := LoadTree(path, nil)
	require.NoError(t, err)
	got, _ := loaded.Lookup("T")
	assert.Equal(t, map[string]float64{"d12": 1.1}, got.Data.Distances)
	assert.Nil(t, got.Data.Uncertainties)
}

func TestLoadTreeStrict(t *testing.T) {
	path := filepath.Join(t.TempDir(), TreeFile)
	require.NoError(t, os.WriteFile(path, []byte("groups:\n  - lable: X\n"), 0o644))
	_, err := LoadTree(path, nil)
	assert.ErrorContains(t, err, "lable")
	assert.ErrorContains(t, err, path)

	require.NoError(t, os.WriteFile(path, []byte("groups:\n  - label: A\n    parent: B\n"), 0o644))
	_, err = LoadTree(path, nil)
	assert.ErrorIs(t, err, groups.ErrUnknownParent)
}

func TestLoadDepositoryErrors(t *testing.T) {
	dict, err := LoadDictionary(filepath.Join(writeFamily(t, map[string]string{DictionaryFile: dictionaryYAML}), family, DictionaryFile))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), DepositoryFile)
	require.NoError(t, os.WriteFile(path, []byte("entries:\n  - index: 7\n    label: x\n    reactants: [{species: C9}]\n"), 0o644))
	_, err = LoadDepository(path, dict)
	assert.ErrorIs(t, err, depository.ErrUnknownSpecies)
	assert.ErrorContains(t, err, "entry 7")

	require.NoError(t, os.WriteFile(path, []byte("entries:\n  - index: 1\n    label: x\n    reactants: [{}]\n"), 0o644))
	_, err = LoadDepository(path, dict)
	assert.ErrorIs(t, err, ErrEmptyReactant)
}

func TestSaveTrainingRoundTrip(t *testing.T) {
	root := writeFamily(t, map[string]string{
		TreeFile:       groupsYAML,
		DictionaryFile: dictionaryYAML,
		DepositoryFile: trainingYAML,
	})
	db, err := Open(root, family)
	require.NoError(t, err)

	ethane := &reaction.Molecule{SMILES: "CC", Atoms: []reaction.Atom{{Label: "*1", Element: "C"}, {Label: "*2", Element: "H"}}}
	ethyl := &reaction.Molecule{SMILES: "[CH2]C"}
	added, err := db.Dictionary().AddSpecies(db.Dictionary().UnknownSpecies([]*reaction.Reaction{{
		Reactants: []reaction.Reactant{ethane, &reaction.Molecule{SMILES: "[CH3]"}},
		Products:  []reaction.Reactant{ethyl, &reaction.Molecule{SMILES: "C"}},
	}})...)
	require.NoError(t, err)
	assert.Equal(t, []string{"C2H1", "C1"}, added)

	_, err = db.Depository().AddReactions([]reaction.Sample{{
		Reaction: &reaction.Reaction{
			Reactants: []reaction.Reactant{ethane, &reaction.Molecule{SMILES: "[CH3]", Atoms: []reaction.Atom{{Label: "*3", Element: "C", Radicals: 1}}}},
			Products:  []reaction.Reactant{ethyl, &reaction.Molecule{SMILES: "C"}},
		},
		Distances: map[string]float64{"d12": 1.36, "d13": 2.71, "d23": 1.35},
	}}, db.Dictionary(), "m062x", "added")
	require.NoError(t, err)
	require.NoError(t, db.SaveTraining())

	reopened, err := Open(root, family)
	require.NoError(t, err)
	assert.Len(t, reopened.Dictionary().Species, 5)
	entries := reopened.Depository().Entries
	require.Len(t, entries, 5)
	last := entries[4]
	assert.Equal(t, 5, last.Index)
	assert.Equal(t, "C2 + C1H1 <=> C2H1 + C1", last.Label)
	assert.Equal(t, "added", last.ShortDesc)
	sp, ok := last.Reaction.Reactants[1].(reaction.Species)
	require.True(t, ok)
	assert.Equal(t, "C1H1", sp.Label)
	assert.Equal(t, 1, sp.Molecules[0].Atoms[0].Radicals)
	assert.Len(t, reopened.Samples(), 5)
}

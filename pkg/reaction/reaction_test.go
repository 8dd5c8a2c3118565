package reaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsMolecule(t *testing.T) {
	m := &Molecule{SMILES: "CC"}
	got, err := AsMolecule(m)
	require.NoError(t, err)
	assert.Same(t, m, got)

	sp := Species{Label: "C2H6", Molecules: []Molecule{{SMILES: "CC"}, {SMILES: "C-C"}}}
	got, err = AsMolecule(sp)
	require.NoError(t, err)
	assert.Equal(t, "CC", got.SMILES)

	_, err = AsMolecule(Species{Label: "empty"})
	assert.ErrorIs(t, err, ErrEmptySpecies)

	var nilMol *Molecule
	_, err = AsMolecule(nilMol)
	assert.Error(t, err)
}

func TestReactionStructures(t *testing.T) {
	r := &Reaction{
		Reactants: []Reactant{&Molecule{SMILES: "CC"}, Species{Label: "CH3", Molecules: []Molecule{{SMILES: "[CH3]"}}}},
		Products:  []Reactant{Species{Label: "C2H5"}, &Molecule{SMILES: "C"}},
	}
	assert.Equal(t, "CC + CH3 <=> C2H5 + C", r.String())

	mols, err := r.Structures()
	require.NoError(t, err)
	assert.Equal(t, "[CH3]", mols[1].SMILES)

	r.Reactants = r.Reactants[:1]
	_, err = r.Structures()
	assert.ErrorContains(t, err, "has 1 reactants")
}

func TestLabeledAtoms(t *testing.T) {
	m := &Molecule{Atoms: []Atom{
		{Label: "*2", Element: "H"},
		{Element: "C"},
		{Label: "*1", Element: "C", Tags: []string{"primary"}},
	}}
	got := m.LabeledAtoms()
	require.Len(t, got, 2)
	assert.Equal(t, "*1", got[0].Label)
	assert.True(t, got[0].HasTag("primary"))
	assert.False(t, got[1].HasTag("primary"))
}

func TestDistanceData(t *testing.T) {
	var empty DistanceData
	assert.True(t, empty.IsEmpty())

	d := DistanceData{
		Distances:     map[string]float64{"d23": 1.1, "d12": 1.3, "d13": 2.4},
		Uncertainties: map[string]float64{"d12": 0.1},
		Method:        "m062x/cc-pVTZ",
	}
	assert.Equal(t, []string{"d12", "d13", "d23"}, d.SortedKeys())

	c := d.Clone()
	c.Distances["d12"] = 9
	assert.Equal(t, 1.3, d.Distances["d12"])
	assert.Equal(t, d.Method, c.Method)
	assert.Nil(t, empty.Clone().Distances)
}

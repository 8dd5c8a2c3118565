package fit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/sanonone/tsgroups/pkg/groups"
	"github.com/sanonone/tsgroups/pkg/reaction"
)

func TestSolveLeastSquaresRecoversCoefficients(t *testing.T) {
	// Indicator rows of a two-level tree plus intercept.
	a := mat.NewDense(6, 4, []float64{
		1, 0, 1, 1,
		0, 1, 1, 1,
		1, 0, 0, 1,
		0, 1, 0, 1,
		0, 0, 1, 1,
		0, 0, 0, 1,
	})
	truth := mat.NewDense(4, 2, []float64{
		0.12, -0.30,
		-0.05, 0.07,
		0.20, 0.01,
		1.40, 2.05,
	})
	var b mat.Dense
	b.Mul(a, truth)

	sol, err := solveLeastSquares(a, &b, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, sol.rank)
	assert.True(t, mat.EqualApprox(truth, sol.x, 1e-12), "got\n%v", mat.Formatted(sol.x))
}

func TestSolveLeastSquaresMinimumNorm(t *testing.T) {
	// Identical columns: only their sum is determined.
	a := mat.NewDense(3, 2, []float64{1, 1, 1, 1, 1, 1})
	b := mat.NewDense(3, 1, []float64{2, 2, 2})

	sol, err := solveLeastSquares(a, b, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, sol.rank)
	assert.InDelta(t, 1, sol.x.At(0, 0), 1e-12)
	assert.InDelta(t, 1, sol.x.At(1, 0), 1e-12)
}

func TestSolveLeastSquaresZeroMatrix(t *testing.T) {
	a := mat.NewDense(2, 2, nil)
	b := mat.NewDense(2, 1, []float64{1, 1})

	sol, err := solveLeastSquares(a, b, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, sol.rank)
	assert.Equal(t, 0.0, mat.Sum(sol.x))
}

func TestIndexTreeIsDepthFirst(t *testing.T) {
	tree := buildTree(t, []treeSpec{
		{"T1", "", nil},
		{"T2", "", nil},
		{"A", "T1", nil},
		{"B", "T2", nil},
		{"A1", "A", nil},
		{"A2", "A", nil},
		{"B1", "B", nil},
		{"A11", "A1", nil},
	})
	ti, err := indexTree(tree)
	require.NoError(t, err)

	assert.Equal(t, []string{"T1", "A", "A1", "A11", "A2", "T2", "B", "B1"}, labels(tree, ti.order))

	seen := map[int]bool{}
	for i := 0; i < tree.Len(); i++ {
		id := groups.NodeID(i)
		pos := ti.pos[id]
		require.GreaterOrEqual(t, pos, 0)
		assert.False(t, seen[pos], "duplicate index %d", pos)
		seen[pos] = true
		for _, anc := range tree.Ancestors(id) {
			assert.Less(t, ti.pos[anc], pos, "%s above %s", tree.Node(anc).Label, tree.Node(id).Label)
		}
	}

	// Nothing is written until commit.
	a11, _ := tree.Lookup("A11")
	assert.Equal(t, 7, a11.Index)
	ti.commit(tree)
	assert.Equal(t, 3, a11.Index)
}

func TestIndexTreeNeedsTwoTops(t *testing.T) {
	_, err := indexTree(buildTree(t, []treeSpec{{"T1", "", nil}, {"A", "T1", nil}}))
	var se *StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, []string{"T1"}, se.TopNodes)
}

func TestResolveAndExpand(t *testing.T) {
	tree := scenarioTree(t)
	ti, err := indexTree(tree)
	require.NoError(t, err)

	samples := []reaction.Sample{
		sample("r1", "A2", "B", 1, 1, 1),
		sample("r2", "A1", "B", 1, 1, 1),
		sample("r3", "A1", "B", 1, 1, 1),
	}
	templates, direct, err := resolveTemplates(tree, ti, samples)
	require.NoError(t, err)

	assert.Equal(t, []string{"A2", "B"}, labels(tree, templates[0][:]))
	assert.Equal(t, []string{"A1", "B"}, labels(tree, templates[1][:]))
	assert.Equal(t, []string{"A1", "A2", "B"}, labels(tree, direct))

	an := expandAncestors(tree, ti, direct)
	assert.Equal(t, []string{"A", "A1", "A2", "B"}, labels(tree, an.update))
	for i, id := range an.update {
		assert.False(t, ti.isTop(id))
		assert.Equal(t, i, an.column[id])
		if i > 0 {
			assert.Less(t, ti.pos[an.update[i-1]], ti.pos[id])
		}
	}
	assert.Equal(t, []string{"A1", "A", "T1"}, labels(tree, an.closure[templates[1][0]]))
	top2 := tree.Top()[1]
	assert.Equal(t, -1, an.column[top2])
}

func TestResolveTemplatesRejectsWrongReactantCount(t *testing.T) {
	tree := scenarioTree(t)
	ti, err := indexTree(tree)
	require.NoError(t, err)

	s := sample("r1", "A1", "B", 1, 1, 1)
	s.Reaction.Reactants = s.Reaction.Reactants[:1]
	_, _, err = resolveTemplates(tree, ti, []reaction.Sample{s})
	var se *SampleError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "r1", se.Reaction)
}

func TestCombinationsFirstListVariesFastest(t *testing.T) {
	got := combinations([]groups.NodeID{1, 2, 3}, []groups.NodeID{7, 8})
	assert.Equal(t, [][2]groups.NodeID{{1, 7}, {2, 7}, {3, 7}, {1, 8}, {2, 8}, {3, 8}}, got)
}

func TestBuildDesignRows(t *testing.T) {
	tree := scenarioTree(t)
	ti, err := indexTree(tree)
	require.NoError(t, err)
	samples := []reaction.Sample{sample("r1", "A1", "B", 1.5, 2.1, 1.05)}
	templates, direct, err := resolveTemplates(tree, ti, samples)
	require.NoError(t, err)
	an := expandAncestors(tree, ti, direct)
	keys, err := distanceKeys(samples)
	require.NoError(t, err)

	d := buildDesign(tree, an, templates, samples, keys)

	// Columns: A, A1, B, intercept. The top nodes own no column and
	// produce no rows of their own.
	want := mat.NewDense(2, 4, []float64{
		0, 1, 1, 1, // A1, B
		1, 0, 1, 1, // A, B
	})
	assert.True(t, mat.Equal(want, d.a), "got\n%v", mat.Formatted(d.a))
	r, c := d.b.Dims()
	assert.Equal(t, []int{2, 3}, []int{r, c})
	assert.Equal(t, []float64{1.5, 2.1, 1.05}, d.b.RawRowView(1))

	for _, label := range []string{"T1", "A", "A1", "T2", "B"} {
		n, _ := tree.Lookup(label)
		assert.Contains(t, d.provenance[n.ID], "[A1, B]", label)
	}
	a2, _ := tree.Lookup("A2")
	assert.Nil(t, d.provenance[a2.ID])
}

func TestBuildDesignTopMatchIsInterceptOnly(t *testing.T) {
	// "X" matches T1 but none of its children.
	tree := buildTree(t, []treeSpec{
		{"T1", "", []string{"A", "X"}},
		{"A", "T1", []string{"A"}},
		{"T2", "", []string{"B", "Y"}},
		{"B", "T2", []string{"B"}},
	})
	ti, err := indexTree(tree)
	require.NoError(t, err)
	samples := []reaction.Sample{
		sample("r1", "X", "Y", 1.5, 2.1, 1.05),
		sample("r2", "X", "B", 1.4, 2.0, 1.10),
	}
	templates, direct, err := resolveTemplates(tree, ti, samples)
	require.NoError(t, err)
	an := expandAncestors(tree, ti, direct)
	assert.Equal(t, []string{"B"}, labels(tree, an.update))
	keys, err := distanceKeys(samples)
	require.NoError(t, err)

	d := buildDesign(tree, an, templates, samples, keys)

	// Columns: B, intercept.
	want := mat.NewDense(2, 2, []float64{
		0, 1, // T1, T2
		1, 1, // T1, B
	})
	assert.True(t, mat.Equal(want, d.a), "got\n%v", mat.Formatted(d.a))
	top, _ := tree.Lookup("T1")
	assert.Len(t, d.provenance[top.ID], 2)
}

func TestStudentTQuantile(t *testing.T) {
	// Two-sided 95% critical values.
	assert.InDelta(t, 4.302653, studentT(2, 0.975), 1e-5)
	assert.InDelta(t, 2.570582, studentT(5, 0.975), 1e-5)
	assert.False(t, math.IsNaN(studentT(30, 0.975)))
}

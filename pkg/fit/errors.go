package fit

import (
	"errors"
	"fmt"
)

var (
	// ErrStructural is wrapped by StructuralError.
	ErrStructural = errors.New("unsupported tree structure")
	// ErrNoMatch is wrapped by MatchError.
	ErrNoMatch = errors.New("reactant matches no group")
	// ErrNoSamples is returned when the training set is empty.
	ErrNoSamples = errors.New("empty training set")
)

// StructuralError reports a hierarchy the fitter cannot work with.
type StructuralError struct {
	TopNodes []string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("tree must have exactly two top nodes, it has %d %v", len(e.TopNodes), e.TopNodes)
}

func (e *StructuralError) Unwrap() error { return ErrStructural }

// MatchError reports a reactant that no group under either top node
// describes.
type MatchError struct {
	Reaction string
	// 1-based position of the reactant in the reaction.
	Position int
	Reactant string
	TopNodes []string
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("reaction %q: reactant %d (%s) does not match any group under %v",
		e.Reaction, e.Position, e.Reactant, e.TopNodes)
}

func (e *MatchError) Unwrap() error { return ErrNoMatch }

// SampleError reports a malformed training sample.
type SampleError struct {
	Sample   int
	Reaction string
	Err      error
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("sample %d (%s): %v", e.Sample, e.Reaction, e.Err)
}

func (e *SampleError) Unwrap() error { return e.Err }

// DegenerateFitWarning records a node whose uncertainty could not be
// estimated because too few reactions support it. The fitted value is
// still written.
type DegenerateFitWarning struct {
	Label string
	Count int
}

func (w DegenerateFitWarning) String() string {
	return fmt.Sprintf("%s: %d samples, uncertainty undefined", w.Label, w.Count)
}

// RankDeficiencyNotice records a least-squares system whose effective rank
// is below the number of unknowns. The minimum-norm solution is used.
type RankDeficiencyNotice struct {
	Rank     int
	Unknowns int
}

func (n RankDeficiencyNotice) String() string {
	return fmt.Sprintf("design matrix rank %d < %d unknowns, using minimum-norm solution", n.Rank, n.Unknowns)
}

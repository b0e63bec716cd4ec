package stats

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"bridgelift/models"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrNoModel          = errors.New("no fit model for importance")
	ErrNoImportanceData = errors.New("no data for importance computation")
)

// Importance is the permutation importance of one feature: the mean and
// spread of the score degradation over the shuffle repeats.
type Importance struct {
	Mean float64
	Std  float64
}

// PermutationImportance scores each feature by how much the model's R2 drops
// when that feature's column is shuffled, repeated `repeats` times on the
// held-out data. The shuffles are seeded for reproducible rankings.
func PermutationImportance(model models.Model, x mat.Matrix, y []float64, repeats int, seed uint64) ([]Importance, error) {
	if model == nil {
		return nil, ErrNoModel
	}
	if x == nil || len(y) == 0 {
		return nil, ErrNoImportanceData
	}
	m, n := x.Dims()
	if m != len(y) {
		return nil, fmt.Errorf("%d rows with %d targets, %w", m, len(y), ErrResLenMismatch)
	}
	if repeats < 1 {
		repeats = 1
	}

	yMx := mat.NewDense(m, 1, y)
	baseline, err := model.Score(x, yMx)
	if err != nil {
		return nil, fmt.Errorf("unable to compute baseline score, %w", err)
	}

	rnd := rand.New(rand.NewPCG(seed, seed))
	work := mat.DenseCopyOf(x)
	origCol := make([]float64, m)
	shuffled := make([]float64, m)

	importances := make([]Importance, n)
	drops := make([]float64, repeats)
	for j := 0; j < n; j++ {
		mat.Col(origCol, j, x)

		for rep := 0; rep < repeats; rep++ {
			perm := rnd.Perm(m)
			for i, idx := range perm {
				shuffled[i] = origCol[idx]
			}
			work.SetCol(j, shuffled)

			score, err := model.Score(work, yMx)
			if err != nil {
				return nil, fmt.Errorf("unable to score permuted feature %d, %w", j, err)
			}
			drops[rep] = baseline - score
		}
		work.SetCol(j, origCol)

		mean, std := stat.MeanStdDev(drops, nil)
		if repeats == 1 {
			std = 0.0
		}
		importances[j] = Importance{Mean: mean, Std: std}
	}
	return importances, nil
}

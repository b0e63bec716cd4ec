package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// firstColModel predicts the first feature verbatim; only shuffling column 0
// can degrade its score.
type firstColModel struct{}

func (firstColModel) Fit(x, y mat.Matrix) error { return nil }

func (firstColModel) Predict(x mat.Matrix) ([]float64, error) {
	m, _ := x.Dims()
	out := make([]float64, m)
	mat.Col(out, 0, x)
	return out, nil
}

func (f firstColModel) Score(x, y mat.Matrix) (float64, error) {
	predicted, err := f.Predict(x)
	if err != nil {
		return 0.0, err
	}
	actual := mat.Col(nil, 0, y)
	return stat.RSquaredFrom(predicted, actual, nil), nil
}

func TestPermutationImportance(t *testing.T) {
	n := 50
	data := make([]float64, 0, n*2)
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		v := float64(i)
		data = append(data, v, 7.0+float64(i%3))
		y = append(y, v)
	}
	x := mat.NewDense(n, 2, data)

	imps, err := PermutationImportance(firstColModel{}, x, y, 30, 11)
	require.Nil(t, err)
	require.Len(t, imps, 2)

	// shuffling the predictive column destroys the fit; the noise column
	// contributes nothing
	assert.Greater(t, imps[0].Mean, 0.5)
	assert.InDelta(t, 0.0, imps[1].Mean, 1e-9)
}

func TestPermutationImportanceSeeded(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := []float64{1, 2, 3, 4}

	first, err := PermutationImportance(firstColModel{}, x, y, 5, 3)
	require.Nil(t, err)
	second, err := PermutationImportance(firstColModel{}, x, y, 5, 3)
	require.Nil(t, err)
	assert.Equal(t, first, second)
}

func TestPermutationImportanceErrors(t *testing.T) {
	_, err := PermutationImportance(nil, nil, nil, 1, 0)
	assert.ErrorIs(t, err, ErrNoModel)

	_, err = PermutationImportance(firstColModel{}, nil, nil, 1, 0)
	assert.ErrorIs(t, err, ErrNoImportanceData)

	x := mat.NewDense(2, 1, []float64{1, 2})
	_, err = PermutationImportance(firstColModel{}, x, []float64{1}, 1, 0)
	assert.ErrorIs(t, err, ErrResLenMismatch)
}

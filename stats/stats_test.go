package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScores(t *testing.T) {
	predicted := []float64{10.0, 20.0, 30.0}
	actual := []float64{12.0, 20.0, 24.0}

	scores, err := NewScores(predicted, actual)
	require.Nil(t, err)

	// errors are 2, 0, 6
	assert.InDelta(t, 3.651483, scores.RMSE, 1e-5)
	assert.InDelta(t, 8.0/3.0, scores.MAE, 1e-9)
	assert.InDelta(t, 2.0/3.0*100.0, scores.Within5Min, 1e-9)
}

func TestScoresLenMismatch(t *testing.T) {
	_, err := NewScores([]float64{1.0}, []float64{1.0, 2.0})
	assert.ErrorIs(t, err, ErrResLenMismatch)

	_, err = RMSE([]float64{1.0}, nil)
	assert.ErrorIs(t, err, ErrResLenMismatch)

	_, err = MAE([]float64{1.0}, nil)
	assert.ErrorIs(t, err, ErrResLenMismatch)

	_, err = WithinTolerance([]float64{1.0}, nil, 5.0)
	assert.ErrorIs(t, err, ErrResLenMismatch)
}

func TestWithinTolerance(t *testing.T) {
	testData := map[string]struct {
		predicted []float64
		actual    []float64
		tol       float64
		expected  float64
	}{
		"all within":                {[]float64{1, 2, 3}, []float64{2, 3, 4}, 1.0, 100.0},
		"none within":               {[]float64{0, 0}, []float64{10, 10}, 5.0, 0.0},
		"boundary counts as within": {[]float64{0}, []float64{5}, 5.0, 100.0},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			got, err := WithinTolerance(td.predicted, td.actual, td.tol)
			require.Nil(t, err)
			assert.InDelta(t, td.expected, got, 1e-9)
		})
	}
}

func TestDetectOutliers(t *testing.T) {
	y := []float64{10, 11, 12, 11, 10, 12, 11, 10, 95}
	idxs := DetectOutliers(y, 0.1, 0.8, 1.0)
	assert.Equal(t, []int{8}, idxs)
}

func TestDetectOutliersNoOutliers(t *testing.T) {
	y := []float64{10, 11, 12, 11, 10}
	idxs := DetectOutliers(y, 0.0, 1.0, 3.0)
	assert.Empty(t, idxs)
}

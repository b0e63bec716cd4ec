package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMLPOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		opt      *MLPOptions
		err      error
		expected *MLPOptions
	}{
		"nil": {nil, nil, NewDefaultMLPOptions()},
		"bad hidden size": {
			opt: &MLPOptions{HiddenLayerSizes: []int{16, 0}, LearningRate: 1e-3, MaxIter: 10},
			err: ErrNoOptions,
		},
		"bad learning rate": {
			opt: &MLPOptions{HiddenLayerSizes: []int{4}, LearningRate: 0, MaxIter: 10},
			err: ErrNoOptions,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt, err := td.opt.Validate()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, opt)
		})
	}
}

func trainingData(t *testing.T, n int) (mat.Matrix, mat.Matrix) {
	t.Helper()
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		v := float64(i)/float64(n)*2.0 - 1.0
		x[i] = []float64{v, -v}
		y[i] = 3.0*v + 1.0
	}
	xMx, err := NewDenseFromArray(x)
	require.Nil(t, err)
	return xMx, mat.NewDense(n, 1, y)
}

func TestMLPRegressorFitReducesLoss(t *testing.T) {
	x, y := trainingData(t, 64)

	model, err := NewMLPRegressor(&MLPOptions{
		HiddenLayerSizes:   []int{16, 8},
		LearningRate:       1e-2,
		Alpha:              1e-4,
		MaxIter:            500,
		Tol:                1e-6,
		NoImprovementLimit: 50,
		Beta1:              0.9,
		Beta2:              0.999,
		Epsilon:            1e-8,
		Seed:               1,
	})
	require.Nil(t, err)
	require.Nil(t, model.Fit(x, y))

	curve := model.LossCurve()
	require.Greater(t, len(curve), 1)
	assert.Less(t, curve[len(curve)-1], curve[0])

	predicted, err := model.Predict(x)
	require.Nil(t, err)
	require.Len(t, predicted, 64)
	for _, p := range predicted {
		assert.False(t, math.IsNaN(p))
		assert.False(t, math.IsInf(p, 0))
	}
}

func TestMLPRegressorDeterministicWithSeed(t *testing.T) {
	x, y := trainingData(t, 32)

	fit := func() []float64 {
		opt := NewDefaultMLPOptions()
		opt.Seed = 9
		model, err := NewMLPRegressor(opt)
		require.Nil(t, err)
		require.Nil(t, model.Fit(x, y))
		predicted, err := model.Predict(x)
		require.Nil(t, err)
		return predicted
	}

	assert.Equal(t, fit(), fit())
}

func TestMLPRegressorErrors(t *testing.T) {
	model, err := NewMLPRegressor(nil)
	require.Nil(t, err)

	_, predictErr := model.Predict(mat.NewDense(1, 2, []float64{1, 2}))
	assert.ErrorIs(t, predictErr, ErrNotFitted)

	x, y := trainingData(t, 16)
	assert.ErrorIs(t, model.Fit(x, mat.NewDense(3, 1, []float64{1, 2, 3})), ErrTargetLenMismatch)
	require.Nil(t, model.Fit(x, y))

	_, predictErr = model.Predict(mat.NewDense(1, 5, []float64{1, 2, 3, 4, 5}))
	assert.ErrorIs(t, predictErr, ErrFeatureLenMismatch)
}

func TestMLPRegressorScore(t *testing.T) {
	x, y := trainingData(t, 64)

	opt := NewDefaultMLPOptions()
	opt.LearningRate = 1e-2
	opt.NoImprovementLimit = 50
	opt.Seed = 3
	model, err := NewMLPRegressor(opt)
	require.Nil(t, err)
	require.Nil(t, model.Fit(x, y))

	r2, err := model.Score(x, y)
	require.Nil(t, err)
	assert.False(t, math.IsNaN(r2))
	assert.LessOrEqual(t, r2, 1.0)
}

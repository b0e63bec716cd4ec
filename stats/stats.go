// Package stats holds the fit metrics and feature-importance computations
// used to evaluate the duration model.
package stats

import (
	"errors"
	"math"
	"sort"
)

var ErrResLenMismatch = errors.New("predicted and actual have different lengths")

// Scores summarizes model fit quality on a held-out split.
type Scores struct {
	RMSE       float64 // root mean squared error, minutes
	MAE        float64 // mean absolute error, minutes
	Within5Min float64 // percent of predictions within 5 minutes of actual
}

func NewScores(predicted, actual []float64) (*Scores, error) {
	rmse, err := RMSE(predicted, actual)
	if err != nil {
		return nil, err
	}
	mae, err := MAE(predicted, actual)
	if err != nil {
		return nil, err
	}
	within, err := WithinTolerance(predicted, actual, 5.0)
	if err != nil {
		return nil, err
	}
	return &Scores{
		RMSE:       rmse,
		MAE:        mae,
		Within5Min: within,
	}, nil
}

func RMSE(predicted, actual []float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, ErrResLenMismatch
	}

	mse := 0.0
	for i := 0; i < len(actual); i++ {
		mse += math.Pow(actual[i]-predicted[i], 2.0)
	}
	mse /= float64(len(actual))
	return math.Sqrt(mse), nil
}

func MAE(predicted, actual []float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, ErrResLenMismatch
	}

	mae := 0.0
	for i := 0; i < len(actual); i++ {
		mae += math.Abs(actual[i] - predicted[i])
	}
	mae /= float64(len(actual))
	return mae, nil
}

// WithinTolerance returns the percent of predictions within tol of actual.
func WithinTolerance(predicted, actual []float64, tol float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, ErrResLenMismatch
	}

	hits := 0
	for i := 0; i < len(actual); i++ {
		if math.Abs(actual[i]-predicted[i]) <= tol {
			hits++
		}
	}
	return float64(hits) / float64(len(actual)) * 100.0, nil
}

// DetectOutliers returns the indices of values outside the Tukey fences built
// from the given percentiles. Used to flag unusually long lifts in the
// exploratory report.
func DetectOutliers(y []float64, lowerPerc, upperPerc, tukeyFactor float64) []int {
	lowerPerc = math.Max(lowerPerc, 0.0)
	upperPerc = math.Min(upperPerc, 1.0)
	tukeyFactor = math.Max(tukeyFactor, 0.0)

	yCopy := make([]float64, len(y))
	copy(yCopy, y)
	sort.Float64s(yCopy)
	lowerIdx := int(math.Floor(float64(len(yCopy)-1) * lowerPerc))
	upperIdx := int(math.Ceil(float64(len(yCopy)-1) * upperPerc))

	lower := yCopy[lowerIdx]
	upper := yCopy[upperIdx]
	innerRange := upper - lower
	lower -= innerRange * tukeyFactor
	upper += innerRange * tukeyFactor

	var outlierIdx []int
	for i := 0; i < len(y); i++ {
		if y[i] >= upper || y[i] <= lower {
			outlierIdx = append(outlierIdx, i)
		}
	}
	return outlierIdx
}

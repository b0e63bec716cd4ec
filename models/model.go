// Package models holds the regression model and the preprocessing steps
// (feature scaling, train/test splitting) used to fit lift durations.
package models

import (
	"gonum.org/v1/gonum/mat"
)

type Model interface {
	Fit(x, y mat.Matrix) error
	Predict(x mat.Matrix) ([]float64, error)
	Score(x, y mat.Matrix) (float64, error)
}

package models

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// StandardScaler standardizes each feature column to zero mean and unit
// variance. Parameters are fit once on the training partition and applied
// unchanged to any later partition.
type StandardScaler struct {
	mean []float64
	std  []float64
}

func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// Fit computes per-column mean and standard deviation. Constant columns get
// a standard deviation of 1 so transforming them yields zero rather than NaN.
func (s *StandardScaler) Fit(x mat.Matrix) error {
	if x == nil {
		return ErrNoTrainingMatrix
	}
	m, n := x.Dims()
	if m == 0 || n == 0 {
		return ErrNoTrainingMatrix
	}

	s.mean = make([]float64, n)
	s.std = make([]float64, n)

	col := make([]float64, m)
	for j := 0; j < n; j++ {
		mat.Col(col, j, x)
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || m < 2 {
			std = 1.0
		}
		s.mean[j] = mean
		s.std[j] = std
	}
	return nil
}

// Transform returns a standardized copy of x using the fit parameters.
func (s *StandardScaler) Transform(x mat.Matrix) (*mat.Dense, error) {
	if s.mean == nil {
		return nil, ErrNotFitted
	}
	if x == nil {
		return nil, ErrNoDesignMatrix
	}
	m, n := x.Dims()
	if n != len(s.mean) {
		return nil, fmt.Errorf("got %d features but scaler was fit on %d, %w", n, len(s.mean), ErrFeatureLenMismatch)
	}

	res := mat.NewDense(m, n, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			res.Set(i, j, (x.At(i, j)-s.mean[j])/s.std[j])
		}
	}
	return res, nil
}

// FitTransform fits the scaler on x and returns the standardized copy.
func (s *StandardScaler) FitTransform(x mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(x); err != nil {
		return nil, err
	}
	return s.Transform(x)
}

// Mean returns the fit per-column means.
func (s *StandardScaler) Mean() []float64 {
	dst := make([]float64, len(s.mean))
	copy(dst, s.mean)
	return dst
}

// Std returns the fit per-column standard deviations.
func (s *StandardScaler) Std() []float64 {
	dst := make([]float64, len(s.std))
	copy(dst, s.std)
	return dst
}

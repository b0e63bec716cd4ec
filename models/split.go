package models

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

var (
	ErrInsufficientSamples       = errors.New("insufficient samples for the requested split")
	ErrInconsistentSampleLengths = errors.New("features and targets do not have the same number of samples")
)

// SplitDataset holds one train/test partition of the feature table.
type SplitDataset struct {
	TrainX [][]float64
	TrainY []float64

	TestX [][]float64
	TestY []float64
}

// TrainTestSplit shuffles the samples with a seeded generator and partitions
// them with testFrac of the samples held out. The same seed always produces
// the same partition.
func TrainTestSplit(x [][]float64, y []float64, testFrac float64, seed uint64) (*SplitDataset, error) {
	nSamples := len(x)
	if len(y) != nSamples {
		return nil, fmt.Errorf("%d feature rows with %d targets, %w", nSamples, len(y), ErrInconsistentSampleLengths)
	}
	if testFrac <= 0 || testFrac >= 1 {
		return nil, fmt.Errorf("test fraction %f must be in (0, 1)", testFrac)
	}

	nTest := int(float64(nSamples) * testFrac)
	if nTest == 0 || nTest == nSamples {
		return nil, ErrInsufficientSamples
	}

	perm := rand.New(rand.NewPCG(seed, seed)).Perm(nSamples)

	split := &SplitDataset{
		TrainX: make([][]float64, 0, nSamples-nTest),
		TrainY: make([]float64, 0, nSamples-nTest),
		TestX:  make([][]float64, 0, nTest),
		TestY:  make([]float64, 0, nTest),
	}
	for i, idx := range perm {
		if i < nTest {
			split.TestX = append(split.TestX, x[idx])
			split.TestY = append(split.TestY, y[idx])
			continue
		}
		split.TrainX = append(split.TrainX, x[idx])
		split.TrainY = append(split.TrainY, y[idx])
	}
	return split, nil
}

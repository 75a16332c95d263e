package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// ErrInvalidRatios is returned by Split when a ratio lies outside [0, 1]
// or the ratios do not sum to 1.
var ErrInvalidRatios = errors.New("dataset: invalid split ratios")

// ratioTolerance is how far the ratio sum may drift from 1.0.
const ratioTolerance = 0.01

// SplitOptions configures Split.
type SplitOptions struct {
	Train float64
	Val   float64
	Test  float64
	Seed  int64
}

// DefaultSplitOptions returns the 70/15/15 split with seed 42.
func DefaultSplitOptions() SplitOptions {
	return SplitOptions{Train: 0.7, Val: 0.15, Test: 0.15, Seed: 42}
}

// Split shuffles a copy of records deterministically and slices it into
// train, validation and test partitions. The train and validation sizes are
// floor(n*ratio); the test partition takes the remainder. The input slice
// is not modified.
func Split(records []Record, opts SplitOptions) (train, val, test []Record, err error) {
	for _, r := range []float64{opts.Train, opts.Val, opts.Test} {
		if r < 0 || r > 1 || math.IsNaN(r) {
			return nil, nil, nil, fmt.Errorf("%w: %g is outside [0, 1]", ErrInvalidRatios, r)
		}
	}
	total := opts.Train + opts.Val + opts.Test
	if math.Abs(total-1.0) > ratioTolerance {
		return nil, nil, nil, fmt.Errorf("%w: must sum to 1.0, got %g", ErrInvalidRatios, total)
	}

	shuffled := make([]Record, len(records))
	copy(shuffled, records)
	rng := rand.New(rand.NewPCG(uint64(opts.Seed), uint64(opts.Seed)^0x9e3779b97f4a7c15))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	n := len(shuffled)
	trainEnd := int(float64(n) * opts.Train)
	valEnd := min(trainEnd+int(float64(n)*opts.Val), n)
	return shuffled[:trainEnd:trainEnd], shuffled[trainEnd:valEnd:valEnd], shuffled[valEnd:], nil
}

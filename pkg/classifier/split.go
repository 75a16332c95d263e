package classifier

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// ErrInsufficientData is returned when a corpus is too small to hold out a
// test partition and still train.
var ErrInsufficientData = errors.New("classifier: insufficient data")

// TrainTestSplit shuffles the samples with seed and holds out
// ceil(n*testSize) of them for testing.
func TrainTestSplit(texts, labels []string, testSize float64, seed uint64) (trainX, testX, trainY, testY []string, err error) {
	if len(texts) != len(labels) {
		return nil, nil, nil, nil, fmt.Errorf("classifier: %d texts but %d labels", len(texts), len(labels))
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, nil, nil, fmt.Errorf("classifier: test size %g out of range (0, 1)", testSize)
	}
	n := len(texts)
	nTest := int(math.Ceil(float64(n) * testSize))
	if nTest == 0 || n-nTest == 0 {
		return nil, nil, nil, nil, fmt.Errorf("%w: %d samples with test size %g leaves an empty partition", ErrInsufficientData, n, testSize)
	}

	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)
	for k, i := range perm {
		if k < nTest {
			testX = append(testX, texts[i])
			testY = append(testY, labels[i])
		} else {
			trainX = append(trainX, texts[i])
			trainY = append(trainY, labels[i])
		}
	}
	return trainX, testX, trainY, testY, nil
}

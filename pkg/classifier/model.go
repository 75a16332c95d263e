package classifier

import (
	"fmt"
	"slices"
)

// TrainOptions tune Train. Zero fields take the defaults.
type TrainOptions struct {
	TestSize    float64 // 0.2
	Seed        uint64  // 42
	MaxFeatures int     // 5000
	Trees       int     // 100
}

func (o *TrainOptions) withDefaults() TrainOptions {
	out := TrainOptions{TestSize: 0.2, Seed: 42, MaxFeatures: 5000, Trees: 100}
	if o == nil {
		return out
	}
	if o.TestSize > 0 {
		out.TestSize = o.TestSize
	}
	if o.Seed != 0 {
		out.Seed = o.Seed
	}
	if o.MaxFeatures > 0 {
		out.MaxFeatures = o.MaxFeatures
	}
	if o.Trees > 0 {
		out.Trees = o.Trees
	}
	return out
}

// Model is a fitted vectorizer and forest, plus every label seen in
// training.
type Model struct {
	Vectorizer *Vectorizer
	Forest     *Forest
	Classes    []string
}

// Train splits the corpus, fits a model on the training part and returns it
// with a classification report over the held-out part.
func Train(texts, labels []string, opts *TrainOptions) (*Model, string, error) {
	o := opts.withDefaults()
	trainX, testX, trainY, testY, err := TrainTestSplit(texts, labels, o.TestSize, o.Seed)
	if err != nil {
		return nil, "", err
	}

	vec := NewVectorizer(o.MaxFeatures)
	X, err := vec.FitTransform(trainX)
	if err != nil {
		return nil, "", err
	}
	forest := NewForest(o.Trees, o.Seed)
	if err := forest.Fit(X, trainY, vec.Features()); err != nil {
		return nil, "", err
	}

	XTest, err := vec.Transform(testX)
	if err != nil {
		return nil, "", err
	}
	pred := make([]string, len(XTest))
	for i, x := range XTest {
		if pred[i], _, err = forest.Predict(x); err != nil {
			return nil, "", fmt.Errorf("evaluate: %w", err)
		}
	}

	classes := slices.Clone(labels)
	slices.Sort(classes)
	return &Model{
		Vectorizer: vec,
		Forest:     forest,
		Classes:    slices.Compact(classes),
	}, Report(testY, pred), nil
}

// Predict returns the most likely label of text and its probability in
// [0, 1].
func (m *Model) Predict(text string) (string, float64, error) {
	if m == nil || m.Vectorizer == nil || m.Forest == nil {
		return "", 0, ErrNotTrained
	}
	X, err := m.Vectorizer.Transform([]string{text})
	if err != nil {
		return "", 0, err
	}
	return m.Forest.Predict(X[0])
}

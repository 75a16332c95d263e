package agent

import (
	"context"
	"fmt"
	"slices"

	"github.com/haivivi/agentkit/pkg/agentcfg"
	"github.com/haivivi/agentkit/pkg/classifier"
	"github.com/haivivi/agentkit/pkg/dataset"
)

var _ Agent = (*Classifier)(nil)

// Classifier labels input text with a locally trained TF-IDF random forest.
type Classifier struct {
	Base

	trainOpts *classifier.TrainOptions
	model     *classifier.Model
}

// NewClassifier builds an untrained classifier agent.
func NewClassifier(cfg *agentcfg.Config, opts *Options) *Classifier {
	return &Classifier{
		Base:      newBase(cfg, opts),
		trainOpts: opts.classifierOptions(),
	}
}

func (a *Classifier) Kind() Kind { return KindClassifier }

// Classes returns the labels seen in the last successful training, or nil.
func (a *Classifier) Classes() []string {
	if a.model == nil {
		return nil
	}
	return slices.Clone(a.model.Classes)
}

func (a *Classifier) Process(_ context.Context, input string, _ ...ProcessOption) string {
	if a.model == nil {
		return NotTrainedMessage
	}
	label, confidence, err := a.model.Predict(input)
	if err != nil {
		a.logger.Error("agent: classify failed", "error", err)
		return fmt.Sprintf("Sorry, an error occurred: %v", err)
	}
	out := fmt.Sprintf("Category: %s (confidence: %.2f%%)", label, confidence*100)
	a.AddToHistory(input, out)
	return out
}

// Train fits a new model on the text and label fields of examples and
// returns the classification report of the held-out split. The previous
// model stays in place if training fails.
func (a *Classifier) Train(_ context.Context, examples []dataset.Record, _ ...TrainOption) (string, error) {
	a.logger.Info("agent: training classifier", "examples", len(examples))
	texts := make([]string, 0, len(examples))
	labels := make([]string, 0, len(examples))
	skipped := 0
	for _, r := range examples {
		text, label := r.Field("text"), r.Field("label")
		if text == "" || label == "" {
			skipped++
			continue
		}
		texts = append(texts, text)
		labels = append(labels, label)
	}
	if skipped > 0 {
		a.logger.Warn("agent: skipped examples without text or label", "count", skipped)
	}

	model, report, err := classifier.Train(texts, labels, a.trainOpts)
	if err != nil {
		return "", fmt.Errorf("agent: train classifier: %w", err)
	}
	a.model = model
	a.logger.Info("agent: classifier trained", "classes", len(model.Classes), "features", model.Vectorizer.Features())
	return report, nil
}

package classifier

import (
	"fmt"
	"slices"
	"strings"
)

// ClassMetrics are the per-class scores of a classification report.
type ClassMetrics struct {
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Scores computes per-class metrics over the union of labels in yTrue and
// yPred, plus overall accuracy. Undefined ratios are reported as zero.
func Scores(yTrue, yPred []string) (labels []string, metrics []ClassMetrics, accuracy float64) {
	labels = slices.Concat(yTrue, yPred)
	slices.Sort(labels)
	labels = slices.Compact(labels)

	metrics = make([]ClassMetrics, len(labels))
	correct := 0
	for i, label := range labels {
		var tp, predicted, actual int
		for k := range yTrue {
			if yTrue[k] == label {
				actual++
			}
			if yPred[k] == label {
				predicted++
				if yTrue[k] == label {
					tp++
				}
			}
		}
		m := ClassMetrics{Support: actual}
		if predicted > 0 {
			m.Precision = float64(tp) / float64(predicted)
		}
		if actual > 0 {
			m.Recall = float64(tp) / float64(actual)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		metrics[i] = m
		correct += tp
	}
	if len(yTrue) > 0 {
		accuracy = float64(correct) / float64(len(yTrue))
	}
	return labels, metrics, accuracy
}

// Report renders a text classification report: precision, recall, f1-score
// and support for each class, followed by accuracy and the macro and
// support-weighted averages.
func Report(yTrue, yPred []string) string {
	if len(yTrue) != len(yPred) {
		return fmt.Sprintf("classification report: %d true labels but %d predictions\n", len(yTrue), len(yPred))
	}
	labels, metrics, accuracy := Scores(yTrue, yPred)

	const weighted = "weighted avg"
	width := len(weighted)
	for _, l := range labels {
		width = max(width, len(l))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%*s  %9s %9s %9s %9s\n\n", width, "", "precision", "recall", "f1-score", "support")
	row := func(name string, p, r, f float64, support int) {
		fmt.Fprintf(&sb, "%*s  %9.2f %9.2f %9.2f %9d\n", width, name, p, r, f, support)
	}

	var macro, weight ClassMetrics
	total := 0
	for i, l := range labels {
		m := metrics[i]
		row(l, m.Precision, m.Recall, m.F1, m.Support)
		macro.Precision += m.Precision
		macro.Recall += m.Recall
		macro.F1 += m.F1
		weight.Precision += m.Precision * float64(m.Support)
		weight.Recall += m.Recall * float64(m.Support)
		weight.F1 += m.F1 * float64(m.Support)
		total += m.Support
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%*s  %9s %9s %9.2f %9d\n", width, "accuracy", "", "", accuracy, total)
	if k := float64(len(labels)); k > 0 {
		row("macro avg", macro.Precision/k, macro.Recall/k, macro.F1/k, total)
	}
	if total > 0 {
		t := float64(total)
		row(weighted, weight.Precision/t, weight.Recall/t, weight.F1/t, total)
	}
	return sb.String()
}

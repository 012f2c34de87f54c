package evaluation

import (
	"fmt"
	"math"
	"sort"

	"github.com/xxxsen/samplesearch/internal/labeler"
	"github.com/xxxsen/samplesearch/internal/model"
	appErr "github.com/xxxsen/samplesearch/internal/pkg/errors"
)

const (
	MetricAccuracy  = "Accuracy"
	MetricPrecision = "Precision"
	MetricRecall    = "Recall"
	MetricF1        = "F1-Score"
)

type Result struct {
	Classes []string
	// Matrix is indexed as Matrix[actual][predicted].
	Matrix  map[string]map[string]int
	Rows    []model.ConfusionMatrixRow
	Metrics []model.EvalMetric
	Total   int
}

// FilterUnknown drops every pair whose ground truth is unknown. The returned
// indexes refer to the dropped positions of the input.
func FilterUnknown(predictions, groundTruth []string) ([]string, []string, []int) {
	preds := make([]string, 0, len(predictions))
	truth := make([]string, 0, len(groundTruth))
	dropped := make([]int, 0)
	for i, gt := range groundTruth {
		if gt == labeler.LabelUnknown {
			dropped = append(dropped, i)
			continue
		}
		if i < len(predictions) {
			preds = append(preds, predictions[i])
		}
		truth = append(truth, gt)
	}
	return preds, truth, dropped
}

func Evaluate(predictions, groundTruth []string) (*Result, error) {
	if len(predictions) != len(groundTruth) {
		return nil, fmt.Errorf("predictions %d vs ground truth %d: %w", len(predictions), len(groundTruth), appErr.ErrInvalid)
	}
	if len(groundTruth) == 0 {
		return nil, appErr.ErrEmptyEvaluationSet
	}
	classes := collectClasses(predictions, groundTruth)
	matrix := make(map[string]map[string]int, len(classes))
	for _, actual := range classes {
		matrix[actual] = make(map[string]int, len(classes))
		for _, predicted := range classes {
			matrix[actual][predicted] = 0
		}
	}
	for i, actual := range groundTruth {
		matrix[actual][predictions[i]]++
	}

	var tp, fp, fn int
	for _, c := range classes {
		tp += matrix[c][c]
		for _, k := range classes {
			if k == c {
				continue
			}
			fn += matrix[c][k]
			fp += matrix[k][c]
		}
	}
	total := len(groundTruth)
	precision := ratio(tp, tp+fp)
	recall := ratio(tp, tp+fn)
	f1 := 0.0
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	accuracy := ratio(tp, total)

	rows := make([]model.ConfusionMatrixRow, 0, len(classes))
	for _, actual := range classes {
		counts := make(map[string]int, len(classes))
		for predicted, n := range matrix[actual] {
			counts[predicted] = n
		}
		rows = append(rows, model.ConfusionMatrixRow{Predicted: actual, Counts: counts})
	}
	return &Result{
		Classes: classes,
		Matrix:  matrix,
		Rows:    rows,
		Total:   total,
		Metrics: []model.EvalMetric{
			{Label: MetricAccuracy, Value: round2(accuracy)},
			{Label: MetricPrecision, Value: round2(precision)},
			{Label: MetricRecall, Value: round2(recall)},
			{Label: MetricF1, Value: round2(f1)},
		},
	}, nil
}

func collectClasses(lists ...[]string) []string {
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, item := range list {
			seen[item] = struct{}{}
		}
	}
	classes := make([]string, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	return classes
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

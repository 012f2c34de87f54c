package model

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

type EmbeddingPoint struct {
	ID          string  `json:"id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Label       string  `json:"label"`
	AudioSample string  `json:"audioSample,omitempty"`
}

// ConfusionMatrixRow holds the counts of one actual class. It is encoded as a
// flat object: the actual class under "predicted" followed by one count per
// lowercased predicted class.
type ConfusionMatrixRow struct {
	Predicted string
	Counts    map[string]int
}

func (r ConfusionMatrixRow) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(r.Counts))
	for k := range r.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var buf bytes.Buffer
	buf.WriteByte('{')
	name, err := json.Marshal(r.Predicted)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`"predicted":`)
	buf.Write(name)
	for _, k := range keys {
		key, err := json.Marshal(strings.ToLower(k))
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(r.Counts[k]))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *ConfusionMatrixRow) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Counts = make(map[string]int, len(raw))
	for k, v := range raw {
		if k == "predicted" {
			if err := json.Unmarshal(v, &r.Predicted); err != nil {
				return err
			}
			continue
		}
		var n int
		if err := json.Unmarshal(v, &n); err != nil {
			return err
		}
		r.Counts[k] = n
	}
	return nil
}

type EvalMetric struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type SkippedFile struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type EmbeddingReport struct {
	Model               string               `json:"model"`
	EmbeddingPoints     []EmbeddingPoint     `json:"embeddingPoints"`
	ConfusionMatrixData []ConfusionMatrixRow `json:"confusionMatrixData"`
	EvalMetrics         []EvalMetric         `json:"evalMetrics"`
	Skipped             []SkippedFile        `json:"skipped"`
	Excluded            []string             `json:"excluded"`
	LabelDistribution   []LabelCount         `json:"labelDistribution"`
	FromCache           bool                 `json:"fromCache"`
	Ctime               int64                `json:"ctime"`
}

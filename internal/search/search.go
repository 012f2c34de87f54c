package search

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	appErr "github.com/xxxsen/samplesearch/internal/pkg/errors"
)

type Candidate struct {
	ID        string
	Label     string
	Embedding []float32
}

type Result struct {
	ID         string
	Label      string
	Embedding  []float32
	Similarity float64
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// CosineSimilarity returns dot(a,b)/(|a||b|). A zero-magnitude operand yields
// ErrDegenerateVector instead of NaN.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("cosine %d vs %d: %w", len(a), len(b), appErr.ErrDimensionMismatch)
	}
	if len(a) == 0 {
		return 0, appErr.ErrDegenerateVector
	}
	av, bv := toFloat64(a), toFloat64(b)
	na, nb := floats.Norm(av, 2), floats.Norm(bv, 2)
	if na == 0 || nb == 0 {
		return 0, appErr.ErrDegenerateVector
	}
	return floats.Dot(av, bv) / (na * nb), nil
}

// score treats degenerate vectors as similarity 0.
func score(query, candidate []float32) (float64, error) {
	sim, err := CosineSimilarity(query, candidate)
	if errors.Is(err, appErr.ErrDegenerateVector) {
		return 0, nil
	}
	return sim, err
}

// Search ranks candidates by cosine similarity to query and keeps the top k.
// Equal scores keep their input order.
func Search(query []float32, candidates []Candidate, k int) ([]Result, error) {
	if k < 1 {
		return nil, fmt.Errorf("top k %d: %w", k, appErr.ErrInvalid)
	}
	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		sim, err := score(query, c.Embedding)
		if err != nil {
			return nil, fmt.Errorf("score %s: %w", c.ID, err)
		}
		results = append(results, Result{
			ID:         c.ID,
			Label:      c.Label,
			Embedding:  c.Embedding,
			Similarity: sim,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Predict returns the label whose vector is most similar to v. The first
// label wins on ties.
func Predict(v []float32, labels []string, vectors [][]float32) (string, error) {
	if len(labels) != len(vectors) {
		return "", fmt.Errorf("labels %d vs vectors %d: %w", len(labels), len(vectors), appErr.ErrInvalid)
	}
	if len(labels) == 0 {
		return "", fmt.Errorf("no labels: %w", appErr.ErrInvalid)
	}
	best := labels[0]
	bestScore, err := score(v, vectors[0])
	if err != nil {
		return "", err
	}
	for i := 1; i < len(labels); i++ {
		s, err := score(v, vectors[i])
		if err != nil {
			return "", err
		}
		if s > bestScore {
			best, bestScore = labels[i], s
		}
	}
	return best, nil
}

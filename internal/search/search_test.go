package search

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/xxxsen/samplesearch/internal/pkg/errors"
)

func TestCosineSimilarity(t *testing.T) {
	sim, err := CosineSimilarity([]float32{1, 0}, []float32{1, 0})
	require.NoError(t, err)
	require.InDelta(t, 1.0, sim, 1e-9)

	sim, err = CosineSimilarity([]float32{1, 0}, []float32{-1, 0})
	require.NoError(t, err)
	require.InDelta(t, -1.0, sim, 1e-9)

	_, err = CosineSimilarity([]float32{0, 0}, []float32{1, 0})
	require.ErrorIs(t, err, appErr.ErrDegenerateVector)

	_, err = CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0})
	require.ErrorIs(t, err, appErr.ErrDimensionMismatch)
}

func TestSearchOrdersBySimilarity(t *testing.T) {
	candidates := []Candidate{
		{ID: "a", Embedding: []float32{1, 0}},
		{ID: "b", Embedding: []float32{0, 1}},
		{ID: "c", Embedding: []float32{0.7, 0.7}},
	}
	res, err := Search([]float32{1, 0}, candidates, 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	require.Equal(t, "a", res[0].ID)
	require.InDelta(t, 1.0, res[0].Similarity, 1e-6)
	require.Equal(t, "c", res[1].ID)
	require.InDelta(t, math.Sqrt2/2, res[1].Similarity, 1e-6)
}

func TestSearchBoundaries(t *testing.T) {
	res, err := Search([]float32{1, 0}, nil, 3)
	require.NoError(t, err)
	require.Empty(t, res)

	candidates := []Candidate{
		{ID: "x", Embedding: []float32{0, 1}},
		{ID: "y", Embedding: []float32{1, 1}},
	}
	res, err = Search([]float32{1, 0}, candidates, 10)
	require.NoError(t, err)
	require.Len(t, res, 2)
	require.Equal(t, "y", res[0].ID)
	require.Equal(t, "x", res[1].ID)

	_, err = Search([]float32{1, 0}, candidates, 0)
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestSearchStableTiesAndDegenerate(t *testing.T) {
	candidates := []Candidate{
		{ID: "first", Embedding: []float32{2, 0}},
		{ID: "zero", Embedding: []float32{0, 0}},
		{ID: "second", Embedding: []float32{5, 0}},
	}
	res, err := Search([]float32{1, 0}, candidates, 3)
	require.NoError(t, err)
	require.Equal(t, []string{"first", "second", "zero"}, []string{res[0].ID, res[1].ID, res[2].ID})
	require.Equal(t, 0.0, res[2].Similarity)

	_, err = Search([]float32{1, 0}, []Candidate{{ID: "bad", Embedding: []float32{1}}}, 1)
	require.ErrorIs(t, err, appErr.ErrDimensionMismatch)
}

func TestPredict(t *testing.T) {
	labels := []string{"drums", "keys", "guitar"}
	vectors := [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

	got, err := Predict([]float32{0.1, 0.9, 0.2}, labels, vectors)
	require.NoError(t, err)
	require.Equal(t, "keys", got)

	got, err = Predict([]float32{1, 1, 0}, labels, vectors)
	require.NoError(t, err)
	require.Equal(t, "drums", got)

	_, err = Predict([]float32{1, 0, 0}, labels, vectors[:2])
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

// Package projection maps embeddings onto a plane for plotting.
//
// The projection centres the batch on its mean and keeps the first two
// centred dimensions. It is not a principal component analysis.
package projection

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	appErr "github.com/xxxsen/samplesearch/internal/pkg/errors"
)

type Point struct {
	X float64
	Y float64
}

func Project(vectors [][]float32) ([]Point, error) {
	if len(vectors) == 0 {
		return nil, appErr.ErrEmptyBatch
	}
	dim := len(vectors[0])
	if dim < 2 {
		return nil, fmt.Errorf("need at least 2 dimensions, got %d: %w", dim, appErr.ErrDimensionMismatch)
	}
	rows := make([][]float64, len(vectors))
	mean := make([]float64, dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has %d dimensions, want %d: %w", i, len(v), dim, appErr.ErrDimensionMismatch)
		}
		row := make([]float64, dim)
		for j, x := range v {
			row[j] = float64(x)
		}
		rows[i] = row
		floats.Add(mean, row)
	}
	floats.Scale(1/float64(len(rows)), mean)

	points := make([]Point, len(rows))
	for i, row := range rows {
		floats.Sub(row, mean)
		points[i] = Point{X: row[0], Y: row[1]}
	}
	return points, nil
}

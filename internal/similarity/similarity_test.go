package similarity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{"identical vectors", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"opposite vectors", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"orthogonal vectors", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"scaled vectors", []float32{1, 1}, []float32{5, 5}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Cosine(tt.a, tt.b), 1e-9)
		})
	}
}

func TestCosineSymmetric(t *testing.T) {
	a := []float32{0.3, -1.2, 4.5, 0.01}
	b := []float32{2.2, 0.4, -0.9, 1.5}
	assert.Equal(t, Cosine(a, b), Cosine(b, a))
}

func TestCosineLengthMismatchIsNaN(t *testing.T) {
	assert.True(t, math.IsNaN(Cosine([]float32{1, 0, 0, 0}, []float32{1, 0})))
	assert.True(t, math.IsNaN(Cosine([]float32{1, 0}, []float32{1, 0, 0, 0})))
	assert.True(t, math.IsNaN(Cosine(nil, []float32{1})))
}

func TestCosineZeroVectorIsNaN(t *testing.T) {
	zero := []float32{0, 0, 0}
	v := []float32{1, 2, 3}
	assert.True(t, math.IsNaN(Cosine(zero, v)))
	assert.True(t, math.IsNaN(Cosine(v, zero)))
	assert.True(t, math.IsNaN(Cosine(zero, zero)))
}

package embeddings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float32
	}{
		{name: "identical vectors", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1.0},
		{name: "opposite vectors", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1.0},
		{name: "orthogonal vectors", a: []float32{1, 0}, b: []float32{0, 1}, want: 0.0},
		{name: "zero norm a", a: []float32{0, 0}, b: []float32{1, 1}, want: 0.0},
		{name: "zero norm b", a: []float32{1, 1}, b: []float32{0, 0}, want: 0.0},
		{name: "length mismatch", a: []float32{1, 1}, b: []float32{1}, want: 0.0},
		{name: "empty vectors", a: nil, b: nil, want: 0.0},
		{name: "scaled vectors", a: []float32{1, 2}, b: []float32{2, 4}, want: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-5)
		})
	}
}

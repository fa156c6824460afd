package openai

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestL2Normalize(t *testing.T) {
	cases := []struct {
		name string
		in   []float32
	}{
		{"simple", []float32{3, 4}},
		{"already unit", []float32{1, 0, 0}},
		{"negative components", []float32{-0.5, 2.5, -1.25}},
		{"tiny magnitude", []float32{1e-4, -1e-4, 1e-4}},
		{"large magnitude", []float32{1500, -2300, 800, 42}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := make([]float32, len(tc.in))
			copy(v, tc.in)
			l2normalize(v)
			assert.InDelta(t, 1.0, norm(v), 1e-6)
		})
	}
}

func TestL2NormalizePreservesDirection(t *testing.T) {
	v := []float32{3, 4}
	l2normalize(v)
	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(v[1]), 1e-6)
}

func TestL2NormalizeZeroVector(t *testing.T) {
	v := []float32{0, 0, 0}
	l2normalize(v)
	assert.Equal(t, []float32{0, 0, 0}, v)
}

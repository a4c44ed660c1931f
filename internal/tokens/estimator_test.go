package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty string", text: "", want: 1},
		{name: "whitespace only", text: "   \n\t  ", want: 1},
		{name: "single word", text: "hello", want: 1},
		{name: "three words", text: "the quick fox", want: 4},
		{name: "six words", text: "the quick brown fox jumps high", want: 8},
		{name: "newline separated", text: "one\ntwo\nthree", want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Estimate(tt.text))
		})
	}
}

func TestEstimateMonotonic(t *testing.T) {
	// Estimate must be non-decreasing in word count.
	prev := 0
	for words := 0; words <= 200; words++ {
		text := strings.Repeat("word ", words)
		got := Estimate(text)
		assert.GreaterOrEqual(t, got, prev, "estimate decreased at %d words", words)
		assert.GreaterOrEqual(t, got, 1)
		prev = got
	}
}

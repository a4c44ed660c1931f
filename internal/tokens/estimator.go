// Package tokens provides token count estimation for text budgeting.
//
// The estimate is a word-count heuristic (roughly 0.75 words per token),
// not a real tokenizer. Chunking and context building both use this
// estimator so their budgets compare like-for-like.
package tokens

import (
	"math"
	"strings"
)

// wordsPerToken is the assumed ratio of words to tokens for English prose.
const wordsPerToken = 0.75

// Estimate returns the estimated token count for text.
//
// The estimate is max(1, round(words/0.75)) where words is the number of
// whitespace-separated fields. Empty or all-whitespace text yields 1.
func Estimate(text string) int {
	words := len(strings.Fields(text))
	estimate := int(math.Round(float64(words) / wordsPerToken))
	if estimate < 1 {
		return 1
	}
	return estimate
}

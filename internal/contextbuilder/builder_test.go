package contextbuilder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/charityd/internal/retriever"
	"github.com/fyrsmithlabs/charityd/internal/tokens"
)

func result(text string, charity string) retriever.RetrievedResult {
	r := retriever.RetrievedResult{Text: text, Similarity: 0.9}
	if charity != "" {
		r.Metadata = map[string]any{"charity_name": charity}
	}
	return r
}

func TestBuildEmptyResults(t *testing.T) {
	assert.Equal(t, NoRelevantInformation, Build(nil, 1000, false))
	assert.Equal(t, NoRelevantInformation, Build([]retriever.RetrievedResult{}, 1000, true))
}

func TestBuildJoinsWithSeparator(t *testing.T) {
	results := []retriever.RetrievedResult{
		result("first chunk", ""),
		result("second chunk", ""),
	}

	got := Build(results, 0, false)
	assert.Equal(t, "first chunk\n\n---\n\nsecond chunk", got)
}

func TestBuildSourceAnnotations(t *testing.T) {
	results := []retriever.RetrievedResult{
		result("The charity funds schools.", "save_the_children"),
	}

	got := Build(results, 0, true)
	assert.Equal(t, "[Source: save_the_children]\nThe charity funds schools.", got)

	// Without metadata the text is used unannotated.
	got = Build([]retriever.RetrievedResult{result("no source here", "")}, 0, true)
	assert.Equal(t, "no source here", got)
}

func TestBuildStopsAtFirstOverflow(t *testing.T) {
	big := strings.Repeat("word ", 300)
	results := []retriever.RetrievedResult{
		result("short text here", ""),
		result(big, ""),
		result("tiny", ""),
	}

	budget := tokens.Estimate("short text here") + 10
	got := Build(results, budget, false)

	// The oversized second chunk stops accumulation; the small third chunk
	// must not be skipped ahead to.
	assert.Equal(t, "short text here", got)
	assert.NotContains(t, got, "tiny")
}

func TestBuildBudgetInvariant(t *testing.T) {
	results := []retriever.RetrievedResult{
		result(strings.Repeat("alpha ", 50), ""),
		result(strings.Repeat("beta ", 50), ""),
		result(strings.Repeat("gamma ", 50), ""),
	}

	budget := 150
	got := Build(results, budget, false)
	require.NotEqual(t, NoRelevantInformation, got)

	total := 0
	for _, part := range strings.Split(got, "\n\n---\n\n") {
		total += tokens.Estimate(part)
	}
	assert.LessOrEqual(t, total, budget)
}

func TestBuildFirstChunkOverBudget(t *testing.T) {
	results := []retriever.RetrievedResult{
		result(strings.Repeat("word ", 500), ""),
	}

	got := Build(results, 10, false)
	assert.Equal(t, NoRelevantInformation, got)
}

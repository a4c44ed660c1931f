// Package contextbuilder assembles retrieved chunks into the context block
// of an LLM prompt under a token budget.
package contextbuilder

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/charityd/internal/retriever"
	"github.com/fyrsmithlabs/charityd/internal/tokens"
)

// NoRelevantInformation is returned when no chunks survive retrieval.
// Prompts treat it as a signal to answer from general knowledge.
const NoRelevantInformation = "No relevant information found."

// separator joins chunks so the model can tell them apart.
const separator = "\n\n---\n\n"

// Build assembles retrieved results into a single context string.
//
// Results are consumed in their given order and accumulated greedily until
// the token budget would be exceeded; the first overflowing chunk stops
// accumulation entirely, later smaller chunks are not considered. A
// maxTokens <= 0 means no budget. When includeSources is set, each chunk
// is annotated with its charity_name metadata.
func Build(results []retriever.RetrievedResult, maxTokens int, includeSources bool) string {
	if len(results) == 0 {
		return NoRelevantInformation
	}

	parts := make([]string, 0, len(results))
	used := 0
	for _, result := range results {
		text := result.Text
		if includeSources {
			if source := sourceOf(result); source != "" {
				text = fmt.Sprintf("[Source: %s]\n%s", source, text)
			}
		}

		cost := tokens.Estimate(text)
		if maxTokens > 0 && used+cost > maxTokens {
			break
		}
		used += cost
		parts = append(parts, text)
	}

	if len(parts) == 0 {
		return NoRelevantInformation
	}
	return strings.Join(parts, separator)
}

// sourceOf extracts the charity name from result metadata.
func sourceOf(result retriever.RetrievedResult) string {
	if result.Metadata == nil {
		return ""
	}
	if name, ok := result.Metadata["charity_name"].(string); ok {
		return name
	}
	return ""
}

// Package prompts holds the prompt templates used for answering questions
// about charitable organizations.
package prompts

import (
	"fmt"
	"strings"
)

// DefaultCharityName is used when the caller does not name a charity.
const DefaultCharityName = "this organization"

// ragSystemPrompt grounds the model in the retrieved context and forbids
// fabrication.
const ragSystemPrompt = `You are a helpful assistant providing information about charitable organizations.
Your responses should:
1. Be based ONLY on the provided context/documents
2. Be accurate and factual
3. Cite information sources when possible
4. Say "I don't have information about that" if the context doesn't cover the topic
5. Be concise and clear

You should NOT:
- Make up or invent information not in the context
- Provide information outside the context
- Make assumptions about details not mentioned

Always prioritize accuracy over a perfect answer.`

// ragUserTemplate is the user-turn template for context-grounded Q&A.
const ragUserTemplate = `Based on the following context about %s, answer this question: %s

CONTEXT:
%s

ANSWER:`

// fallbackTemplate is the canned answer when retrieval finds nothing usable.
const fallbackTemplate = `I don't have enough information from %s's documents to answer: %s

You might want to:
1. Visit their website directly
2. Contact them for more specific information
3. Try a different question`

// FormatRAGPrompt returns the system and user prompts for a
// context-grounded answer.
func FormatRAGPrompt(query, context, charityName string) (system, user string) {
	if strings.TrimSpace(charityName) == "" {
		charityName = DefaultCharityName
	}
	return ragSystemPrompt, fmt.Sprintf(ragUserTemplate, charityName, query, context)
}

// FormatFallback returns the canned response used when no relevant context
// exists for the question.
func FormatFallback(query, charityName string) string {
	if strings.TrimSpace(charityName) == "" {
		charityName = DefaultCharityName
	}
	return fmt.Sprintf(fallbackTemplate, charityName, query)
}

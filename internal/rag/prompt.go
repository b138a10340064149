package rag

import (
	"fmt"
	"strings"
)

// ragTemplate mirrors the prompt shape handed to the generation provider:
// an instruction preamble, the retrieved context block, bounded history,
// and the question.
const ragTemplate = `You are an expert assistant. Use the provided context to answer the question accurately and concisely.
If the answer is not in the context, say you don't know. Do not hallucinate.

Context:
%s

Chat History:
%s

Question: %s

Helpful answer:`

// formatHistory renders the last n turns as alternating labeled lines.
func formatHistory(turns []Turn, n int) string {
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	var lines []string
	for _, t := range turns {
		lines = append(lines, "User: "+t.User)
		lines = append(lines, "Assistant: "+t.Assistant)
	}
	return strings.Join(lines, "\n")
}

// buildPrompt assembles the final prompt. A non-empty affect directive is
// prepended ahead of the template.
func buildPrompt(directive, context, history, question string) string {
	prompt := fmt.Sprintf(ragTemplate, context, history, question)
	if directive != "" {
		prompt = directive + "\n\n" + prompt
	}
	return prompt
}

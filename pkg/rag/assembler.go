package rag

import "strings"

const ellipsisMarker = " ..."

// Assemble merges an optional attachment section ahead of the series
// context, bounded to budget characters. Deterministic for identical
// inputs.
func Assemble(seriesText, attachmentText string, budget, attachmentBudget int) string {
	var sb strings.Builder

	if attachmentText != "" {
		sb.WriteString("--- Documento anexado ---\n")
		sb.WriteString(ShortenText(attachmentText, attachmentBudget))
		sb.WriteString("\n--- Fim do documento ---\n\n")
	}
	sb.WriteString(seriesText)

	return ShortenText(sb.String(), budget)
}

// ShortenText truncates text to at most limit characters at a word
// boundary, marking the cut with an ellipsis. A hard mid-token cut
// confuses the generator, so the last whole word before the limit wins.
func ShortenText(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	if limit <= len(ellipsisMarker) {
		return strings.TrimSpace(text[:limit])
	}

	cut := text[:limit-len(ellipsisMarker)]
	if idx := strings.LastIndexAny(cut, " \t\n"); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " \t\n") + ellipsisMarker
}

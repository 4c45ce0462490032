package rag

import (
	"bytes"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/xuri/excelize/v2"
)

// ExtractionPlaceholder replaces attachment text when extraction fails.
// It reaches the generator as-is, so it has to read as context.
const ExtractionPlaceholder = "[Não foi possível extrair o texto do documento anexado.]"

var xmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// ExtractText extracts plain text from an attachment. Extraction never
// fails the request: unreadable content degrades to a placeholder.
func ExtractText(data []byte, contentType string) string {
	if len(data) == 0 {
		return ""
	}

	var text string
	switch {
	case strings.Contains(contentType, "pdf"):
		text = extractPDF(data)
	case strings.Contains(contentType, "wordprocessingml"), strings.HasSuffix(contentType, "msword"):
		text = extractDocx(data)
	case strings.Contains(contentType, "spreadsheetml"), strings.Contains(contentType, "ms-excel"):
		text = extractXlsx(data)
	case strings.HasPrefix(contentType, "text/"), strings.Contains(contentType, "json"), strings.Contains(contentType, "csv"):
		text = string(data)
	default:
		slog.Warn("unsupported attachment content type", "content_type", contentType)
		return ExtractionPlaceholder
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return ExtractionPlaceholder
	}
	return text
}

func extractPDF(data []byte) string {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		slog.Warn("pdf extraction failed", "error", err)
		return ""
	}

	content, err := reader.GetPlainText()
	if err != nil {
		slog.Warn("pdf text extraction failed", "error", err)
		return ""
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, content); err != nil {
		slog.Warn("pdf text read failed", "error", err)
		return ""
	}
	return sb.String()
}

func extractDocx(data []byte) string {
	reader, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		slog.Warn("docx extraction failed", "error", err)
		return ""
	}
	defer reader.Close()

	content := reader.Editable().GetContent()
	return xmlTagPattern.ReplaceAllString(content, " ")
}

func extractXlsx(data []byte) string {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		slog.Warn("xlsx extraction failed", "error", err)
		return ""
	}
	defer file.Close()

	var sb strings.Builder
	for _, sheet := range file.GetSheetList() {
		rows, err := file.GetRows(sheet)
		if err != nil {
			continue
		}
		for _, row := range rows {
			sb.WriteString(strings.Join(row, "\t"))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

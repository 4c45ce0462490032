package rag

import (
	"fmt"
	"strconv"

	"github.com/ipeadata-rag/serieshub/pkg/ipea"
)

// Document is one indexed unit: a single time-series observation
// rendered as a searchable sentence.
type Document struct {
	ID        string
	Text      string
	SerCodigo string
	Date      string
	Value     string
	Name      string
}

// DocumentID is stable per point position so re-indexing overwrites
// instead of duplicating.
func DocumentID(sercodigo string, position int) string {
	return fmt.Sprintf("%s:%d", sercodigo, position)
}

// NewPointDocument renders one observation into a Document. The
// sentence shape feeds both the embedding and the stored text, so
// changes here require reindexing.
func NewPointDocument(sercodigo string, position int, point ipea.Point, meta *ipea.Metadata) Document {
	date := point.Date.Format("2006-01-02")
	value := strconv.FormatFloat(point.Value, 'f', -1, 64)

	name := sercodigo
	unit := ""
	description := ""
	if meta != nil {
		if meta.Name != "" {
			name = meta.Name
		}
		unit = meta.Unit
		description = meta.Description
	}

	text := fmt.Sprintf("Série %s (%s).", name, sercodigo)
	if description != "" {
		text += fmt.Sprintf(" Descrição: %s.", description)
	}
	text += fmt.Sprintf(" Data: %s - Valor: %s", date, value)
	if unit != "" {
		text += fmt.Sprintf(" (%s)", unit)
	}

	return Document{
		ID:        DocumentID(sercodigo, position),
		Text:      text,
		SerCodigo: sercodigo,
		Date:      date,
		Value:     value,
		Name:      name,
	}
}

// metadata returns the stored fields of the document, text included.
func (d Document) metadata() map[string]interface{} {
	return map[string]interface{}{
		"text":      d.Text,
		"sercodigo": d.SerCodigo,
		"date":      d.Date,
		"value":     d.Value,
		"name":      d.Name,
	}
}

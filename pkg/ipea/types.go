// Package ipea is the client boundary to the ipeadata OData API: series
// values, series metadata, and keyword metadata search.
package ipea

import (
	"errors"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// ErrSeriesNotFound reports that the catalog has no such series code.
// Distinct from transient network faults, which are retried and then
// surfaced as wrapped transport errors.
var ErrSeriesNotFound = errors.New("series not found")

// Point is one observation of a time series.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Metadata describes one catalog series.
type Metadata struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Unit        string `json:"unit"`
	Description string `json:"description"`
}

// rawValueRow captures the field-name variants the API has been
// observed to use for date and value columns. Normalization into the
// canonical Point happens here, at the provider boundary.
type rawValueRow struct {
	SerCodigo string   `mapstructure:"SERCODIGO"`
	ValData   string   `mapstructure:"VALDATA"`
	Data      string   `mapstructure:"Data"`
	DataRef   string   `mapstructure:"DataReferencia"`
	ValValor  *float64 `mapstructure:"VALVALOR"`
	Valor     *float64 `mapstructure:"Valor"`
}

type rawMetadataRow struct {
	SerCodigo string `mapstructure:"SERCODIGO"`
	SerNome   string `mapstructure:"SERNOME"`
	Name      string `mapstructure:"NAME"`
	UnidNome  string `mapstructure:"UNINOME"`
	Unit      string `mapstructure:"UNIT"`
	SerComent string `mapstructure:"SERCOMENTARIO"`
	Comment   string `mapstructure:"COMMENT"`
	Descricao string `mapstructure:"Descricao"`
}

var dateLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", s)
}

// decodePoint normalizes one free-form OData row into a Point.
// Rows without a usable value (revoked observations) return ok=false.
func decodePoint(row map[string]interface{}) (Point, bool, error) {
	var raw rawValueRow
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &raw,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Point{}, false, err
	}
	if err := decoder.Decode(row); err != nil {
		return Point{}, false, fmt.Errorf("failed to decode series row: %w", err)
	}

	dateStr := raw.ValData
	if dateStr == "" {
		dateStr = raw.Data
	}
	if dateStr == "" {
		dateStr = raw.DataRef
	}
	if dateStr == "" {
		return Point{}, false, nil
	}

	value := raw.ValValor
	if value == nil {
		value = raw.Valor
	}
	if value == nil {
		return Point{}, false, nil
	}

	date, err := parseDate(dateStr)
	if err != nil {
		return Point{}, false, err
	}

	return Point{Date: date, Value: *value}, true, nil
}

func decodeMetadata(row map[string]interface{}) (Metadata, error) {
	var raw rawMetadataRow
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &raw,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Metadata{}, err
	}
	if err := decoder.Decode(row); err != nil {
		return Metadata{}, fmt.Errorf("failed to decode metadata row: %w", err)
	}

	meta := Metadata{Code: raw.SerCodigo}
	if meta.Name = raw.SerNome; meta.Name == "" {
		meta.Name = raw.Name
	}
	if meta.Unit = raw.UnidNome; meta.Unit == "" {
		meta.Unit = raw.Unit
	}
	if meta.Description = raw.SerComent; meta.Description == "" {
		meta.Description = raw.Comment
	}
	if meta.Description == "" {
		meta.Description = raw.Descricao
	}
	return meta, nil
}

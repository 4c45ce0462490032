package ipea

import (
	"testing"
	"time"
)

func TestDecodePointFieldVariants(t *testing.T) {
	tests := []struct {
		name      string
		row       map[string]interface{}
		wantOK    bool
		wantDate  string
		wantValue float64
	}{
		{
			name:      "canonical VALDATA and VALVALOR",
			row:       map[string]interface{}{"VALDATA": "2020-01-01T00:00:00-03:00", "VALVALOR": 3.14},
			wantOK:    true,
			wantDate:  "2020-01-01",
			wantValue: 3.14,
		},
		{
			name:      "alternate Data and Valor",
			row:       map[string]interface{}{"Data": "2019-06-01", "Valor": 10.0},
			wantOK:    true,
			wantDate:  "2019-06-01",
			wantValue: 10.0,
		},
		{
			name:      "DataReferencia fallback",
			row:       map[string]interface{}{"DataReferencia": "2021-12-01T00:00:00", "VALVALOR": -1.5},
			wantOK:    true,
			wantDate:  "2021-12-01",
			wantValue: -1.5,
		},
		{
			name:   "revoked observation has null value",
			row:    map[string]interface{}{"VALDATA": "2020-01-01", "VALVALOR": nil},
			wantOK: false,
		},
		{
			name:   "row without date",
			row:    map[string]interface{}{"VALVALOR": 1.0},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			point, ok, err := decodePoint(tt.row)
			if err != nil {
				t.Fatalf("decodePoint returned error: %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got := point.Date.Format("2006-01-02"); got != tt.wantDate {
				t.Errorf("date = %s, want %s", got, tt.wantDate)
			}
			if point.Value != tt.wantValue {
				t.Errorf("value = %v, want %v", point.Value, tt.wantValue)
			}
		})
	}
}

func TestDecodePointBadDate(t *testing.T) {
	_, _, err := decodePoint(map[string]interface{}{
		"VALDATA":  "01/2020",
		"VALVALOR": 1.0,
	})
	if err == nil {
		t.Fatal("expected error for unrecognized date format")
	}
}

func TestDecodeMetadataVariants(t *testing.T) {
	meta, err := decodeMetadata(map[string]interface{}{
		"SERCODIGO":     "BM12_TJOVER12",
		"SERNOME":       "Taxa de juros - Over / Selic",
		"UNINOME":       "(% a.m.)",
		"SERCOMENTARIO": "Taxa de juros overnight.",
	})
	if err != nil {
		t.Fatalf("decodeMetadata returned error: %v", err)
	}
	if meta.Code != "BM12_TJOVER12" {
		t.Errorf("code = %s", meta.Code)
	}
	if meta.Name != "Taxa de juros - Over / Selic" {
		t.Errorf("name = %s", meta.Name)
	}
	if meta.Unit != "(% a.m.)" {
		t.Errorf("unit = %s", meta.Unit)
	}
	if meta.Description != "Taxa de juros overnight." {
		t.Errorf("description = %s", meta.Description)
	}

	meta, err = decodeMetadata(map[string]interface{}{
		"SERCODIGO": "X1",
		"NAME":      "Fallback name",
		"UNIT":      "index",
		"Descricao": "Fallback description",
	})
	if err != nil {
		t.Fatalf("decodeMetadata returned error: %v", err)
	}
	if meta.Name != "Fallback name" || meta.Unit != "index" || meta.Description != "Fallback description" {
		t.Errorf("fallback fields not picked up: %+v", meta)
	}
}

func TestParseDateLayouts(t *testing.T) {
	for _, s := range []string{
		"2020-03-01T00:00:00-03:00",
		"2020-03-01T00:00:00",
		"2020-03-01",
	} {
		got, err := parseDate(s)
		if err != nil {
			t.Fatalf("parseDate(%q) error: %v", s, err)
		}
		want := time.Date(2020, 3, 1, 0, 0, 0, 0, got.Location())
		if !got.Equal(want) && got.Format("2006-01-02") != "2020-03-01" {
			t.Errorf("parseDate(%q) = %v", s, got)
		}
	}
}

package rag

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ipeadata-rag/serieshub/pkg/ipea"
)

// SeriesProvider is the upstream data capability the builder consumes.
type SeriesProvider interface {
	FetchSeries(ctx context.Context, code string) ([]ipea.Point, error)
}

// NameResolver maps a series code to its display name.
type NameResolver interface {
	DisplayName(code string) string
}

// ChartPoint is one presentation-only observation of the filtered series.
type ChartPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// SeriesContext is the Stage-2 output consumed by generation.
type SeriesContext struct {
	Text        string       `json:"text"`
	ChartPoints []ChartPoint `json:"chart_points"`
}

// ContextBuilder fetches a confirmed series, filters it by a year range
// inferred from the question, summarizes, and renders the bounded
// textual context.
type ContextBuilder struct {
	provider SeriesProvider
	names    NameResolver
}

func NewContextBuilder(provider SeriesProvider, names NameResolver) *ContextBuilder {
	return &ContextBuilder{
		provider: provider,
		names:    names,
	}
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// InferYearRange extracts an inclusive year range from free text.
// At least two distinct in-range years are required; a single year
// mention is not a range.
func InferYearRange(question string) (start, end int, ok bool) {
	matches := yearPattern.FindAllString(question, -1)

	distinct := make(map[int]bool)
	for _, m := range matches {
		year, err := strconv.Atoi(m)
		if err != nil || year < 1900 || year > 2099 {
			continue
		}
		distinct[year] = true
	}
	if len(distinct) < 2 {
		return 0, 0, false
	}

	years := make([]int, 0, len(distinct))
	for y := range distinct {
		years = append(years, y)
	}
	sort.Ints(years)
	return years[0], years[len(years)-1], true
}

// filterByYears keeps points whose year lies in [start, end] inclusive.
func filterByYears(points []ipea.Point, start, end int) []ipea.Point {
	filtered := make([]ipea.Point, 0, len(points))
	for _, p := range points {
		if y := p.Date.Year(); y >= start && y <= end {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// annualMeans averages values per calendar year, ascending by year.
func annualMeans(points []ipea.Point) []ChartPoint {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, p := range points {
		y := p.Date.Year()
		sums[y] += p.Value
		counts[y]++
	}

	years := make([]int, 0, len(sums))
	for y := range sums {
		years = append(years, y)
	}
	sort.Ints(years)

	means := make([]ChartPoint, 0, len(years))
	for _, y := range years {
		means = append(means, ChartPoint{
			Date:  strconv.Itoa(y),
			Value: sums[y] / float64(counts[y]),
		})
	}
	return means
}

// BuildContext runs Stage-2 for a confirmed series code.
func (b *ContextBuilder) BuildContext(ctx context.Context, sercodigo string, question string) (*SeriesContext, error) {
	points, err := b.provider.FetchSeries(ctx, sercodigo)
	if err != nil {
		if errors.Is(err, ipea.ErrSeriesNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderFetch, err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: %s has no data", ipea.ErrSeriesNotFound, sercodigo)
	}

	filtered := points
	if start, end, ok := InferYearRange(question); ok {
		filtered = filterByYears(points, start, end)
		if len(filtered) == 0 {
			// The inferred range misses the series coverage; answer
			// from the full series instead of failing.
			filtered = points
		}
	}

	name := b.names.DisplayName(sercodigo)
	text := renderContext(question, name, sercodigo, filtered)

	chart := make([]ChartPoint, 0, len(filtered))
	for _, p := range filtered {
		chart = append(chart, ChartPoint{
			Date:  p.Date.Format("2006-01-02"),
			Value: p.Value,
		})
	}

	return &SeriesContext{Text: text, ChartPoints: chart}, nil
}

// renderContext produces the fixed-shape context block. Field order and
// labels are stable: downstream prompting depends on this shape.
func renderContext(question, name, sercodigo string, points []ipea.Point) string {
	first := points[0]
	last := points[len(points)-1]

	var sb strings.Builder
	fmt.Fprintf(&sb, "Pergunta: %s\n\n", question)
	fmt.Fprintf(&sb, "Série: %s (%s)\n", name, sercodigo)
	fmt.Fprintf(&sb, "Período analisado: %s a %s\n",
		first.Date.Format("2006-01-02"), last.Date.Format("2006-01-02"))
	fmt.Fprintf(&sb, "Valor inicial: %s em %s\n",
		formatValue(first.Value), first.Date.Format("2006-01-02"))
	fmt.Fprintf(&sb, "Valor final: %s em %s\n",
		formatValue(last.Value), last.Date.Format("2006-01-02"))

	// Short series are listed as-is; annual averaging on a handful of
	// points degenerates to the points themselves.
	if len(points) > 12 {
		sb.WriteString("\nMédias anuais:\n")
		for _, m := range annualMeans(points) {
			fmt.Fprintf(&sb, "%s: %s\n", m.Date, formatValue(m.Value))
		}
	} else {
		sb.WriteString("\nObservações:\n")
		for _, p := range points {
			fmt.Fprintf(&sb, "%s: %s\n", p.Date.Format("2006-01-02"), formatValue(p.Value))
		}
	}

	return sb.String()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

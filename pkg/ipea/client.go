package ipea

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/ipeadata-rag/serieshub/pkg/config"
	"github.com/ipeadata-rag/serieshub/pkg/httpclient"
)

// Client talks to the ipeadata OData v4 API.
type Client struct {
	baseURL    string
	maxRetries int
	pageSize   int
	httpClient *httpclient.Client
}

// odataResponse is the envelope of every OData collection response.
type odataResponse struct {
	Value []map[string]interface{} `json:"value"`
}

func NewClient(cfg *config.IpeaConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		maxRetries: cfg.MaxRetries,
		pageSize:   cfg.MetadataPageSize,
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{
				Timeout: time.Duration(cfg.Timeout) * time.Second,
			}),
			httpclient.WithMaxRetries(cfg.MaxRetries),
			httpclient.WithHeaderParser(httpclient.ParseStandardHeaders),
		),
	}
}

// FetchSeries returns the full ordered series for a code.
// A code absent from the catalog yields ErrSeriesNotFound.
func (c *Client) FetchSeries(ctx context.Context, code string) ([]Point, error) {
	endpoint := fmt.Sprintf("%s/ValoresSerie(SERCODIGO='%s')", c.baseURL, url.PathEscape(code))

	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch series %s: %w", code, err)
	}

	points := make([]Point, 0, len(resp.Value))
	for _, row := range resp.Value {
		point, ok, err := decodePoint(row)
		if err != nil {
			slog.Debug("skipping malformed series row", "sercodigo", code, "error", err)
			continue
		}
		if ok {
			points = append(points, point)
		}
	}

	if len(points) == 0 {
		// The OData service answers an empty collection for unknown
		// codes; resolve the ambiguity against the catalog.
		if _, err := c.FetchMetadata(ctx, code); err != nil {
			return nil, err
		}
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	return points, nil
}

// FetchMetadata returns catalog metadata for one series code.
func (c *Client) FetchMetadata(ctx context.Context, code string) (*Metadata, error) {
	endpoint := fmt.Sprintf("%s/Metadados(SERCODIGO='%s')", c.baseURL, url.PathEscape(code))

	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata for %s: %w", code, err)
	}

	if len(resp.Value) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSeriesNotFound, code)
	}

	meta, err := decodeMetadata(resp.Value[0])
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// SearchMetadata searches the catalog by keyword over name and
// description, returning at most top entries.
func (c *Client) SearchMetadata(ctx context.Context, keyword string, top int) ([]Metadata, error) {
	if keyword == "" {
		return nil, nil
	}
	if top <= 0 {
		top = 20
	}

	filter := fmt.Sprintf("contains(SERNOME,'%s') or contains(SERCOMENTARIO,'%s')", keyword, keyword)
	endpoint := fmt.Sprintf("%s/Metadados?$filter=%s&$top=%d",
		c.baseURL, url.QueryEscape(filter), top)

	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to search metadata: %w", err)
	}

	results := make([]Metadata, 0, len(resp.Value))
	for _, row := range resp.Value {
		meta, err := decodeMetadata(row)
		if err != nil {
			continue
		}
		results = append(results, meta)
	}
	return results, nil
}

// FetchCatalog returns metadata for every series in the catalog.
func (c *Client) FetchCatalog(ctx context.Context) ([]Metadata, error) {
	var catalog []Metadata

	for skip := 0; ; skip += c.pageSize {
		endpoint := fmt.Sprintf("%s/Metadados?$top=%d&$skip=%d", c.baseURL, c.pageSize, skip)

		resp, err := c.get(ctx, endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch catalog page at offset %d: %w", skip, err)
		}

		for _, row := range resp.Value {
			meta, err := decodeMetadata(row)
			if err != nil || meta.Code == "" {
				continue
			}
			catalog = append(catalog, meta)
		}

		if len(resp.Value) < c.pageSize {
			break
		}
	}

	return catalog, nil
}

// get performs a GET with bounded retry on transport-level failures.
// HTTP-status retries are handled inside the httpclient.
func (c *Client) get(ctx context.Context, endpoint string) (*odataResponse, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			slog.Debug("ipeadata request failed, retrying", "attempt", attempt+1, "error", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrSeriesNotFound
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("ipeadata API returned status %d", resp.StatusCode)
			continue
		}

		var parsed odataResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, fmt.Errorf("failed to decode OData response: %w", err)
		}
		return &parsed, nil
	}

	return nil, fmt.Errorf("ipeadata request failed after %d attempts: %w", c.maxRetries, lastErr)
}

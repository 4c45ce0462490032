package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"sync/atomic"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ipeadata-rag/serieshub/pkg/config"
	"github.com/ipeadata-rag/serieshub/pkg/ipea"
	"github.com/ipeadata-rag/serieshub/pkg/rag"
)

// IndexCmd indexes series into the vector store. It is the offline
// batch path; it may run while queries are served, since upserts are
// independent per document.
type IndexCmd struct {
	Codes       []string `arg:"" optional:"" help:"Series codes to index."`
	All         bool     `help:"Index every series in the catalog."`
	Limit       int      `help:"Cap the number of series when using --all." default:"0"`
	Concurrency int      `help:"Concurrent series fetches." default:"4"`
}

func (c *IndexCmd) Run(cli *CLI) error {
	if !c.All && len(c.Codes) == 0 {
		return fmt.Errorf("nothing to index: pass series codes or --all")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}

	embedder, store, err := buildRetrievalStack(ctx, cfg)
	if err != nil {
		return err
	}
	defer embedder.Close()
	defer store.Close()

	ipeaClient := ipea.NewClient(&cfg.Ipea)
	indexer := rag.NewIndexer(embedder, store, cfg.VectorStore.Collection)

	codes := c.Codes
	if c.All {
		catalog, err := ipeaClient.FetchCatalog(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch catalog: %w", err)
		}
		codes = codes[:0]
		for _, meta := range catalog {
			codes = append(codes, meta.Code)
		}
		if c.Limit > 0 && len(codes) > c.Limit {
			codes = codes[:c.Limit]
		}
	}

	var indexed, skipped, points atomic.Int64

	// Fetches run concurrently; embedding throughput is bounded by the
	// embedder itself.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Concurrency)

	for _, code := range codes {
		code := code
		g.Go(func() error {
			series, err := ipeaClient.FetchSeries(gctx, code)
			if err != nil {
				slog.Warn("skipping series, fetch failed", "sercodigo", code, "error", err)
				skipped.Add(1)
				return nil
			}

			meta, err := ipeaClient.FetchMetadata(gctx, code)
			if err != nil {
				slog.Debug("indexing without metadata", "sercodigo", code, "error", err)
				meta = nil
			}

			n, err := indexer.IndexSeries(gctx, code, series, meta)
			if err != nil {
				return fmt.Errorf("failed to index %s: %w", code, err)
			}
			if n == 0 {
				skipped.Add(1)
				return nil
			}
			indexed.Add(1)
			points.Add(int64(n))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Printf("indexed %d series (%d points), skipped %d\n",
		indexed.Load(), points.Load(), skipped.Load())
	return nil
}

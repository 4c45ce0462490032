package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/ipeadata-rag/serieshub/pkg/config"
	"github.com/ipeadata-rag/serieshub/pkg/databases"
	"github.com/ipeadata-rag/serieshub/pkg/embedders"
	"github.com/ipeadata-rag/serieshub/pkg/ipea"
	"github.com/ipeadata-rag/serieshub/pkg/llms"
	"github.com/ipeadata-rag/serieshub/pkg/rag"
	"github.com/ipeadata-rag/serieshub/pkg/server"
)

// ServeCmd starts the HTTP query server.
type ServeCmd struct {
	Address string `help:"Listen address (overrides config)."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if c.Address != "" {
		cfg.Server.Address = c.Address
	}

	embedder, store, err := buildRetrievalStack(ctx, cfg)
	if err != nil {
		return err
	}
	defer embedder.Close()
	defer store.Close()

	ipeaClient := ipea.NewClient(&cfg.Ipea)
	cache := ipea.NewMetadataCache(ipeaClient)
	if err := cache.Load(ctx); err != nil {
		// Names degrade to raw codes until an admin rebuild succeeds.
		slog.Warn("metadata cache load failed, serving without names", "error", err)
	}

	llmRegistry := llms.NewLLMRegistry()
	for name, llmCfg := range cfg.LLMs {
		llmCfg := llmCfg
		if _, err := llmRegistry.CreateLLMFromConfig(name, &llmCfg); err != nil {
			slog.Warn("skipping generation backend", "name", name, "error", err)
		}
	}
	if llmRegistry.Count() == 0 {
		slog.Warn("no generation backends configured, queries will fail until one is")
	}
	gateway := llms.NewGateway(llmRegistry, cfg.Generation.Preferred)

	collection := cfg.VectorStore.Collection
	locator := rag.NewLocator(embedder, store, collection, cfg.RAG.Oversample)
	builder := rag.NewContextBuilder(ipeaClient, cache)
	engine := rag.NewEngine(locator, builder, gateway, &cfg.RAG)
	indexer := rag.NewIndexer(embedder, store, collection)

	srv := server.New(&cfg.Server, engine, indexer, cache, ipeaClient)
	return srv.Start(ctx)
}

// buildRetrievalStack creates the embedder and vector store and waits
// for the store to become ready.
func buildRetrievalStack(ctx context.Context, cfg *config.Config) (embedders.EmbedderProvider, databases.DatabaseProvider, error) {
	embedderRegistry := embedders.NewEmbedderRegistry()
	embedder, err := embedderRegistry.CreateEmbedderFromConfig("default", &cfg.Embedder)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	dbRegistry := databases.NewDatabaseRegistry()
	store, err := dbRegistry.CreateDatabaseFromConfig("default", &cfg.VectorStore)
	if err != nil {
		embedder.Close()
		return nil, nil, fmt.Errorf("failed to create vector store: %w", err)
	}

	probe := databases.NewReadinessProbe(
		cfg.VectorStore.ReadyAttempts,
		time.Duration(cfg.VectorStore.ReadyIntervalSeconds)*time.Second,
	)
	if err := probe.WaitReady(ctx, store, cfg.VectorStore.Collection, uint64(cfg.Embedder.Dimension)); err != nil {
		embedder.Close()
		store.Close()
		return nil, nil, err
	}

	return embedder, store, nil
}

// Package app provides the Cognova server application.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iranzithierry/cognova-backend/cmd/cognova/app/options"
	chatbiz "github.com/iranzithierry/cognova-backend/internal/chat/biz"
	chathandler "github.com/iranzithierry/cognova-backend/internal/chat/handler"
	chatrouter "github.com/iranzithierry/cognova-backend/internal/chat/router"
	chatstore "github.com/iranzithierry/cognova-backend/internal/chat/store"
	"github.com/iranzithierry/cognova-backend/internal/pkg/chunker"
	ragbiz "github.com/iranzithierry/cognova-backend/internal/rag/biz"
	raghandler "github.com/iranzithierry/cognova-backend/internal/rag/handler"
	ragrouter "github.com/iranzithierry/cognova-backend/internal/rag/router"
	ragstore "github.com/iranzithierry/cognova-backend/internal/rag/store"
	milvuscomp "github.com/iranzithierry/cognova-backend/pkg/component/milvus"
	pgcomp "github.com/iranzithierry/cognova-backend/pkg/component/postgres"
	rediscomp "github.com/iranzithierry/cognova-backend/pkg/component/redis"
	"github.com/iranzithierry/cognova-backend/pkg/llm"

	// Register the LLM provider factories.
	_ "github.com/iranzithierry/cognova-backend/pkg/llm/openai"
	_ "github.com/iranzithierry/cognova-backend/pkg/llm/workersai"
)

const commandDesc = `Cognova chatbot backend

Streams RAG-grounded chat completions over SSE, with source ingestion,
hybrid retrieval and mid-stream tool calling.`

// NewServerCommand creates the server command.
func NewServerCommand() *cobra.Command {
	opts := options.NewServerOptions()
	var configFile string

	cmd := &cobra.Command{
		Use:          "cognova-server",
		Short:        "Cognova chatbot backend",
		Long:         commandDesc,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				viper.SetConfigFile(configFile)
				if err := viper.ReadInConfig(); err != nil {
					return fmt.Errorf("failed to read configuration: %w", err)
				}
				if err := viper.Unmarshal(opts); err != nil {
					return fmt.Errorf("failed to parse configuration: %w", err)
				}
			}
			if err := opts.Complete(); err != nil {
				return err
			}
			if err := opts.Validate(); err != nil {
				return err
			}
			return run(opts)
		},
	}

	opts.AddFlags(cmd.Flags())
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to the configuration file.")
	return cmd
}

// run wires the components together and serves until a shutdown signal.
func run(opts *options.ServerOptions) error {
	if err := opts.LogOptions.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx := setupSignalContext()

	db, err := pgcomp.New(opts.PostgresOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	convStore := chatstore.NewConversationStore(db)
	if err := convStore.AutoMigrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	redisClient, err := rediscomp.New(ctx, opts.RedisOptions)
	if err != nil {
		// Redis only backs the search cache; run without it.
		logger.Warnw("redis unavailable, search cache disabled", "error", err.Error())
		redisClient = nil
	}

	var vectorStore ragstore.VectorStore
	switch opts.RAGOptions.Store {
	case "memory":
		vectorStore = ragstore.NewMemoryStore()
	default:
		milvusClient, err := milvuscomp.New(opts.MilvusOptions)
		if err != nil {
			return fmt.Errorf("failed to connect to milvus: %w", err)
		}
		vectorStore = ragstore.NewMilvusStore(milvusClient, opts.RAGOptions.Collection)
	}

	embedProvider, err := llm.NewEmbeddingProvider(opts.EmbeddingOptions.Provider, opts.EmbeddingOptions.ToConfigMap())
	if err != nil {
		return fmt.Errorf("failed to create embedding provider: %w", err)
	}
	chatProvider, err := llm.NewChatProvider(opts.ChatOptions.Provider, opts.ChatOptions.ToConfigMap())
	if err != nil {
		return fmt.Errorf("failed to create chat provider: %w", err)
	}

	embedder := ragbiz.NewEmbedder(embedProvider, &ragbiz.EmbedderConfig{
		BatchSize:   opts.RAGOptions.EmbedBatchSize,
		Dimension:   opts.RAGOptions.EmbeddingDim,
		MaxTextSize: opts.RAGOptions.ChunkMaxSize,
	})
	ck := chunker.New(&chunker.Config{
		MaxSize:       opts.RAGOptions.ChunkMaxSize,
		Overlap:       opts.RAGOptions.ChunkOverlap,
		ContextWindow: opts.RAGOptions.ContextWindow,
	})

	indexer := ragbiz.NewIndexer(vectorStore, embedder, ck, &ragbiz.IndexerConfig{
		EmbeddingDim: opts.RAGOptions.EmbeddingDim,
		Workers:      opts.RAGOptions.IndexWorkers,
	}, func(sourceID, status string, chunkCount int) {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := convStore.UpdateSourceStatus(sctx, sourceID, status, chunkCount); err != nil {
			logger.Warnw("failed to update source status",
				"source_id", sourceID,
				"status", status,
				"error", err.Error())
		}
	})

	retriever := ragbiz.NewRetriever(vectorStore, embedder, &ragbiz.RetrieverConfig{
		TopK:           opts.RAGOptions.TopK,
		SemanticWeight: opts.RAGOptions.SemanticWeight,
		LexicalWeight:  opts.RAGOptions.LexicalWeight,
	})
	searchCache := ragbiz.NewSearchCache(redisClient, &ragbiz.SearchCacheConfig{
		Enabled:   opts.RAGOptions.CacheEnabled && redisClient != nil,
		TTL:       opts.RAGOptions.CacheTTL,
		KeyPrefix: "search:",
	})
	searchService := ragbiz.NewSearchService(retriever, ragbiz.NewBooster(nil), searchCache)

	tools := chatbiz.NewToolRegistry()
	if err := tools.Register(chatbiz.NewSearchTool(searchService)); err != nil {
		return err
	}
	orchestrator := chatbiz.NewOrchestrator(convStore, tools, searchService, nil)

	chatHandler := chathandler.NewChatHandler(convStore, orchestrator, chatProvider)
	ragHandler := raghandler.NewRAGHandler(searchService, indexer, convStore, vectorStore, searchCache)

	gin.SetMode(opts.HTTPOptions.Mode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	chatrouter.Register(engine, chatHandler)
	ragrouter.Register(engine, ragHandler)

	srv := &http.Server{
		Addr:         opts.HTTPOptions.Addr,
		Handler:      engine,
		ReadTimeout:  opts.HTTPOptions.ReadTimeout,
		WriteTimeout: opts.HTTPOptions.WriteTimeout,
		IdleTimeout:  opts.HTTPOptions.IdleTimeout,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("HTTP server failed: %v", err)
		}
	}()
	logger.Infow("server started",
		"addr", opts.HTTPOptions.Addr,
		"vector_store", opts.RAGOptions.Store,
		"embedding_provider", embedProvider.Name(),
		"chat_provider", chatProvider.Name())

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("graceful shutdown failed", "error", err.Error())
	}

	indexer.Release()
	if err := vectorStore.Close(shutdownCtx); err != nil {
		logger.Warnw("failed to close vector store", "error", err.Error())
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}

// setupSignalContext returns a context cancelled on SIGINT or SIGTERM. A
// second signal exits immediately.
func setupSignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}

// Command docchat runs the document chat service: upload documents, index
// them for semantic retrieval, and answer questions grounded in them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/0xcro3dile/docchat-go/internal/adapters/docstore"
	"github.com/0xcro3dile/docchat-go/internal/adapters/embedding"
	"github.com/0xcro3dile/docchat-go/internal/adapters/filewatcher"
	"github.com/0xcro3dile/docchat-go/internal/adapters/llm"
	"github.com/0xcro3dile/docchat-go/internal/adapters/parser"
	"github.com/0xcro3dile/docchat-go/internal/adapters/vectordb"
	"github.com/0xcro3dile/docchat-go/internal/config"
	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
	"github.com/0xcro3dile/docchat-go/internal/domain/ports"
	"github.com/0xcro3dile/docchat-go/internal/domain/usecases"
	httpserver "github.com/0xcro3dile/docchat-go/internal/infrastructure/http"
	"github.com/0xcro3dile/docchat-go/internal/logging"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "docchat",
		Short:        "chat with your documents",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")

	rootCmd.AddCommand(
		serveCmd(&configPath),
		ingestCmd(&configPath),
		queryCmd(&configPath),
		resetCmd(&configPath),
		statsCmd(&configPath),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app wires the adapters into the usecases. The vector index is loaded
// once at startup and persisted by the ingestion flow after every batch.
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	index  ports.VectorIndex
	docs   ports.DocumentStore
	ingest *usecases.IngestUseCase
	query  *usecases.QueryUseCase
}

func newApp(configPath string) (*app, error) {
	godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	indexDir := filepath.Join(cfg.DataDir, "index")
	index, err := loadIndex(indexDir, log)
	if err != nil {
		return nil, err
	}

	docs, err := docstore.NewSQLiteStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	embedder, generator, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}

	retriever, err := usecases.NewRetriever(embedder, index)
	if err != nil {
		return nil, err
	}
	composer := usecases.NewComposer(generator)

	ingestUC := usecases.NewIngestUseCase(
		parser.NewExtractor(), embedder, index, docs, log,
		indexDir, cfg.Chunking.Size, cfg.Chunking.Overlap,
	)
	queryUC := usecases.NewQueryUseCase(retriever, composer, docs, log)

	return &app{
		cfg:    cfg,
		log:    log,
		index:  index,
		docs:   docs,
		ingest: ingestUC,
		query:  queryUC,
	}, nil
}

func (a *app) close() {
	a.docs.Close()
	a.log.Sync()
}

// loadIndex restores the persisted index. A corrupt store is diagnosed and
// replaced with an empty index rather than failing startup.
func loadIndex(dir string, log *zap.Logger) (ports.VectorIndex, error) {
	index, err := vectordb.Load(dir)
	switch {
	case err == nil:
		log.Info("index loaded", zap.Int("entries", index.Count()), zap.Int("dimension", index.Dimension()))
		return index, nil
	case errors.Is(err, os.ErrNotExist):
		log.Info("no persisted index, starting empty", zap.String("dir", dir))
		return vectordb.NewFlatIndex(), nil
	case errors.Is(err, ports.ErrCorruptStore):
		log.Warn("persisted index is corrupt, starting empty", zap.String("dir", dir), zap.Error(err))
		return vectordb.NewFlatIndex(), nil
	default:
		return nil, err
	}
}

func buildProvider(cfg *config.Config) (ports.EmbeddingService, ports.LLMService, error) {
	switch cfg.Provider.Type {
	case "ollama":
		return embedding.NewOllamaAdapter(cfg.Provider.BaseURL, cfg.Provider.EmbedModel),
			llm.NewOllamaAdapter(cfg.Provider.BaseURL), nil
	case "openai":
		key := cfg.APIKey()
		return embedding.NewOpenAIAdapter(cfg.Provider.BaseURL, key, cfg.Provider.EmbedModel),
			llm.NewOpenAIAdapter(cfg.Provider.BaseURL, key), nil
	case "gemini":
		key := cfg.APIKey()
		return embedding.NewGeminiAdapter(key, cfg.Provider.EmbedModel),
			llm.NewGeminiAdapter(key), nil
	default:
		return nil, nil, fmt.Errorf("unsupported provider type: %q", cfg.Provider.Type)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if a.cfg.WatchDir != "" {
				if err := a.watchDropFolder(ctx); err != nil {
					return err
				}
			}

			server := httpserver.NewServer(
				a.ingest, a.query, a.index, a.docs,
				a.defaultSettings(), a.log, a.cfg.Server.Addr,
			)
			return server.Start(ctx)
		},
	}
}

// watchDropFolder ingests files copied into the configured directory.
func (a *app) watchDropFolder(ctx context.Context) error {
	if err := os.MkdirAll(a.cfg.WatchDir, 0o755); err != nil {
		return fmt.Errorf("creating watch directory: %w", err)
	}
	watcher, err := filewatcher.New(nil, a.log)
	if err != nil {
		return err
	}
	events, err := watcher.Watch(ctx, a.cfg.WatchDir)
	if err != nil {
		return err
	}
	a.log.Info("watching drop folder", zap.String("dir", a.cfg.WatchDir))

	go func() {
		defer watcher.Stop()
		for event := range events {
			if event.Operation != ports.FileCreated && event.Operation != ports.FileModified {
				continue
			}
			if err := a.ingestFile(ctx, event.Path); err != nil {
				a.log.Warn("drop-folder ingestion failed", zap.String("path", event.Path), zap.Error(err))
			}
		}
	}()
	return nil
}

func (a *app) ingestFile(ctx context.Context, path string) error {
	docType := entities.DocumentTypeText
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		docType = entities.DocumentTypePDF
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, _, err = a.ingest.Ingest(ctx, filepath.Base(path), docType, data)
	return err
}

func (a *app) defaultSettings() entities.GenerationSettings {
	return entities.GenerationSettings{
		Model:       a.cfg.Generation.Model,
		Temperature: a.cfg.Generation.Temperature,
		MaxTokens:   a.cfg.Generation.MaxTokens,
		TopK:        a.cfg.Generation.TopK,
	}
}

func ingestCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file>...",
		Short: "ingest documents into the knowledge base",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			for _, path := range args {
				if err := a.ingestFile(cmd.Context(), path); err != nil {
					return fmt.Errorf("ingesting %s: %w", path, err)
				}
				fmt.Printf("ingested %s\n", path)
			}
			return nil
		},
	}
}

func queryCmd(configPath *string) *cobra.Command {
	var topK int
	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "ask a question against the knowledge base",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			settings := a.defaultSettings()
			if topK > 0 {
				settings.TopK = topK
			}
			answer, err := a.query.Query(cmd.Context(), args[0], settings)
			if err != nil {
				return err
			}
			fmt.Println(answer.Text)
			if len(answer.Sources) > 0 {
				fmt.Printf("\nSources: %s\n", strings.Join(answer.Sources, ", "))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&topK, "top-k", 0, "number of chunks to retrieve (default from config)")
	return cmd
}

func resetCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "clear the knowledge base",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()
			return a.ingest.Reset(cmd.Context())
		},
	}
}

func statsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "show knowledge base statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			docs, err := a.docs.ListDocuments(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("documents: %d\nchunks:    %d\ndimension: %d\n",
				len(docs), a.index.Count(), a.index.Dimension())
			return nil
		},
	}
}

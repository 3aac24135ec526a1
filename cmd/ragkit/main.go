// Command ragkit runs the consultant service: an HTTP server, plus
// ingestion, search, and an interactive chat shell for local use.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ragkit-dev/ragkit/agents"
	"github.com/ragkit-dev/ragkit/internal/consultant"
	"github.com/ragkit-dev/ragkit/internal/llm"
	"github.com/ragkit-dev/ragkit/internal/rag"
	"github.com/ragkit-dev/ragkit/internal/server"
	"github.com/ragkit-dev/ragkit/pkg/config"
	"github.com/ragkit-dev/ragkit/pkg/embeddings"
	"github.com/ragkit-dev/ragkit/pkg/observability"
	"github.com/ragkit-dev/ragkit/pkg/session"
	"github.com/ragkit-dev/ragkit/pkg/tools"
	"github.com/ragkit-dev/ragkit/pkg/vectorstore"
	"github.com/ragkit-dev/ragkit/pkg/vectorstore/memory"
	"github.com/ragkit-dev/ragkit/pkg/vectorstore/qdrant"
)

// Version is set via ldflags.
var Version = "dev"

var configFile string

func main() {
	root := &cobra.Command{
		Use:           "ragkit",
		Short:         "Retrieval-augmented consultant service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to config file")

	root.AddCommand(serveCmd(), ingestCmd(), searchCmd(), chatCmd())

	if err := root.Execute(); err != nil {
		log.Fatalf("ragkit: %v", err)
	}
}

// app holds the wired service graph shared by the subcommands.
type app struct {
	cfg        *config.Config
	store      *session.RedisStore
	vectors    vectorstore.VectorStore
	rag        *rag.Service
	consultant *consultant.Service
}

func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := session.NewRedisStore(session.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
		TTL:      cfg.Redis.TTL,
	})
	if err != nil {
		return nil, err
	}

	vectors, err := buildVectorStore(ctx, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	embedder, err := embeddings.NewOpenAIService(embeddings.OpenAIConfig{
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		Model:      cfg.OpenAI.EmbeddingModel,
		Dimensions: cfg.OpenAI.Dimensions,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	provider, err := llm.NewOpenAIProvider(llm.OpenAIConfig{
		APIKey:            cfg.OpenAI.APIKey,
		BaseURL:           cfg.OpenAI.BaseURL,
		Model:             cfg.OpenAI.Model,
		Timeout:           cfg.OpenAI.Timeout,
		RequestsPerSecond: cfg.OpenAI.RequestsPerSecond,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	ragSvc := rag.NewService(embedder, vectors, rag.Config{
		TopK:           cfg.Retrieval.TopK,
		SearchTopK:     cfg.Retrieval.SearchTopK,
		MinScore:       cfg.Retrieval.MinScore,
		MaxSegmentSize: cfg.Splitter.MaxSegmentSize,
		MaxOverlap:     cfg.Splitter.MaxOverlap,
	})

	consultantSvc := consultant.NewService(
		provider,
		agents.NewLoop(provider, registry, cfg.Agent.MaxIterations),
		ragSvc,
		session.NewManager(store, cfg.Agent.WindowMax),
	)

	return &app{
		cfg:        cfg,
		store:      store,
		vectors:    vectors,
		rag:        ragSvc,
		consultant: consultantSvc,
	}, nil
}

func (a *app) close() {
	a.vectors.Close()
	a.store.Close()
}

func buildVectorStore(ctx context.Context, cfg *config.Config) (vectorstore.VectorStore, error) {
	if cfg.Qdrant.URL == "" {
		log.Println("no qdrant url configured, using the in-process vector store")
		store, err := memory.NewStore(cfg.OpenAI.Dimensions)
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	store, err := qdrant.NewStore(qdrant.Config{
		URL:        cfg.Qdrant.URL,
		APIKey:     cfg.Qdrant.APIKey,
		Collection: cfg.Qdrant.Collection,
		Dimensions: cfg.OpenAI.Dimensions,
	})
	if err != nil {
		return nil, err
	}
	if err := store.EnsureReady(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func buildRegistry(cfg *config.Config) (*tools.Registry, error) {
	defs := []tools.Definition{tools.Calculator()}
	defs = append(defs, tools.ClockTools(time.Now)...)
	if cfg.Weather.APIKey != "" {
		defs = append(defs, tools.Weather(tools.WeatherConfig{APIKey: cfg.Weather.APIKey}))
	} else {
		log.Println("weather api key not set, weather tool disabled")
	}
	return tools.NewRegistry(defs...)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := observability.InitTracingFromEnv(); err != nil {
				return err
			}

			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			srv := server.New(server.Config{
				Addr:         a.cfg.Server.Addr,
				ReadTimeout:  a.cfg.Server.ReadTimeout,
				WriteTimeout: a.cfg.Server.WriteTimeout,
			}, a.consultant, a.rag, a.store)

			errChan := make(chan error, 1)
			go func() {
				errChan <- srv.ListenAndServe()
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errChan:
				return err
			case sig := <-quit:
				log.Printf("received %s, shutting down", sig)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				log.Printf("server shutdown: %v", err)
			}
			if err := observability.ShutdownTracing(ctx); err != nil {
				log.Printf("tracing shutdown: %v", err)
			}
			return nil
		},
	}
}

func ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Ingest documents into the vector index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				count, err := a.rag.Ingest(cmd.Context(), f, filepath.Base(path))
				f.Close()
				if err != nil {
					return fmt.Errorf("ingest %s: %w", path, err)
				}
				fmt.Printf("%s: %d segments\n", path, count)
			}
			return nil
		},
	}
}

func searchCmd() *cobra.Command {
	var topK int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the vector index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			matches, err := a.rag.Search(cmd.Context(), strings.Join(args, " "), topK)
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				fmt.Println("no matches")
				return nil
			}
			for _, m := range matches {
				fmt.Printf("%.3f  %s#%d\n  %s\n", m.Score, m.Source, m.Position, m.Content)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "maximum matches to return")
	return cmd
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat shell",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			sessionID := uuid.NewString()
			fmt.Printf("session %s (/reset starts over, /quit exits)\n", sessionID)

			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				switch {
				case line == "":
					continue
				case line == "/quit":
					return nil
				case line == "/reset":
					if err := a.consultant.Evict(cmd.Context(), sessionID); err != nil {
						return err
					}
					sessionID = uuid.NewString()
					fmt.Printf("session %s\n", sessionID)
					continue
				}

				resp, err := a.consultant.Chat(cmd.Context(), sessionID, line)
				if err != nil {
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
					continue
				}
				fmt.Println(resp.Reply)
			}
		},
	}
}

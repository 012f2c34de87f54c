package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/samplesearch/internal/audioprep"
	"github.com/xxxsen/samplesearch/internal/config"
	"github.com/xxxsen/samplesearch/internal/db"
	"github.com/xxxsen/samplesearch/internal/embedcache"
	"github.com/xxxsen/samplesearch/internal/encoder"
	"github.com/xxxsen/samplesearch/internal/filestore"
	"github.com/xxxsen/samplesearch/internal/handler"
	"github.com/xxxsen/samplesearch/internal/job"
	"github.com/xxxsen/samplesearch/internal/middleware"
	"github.com/xxxsen/samplesearch/internal/pkg/jwt"
	"github.com/xxxsen/samplesearch/internal/repo"
	"github.com/xxxsen/samplesearch/internal/samples"
	"github.com/xxxsen/samplesearch/internal/schedule"
	"github.com/xxxsen/samplesearch/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "samplesearch",
		Short: "audio sample embedding and text search",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json or config.yaml")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run http server and scheduled jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			app, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()
			return runServer(cfg, app)
		},
	}

	var (
		embedModel string
		noCache    bool
	)
	embedCmd := &cobra.Command{
		Use:   "embed",
		Short: "embed every sample once and print the evaluation report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			app, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()
			if embedModel == "" {
				embedModel = cfg.DefaultModel
			}
			rep, err := app.embedding.Run(cmd.Context(), service.RunRequest{Model: embedModel, UseCache: !noCache})
			if err != nil {
				return err
			}
			return printJSON(cmd, rep)
		},
	}
	embedCmd.Flags().StringVar(&embedModel, "model", "", "model key, default from config")
	embedCmd.Flags().BoolVar(&noCache, "no-cache", false, "ignore the stored embedding bundle")

	var (
		searchModel string
		topK        int
	)
	searchCmd := &cobra.Command{
		Use:   "search <prompt>",
		Short: "search cached sample embeddings with a text prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			app, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()
			resp, err := app.search.Search(cmd.Context(), service.SearchRequest{
				Prompt:          strings.Join(args, " "),
				Model:           searchModel,
				TopK:            topK,
				IncludeMetadata: true,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	searchCmd.Flags().StringVar(&searchModel, "model", "", "model key, default from config")
	searchCmd.Flags().IntVar(&topK, "top-k", 0, "number of results, default from config")

	var (
		subject string
		ttl     time.Duration
	)
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "issue an api token signed with jwt_secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			token, err := jwt.GenerateToken(subject, []byte(cfg.JWTSecret), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&subject, "subject", "cli", "token subject")
	tokenCmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")

	rootCmd.AddCommand(runCmd, embedCmd, searchCmd, tokenCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("command failed", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", path))
	return cfg, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type app struct {
	catalogue *samples.Catalogue
	bundles   embedcache.BundleStore
	database  *sql.DB
	queryRepo *repo.QueryEmbeddingRepo
	embedding *service.EmbeddingService
	search    *service.SearchService
}

func newApp(cfg *config.Config) (*app, error) {
	sampleStore, err := filestore.New(cfg.SamplesStore)
	if err != nil {
		return nil, fmt.Errorf("init samples store: %w", err)
	}
	bundles, err := embedcache.New(cfg.CacheStore)
	if err != nil {
		return nil, fmt.Errorf("init cache store: %w", err)
	}
	a := &app{catalogue: samples.NewCatalogue(sampleStore), bundles: bundles}

	if cfg.Database.Enabled() {
		database, err := db.Open(cfg.Database)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open db: %w", err)
		}
		if err := db.ApplyMigrations(database); err != nil {
			_ = database.Close()
			a.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		a.database = database
		a.queryRepo = repo.NewQueryEmbeddingRepo(database)
	}

	base, err := encoder.NewEncoder(cfg.Encoder.Provider, cfg.Encoder.Data)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init encoder: %w", err)
	}
	lruTTL := time.Duration(cfg.QueryCache.LRUTTLSeconds) * time.Second
	factory := func(target string) encoder.IModelEncoder {
		enc := encoder.Bind(base, target)
		if a.queryRepo != nil {
			enc = embedcache.WrapDBCacheToEncoder(enc, a.queryRepo)
		}
		return embedcache.WrapLruCacheToEncoder(enc, cfg.QueryCache.LRUSize, lruTTL)
	}
	models := encoder.ModelMap(cfg.Models)

	a.embedding = service.NewEmbeddingService(a.catalogue, bundles, models, factory,
		audioprep.NewConditioner(cfg.TargetSampleRate), cfg.Queries)
	a.search = service.NewSearchService(a.catalogue, bundles, models, factory, service.SearchOptions{
		DefaultModel:           cfg.DefaultModel,
		DefaultTopK:            cfg.DefaultTopK,
		LowConfidenceThreshold: *cfg.LowConfidenceThreshold,
	})
	logutil.GetLogger(context.Background()).Info("app initialized",
		zap.String("samples_store", sampleStore.Type()),
		zap.String("cache_store", bundles.Type()),
		zap.String("encoder", base.Name()),
		zap.Bool("query_db_cache", a.queryRepo != nil),
	)
	return a, nil
}

func (a *app) Close() {
	if a.bundles != nil {
		if err := a.bundles.Close(); err != nil {
			logutil.GetLogger(context.Background()).Warn("close cache store", zap.Error(err))
		}
	}
	if a.database != nil {
		_ = a.database.Close()
	}
}

func runServer(cfg *config.Config, a *app) error {
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("default_model", cfg.DefaultModel),
		zap.Bool("auth", cfg.JWTSecret != ""),
	)

	deps := handler.RouterDeps{
		Samples:    handler.NewSampleHandler(a.catalogue),
		Embeddings: handler.NewEmbeddingHandler(a.embedding, cfg.DefaultModel),
		Search:     handler.NewSearchHandler(a.search),
		JWTSecret:  []byte(cfg.JWTSecret),
		RunLimit:   time.Duration(cfg.RunRateLimitMs) * time.Millisecond,
	}
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewBundleRefreshJob(a.embedding, cfg.Schedule.BundleRefreshModels), cfg.Schedule.BundleRefresh); err != nil {
		return fmt.Errorf("schedule bundle refresh: %w", err)
	}
	if a.queryRepo != nil {
		if err := scheduler.AddJob(job.NewQueryCacheCleanupJob(a.queryRepo, cfg.QueryCache.MaxAgeDays), cfg.Schedule.QueryCacheCleanup); err != nil {
			return fmt.Errorf("schedule query cache cleanup: %w", err)
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", addr))

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

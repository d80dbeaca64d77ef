package main

import (
	"context"
	"fmt"
	"time"

	"github.com/SeptianSamdany/interview-prep-ai/internal/ai"
	"github.com/SeptianSamdany/interview-prep-ai/internal/auth"
	"github.com/SeptianSamdany/interview-prep-ai/internal/cache"
	"github.com/SeptianSamdany/interview-prep-ai/internal/config"
	"github.com/SeptianSamdany/interview-prep-ai/internal/database"
	"github.com/SeptianSamdany/interview-prep-ai/internal/gemini"
	"github.com/SeptianSamdany/interview-prep-ai/internal/groq"
	"github.com/SeptianSamdany/interview-prep-ai/internal/handler"
	"github.com/SeptianSamdany/interview-prep-ai/internal/logger"
	"github.com/SeptianSamdany/interview-prep-ai/internal/ratelimit"
	"github.com/SeptianSamdany/interview-prep-ai/internal/session"
	"github.com/SeptianSamdany/interview-prep-ai/internal/storage/firestore"
	"github.com/SeptianSamdany/interview-prep-ai/internal/storage/memory"
	"github.com/SeptianSamdany/interview-prep-ai/internal/storage/mongo"
	"github.com/SeptianSamdany/interview-prep-ai/internal/storage/postgres"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"
)

type application struct {
	Config     *config.Config
	Logger     *zap.Logger
	Handler    *handler.Handler
	TokenMaker *auth.JWTMaker
	Limiter    *ratelimit.Limiter
	// closers run in reverse order on shutdown
	closers []func()
}

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint:errcheck
	sugar := log.Sugar()
	sugar.Infof("config loaded: %s", cfg)

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		sugar.Fatal(err)
	}
	defer app.close()

	if err := app.serve(); err != nil {
		sugar.Fatal(err)
	}
}

func newApplication(ctx context.Context, cfg *config.Config, log *zap.Logger) (*application, error) {
	app := &application{
		Config:     cfg,
		Logger:     log,
		TokenMaker: auth.NewJWTMaker(cfg.JWT.Secret),
	}

	backend, err := app.openBackend(ctx)
	if err != nil {
		app.close()
		return nil, err
	}

	completer, err := newCompleter(ctx, cfg)
	if err != nil {
		app.close()
		return nil, err
	}

	aiOpts := []ai.Option{ai.WithTimeout(cfg.LLM.Timeout)}
	if cfg.Redis.URL != "" {
		rdb, err := cache.NewRedisClient(cfg.Redis.URL)
		if err != nil {
			app.close()
			return nil, err
		}
		app.closers = append(app.closers, func() { _ = rdb.Close() })

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := cache.Ping(pingCtx, rdb); err != nil {
			log.Warn("redis unreachable; cache and rate limiter will fail open", zap.Error(err))
		}

		aiOpts = append(aiOpts, ai.WithExplanationCache(cache.NewExplanationCache(rdb, cfg.Redis.ExplanationTTL)))
		if cfg.Limiter.Enabled {
			app.Limiter = ratelimit.New(rdb, cfg.Limiter.AIPerMinute, time.Minute)
		}
	}

	aiSvc := ai.NewService(completer, log.Named("ai"), aiOpts...)
	store := session.NewStore(backend, log.Named("store"))

	app.Handler = &handler.Handler{
		Logger:          log.Named("http"),
		AI:              aiSvc,
		Sessions:        session.NewService(store, aiSvc, log.Named("session")),
		ShowErrorDetail: !cfg.IsProduction(),
	}
	return app, nil
}

// openBackend connects the configured storage backend.
func (app *application) openBackend(ctx context.Context) (session.Backend, error) {
	cfg := app.Config.DB
	app.Logger.Info("opening storage backend", zap.String("backend", cfg.Backend))

	switch cfg.Backend {
	case "postgres":
		pool, err := database.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, pool.Close)
		return postgres.New(pool), nil

	case "mongo":
		client, err := mongo.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func() { _ = client.Disconnect(context.Background()) })

		store := mongo.New(client.Database(cfg.MongoDatabase))
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return store, nil

	case "firestore":
		store, err := firestore.NewStore(ctx, cfg.FirestoreProject)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func() { _ = store.Close() })
		return store, nil

	case "memory":
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

func newCompleter(ctx context.Context, cfg *config.Config) (ai.Completer, error) {
	switch cfg.LLM.Provider {
	case "groq":
		return groq.NewClient(cfg.LLM.GroqAPIKey, cfg.LLM.GroqModel), nil
	default:
		client, err := gemini.NewClient(ctx, cfg.LLM.GeminiAPIKey, cfg.LLM.GeminiModel)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

func (app *application) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		app.closers[i]()
	}
	app.closers = nil
}

package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ddiaz-itx/ai-interviewer/internal/agents"
	"github.com/ddiaz-itx/ai-interviewer/internal/auth"
	"github.com/ddiaz-itx/ai-interviewer/internal/cache"
	"github.com/ddiaz-itx/ai-interviewer/internal/config"
	"github.com/ddiaz-itx/ai-interviewer/internal/database"
	"github.com/ddiaz-itx/ai-interviewer/internal/documents"
	"github.com/ddiaz-itx/ai-interviewer/internal/handler"
	"github.com/ddiaz-itx/ai-interviewer/internal/interview"
	"github.com/ddiaz-itx/ai-interviewer/internal/llm"
	"github.com/ddiaz-itx/ai-interviewer/internal/logger"
	"github.com/ddiaz-itx/ai-interviewer/internal/prompts"
	"github.com/ddiaz-itx/ai-interviewer/internal/repository"
	"github.com/ddiaz-itx/ai-interviewer/pkg"
)

type application struct {
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Logger  *zap.Logger
	Config  *config.Config
	Handler *handler.Handler
}

// store is everything the service needs from persistence.
type store interface {
	interview.Store
	interview.UsageStore
	llm.UsageRecorder
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
	defer log.Sync()
	sugar := log.Sugar()
	sugar.Infow("config loaded", "config", cfg.String())

	crypto, err := pkg.NewCrypto(cfg.Crypto.Secret)
	if err != nil {
		sugar.Fatal(err)
	}

	app := &application{Logger: log, Config: cfg}

	var st store
	if cfg.DB.DSN != "" {
		pool, err := database.Connect(ctx, cfg.DB.DSN)
		if err != nil {
			sugar.Fatal(err)
		}
		defer pool.Close()
		if cfg.DB.AutoMigrate {
			if err := database.Migrate(ctx, pool); err != nil {
				sugar.Fatal(err)
			}
		}
		app.DB = pool
		st = repository.NewRepository(pool, crypto)
	} else {
		sugar.Warn("DATABASE_URL not set, using in-memory store")
		st = repository.NewMemoryStore()
	}

	var (
		locker    interview.Locker
		llmCache  llm.Cache
		inspector interview.CacheInspector
	)
	if cfg.Redis.Addr != "" {
		rdb := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := cache.Ping(ctx, rdb); err != nil {
			sugar.Fatalw("redis unreachable", "err", err)
		}
		defer rdb.Close()
		app.Redis = rdb
		locker = cache.NewRedisLocker(rdb, cfg.Interview.LockTTL).WithLogger(log)
		if cfg.Cache.Enabled {
			c := cache.NewLLMCache(rdb, cfg.Cache.MaxSize, cfg.Cache.TTL)
			llmCache, inspector = c, c
		}
	} else {
		locker = interview.NewLocalLocker()
		if cfg.Cache.Enabled {
			c := llm.NewMemoryCache(cfg.Cache.MaxSize, cfg.Cache.TTL)
			llmCache, inspector = c, c
		}
	}

	retry := llm.DefaultRetryConfig
	retry.MaxAttempts = cfg.LLM.MaxRetries + 1
	client, err := llm.New(ctx, llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
		Timeout:  cfg.LLM.Timeout,
		Retry:    retry,
	}, llmCache, st, log)
	if err != nil {
		sugar.Fatal(err)
	}
	sugar.Infow("llm client ready", "provider", cfg.LLM.Provider, "model", client.Model())

	pm, err := prompts.NewManager()
	if err != nil {
		sugar.Fatal(err)
	}

	svc := interview.NewService(st, st, locker, agents.NewCollaborators(client, pm), interview.Options{
		Logger:      log,
		LinkTTL:     cfg.Interview.LinkTTL,
		CallTimeout: cfg.Interview.CallTimeout,
		Cache:       inspector,
	})

	app.Handler = &handler.Handler{
		Logger:    log,
		Service:   svc,
		Auth:      auth.NewAuthenticator(cfg.Admin.Username, cfg.Admin.PasswordHash, auth.NewJWTMaker(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)),
		Documents: documents.NewExtractor(nil, "", 0),
	}

	if err := app.serve(); err != nil {
		sugar.Fatal(err)
	}
}

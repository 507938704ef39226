package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medref/medref/data"
	"github.com/medref/medref/internal/config"
	"github.com/medref/medref/internal/domain/calculator"
	"github.com/medref/medref/internal/domain/catalog"
	"github.com/medref/medref/internal/domain/userstate"
	"github.com/medref/medref/internal/platform/db"
	"github.com/medref/medref/internal/platform/middleware"
	"github.com/medref/medref/migrations"
)

// loadConfig reads the env file named by --env-file and validates it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	if cfg.IsDev() {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(cfg.ZerologLevel()).With().Timestamp().Logger()
}

// corpusSource picks S3, a directory or the embedded corpus, in that order.
func corpusSource(ctx context.Context, cfg *config.Config) (catalog.Source, error) {
	switch {
	case cfg.DataS3Bucket != "":
		client, err := catalog.NewS3Client(ctx)
		if err != nil {
			return nil, err
		}
		return catalog.NewS3Source(client, cfg.DataS3Bucket, cfg.DataS3Prefix), nil
	case cfg.DataDir != "":
		if _, err := os.Stat(cfg.DataDir); err != nil {
			return nil, fmt.Errorf("DATA_DIR: %w", err)
		}
		return catalog.NewFSSource(os.DirFS(cfg.DataDir), cfg.DataDir), nil
	default:
		return catalog.NewFSSource(data.Corpus, "embedded"), nil
	}
}

// app is the read side shared by every command: the loaded corpus and the
// calculator registry.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	store   *catalog.Store
	catalog *catalog.Service
	calc    *calculator.Registry
	report  catalog.LoadReport
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	src, err := corpusSource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}

	store := catalog.NewStore(src, catalog.Options{
		MedicationThreshold: cfg.MedicationSearchThreshold,
		GuidelineThreshold:  cfg.GuidelineSearchThreshold,
		CriteriaThreshold:   cfg.CriteriaSearchThreshold,
	}, logger)
	report, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	if report.Total() == 0 {
		logger.Error().Str("source", report.Source).Msg("corpus is empty")
	}

	reg, err := calculator.NewRegistry(calculator.Options{
		AuditCutoff:   cfg.AuditCutoff,
		PCPTSD5Cutoff: cfg.PCPTSD5Cutoff,
	})
	if err != nil {
		return nil, fmt.Errorf("build calculator registry: %w", err)
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		catalog: catalog.NewService(store),
		calc:    reg,
		report:  report,
	}, nil
}

// backends holds the user-state repository and the connections behind it
// and behind the response cache.
type backends struct {
	repo   userstate.Repository
	health db.Check
	cache  middleware.CacheStore

	pool  *pgxpool.Pool
	redis *redis.Client
}

func openBackends(ctx context.Context, cfg *config.Config, logger zerolog.Logger, migrate bool) (*backends, error) {
	b := &backends{}
	ok := false
	defer func() {
		if !ok {
			b.Close()
		}
	}()

	if cfg.StateBackend == config.BackendRedis || cfg.ResponseCache == config.CacheRedis {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		b.redis = redis.NewClient(opts)
		if err := b.redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		logger.Info().Msg("connected to redis")
	}

	switch cfg.StateBackend {
	case config.BackendPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		b.pool = pool
		logger.Info().Msg("connected to database")

		if migrate {
			n, err := db.NewMigrator(pool, migrations.FS, "").Up(ctx)
			if err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
			logger.Info().Int("applied", n).Msg("migrations up to date")
		}
		b.repo = userstate.NewPGRepo(pool)
		b.health = db.PostgresCheck(pool)
	case config.BackendRedis:
		client := b.redis
		b.repo = userstate.NewRedisRepo(client, 0)
		b.health = db.Check{Backend: config.BackendRedis, Ping: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}}
	case config.BackendSQLite:
		repo, err := userstate.OpenSQLiteRepo(ctx, cfg.StateSQLitePath)
		if err != nil {
			return nil, err
		}
		b.repo = repo
		b.health = db.Check{Backend: config.BackendSQLite}
	default:
		b.repo = userstate.NewMemoryRepo()
		b.health = db.Check{Backend: config.BackendMemory}
	}

	switch cfg.ResponseCache {
	case config.CacheRedis:
		b.cache = middleware.NewRedisCacheStore(b.redis, "", logger)
	case config.CacheMemory:
		mem := middleware.NewInMemoryCacheStore()
		mem.StartCleanup(ctx, time.Minute)
		b.cache = mem
	}

	ok = true
	return b, nil
}

func (b *backends) Close() {
	if b.repo != nil {
		b.repo.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
	if b.redis != nil {
		b.redis.Close()
	}
}

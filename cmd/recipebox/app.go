package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/recipebox/backend/config"
	"github.com/recipebox/backend/internal/domain"
	"github.com/recipebox/backend/internal/infrastructure/cache"
	"github.com/recipebox/backend/internal/infrastructure/logging"
	"github.com/recipebox/backend/internal/infrastructure/memstore"
	"github.com/recipebox/backend/internal/infrastructure/postgres"
	"github.com/recipebox/backend/internal/infrastructure/seed"
	"github.com/recipebox/backend/internal/infrastructure/sqlite"
	"github.com/recipebox/backend/internal/usecase"
)

// app holds the wired components shared by every subcommand
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	store      domain.VocabularyStore
	repo       domain.VocabularyRepository
	loader     domain.VocabularyLoader
	categories *domain.CategoryRegistry
	search     *usecase.IngredientSearchService

	closers []func() error
}

// newApp loads config and the logger without touching storage
func newApp(cmd *cli.Command) (*app, error) {
	cfg, err := config.LoadFile(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return &app{cfg: cfg, logger: logger}, nil
}

// openStore opens the configured vocabulary store and, when enabled,
// puts the lookup cache in front of it
func (a *app) openStore(ctx context.Context) error {
	store, err := a.openBackend(ctx)
	if err != nil {
		return err
	}
	a.store = store
	a.repo = store
	a.loader = store
	a.closers = append(a.closers, store.Close)

	lookupCache, err := a.openCache(ctx)
	if err != nil {
		return err
	}
	if lookupCache != nil {
		cached := cache.NewCachedVocabulary(store, lookupCache, a.cfg.Cache.TTL, a.logger)
		a.repo = cached
		a.loader = cached
	}

	a.categories = domain.NewCategoryRegistry(nil)
	return a.refreshCategories(ctx)
}

// refreshCategories re-reads the stored category table; an empty table
// falls back to the defaults
func (a *app) refreshCategories(ctx context.Context) error {
	table, err := a.store.Categories(ctx)
	if err != nil {
		return fmt.Errorf("failed to read categories: %w", err)
	}
	a.categories.Set(table)
	return nil
}

func (a *app) openBackend(ctx context.Context) (domain.VocabularyStore, error) {
	db := a.cfg.Database
	a.logger.Info("opening vocabulary store", zap.String("driver", db.Driver))

	switch db.Driver {
	case config.DriverSQLite:
		return sqlite.Open(db.DSN, a.logger)
	case config.DriverPostgres:
		return postgres.Open(ctx, postgres.Config{
			URL:             db.DSN,
			MaxConnections:  db.MaxConnections,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		}, a.logger)
	case config.DriverFile:
		vocab, warnings, err := seed.Load(a.cfg.Vocabulary.SeedFile)
		if err != nil {
			return nil, err
		}
		a.logWarnings(warnings)
		return memstore.NewWithVocabulary(vocab, a.logger)
	default:
		return nil, fmt.Errorf("unknown database driver %q", db.Driver)
	}
}

func (a *app) openCache(ctx context.Context) (domain.CacheRepository, error) {
	switch a.cfg.Cache.Type {
	case config.CacheMemory:
		c := cache.NewMemoryCache(time.Minute)
		a.closers = append(a.closers, c.Close)
		return c, nil
	case config.CacheRedis:
		c, err := cache.NewRedisCache(ctx, a.cfg.Cache.RedisURL, "recipebox:lookup:")
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, c.Close)
		return c, nil
	default:
		return nil, nil
	}
}

// buildSearch wires the extraction and matching pipeline over the open store
func (a *app) buildSearch() {
	m := a.cfg.Matching

	extractor := usecase.NewCandidateExtractor(a.repo, usecase.ExtractorConfig{
		PairWindow:         m.PairWindow,
		EnableDebugLogging: m.Debug,
	}, a.logger)

	matcher := usecase.NewVocabularyMatcher(a.repo, usecase.MatcherConfig{
		Categories:         a.categories,
		EnableDebugLogging: m.Debug,
	}, a.logger)

	a.search = usecase.NewIngredientSearchService(extractor, matcher, usecase.SearchConfig{
		BatchSize:     m.BatchSize,
		MaxCandidates: m.MaxCandidates,
		BatchWorkers:  m.BatchWorkers,
		Timeout:       a.cfg.Server.RequestTimeout,
		Categories:    a.categories,
	}, a.logger)
}

// replaceVocabulary loads vocab through the cache so stale lookups are
// dropped, then publishes the new category table to the matcher
func (a *app) replaceVocabulary(ctx context.Context, vocab *domain.Vocabulary) error {
	if err := a.loader.ReplaceVocabulary(ctx, vocab); err != nil {
		return err
	}
	return a.refreshCategories(ctx)
}

func (a *app) logWarnings(warnings []string) {
	for _, w := range warnings {
		a.logger.Warn("seed file warning", zap.String("warning", w))
	}
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

// withApp runs fn with a fully wired app and closes it afterwards
func withApp(ctx context.Context, cmd *cli.Command, fn func(context.Context, *app) error) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.openStore(ctx); err != nil {
		return err
	}
	a.buildSearch()
	return fn(ctx, a)
}

package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/avatars"
	"recruit-backend/internal/catalog"
	"recruit-backend/internal/generation"
	"recruit-backend/internal/llm"
	"recruit-backend/internal/llm/openrouter"
	"recruit-backend/internal/matching"
	"recruit-backend/internal/shared/config"
	"recruit-backend/internal/shared/server"
	"recruit-backend/internal/shared/storage/db"
	"recruit-backend/internal/shared/storage/object"
	localstore "recruit-backend/internal/shared/storage/object/local"
	s3store "recruit-backend/internal/shared/storage/object/s3"
	"recruit-backend/internal/shared/telemetry"
	"recruit-backend/internal/vocabulary"
)

// App holds shared dependencies and the router built from them.
type App struct {
	Config     config.Config
	Router     *gin.Engine
	DB         *sql.DB
	ServiceDB  *sql.DB
	Scope      *db.Scope
	Store      object.ObjectStore
	LLM        llm.Gateway
	Vocabulary *vocabulary.Resolver
	Catalog    catalog.Repo
	Matches    matching.Repo
	Generation *generation.Service
	Evaluator  *matching.Evaluator
	Calculator *matching.Calculator
	Backfill   *matching.Backfill
	Listings   *matching.Listings
	Avatars    *avatars.Service

	closers []func() error
}

// Build prepares shared dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()
	app := &App{Config: cfg}

	if err := app.buildDB(ctx); err != nil {
		return nil, err
	}
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Store = store
	if app.LLM, err = buildGateway(cfg); err != nil {
		return nil, err
	}
	app.buildServices(ctx)

	app.Router = server.NewRouter(server.RouterDeps{
		Config: cfg,
		Handlers: []server.RouteRegistrar{
			vocabulary.NewHandler(app.Vocabulary),
			catalog.NewHandler(app.Catalog),
			generation.NewHandler(app.Generation),
			matching.NewHandler(app.Evaluator, app.Calculator, app.Backfill, app.Listings),
			llm.NewHandler(app.LLM),
			avatars.NewHandler(app.Avatars),
		},
	})
	return app, nil
}

// Close releases pools and clients opened by Build.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *App) buildDB(ctx context.Context) error {
	cfg := a.Config
	if cfg.DatabaseURL == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_fallback", map[string]any{"reason": "DATABASE_URL empty"})
			return nil
		}
		return fmt.Errorf("DATABASE_URL is required")
	}

	appDB, err := connect(ctx, cfg.DatabaseURL)
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_fallback", map[string]any{"reason": "database connect failed", "error": err})
			return nil
		}
		return err
	}
	a.DB = appDB
	if !db.IsLambdaRuntime() {
		a.closers = append(a.closers, appDB.Close)
	}

	if cfg.ServiceDatabaseURL != "" {
		serviceDB, err := db.Connect(ctx, cfg.ServiceDatabaseURL, db.OptionsFromEnv(db.ServicePoolPrefix, db.DefaultServerOptions()))
		if err != nil {
			return fmt.Errorf("connect service database: %w", err)
		}
		a.ServiceDB = serviceDB
		a.closers = append(a.closers, serviceDB.Close)
	}
	a.Scope = db.NewScope(a.DB, a.ServiceDB)
	return nil
}

func connect(ctx context.Context, url string) (*sql.DB, error) {
	if db.IsLambdaRuntime() {
		return db.GetSingleton(ctx, url, db.OptionsFromEnv(db.AppPoolPrefix, db.DefaultLambdaOptions()))
	}
	return db.Connect(ctx, url, db.OptionsFromEnv(db.AppPoolPrefix, db.DefaultServerOptions()))
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, s3store.Config{
			Region:        cfg.AWSRegion,
			Bucket:        cfg.S3Bucket,
			Prefix:        cfg.S3Prefix,
			PublicBaseURL: cfg.PublicBaseURL,
		})
	default:
		return localstore.New(cfg.LocalStoreDir, cfg.PublicBaseURL), nil
	}
}

// buildGateway requires LLM_MODEL and OPENROUTER_API_KEY outside dev. In dev a
// missing setting yields a gateway that reports it on every call, so the read
// paths stay usable.
func buildGateway(cfg config.Config) (llm.Gateway, error) {
	client, err := openrouter.New(openrouter.Config{
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
		BaseURL: cfg.LLMBaseURL,
		Timeout: cfg.LLMTimeout,
		Referer: cfg.LLMReferer,
		Title:   cfg.LLMTitle,
	})
	if err == nil {
		return client, nil
	}
	var cfgErr *llm.ConfigurationError
	if !errors.As(err, &cfgErr) {
		cfgErr = &llm.ConfigurationError{Setting: "LLM_MODEL"}
	}
	if !cfg.IsDevLike() {
		return nil, cfgErr
	}
	telemetry.Warn("bootstrap.llm_unconfigured", map[string]any{"setting": cfgErr.Setting})
	return llm.Unconfigured{Err: cfgErr}, nil
}

func (a *App) buildServices(ctx context.Context) {
	var source vocabulary.Source
	if a.Scope != nil {
		a.Catalog = &catalog.PGRepo{Scope: a.Scope}
		a.Matches = &matching.PGRepo{Scope: a.Scope}
		source = &vocabulary.PGSource{Scope: a.Scope}
	} else {
		dims := vocabulary.NewMemorySource(vocabulary.DefaultSeed())
		a.Catalog = catalog.NewMemoryRepo(dims)
		a.Matches = matching.NewMemoryRepo()
		source = dims
	}

	if a.Config.RedisURL != "" {
		cache, err := vocabulary.NewRedisCache(ctx, a.Config.RedisURL)
		if err != nil {
			telemetry.Warn("bootstrap.redis_unavailable", map[string]any{"error": err})
		} else {
			source = &vocabulary.CachedSource{Source: source, Cache: cache, TTL: a.Config.VocabularyCacheTTL}
			a.closers = append(a.closers, cache.Close)
		}
	}

	a.Vocabulary = vocabulary.NewResolver(source)
	a.Generation = generation.NewService(a.Vocabulary, a.LLM, &generation.Materializer{Writer: a.Catalog})
	a.Evaluator = matching.NewEvaluator(a.Catalog, a.LLM, a.Matches)
	a.Calculator = matching.NewCalculator(a.Catalog, a.Matches)
	a.Backfill = matching.NewBackfill(a.Catalog, a.Matches, a.Evaluator)
	a.Listings = matching.NewListings(a.Catalog, a.Matches)
	a.Avatars = avatars.NewService(a.Catalog, a.Store)
}

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"interview-backend/internal/candidates"
	"interview-backend/internal/interviews"
	"interview-backend/internal/oracle"
	"interview-backend/internal/oracle/gemini"
	"interview-backend/internal/oracle/openai"
	"interview-backend/internal/persist"
	"interview-backend/internal/reviewers"
	"interview-backend/internal/session"
	"interview-backend/internal/shared/auth"
	"interview-backend/internal/shared/config"
	"interview-backend/internal/shared/server"
	"interview-backend/internal/shared/storage/db"
	"interview-backend/internal/shared/storage/object"
	localstore "interview-backend/internal/shared/storage/object/local"
	s3store "interview-backend/internal/shared/storage/object/s3"
	"interview-backend/internal/shared/telemetry"
	"interview-backend/internal/timing"
)

// App holds the wired process dependencies.
type App struct {
	Config    config.Config
	Router    *gin.Engine
	Objects   object.ObjectStore
	Store     *candidates.MemoryStore
	Persister persist.Persister
	Autosaver *persist.Autosaver
	Oracle    oracle.Oracle
	Sessions  *session.Controller
	Sweeper   *timing.Sweeper
	Signer    *auth.Signer

	closers []func() error
}

// Build wires every dependency and restores the last saved store snapshot.
// Background jobs are not started; call Start.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	app := &App{Config: cfg}

	objects, err := buildObjectStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Objects = objects

	if err := app.buildPersister(ctx); err != nil {
		app.close()
		return nil, err
	}

	app.Store = candidates.NewMemoryStore()
	restored, err := persist.Restore(ctx, app.Store, app.Persister)
	if err != nil {
		app.close()
		return nil, err
	}
	count := 0
	if restored {
		if list, err := app.Store.List(ctx); err == nil {
			count = len(list)
		}
	}
	telemetry.Info("store.restored", map[string]any{"backend": app.Persister.Name(), "restored": restored, "candidates": count})

	app.Autosaver = &persist.Autosaver{Store: app.Store, Persister: app.Persister, Spec: every(cfg.AutosaveInterval)}
	app.Store.OnChange(app.Autosaver.MarkDirty)

	if err := app.buildOracle(ctx); err != nil {
		app.close()
		return nil, err
	}

	app.Sessions = session.NewController(app.Store, app.Oracle,
		session.WithScoringMode(session.ParseScoringMode(cfg.ScoringMode)))

	app.Sweeper = &timing.Sweeper{
		Now:  app.Sessions.Now,
		List: app.Sessions.List,
		Expire: func(ctx context.Context, id string, index int) error {
			_, err := app.Sessions.AutoSubmit(ctx, id, index)
			return err
		},
		Spec: every(cfg.SweepInterval),
	}

	signer, err := auth.NewSigner(cfg.JWTSecret, cfg.Env)
	if err != nil {
		app.close()
		return nil, err
	}
	app.Signer = signer

	app.Router = server.NewRouter(cfg, server.Handlers{
		Interviews: interviews.NewHandler(app.Sessions, app.Objects, cfg.CORSAllowOrigin),
		Reviewers:  reviewers.NewHandler(app.Sessions, app.Objects),
		Verifier:   signer,
	})
	return app, nil
}

// Start launches the sweeper and the autosaver.
func (a *App) Start(ctx context.Context) error {
	if err := a.Sweeper.Start(ctx); err != nil {
		return err
	}
	if err := a.Autosaver.Start(ctx); err != nil {
		a.Sweeper.Stop()
		return err
	}
	return nil
}

// Shutdown stops background jobs, flushes unsaved state and releases clients.
func (a *App) Shutdown(ctx context.Context) error {
	a.Sweeper.Stop()
	err := a.Autosaver.Stop(ctx)
	a.close()
	if err != nil {
		return fmt.Errorf("final snapshot flush: %w", err)
	}
	return nil
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			telemetry.Warn("bootstrap.close.failed", map[string]any{"error": err})
		}
	}
	a.closers = nil
}

func buildObjectStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, errors.New("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func (a *App) buildPersister(ctx context.Context) error {
	cfg := a.Config
	switch cfg.PersistBackend {
	case "postgres":
		sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.Options{MaxOpenConns: cfg.DBMaxOpenConns})
		if err == nil {
			err = db.Migrate(ctx, sqlDB)
			if err != nil {
				sqlDB.Close()
			}
		}
		if err != nil {
			return a.fallback("postgres", err)
		}
		a.closers = append(a.closers, sqlDB.Close)
		a.Persister = persist.NewPostgres(sqlDB)
	case "redis":
		client, err := persist.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return a.fallback("redis", err)
		}
		a.closers = append(a.closers, client.Close)
		a.Persister = persist.NewRedis(client)
	case "memory":
		a.Persister = persist.NewMemory()
	default:
		a.Persister = persist.NewObject(a.Objects)
	}
	return nil
}

// fallback keeps dev processes running on the in-process persister when the
// configured backend is unreachable.
func (a *App) fallback(backend string, err error) error {
	if !isDevLike(a.Config.Env) {
		return fmt.Errorf("connect %s persister: %w", backend, err)
	}
	telemetry.Warn("bootstrap.persist.fallback", map[string]any{"backend": backend, "error": err})
	a.Persister = persist.NewMemory()
	return nil
}

func (a *App) buildOracle(ctx context.Context) error {
	cfg := a.Config
	var llm oracle.Completer = oracle.PlaceholderCompleter{}
	switch cfg.OracleProvider {
	case "gemini":
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			telemetry.Warn("bootstrap.oracle.unconfigured", map[string]any{"provider": "gemini"})
			break
		}
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.OracleModel)
		if err != nil {
			return fmt.Errorf("gemini client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		llm = client
	case "openai":
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			telemetry.Warn("bootstrap.oracle.unconfigured", map[string]any{"provider": "openai"})
			break
		}
		client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.OracleModel, cfg.OracleTimeout)
		if err != nil {
			return fmt.Errorf("openai client: %w", err)
		}
		llm = client
	}
	a.Oracle = oracle.NewPromptOracle(llm, cfg.OracleTimeout)
	return nil
}

func every(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return "@every " + d.String()
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"taskline/internal/codec"
	"taskline/internal/config"
	"taskline/internal/db"
	"taskline/internal/docdb"
	"taskline/internal/engine"
	"taskline/internal/engine/auth"
	"taskline/internal/migrate"
	"taskline/internal/repo"
)

// App is an Engine wired to the storage backend named in the config.
type App struct {
	Engine *engine.Engine
	Config *config.Config
	Log    zerolog.Logger

	closers []func()
}

// Open builds the stores for cfg.Storage.Backend and the engine on top of
// them. Close releases whatever connections the backend holds.
func Open(ctx context.Context, workspace string, cfg *config.Config, log zerolog.Logger) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	a := &App{Config: cfg, Log: log}

	var stores engine.Stores
	switch cfg.Storage.Backend {
	case config.BackendFile:
		stores = FileStores(cfg.DataDir(workspace), log)
	case config.BackendSQLite:
		conn, err := db.Open(db.Config{Workspace: workspace})
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		a.closers = append(a.closers, func() { conn.Close() })
		if err := migrate.Migrate(ctx, conn); err != nil {
			a.Close()
			return nil, err
		}
		stores = sqliteStores(conn)
	case config.BackendPostgres:
		pool, err := db.ConnectPostgres(ctx, db.PostgresConfig{
			DSN:            cfg.Storage.Postgres.DSN,
			ConnectTimeout: cfg.Storage.Postgres.ConnectTimeout,
		}, log)
		if err != nil {
			return nil, repo.Translate("postgres.connect", err)
		}
		a.closers = append(a.closers, pool.Close)
		stores = DocumentStores(func(name string, _ ...string) docdb.Collection {
			return docdb.NewPostgres(pool, name)
		})
	case config.BackendMemory:
		stores = DocumentStores(func(name string, unique ...string) docdb.Collection {
			return docdb.NewMemory(name, unique...)
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	a.Engine = engine.New(stores, auth.NewArgon2Hasher(), log)
	log.Debug().
		Str("backend", cfg.Storage.Backend).
		Str("workspace", workspace).
		Msg("engine ready")
	return a, nil
}

// WithTimeout bounds ctx by storage.op_timeout when one is set.
func (a *App) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.Config.Storage.OpTimeout > 0 {
		return context.WithTimeout(ctx, a.Config.Storage.OpTimeout)
	}
	return context.WithCancel(ctx)
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// FileStores keeps one .tbl file per entity type under dir.
func FileStores(dir string, log zerolog.Logger) engine.Stores {
	return engine.Stores{
		Projects: repo.NewFileStore(dir, codec.Projects, log),
		States:   repo.NewFileStore(dir, codec.States, log),
		Tasks:    repo.NewFileStore(dir, codec.Tasks, log),
		Users:    repo.NewFileStore(dir, codec.Users, log),
		Audit:    repo.NewFileStore(dir, codec.Audit, log),
		Sessions: repo.NewFileStore(dir, codec.Sessions, log),
	}
}

// DocumentStores opens one collection per entity type. Usernames are
// declared unique for backends that enforce it in the collection itself.
func DocumentStores(open func(name string, unique ...string) docdb.Collection) engine.Stores {
	return engine.Stores{
		Projects: repo.NewDocumentStore(open(codec.Projects.Collection()), codec.Projects),
		States:   repo.NewDocumentStore(open(codec.States.Collection()), codec.States),
		Tasks:    repo.NewDocumentStore(open(codec.Tasks.Collection()), codec.Tasks),
		Users:    repo.NewDocumentStore(open(codec.Users.Collection(), "username"), codec.Users),
		Audit:    repo.NewDocumentStore(open(codec.Audit.Collection()), codec.Audit),
		Sessions: repo.NewDocumentStore(open(codec.Sessions.Collection()), codec.Sessions),
	}
}

func sqliteStores(conn *sql.DB) engine.Stores {
	return DocumentStores(func(name string, _ ...string) docdb.Collection {
		return docdb.NewSQLite(conn, name)
	})
}

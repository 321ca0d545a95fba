package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"taskline/internal/docdb"
)

type PostgresConfig struct {
	DSN            string
	ConnectTimeout time.Duration
	PingTimeout    time.Duration
}

// ConnectPostgres opens a pool, pings it and ensures the documents table.
// Failures are reported as *docdb.Error so callers can classify them.
func ConnectPostgres(ctx context.Context, cfg PostgresConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to parse postgres config")
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to connect to postgres")
		return nil, &docdb.Error{Code: docdb.ClassifyPostgres(err), Op: "connect", Collection: "documents", Err: err}
	}

	pingTimeout := cfg.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 10 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		logger.Error().
			Err(err).
			Msg("failed to ping postgres")
		return nil, &docdb.Error{Code: docdb.ClassifyPostgres(err), Op: "ping", Collection: "documents", Err: err}
	}

	if err := docdb.EnsurePostgresSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info().
		Str("host", poolCfg.ConnConfig.Host).
		Uint16("port", poolCfg.ConnConfig.Port).
		Msg("connected to postgres")
	return pool, nil
}

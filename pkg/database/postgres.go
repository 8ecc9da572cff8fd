package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orchestrix/apiresponder/pkg/apiresponse"
)

type Config struct {
	URL      string
	MaxConns int32
	MinConns int32
}

func NewPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "parse config")
	}

	poolConfig.MaxConns = cfg.MaxConns
	if poolConfig.MaxConns == 0 {
		poolConfig.MaxConns = 10
	}
	poolConfig.MinConns = cfg.MinConns
	if poolConfig.MinConns == 0 {
		poolConfig.MinConns = 2
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, "create pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping")
	}

	slog.Info("database connected",
		"host", poolConfig.ConnConfig.Host,
		"database", poolConfig.ConnConfig.Database,
		"max_conns", poolConfig.MaxConns,
	)

	return pool, nil
}

// Querier is the subset of *pgxpool.Pool used by Paginate
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Paginate runs countSQL with args, then listSQL with args followed by
// LIMIT and OFFSET placeholders, and returns one page of rows.
func Paginate[T any](ctx context.Context, q Querier, countSQL, listSQL string, page, limit int, scan pgx.RowToFunc[T], args ...any) (apiresponse.Page[T], error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}

	var total int64
	if err := q.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return apiresponse.Page[T]{}, errors.Wrap(err, "count rows")
	}

	n := len(args)
	query := fmt.Sprintf("%s LIMIT $%d OFFSET $%d", listSQL, n+1, n+2)
	rows, err := q.Query(ctx, query, append(args, limit, (page-1)*limit)...)
	if err != nil {
		return apiresponse.Page[T]{}, errors.Wrap(err, "list rows")
	}

	items, err := pgx.CollectRows(rows, scan)
	if err != nil {
		return apiresponse.Page[T]{}, errors.Wrap(err, "collect rows")
	}

	return apiresponse.NewPage(items, total, limit, page), nil
}

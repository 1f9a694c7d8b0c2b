package db

import (
	"context"

	"github.com/poderjkapk-ux/cur-sub000/pkg/config"
	"github.com/poderjkapk-ux/cur-sub000/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Options(
	fx.Provide(NewDBConn),
)

type Querier interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...interface{}) pgx.Row
}

type Params struct {
	fx.In
	Config config.IConfig
	Logger logger.Logger
}

type dbConn struct {
	dbPool *pgxpool.Pool
	logger logger.Logger
}

func NewDBConn(params Params) (Querier, error) {
	var (
		dns = params.Config.GetString("database.dns")
		ctx = context.Background()
	)

	pool, err := pgxpool.New(ctx, dns)
	if err != nil {
		params.Logger.Error(ctx, "err on pgxpool.New", zap.Error(err))
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		params.Logger.Error(ctx, "err on pool.Ping", zap.Error(err))
		return nil, err
	}

	params.Logger.Info(ctx, "DB: connected successfully")

	return &dbConn{
		dbPool: pool,
		logger: params.Logger,
	}, nil
}

func (db *dbConn) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	db.logger.Debug(ctx, "DB: Exec", zap.String("sql", sql), zap.Any("args", args))
	return db.dbPool.Exec(ctx, sql, args...)
}

func (db *dbConn) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	db.logger.Debug(ctx, "DB: Query", zap.String("sql", sql), zap.Any("args", args))
	return db.dbPool.Query(ctx, sql, args...)
}

func (db *dbConn) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	db.logger.Debug(ctx, "DB: QueryRow", zap.String("sql", sql), zap.Any("args", args))
	return db.dbPool.QueryRow(ctx, sql, args...)
}

func (db *dbConn) Begin(ctx context.Context) (pgx.Tx, error) {
	return db.dbPool.Begin(ctx)
}

package courierrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/poderjkapk-ux/cur-sub000/internal/structs"
	"github.com/poderjkapk-ux/cur-sub000/pkg/db"
	"github.com/poderjkapk-ux/cur-sub000/pkg/logger"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Provide(New)

type (
	Params struct {
		fx.In
		Logger logger.Logger
		DB     db.Querier
	}

	Repo interface {
		Create(ctx context.Context, courier structs.Courier) error
		GetByID(ctx context.Context, id string) (structs.Courier, error)
		GetByPhone(ctx context.Context, phone string) (structs.Courier, error)
		ListOnline(ctx context.Context) ([]structs.Courier, error)
		SetOnline(ctx context.Context, id string, online bool, at time.Time) error
		UpdateLocation(ctx context.Context, id string, lat, lng float64, at time.Time) error

		// UpdateRating folds one more rating into the running average.
		UpdateRating(ctx context.Context, id string, rating int) error

		SetBanned(ctx context.Context, id string, banned bool) error
	}

	repo struct {
		logger logger.Logger
		db     db.Querier
	}
)

func New(p Params) Repo {
	return &repo{
		logger: p.Logger,
		db:     p.DB,
	}
}

const courierColumns = `
	id, name, phone, password_hash, is_online, is_active,
	lat, lng, last_seen_at, push_token, tg_chat_id,
	rating_avg, rating_count, created_at`

func (r repo) Create(ctx context.Context, courier structs.Courier) error {
	query := `
		INSERT INTO couriers (
			id, name, phone, password_hash, is_online, is_active,
			push_token, tg_chat_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	if _, err := r.db.Exec(ctx, query,
		courier.ID,
		courier.Name,
		courier.Phone,
		courier.PasswordHash,
		courier.IsOnline,
		courier.IsActive,
		courier.PushToken,
		courier.TgChatID,
		courier.CreatedAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return structs.ErrUniqueViolation
		}
		r.logger.Error(ctx, "err on r.db.Exec", zap.Error(err))
		return fmt.Errorf("create courier failed: %w", err)
	}

	return nil
}

func (r repo) GetByID(ctx context.Context, id string) (structs.Courier, error) {
	query := `SELECT ` + courierColumns + ` FROM couriers WHERE id = $1`
	return r.scanCourier(ctx, r.db.QueryRow(ctx, query, id))
}

func (r repo) GetByPhone(ctx context.Context, phone string) (structs.Courier, error) {
	query := `SELECT ` + courierColumns + ` FROM couriers WHERE phone = $1`
	return r.scanCourier(ctx, r.db.QueryRow(ctx, query, phone))
}

func (r repo) ListOnline(ctx context.Context) ([]structs.Courier, error) {
	query := `SELECT ` + courierColumns + ` FROM couriers WHERE is_online AND is_active`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list online couriers failed: %w", err)
	}
	defer rows.Close()

	var couriers []structs.Courier
	for rows.Next() {
		courier, err := r.scanCourierRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan courier failed: %w", err)
		}
		couriers = append(couriers, courier)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return couriers, nil
}

func (r repo) SetOnline(ctx context.Context, id string, online bool, at time.Time) error {
	query := `UPDATE couriers SET is_online = $1, last_seen_at = $2 WHERE id = $3`

	tag, err := r.db.Exec(ctx, query, online, at, id)
	if err != nil {
		r.logger.Error(ctx, "err on r.db.Exec", zap.Error(err))
		return fmt.Errorf("set courier online failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return structs.ErrNotFound
	}
	return nil
}

func (r repo) UpdateLocation(ctx context.Context, id string, lat, lng float64, at time.Time) error {
	// last-write-wins, no causal ordering beyond arrival at the store
	query := `UPDATE couriers SET lat = $1, lng = $2, last_seen_at = $3 WHERE id = $4`

	tag, err := r.db.Exec(ctx, query, lat, lng, at, id)
	if err != nil {
		r.logger.Error(ctx, "err on r.db.Exec", zap.Error(err))
		return fmt.Errorf("update courier location failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return structs.ErrNotFound
	}
	return nil
}

func (r repo) UpdateRating(ctx context.Context, id string, rating int) error {
	query := `
		UPDATE couriers
		SET rating_avg = (rating_avg * rating_count + $1) / (rating_count + 1),
			rating_count = rating_count + 1
		WHERE id = $2
	`

	tag, err := r.db.Exec(ctx, query, rating, id)
	if err != nil {
		r.logger.Error(ctx, "err on r.db.Exec", zap.Error(err))
		return fmt.Errorf("update courier rating failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return structs.ErrNotFound
	}
	return nil
}

func (r repo) SetBanned(ctx context.Context, id string, banned bool) error {
	query := `UPDATE couriers SET is_active = NOT $1 WHERE id = $2`

	tag, err := r.db.Exec(ctx, query, banned, id)
	if err != nil {
		r.logger.Error(ctx, "err on r.db.Exec", zap.Error(err))
		return fmt.Errorf("set courier banned failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return structs.ErrNotFound
	}
	return nil
}

func (r repo) scanCourier(ctx context.Context, row pgx.Row) (structs.Courier, error) {
	courier, err := r.scanCourierRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return structs.Courier{}, structs.ErrNotFound
		}
		return structs.Courier{}, fmt.Errorf("get courier failed: %w", err)
	}
	return courier, nil
}

func (r repo) scanCourierRow(row pgx.Row) (structs.Courier, error) {
	var courier structs.Courier
	err := row.Scan(
		&courier.ID,
		&courier.Name,
		&courier.Phone,
		&courier.PasswordHash,
		&courier.IsOnline,
		&courier.IsActive,
		&courier.Lat,
		&courier.Lng,
		&courier.LastSeenAt,
		&courier.PushToken,
		&courier.TgChatID,
		&courier.RatingAvg,
		&courier.RatingCount,
		&courier.CreatedAt,
	)
	return courier, err
}

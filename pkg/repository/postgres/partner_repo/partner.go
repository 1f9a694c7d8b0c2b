package partnerrepo

import (
	"context"
	"errors"
	"fmt"

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
		Create(ctx context.Context, partner structs.DeliveryPartner) error
		GetByID(ctx context.Context, id string) (structs.DeliveryPartner, error)
		GetByPhone(ctx context.Context, phone string) (structs.DeliveryPartner, error)
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

const partnerColumns = `
	id, name, address, lat, lng, phone, email, password_hash,
	is_active, tg_chat_id, created_at`

func (r repo) Create(ctx context.Context, partner structs.DeliveryPartner) error {
	query := `
		INSERT INTO delivery_partners (
			id, name, address, lat, lng, phone, email, password_hash,
			is_active, tg_chat_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	if _, err := r.db.Exec(ctx, query,
		partner.ID,
		partner.Name,
		partner.Address,
		partner.Lat,
		partner.Lng,
		partner.Phone,
		partner.Email,
		partner.PasswordHash,
		partner.IsActive,
		partner.TgChatID,
		partner.CreatedAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return structs.ErrUniqueViolation
		}
		r.logger.Error(ctx, "err on r.db.Exec", zap.Error(err))
		return fmt.Errorf("create partner failed: %w", err)
	}

	return nil
}

func (r repo) GetByID(ctx context.Context, id string) (structs.DeliveryPartner, error) {
	query := `SELECT ` + partnerColumns + ` FROM delivery_partners WHERE id = $1`
	return r.scanPartner(r.db.QueryRow(ctx, query, id))
}

func (r repo) GetByPhone(ctx context.Context, phone string) (structs.DeliveryPartner, error) {
	query := `SELECT ` + partnerColumns + ` FROM delivery_partners WHERE phone = $1`
	return r.scanPartner(r.db.QueryRow(ctx, query, phone))
}

func (r repo) SetBanned(ctx context.Context, id string, banned bool) error {
	query := `UPDATE delivery_partners SET is_active = NOT $1 WHERE id = $2`

	tag, err := r.db.Exec(ctx, query, banned, id)
	if err != nil {
		r.logger.Error(ctx, "err on r.db.Exec", zap.Error(err))
		return fmt.Errorf("set partner banned failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return structs.ErrNotFound
	}
	return nil
}

func (r repo) scanPartner(row pgx.Row) (structs.DeliveryPartner, error) {
	var partner structs.DeliveryPartner
	err := row.Scan(
		&partner.ID,
		&partner.Name,
		&partner.Address,
		&partner.Lat,
		&partner.Lng,
		&partner.Phone,
		&partner.Email,
		&partner.PasswordHash,
		&partner.IsActive,
		&partner.TgChatID,
		&partner.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return structs.DeliveryPartner{}, structs.ErrNotFound
		}
		return structs.DeliveryPartner{}, fmt.Errorf("get partner failed: %w", err)
	}
	return partner, nil
}

package jobrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/poderjkapk-ux/cur-sub000/internal/structs"
	"github.com/poderjkapk-ux/cur-sub000/pkg/db"
	"github.com/poderjkapk-ux/cur-sub000/pkg/logger"

	"github.com/jackc/pgx/v5"
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
		Create(ctx context.Context, job structs.DeliveryJob) error
		GetByID(ctx context.Context, id string) (structs.DeliveryJob, error)

		// ClaimPending is the sole arbiter of the accept race: the first caller
		// to find status='pending' and no courier wins.
		ClaimPending(ctx context.Context, jobID, courierID string, at time.Time) (bool, error)

		// AdvanceStatus flips from -> to and stamps the matching phase timestamp.
		AdvanceStatus(ctx context.Context, jobID string, from, to structs.JobStatus, at time.Time) (bool, error)

		// CancelFromEarly cancels a job not yet past pickup.
		CancelFromEarly(ctx context.Context, jobID string, at time.Time) (bool, error)

		MarkReady(ctx context.Context, jobID string, at time.Time) (bool, error)

		// BoostFee increments delivery_fee while still pending and returns the new fee.
		BoostFee(ctx context.Context, jobID string, amount int64) (int64, bool, error)

		// SetRating records the one-time post-delivery rating on the job row.
		SetRating(ctx context.Context, jobID string, rating int, review string) (bool, error)

		ListActiveByPartner(ctx context.Context, partnerID string) ([]structs.DeliveryJob, error)
		ListPendingForEscalation(ctx context.Context, cutoff time.Time, tier int) ([]structs.DeliveryJob, error)
		MarkEscalated(ctx context.Context, jobID string, tier int) error
		CountActiveByCourier(ctx context.Context, courierID string) (int64, error)
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

const jobColumns = `
	id, partner_id, courier_id, status,
	customer_name, customer_phone, dropoff_address, dropoff_lat, dropoff_lng,
	order_price, delivery_fee, payment_type, is_return_required, comment,
	ready_at, rating, review, tier1_notified, tier2_notified,
	created_at, accepted_at, arrived_pickup_at, picked_up_at, delivered_at, cancelled_at`

func (r repo) Create(ctx context.Context, job structs.DeliveryJob) error {
	query := `
		INSERT INTO delivery_jobs (
			id, partner_id, status,
			customer_name, customer_phone, dropoff_address, dropoff_lat, dropoff_lng,
			order_price, delivery_fee, payment_type, is_return_required, comment,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	if _, err := r.db.Exec(ctx, query,
		job.ID,
		job.PartnerID,
		job.Status,
		job.CustomerName,
		job.CustomerPhone,
		job.DropoffAddress,
		job.DropoffLat,
		job.DropoffLng,
		job.OrderPrice,
		job.DeliveryFee,
		job.PaymentType,
		job.IsReturnRequired,
		job.Comment,
		job.CreatedAt,
	); err != nil {
		r.logger.Error(ctx, "err on r.db.Exec", zap.Error(err))
		return fmt.Errorf("create job failed: %w", err)
	}

	return nil
}

func (r repo) GetByID(ctx context.Context, id string) (structs.DeliveryJob, error) {
	query := `SELECT ` + jobColumns + ` FROM delivery_jobs WHERE id = $1`

	job, err := r.scanJob(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return structs.DeliveryJob{}, structs.ErrNotFound
		}
		return structs.DeliveryJob{}, fmt.Errorf("get job failed: %w", err)
	}
	return job, nil
}

func (r repo) ClaimPending(ctx context.Context, jobID, courierID string, at time.Time) (bool, error) {
	query := `
		UPDATE delivery_jobs
		SET status = $1, courier_id = $2, accepted_at = $3
		WHERE id = $4 AND status = $5 AND courier_id IS NULL
	`

	tag, err := r.db.Exec(ctx, query,
		structs.StatusAssigned,
		courierID,
		at,
		jobID,
		structs.StatusPending,
	)
	if err != nil {
		r.logger.Error(ctx, "err on r.db.Exec", zap.Error(err))
		return false, fmt.Errorf("claim job failed: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r repo) AdvanceStatus(ctx context.Context, jobID string, from, to structs.JobStatus, at time.Time) (bool, error) {
	query := `
		UPDATE delivery_jobs
		SET status = $1,
			arrived_pickup_at = CASE WHEN $1 = 'arrived_pickup' THEN $2 ELSE arrived_pickup_at END,
			picked_up_at      = CASE WHEN $1 = 'picked_up'      THEN $2 ELSE picked_up_at END,
			delivered_at      = CASE WHEN $1 = 'delivered'      THEN $2 ELSE delivered_at END
		WHERE id = $3 AND status = $4
	`

	tag, err := r.db.Exec(ctx, query, to, at, jobID, from)
	if err != nil {
		r.logger.Error(ctx, "err on r.db.Exec", zap.Error(err))
		return false, fmt.Errorf("advance job status failed: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r repo) CancelFromEarly(ctx context.Context, jobID string, at time.Time) (bool, error) {
	query := `
		UPDATE delivery_jobs
		SET status = $1, cancelled_at = $2
		WHERE id = $3 AND status IN ($4, $5, $6)
	`

	tag, err := r.db.Exec(ctx, query,
		structs.StatusCancelled,
		at,
		jobID,
		structs.StatusPending,
		structs.StatusAssigned,
		structs.StatusArrivedPickup,
	)
	if err != nil {
		r.logger.Error(ctx, "err on r.db.Exec", zap.Error(err))
		return false, fmt.Errorf("cancel job failed: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r repo) MarkReady(ctx context.Context, jobID string, at time.Time) (bool, error) {
	query := `
		UPDATE delivery_jobs
		SET ready_at = $1
		WHERE id = $2 AND ready_at IS NULL AND status IN ($3, $4)
	`

	tag, err := r.db.Exec(ctx, query,
		at,
		jobID,
		structs.StatusAssigned,
		structs.StatusArrivedPickup,
	)
	if err != nil {
		r.logger.Error(ctx, "err on r.db.Exec", zap.Error(err))
		return false, fmt.Errorf("mark job ready failed: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r repo) BoostFee(ctx context.Context, jobID string, amount int64) (int64, bool, error) {
	query := `
		UPDATE delivery_jobs
		SET delivery_fee = delivery_fee + $1
		WHERE id = $2 AND status = $3
		RETURNING delivery_fee
	`

	var newFee int64
	err := r.db.QueryRow(ctx, query, amount, jobID, structs.StatusPending).Scan(&newFee)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		r.logger.Error(ctx, "err on r.db.QueryRow", zap.Error(err))
		return 0, false, fmt.Errorf("boost fee failed: %w", err)
	}

	return newFee, true, nil
}

func (r repo) SetRating(ctx context.Context, jobID string, rating int, review string) (bool, error) {
	query := `
		UPDATE delivery_jobs
		SET rating = $1, review = $2
		WHERE id = $3 AND status = $4 AND rating IS NULL
	`

	tag, err := r.db.Exec(ctx, query, rating, review, jobID, structs.StatusDelivered)
	if err != nil {
		r.logger.Error(ctx, "err on r.db.Exec", zap.Error(err))
		return false, fmt.Errorf("set rating failed: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r repo) ListActiveByPartner(ctx context.Context, partnerID string) ([]structs.DeliveryJob, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM delivery_jobs
		WHERE partner_id = $1 AND status NOT IN ($2, $3)
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, partnerID, structs.StatusDelivered, structs.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("list active jobs failed: %w", err)
	}
	defer rows.Close()

	return r.collectJobs(rows)
}

func (r repo) ListPendingForEscalation(ctx context.Context, cutoff time.Time, tier int) ([]structs.DeliveryJob, error) {
	flag := "tier1_notified"
	if tier == 2 {
		flag = "tier2_notified"
	}

	query := `
		SELECT ` + jobColumns + `
		FROM delivery_jobs
		WHERE status = $1 AND created_at <= $2 AND NOT ` + flag + `
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, structs.StatusPending, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list stale jobs failed: %w", err)
	}
	defer rows.Close()

	return r.collectJobs(rows)
}

func (r repo) MarkEscalated(ctx context.Context, jobID string, tier int) error {
	flag := "tier1_notified"
	if tier == 2 {
		flag = "tier2_notified"
	}

	query := `UPDATE delivery_jobs SET ` + flag + ` = TRUE WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, jobID); err != nil {
		r.logger.Error(ctx, "err on r.db.Exec", zap.Error(err))
		return fmt.Errorf("mark escalated failed: %w", err)
	}
	return nil
}

func (r repo) CountActiveByCourier(ctx context.Context, courierID string) (int64, error) {
	query := `
		SELECT COUNT(*) FROM delivery_jobs
		WHERE courier_id = $1 AND status NOT IN ($2, $3)
	`

	var count int64
	if err := r.db.QueryRow(ctx, query, courierID, structs.StatusDelivered, structs.StatusCancelled).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active jobs failed: %w", err)
	}
	return count, nil
}

func (r repo) collectJobs(rows pgx.Rows) ([]structs.DeliveryJob, error) {
	var jobs []structs.DeliveryJob
	for rows.Next() {
		job, err := r.scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job failed: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return jobs, nil
}

func (r repo) scanJob(row pgx.Row) (structs.DeliveryJob, error) {
	var job structs.DeliveryJob
	err := row.Scan(
		&job.ID,
		&job.PartnerID,
		&job.CourierID,
		&job.Status,
		&job.CustomerName,
		&job.CustomerPhone,
		&job.DropoffAddress,
		&job.DropoffLat,
		&job.DropoffLng,
		&job.OrderPrice,
		&job.DeliveryFee,
		&job.PaymentType,
		&job.IsReturnRequired,
		&job.Comment,
		&job.ReadyAt,
		&job.Rating,
		&job.Review,
		&job.Tier1Notified,
		&job.Tier2Notified,
		&job.CreatedAt,
		&job.AcceptedAt,
		&job.ArrivedPickupAt,
		&job.PickedUpAt,
		&job.DeliveredAt,
		&job.CancelledAt,
	)
	return job, err
}

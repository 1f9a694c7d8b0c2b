package chatrepo

import (
	"context"
	"fmt"

	"github.com/poderjkapk-ux/cur-sub000/internal/structs"
	"github.com/poderjkapk-ux/cur-sub000/pkg/db"
	"github.com/poderjkapk-ux/cur-sub000/pkg/logger"

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

	// Repo is append-only: chat history is never mutated or deleted.
	Repo interface {
		Append(ctx context.Context, msg structs.ChatMessage) error
		ListByJob(ctx context.Context, jobID string) ([]structs.ChatMessage, error)
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

func (r repo) Append(ctx context.Context, msg structs.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (id, job_id, sender, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := r.db.Exec(ctx, query,
		msg.ID,
		msg.JobID,
		msg.Sender,
		msg.Text,
		msg.CreatedAt,
	); err != nil {
		r.logger.Error(ctx, "err on r.db.Exec", zap.Error(err))
		return fmt.Errorf("append chat message failed: %w", err)
	}
	return nil
}

func (r repo) ListByJob(ctx context.Context, jobID string) ([]structs.ChatMessage, error) {
	query := `
		SELECT id, job_id, sender, text, created_at
		FROM chat_messages
		WHERE job_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("list chat messages failed: %w", err)
	}
	defer rows.Close()

	var msgs []structs.ChatMessage
	for rows.Next() {
		var msg structs.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.JobID, &msg.Sender, &msg.Text, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message failed: %w", err)
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return msgs, nil
}

package verify

import (
	"context"
	"errors"
	"time"

	"github.com/poderjkapk-ux/cur-sub000/internal/structs"
	"github.com/poderjkapk-ux/cur-sub000/pkg/config"
	"github.com/poderjkapk-ux/cur-sub000/pkg/logger"
	"github.com/poderjkapk-ux/cur-sub000/pkg/redis"

	"github.com/segmentio/ksuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Provide(New)

const defaultTTL = 10 * time.Minute

// Service tracks phone-verification sessions. A token is written once by the
// bot when the user shares a contact, then read by the registering session.
// Tokens expire with the redis TTL; no sweeper needed.
type Service interface {
	Start(ctx context.Context) (structs.PendingVerification, error)
	Confirm(ctx context.Context, token, phone string, chatID int64) error
	Status(ctx context.Context, token string) (structs.PendingVerification, error)
	Consume(ctx context.Context, token string) (structs.PendingVerification, error)
}

type Params struct {
	fx.In
	Logger logger.Logger
	Config config.IConfig `optional:"true"`
	Redis  redis.Client
}

type service struct {
	logger logger.Logger
	redis  redis.Client
	ttl    time.Duration
}

func New(p Params) Service {
	ttl := defaultTTL
	if p.Config != nil {
		if d := p.Config.GetDuration("verify.ttl"); d > 0 {
			ttl = d
		}
	}

	return &service{
		logger: p.Logger,
		redis:  p.Redis,
		ttl:    ttl,
	}
}

func (s *service) Start(ctx context.Context) (structs.PendingVerification, error) {
	pv := structs.PendingVerification{
		Token:     ksuid.New().String(),
		Status:    structs.VerificationWaiting,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.redis.SaveObj(ctx, key(pv.Token), pv, s.ttl); err != nil {
		return structs.PendingVerification{}, err
	}

	s.logger.Info(ctx, "verification started", zap.String("token", pv.Token))
	return pv, nil
}

// Confirm is the bot's single write. Idempotent on the token: repeating the
// contact share does not change an already-verified session.
func (s *service) Confirm(ctx context.Context, token, phone string, chatID int64) error {
	pv, err := s.get(ctx, token)
	if err != nil {
		return err
	}
	if pv.Status == structs.VerificationVerified {
		return nil
	}

	pv.Status = structs.VerificationVerified
	pv.Phone = phone
	pv.ChatID = chatID

	remaining, err := s.redis.TTL(ctx, key(token))
	if err != nil || remaining <= 0 {
		remaining = s.ttl
	}

	if err := s.redis.SaveObj(ctx, key(token), pv, remaining); err != nil {
		return err
	}

	s.logger.Info(ctx, "verification confirmed",
		zap.String("token", token),
		zap.Int64("chat_id", chatID),
	)
	return nil
}

func (s *service) Status(ctx context.Context, token string) (structs.PendingVerification, error) {
	return s.get(ctx, token)
}

// Consume returns a verified session and burns the token.
func (s *service) Consume(ctx context.Context, token string) (structs.PendingVerification, error) {
	pv, err := s.get(ctx, token)
	if err != nil {
		return structs.PendingVerification{}, err
	}
	if pv.Status != structs.VerificationVerified {
		return structs.PendingVerification{}, structs.ErrValidation
	}

	if err := s.redis.Delete(ctx, key(token)); err != nil {
		s.logger.Warn(ctx, "verification token delete failed", zap.Error(err))
	}
	return pv, nil
}

func (s *service) get(ctx context.Context, token string) (structs.PendingVerification, error) {
	var pv structs.PendingVerification
	if err := s.redis.FindObj(ctx, key(token), &pv); err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return structs.PendingVerification{}, structs.ErrNotFound
		}
		return structs.PendingVerification{}, err
	}
	return pv, nil
}

func key(token string) string {
	return "verify." + token
}

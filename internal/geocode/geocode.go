package geocode

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/poderjkapk-ux/cur-sub000/pkg/config"
	"github.com/poderjkapk-ux/cur-sub000/pkg/logger"
	"github.com/poderjkapk-ux/cur-sub000/pkg/redis"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	Module = fx.Provide(New)

	ErrNoResolver = errors.New("geocode: no resolver configured")
)

const defaultTTL = 24 * time.Hour

// Resolver turns an address into coordinates. Accuracy is the resolver's
// problem; this package only memoizes.
type Resolver interface {
	Resolve(ctx context.Context, address string) (lat, lng float64, err error)
}

type Service interface {
	Lookup(ctx context.Context, address string) (lat, lng float64, err error)
}

type Params struct {
	fx.In
	Logger   logger.Logger
	Config   config.IConfig `optional:"true"`
	Redis    redis.Client
	Resolver Resolver `optional:"true"`
}

type service struct {
	logger   logger.Logger
	redis    redis.Client
	resolver Resolver
	ttl      time.Duration
}

type point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func New(p Params) Service {
	ttl := defaultTTL
	if p.Config != nil {
		if d := p.Config.GetDuration("geocode.ttl"); d > 0 {
			ttl = d
		}
	}

	return &service{
		logger:   p.Logger,
		redis:    p.Redis,
		resolver: p.Resolver,
		ttl:      ttl,
	}
}

func (s *service) Lookup(ctx context.Context, address string) (float64, float64, error) {
	key := cacheKey(address)

	var pt point
	if err := s.redis.FindObj(ctx, key, &pt); err == nil {
		return pt.Lat, pt.Lng, nil
	} else if !errors.Is(err, redis.ErrNotFound) {
		s.logger.Warn(ctx, "geocode: cache read failed", zap.Error(err))
	}

	if s.resolver == nil {
		return 0, 0, ErrNoResolver
	}

	lat, lng, err := s.resolver.Resolve(ctx, address)
	if err != nil {
		return 0, 0, err
	}

	if err := s.redis.SaveObj(ctx, key, point{Lat: lat, Lng: lng}, s.ttl); err != nil {
		s.logger.Warn(ctx, "geocode: cache write failed", zap.Error(err))
	}

	return lat, lng, nil
}

func cacheKey(address string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(address))))
	return "geocode." + hex.EncodeToString(sum[:8])
}

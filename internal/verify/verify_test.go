package verify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/poderjkapk-ux/cur-sub000/internal/structs"
	"github.com/poderjkapk-ux/cur-sub000/pkg/logger"
	"github.com/poderjkapk-ux/cur-sub000/pkg/redis"
)

type memRedis struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMemRedis() *memRedis {
	return &memRedis{
		data: make(map[string][]byte),
		ttls: make(map[string]time.Duration),
	}
}

func (m *memRedis) Save(_ context.Context, key string, value any, dur time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = []byte(value.(string))
	m.ttls[key] = dur
	return nil
}

func (m *memRedis) SaveObj(_ context.Context, key string, value any, dur time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = b
	m.ttls[key] = dur
	return nil
}

func (m *memRedis) Find(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return "", redis.ErrNotFound
	}
	return string(b), nil
}

func (m *memRedis) FindObj(_ context.Context, key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return redis.ErrNotFound
	}
	return json.Unmarshal(b, value)
}

func (m *memRedis) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	delete(m.ttls, key)
	return nil
}

func (m *memRedis) TTL(_ context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ttls[key], nil
}

func newService(r redis.Client) Service {
	return New(Params{
		Logger: logger.New("error"),
		Redis:  r,
	})
}

func TestVerificationFlow(t *testing.T) {
	ctx := context.Background()
	r := newMemRedis()
	svc := newService(r)

	pv, err := svc.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if pv.Token == "" || pv.Status != structs.VerificationWaiting {
		t.Fatalf("fresh session = %+v", pv)
	}

	got, err := svc.Status(ctx, pv.Token)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if got.Status != structs.VerificationWaiting {
		t.Fatalf("status = %s, want waiting_contact", got.Status)
	}

	if err := svc.Confirm(ctx, pv.Token, "+998901112233", 4242); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	got, err = svc.Status(ctx, pv.Token)
	if err != nil {
		t.Fatalf("status after confirm: %v", err)
	}
	if got.Status != structs.VerificationVerified || got.Phone != "+998901112233" || got.ChatID != 4242 {
		t.Fatalf("confirmed session = %+v", got)
	}
}

func TestConfirmIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newService(newMemRedis())

	pv, _ := svc.Start(ctx)
	if err := svc.Confirm(ctx, pv.Token, "+998901112233", 4242); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	// a repeated contact share must not overwrite the first
	if err := svc.Confirm(ctx, pv.Token, "+777", 1); err != nil {
		t.Fatalf("repeat confirm: %v", err)
	}

	got, _ := svc.Status(ctx, pv.Token)
	if got.Phone != "+998901112233" || got.ChatID != 4242 {
		t.Fatalf("session mutated by repeat confirm: %+v", got)
	}
}

func TestConsume(t *testing.T) {
	ctx := context.Background()
	svc := newService(newMemRedis())

	pv, _ := svc.Start(ctx)

	// unverified tokens cannot be spent
	if _, err := svc.Consume(ctx, pv.Token); !errors.Is(err, structs.ErrValidation) {
		t.Fatalf("consume unverified: got %v, want ErrValidation", err)
	}

	svc.Confirm(ctx, pv.Token, "+998901112233", 4242)

	got, err := svc.Consume(ctx, pv.Token)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if got.Phone != "+998901112233" {
		t.Fatalf("consumed session = %+v", got)
	}

	// the token is burned
	if _, err := svc.Consume(ctx, pv.Token); !errors.Is(err, structs.ErrNotFound) {
		t.Fatalf("double consume: got %v, want ErrNotFound", err)
	}
}

func TestUnknownToken(t *testing.T) {
	ctx := context.Background()
	svc := newService(newMemRedis())

	if _, err := svc.Status(ctx, "no-such-token"); !errors.Is(err, structs.ErrNotFound) {
		t.Fatalf("status: got %v, want ErrNotFound", err)
	}
	if err := svc.Confirm(ctx, "no-such-token", "+1", 1); !errors.Is(err, structs.ErrNotFound) {
		t.Fatalf("confirm: got %v, want ErrNotFound", err)
	}
}

func TestConfirmPreservesTTL(t *testing.T) {
	ctx := context.Background()
	r := newMemRedis()
	svc := newService(r)

	pv, _ := svc.Start(ctx)

	r.mu.Lock()
	r.ttls["verify."+pv.Token] = 3 * time.Minute
	r.mu.Unlock()

	if err := svc.Confirm(ctx, pv.Token, "+1", 1); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	ttl, _ := r.TTL(ctx, "verify."+pv.Token)
	if ttl != 3*time.Minute {
		t.Fatalf("ttl after confirm = %s, want the remaining 3m", ttl)
	}
}

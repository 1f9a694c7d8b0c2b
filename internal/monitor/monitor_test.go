package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/poderjkapk-ux/cur-sub000/internal/structs"
	"github.com/poderjkapk-ux/cur-sub000/pkg/logger"
)

type stubJobRepo struct {
	mu     sync.Mutex
	jobs   map[string]*structs.DeliveryJob
	active map[string]int64
}

func newStubJobRepo() *stubJobRepo {
	return &stubJobRepo{
		jobs:   make(map[string]*structs.DeliveryJob),
		active: make(map[string]int64),
	}
}

func (s *stubJobRepo) Create(_ context.Context, job structs.DeliveryJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = &job
	return nil
}

func (s *stubJobRepo) GetByID(_ context.Context, id string) (structs.DeliveryJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		return *job, nil
	}
	return structs.DeliveryJob{}, structs.ErrNotFound
}

func (s *stubJobRepo) ClaimPending(context.Context, string, string, time.Time) (bool, error) {
	return false, nil
}

func (s *stubJobRepo) AdvanceStatus(context.Context, string, structs.JobStatus, structs.JobStatus, time.Time) (bool, error) {
	return false, nil
}

func (s *stubJobRepo) CancelFromEarly(context.Context, string, time.Time) (bool, error) {
	return false, nil
}

func (s *stubJobRepo) MarkReady(context.Context, string, time.Time) (bool, error) {
	return false, nil
}

func (s *stubJobRepo) BoostFee(context.Context, string, int64) (int64, bool, error) {
	return 0, false, nil
}

func (s *stubJobRepo) SetRating(context.Context, string, int, string) (bool, error) {
	return false, nil
}

func (s *stubJobRepo) ListActiveByPartner(context.Context, string) ([]structs.DeliveryJob, error) {
	return nil, nil
}

func (s *stubJobRepo) ListPendingForEscalation(_ context.Context, cutoff time.Time, tier int) ([]structs.DeliveryJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []structs.DeliveryJob
	for _, job := range s.jobs {
		if job.Status != structs.StatusPending || !job.CreatedAt.Before(cutoff) {
			continue
		}
		if tier == 1 && job.Tier1Notified {
			continue
		}
		if tier == 2 && job.Tier2Notified {
			continue
		}
		out = append(out, *job)
	}
	return out, nil
}

func (s *stubJobRepo) MarkEscalated(_ context.Context, jobID string, tier int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return structs.ErrNotFound
	}
	if tier == 1 {
		job.Tier1Notified = true
	} else {
		job.Tier2Notified = true
	}
	return nil
}

func (s *stubJobRepo) CountActiveByCourier(_ context.Context, courierID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[courierID], nil
}

type stubCourierRepo struct {
	online []structs.Courier
}

func (s *stubCourierRepo) Create(context.Context, structs.Courier) error { return nil }
func (s *stubCourierRepo) GetByID(context.Context, string) (structs.Courier, error) {
	return structs.Courier{}, structs.ErrNotFound
}
func (s *stubCourierRepo) GetByPhone(context.Context, string) (structs.Courier, error) {
	return structs.Courier{}, structs.ErrNotFound
}
func (s *stubCourierRepo) ListOnline(context.Context) ([]structs.Courier, error) {
	return s.online, nil
}
func (s *stubCourierRepo) SetOnline(context.Context, string, bool, time.Time) error { return nil }
func (s *stubCourierRepo) UpdateLocation(context.Context, string, float64, float64, time.Time) error {
	return nil
}
func (s *stubCourierRepo) UpdateRating(context.Context, string, int) error { return nil }
func (s *stubCourierRepo) SetBanned(context.Context, string, bool) error   { return nil }

type stubPartnerRepo struct {
	partners map[string]structs.DeliveryPartner
}

func (s *stubPartnerRepo) Create(context.Context, structs.DeliveryPartner) error { return nil }
func (s *stubPartnerRepo) GetByID(_ context.Context, id string) (structs.DeliveryPartner, error) {
	if p, ok := s.partners[id]; ok {
		return p, nil
	}
	return structs.DeliveryPartner{}, structs.ErrNotFound
}
func (s *stubPartnerRepo) GetByPhone(context.Context, string) (structs.DeliveryPartner, error) {
	return structs.DeliveryPartner{}, structs.ErrNotFound
}
func (s *stubPartnerRepo) SetBanned(context.Context, string, bool) error { return nil }

type recordingGateway struct {
	mu   sync.Mutex
	sent []structs.Channel
}

func (g *recordingGateway) Notify(_ context.Context, ch structs.Channel, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, ch)
	return nil
}

func (g *recordingGateway) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sent)
}

func (g *recordingGateway) chatIDs() []int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]int64, 0, len(g.sent))
	for _, ch := range g.sent {
		ids = append(ids, ch.TelegramChatID)
	}
	return ids
}

func pendingJob(id string, age time.Duration) structs.DeliveryJob {
	return structs.DeliveryJob{
		ID:             id,
		PartnerID:      "p1",
		Status:         structs.StatusPending,
		DropoffAddress: "somewhere",
		DeliveryFee:    10000,
		CreatedAt:      time.Now().UTC().Add(-age),
	}
}

func newMonitor(jobs *stubJobRepo, couriers *stubCourierRepo, partners *stubPartnerRepo, gw *recordingGateway) *Monitor {
	return New(Params{
		Logger:      logger.New("error"),
		JobRepo:     jobs,
		CourierRepo: couriers,
		PartnerRepo: partners,
		Gateway:     gw,
	})
}

func TestTier1FiresOnceForStalePending(t *testing.T) {
	ctx := context.Background()
	jobs := newStubJobRepo()
	couriers := &stubCourierRepo{online: []structs.Courier{
		{ID: "free", IsOnline: true, IsActive: true, TgChatID: 100},
		{ID: "busy", IsOnline: true, IsActive: true, TgChatID: 200},
		{ID: "mute", IsOnline: true, IsActive: true}, // no channel at all
	}}
	partners := &stubPartnerRepo{partners: map[string]structs.DeliveryPartner{}}
	gw := &recordingGateway{}

	jobs.Create(ctx, pendingJob("stale", 6*time.Minute))
	jobs.Create(ctx, pendingJob("fresh", time.Minute))
	jobs.active["busy"] = 1

	m := newMonitor(jobs, couriers, partners, gw)
	m.sweep(ctx)

	// only the free, reachable courier hears about the stale job
	if got := gw.chatIDs(); len(got) != 1 || got[0] != 100 {
		t.Fatalf("tier-1 recipients = %v, want [100]", got)
	}

	stale, _ := jobs.GetByID(ctx, "stale")
	if !stale.Tier1Notified {
		t.Fatal("stale job not flagged tier-1")
	}
	fresh, _ := jobs.GetByID(ctx, "fresh")
	if fresh.Tier1Notified {
		t.Fatal("fresh job escalated too early")
	}

	// a second sweep must not repeat the ping
	m.sweep(ctx)
	if gw.count() != 1 {
		t.Fatalf("notifications after second sweep = %d, want 1", gw.count())
	}
}

func TestTier1SkipsNonPending(t *testing.T) {
	ctx := context.Background()
	jobs := newStubJobRepo()
	couriers := &stubCourierRepo{online: []structs.Courier{
		{ID: "free", IsOnline: true, IsActive: true, TgChatID: 100},
	}}
	gw := &recordingGateway{}

	taken := pendingJob("taken", 6*time.Minute)
	cid := "free"
	taken.Status = structs.StatusAssigned
	taken.CourierID = &cid
	jobs.Create(ctx, taken)

	m := newMonitor(jobs, couriers, &stubPartnerRepo{}, gw)
	m.sweep(ctx)

	if gw.count() != 0 {
		t.Fatalf("notifications = %d, want 0 for an assigned job", gw.count())
	}
}

func TestTier2NotifiesPartnerAndOperator(t *testing.T) {
	ctx := context.Background()
	jobs := newStubJobRepo()
	couriers := &stubCourierRepo{}
	partners := &stubPartnerRepo{partners: map[string]structs.DeliveryPartner{
		"p1": {ID: "p1", TgChatID: 500},
	}}
	gw := &recordingGateway{}

	job := pendingJob("old", 11*time.Minute)
	job.Tier1Notified = true
	jobs.Create(ctx, job)

	m := newMonitor(jobs, couriers, partners, gw)
	m.operatorChatID = 999
	m.sweep(ctx)

	ids := gw.chatIDs()
	if len(ids) != 2 {
		t.Fatalf("tier-2 recipients = %v, want partner and operator", ids)
	}
	if ids[0] != 500 || ids[1] != 999 {
		t.Fatalf("tier-2 recipients = %v, want [500 999]", ids)
	}

	got, _ := jobs.GetByID(ctx, "old")
	if !got.Tier2Notified {
		t.Fatal("job not flagged tier-2")
	}

	m.sweep(ctx)
	if gw.count() != 2 {
		t.Fatalf("notifications after second sweep = %d, want 2", gw.count())
	}
}

func TestTier2BeforeTier1Window(t *testing.T) {
	ctx := context.Background()
	jobs := newStubJobRepo()
	gw := &recordingGateway{}
	partners := &stubPartnerRepo{partners: map[string]structs.DeliveryPartner{
		"p1": {ID: "p1", TgChatID: 500},
	}}

	// old enough for tier 1, not yet for tier 2
	jobs.Create(ctx, pendingJob("mid", 7*time.Minute))

	m := newMonitor(jobs, &stubCourierRepo{}, partners, gw)
	m.sweep(ctx)

	got, _ := jobs.GetByID(ctx, "mid")
	if !got.Tier1Notified {
		t.Fatal("tier-1 flag not set")
	}
	if got.Tier2Notified {
		t.Fatal("tier-2 fired inside the tier-1 window")
	}
}

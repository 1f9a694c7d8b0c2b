package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/poderjkapk-ux/cur-sub000/internal/structs"
	"github.com/poderjkapk-ux/cur-sub000/internal/ws"
	"github.com/poderjkapk-ux/cur-sub000/pkg/logger"
)

type memChatRepo struct {
	mu   sync.Mutex
	msgs []structs.ChatMessage
}

func (m *memChatRepo) Append(_ context.Context, msg structs.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
	return nil
}

func (m *memChatRepo) ListByJob(_ context.Context, jobID string) ([]structs.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []structs.ChatMessage
	for _, msg := range m.msgs {
		if msg.JobID == jobID {
			out = append(out, msg)
		}
	}
	return out, nil
}

type stubJobRepo struct {
	jobs map[string]structs.DeliveryJob
}

func (s *stubJobRepo) Create(context.Context, structs.DeliveryJob) error { return nil }
func (s *stubJobRepo) GetByID(_ context.Context, id string) (structs.DeliveryJob, error) {
	if job, ok := s.jobs[id]; ok {
		return job, nil
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
func (s *stubJobRepo) MarkReady(context.Context, string, time.Time) (bool, error) { return false, nil }
func (s *stubJobRepo) BoostFee(context.Context, string, int64) (int64, bool, error) {
	return 0, false, nil
}
func (s *stubJobRepo) SetRating(context.Context, string, int, string) (bool, error) {
	return false, nil
}
func (s *stubJobRepo) ListActiveByPartner(context.Context, string) ([]structs.DeliveryJob, error) {
	return nil, nil
}
func (s *stubJobRepo) ListPendingForEscalation(context.Context, time.Time, int) ([]structs.DeliveryJob, error) {
	return nil, nil
}
func (s *stubJobRepo) MarkEscalated(context.Context, string, int) error { return nil }
func (s *stubJobRepo) CountActiveByCourier(context.Context, string) (int64, error) {
	return 0, nil
}

type stubCourierRepo struct{}

func (stubCourierRepo) Create(context.Context, structs.Courier) error { return nil }
func (stubCourierRepo) GetByID(context.Context, string) (structs.Courier, error) {
	return structs.Courier{ID: "c1", TgChatID: 77}, nil
}
func (stubCourierRepo) GetByPhone(context.Context, string) (structs.Courier, error) {
	return structs.Courier{}, structs.ErrNotFound
}
func (stubCourierRepo) ListOnline(context.Context) ([]structs.Courier, error) { return nil, nil }
func (stubCourierRepo) SetOnline(context.Context, string, bool, time.Time) error {
	return nil
}
func (stubCourierRepo) UpdateLocation(context.Context, string, float64, float64, time.Time) error {
	return nil
}
func (stubCourierRepo) UpdateRating(context.Context, string, int) error { return nil }
func (stubCourierRepo) SetBanned(context.Context, string, bool) error   { return nil }

type stubPartnerRepo struct{}

func (stubPartnerRepo) Create(context.Context, structs.DeliveryPartner) error { return nil }
func (stubPartnerRepo) GetByID(context.Context, string) (structs.DeliveryPartner, error) {
	return structs.DeliveryPartner{ID: "p1", TgChatID: 88}, nil
}
func (stubPartnerRepo) GetByPhone(context.Context, string) (structs.DeliveryPartner, error) {
	return structs.DeliveryPartner{}, structs.ErrNotFound
}
func (stubPartnerRepo) SetBanned(context.Context, string, bool) error { return nil }

type nullGateway struct{}

func (nullGateway) Notify(context.Context, structs.Channel, string) error { return nil }

type recordingConn struct {
	mu   sync.Mutex
	sent [][]byte
}

func (r *recordingConn) Send(b []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, b)
	return nil
}

func (r *recordingConn) Close() {}

func (r *recordingConn) frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func newChatEnv(jobs map[string]structs.DeliveryJob) (Service, *ws.Hub, *memChatRepo) {
	hub := ws.NewHub()
	repo := &memChatRepo{}
	svc := New(Params{
		Logger:      logger.New("error"),
		ChatRepo:    repo,
		JobRepo:     &stubJobRepo{jobs: jobs},
		CourierRepo: stubCourierRepo{},
		PartnerRepo: stubPartnerRepo{},
		Hub:         hub,
		Gateway:     nullGateway{},
	})
	return svc, hub, repo
}

func assignedJob() structs.DeliveryJob {
	cid := "c1"
	return structs.DeliveryJob{
		ID:        "j1",
		PartnerID: "p1",
		CourierID: &cid,
		Status:    structs.StatusAssigned,
	}
}

func TestSendAndHistory(t *testing.T) {
	svc, _, _ := newChatEnv(map[string]structs.DeliveryJob{"j1": assignedJob()})
	ctx := context.Background()

	if _, err := svc.Send(ctx, "j1", structs.RoleCourier, "c1", "  "); !errors.Is(err, structs.ErrValidation) {
		t.Fatalf("blank text: got %v, want ErrValidation", err)
	}

	msg, err := svc.Send(ctx, "j1", structs.RoleCourier, "c1", "on my way")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.Sender != structs.RoleCourier || msg.JobID != "j1" {
		t.Fatalf("stored message = %+v", msg)
	}

	if _, err := svc.Send(ctx, "j1", structs.RolePartner, "p1", "ok, waiting"); err != nil {
		t.Fatalf("partner send: %v", err)
	}

	history, err := svc.History(ctx, "j1", structs.RolePartner, "p1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Text != "on my way" || history[1].Text != "ok, waiting" {
		t.Fatalf("history out of order: %+v", history)
	}
}

func TestChatOwnership(t *testing.T) {
	svc, _, _ := newChatEnv(map[string]structs.DeliveryJob{"j1": assignedJob()})
	ctx := context.Background()

	if _, err := svc.Send(ctx, "j1", structs.RoleCourier, "c2", "hi"); !errors.Is(err, structs.ErrNotOwner) {
		t.Fatalf("foreign courier: got %v, want ErrNotOwner", err)
	}
	if _, err := svc.History(ctx, "j1", structs.RolePartner, "p9"); !errors.Is(err, structs.ErrNotOwner) {
		t.Fatalf("foreign partner: got %v, want ErrNotOwner", err)
	}
	if _, err := svc.Send(ctx, "missing", structs.RoleCourier, "c1", "hi"); !errors.Is(err, structs.ErrNotFound) {
		t.Fatalf("missing job: got %v, want ErrNotFound", err)
	}
}

func TestChatUnassignedJob(t *testing.T) {
	job := assignedJob()
	job.CourierID = nil
	job.Status = structs.StatusPending
	svc, _, repo := newChatEnv(map[string]structs.DeliveryJob{"j1": job})
	ctx := context.Background()

	// no courier yet, so no courier may write
	if _, err := svc.Send(ctx, "j1", structs.RoleCourier, "c1", "hi"); !errors.Is(err, structs.ErrNotOwner) {
		t.Fatalf("courier on unassigned job: got %v, want ErrNotOwner", err)
	}

	// the partner can still leave notes for whoever accepts
	if _, err := svc.Send(ctx, "j1", structs.RolePartner, "p1", "gate code 4821"); err != nil {
		t.Fatalf("partner send: %v", err)
	}
	if len(repo.msgs) != 1 {
		t.Fatalf("stored = %d, want 1", len(repo.msgs))
	}
}

func TestChatFanOutOverHub(t *testing.T) {
	svc, hub, _ := newChatEnv(map[string]structs.DeliveryJob{"j1": assignedJob()})
	ctx := context.Background()

	partnerConn := &recordingConn{}
	hub.Register(structs.RolePartner, "p1", partnerConn)

	if _, err := svc.Send(ctx, "j1", structs.RoleCourier, "c1", "picking up now"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if partnerConn.frames() != 1 {
		t.Fatalf("partner frames = %d, want 1", partnerConn.frames())
	}

	courierConn := &recordingConn{}
	hub.Register(structs.RoleCourier, "c1", courierConn)

	if _, err := svc.Send(ctx, "j1", structs.RolePartner, "p1", "door on the left"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if courierConn.frames() != 1 {
		t.Fatalf("courier frames = %d, want 1", courierConn.frames())
	}
	// the sender does not get an echo
	if partnerConn.frames() != 1 {
		t.Fatalf("partner frames = %d, want still 1", partnerConn.frames())
	}
}

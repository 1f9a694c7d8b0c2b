package chat

import (
	"context"
	"strings"
	"time"

	"github.com/poderjkapk-ux/cur-sub000/internal/notify"
	"github.com/poderjkapk-ux/cur-sub000/internal/structs"
	"github.com/poderjkapk-ux/cur-sub000/internal/ws"
	"github.com/poderjkapk-ux/cur-sub000/pkg/logger"
	chatrepo "github.com/poderjkapk-ux/cur-sub000/pkg/repository/postgres/chat_repo"
	courierrepo "github.com/poderjkapk-ux/cur-sub000/pkg/repository/postgres/courier_repo"
	jobrepo "github.com/poderjkapk-ux/cur-sub000/pkg/repository/postgres/job_repo"
	partnerrepo "github.com/poderjkapk-ux/cur-sub000/pkg/repository/postgres/partner_repo"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Provide(New)

type Service interface {
	Send(ctx context.Context, jobID string, sender structs.Role, senderID, text string) (structs.ChatMessage, error)
	History(ctx context.Context, jobID string, actor structs.Role, actorID string) ([]structs.ChatMessage, error)
}

type Params struct {
	fx.In
	Logger      logger.Logger
	ChatRepo    chatrepo.Repo
	JobRepo     jobrepo.Repo
	CourierRepo courierrepo.Repo
	PartnerRepo partnerrepo.Repo
	Hub         *ws.Hub
	Gateway     notify.Gateway
}

type service struct {
	logger      logger.Logger
	chatRepo    chatrepo.Repo
	jobRepo     jobrepo.Repo
	courierRepo courierrepo.Repo
	partnerRepo partnerrepo.Repo
	hub         *ws.Hub
	gateway     notify.Gateway
}

func New(p Params) Service {
	return &service{
		logger:      p.Logger,
		chatRepo:    p.ChatRepo,
		jobRepo:     p.JobRepo,
		courierRepo: p.CourierRepo,
		partnerRepo: p.PartnerRepo,
		hub:         p.Hub,
		gateway:     p.Gateway,
	}
}

func (s *service) Send(ctx context.Context, jobID string, sender structs.Role, senderID, text string) (structs.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return structs.ChatMessage{}, structs.ErrValidation
	}

	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return structs.ChatMessage{}, err
	}
	if err := participant(job, sender, senderID); err != nil {
		return structs.ChatMessage{}, err
	}

	msg := structs.ChatMessage{
		ID:        uuid.NewString(),
		JobID:     jobID,
		Sender:    sender,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.chatRepo.Append(ctx, msg); err != nil {
		return structs.ChatMessage{}, err
	}

	s.fanOut(ctx, job, sender, msg)
	return msg, nil
}

func (s *service) History(ctx context.Context, jobID string, actor structs.Role, actorID string) ([]structs.ChatMessage, error) {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := participant(job, actor, actorID); err != nil {
		return nil, err
	}

	return s.chatRepo.ListByJob(ctx, jobID)
}

// fanOut delivers the message to the counterpart: the partner hears from the
// courier and vice versa. Registry first, gateway as the offline fallback.
func (s *service) fanOut(ctx context.Context, job structs.DeliveryJob, sender structs.Role, msg structs.ChatMessage) {
	evt := structs.Event{
		Type:    structs.EventChatMessage,
		Payload: structs.ChatPayload{Message: msg},
	}

	switch sender {
	case structs.RoleCourier:
		if s.hub.Send(structs.RolePartner, job.PartnerID, evt) {
			return
		}
		partner, err := s.partnerRepo.GetByID(ctx, job.PartnerID)
		if err != nil {
			s.logger.Warn(ctx, "chat fan-out: partner lookup failed", zap.Error(err))
			return
		}
		s.notifyAsync(ctx, partner.Channel(), msg.Text)

	case structs.RolePartner:
		if job.CourierID == nil {
			return
		}
		if s.hub.Send(structs.RoleCourier, *job.CourierID, evt) {
			return
		}
		courier, err := s.courierRepo.GetByID(ctx, *job.CourierID)
		if err != nil {
			s.logger.Warn(ctx, "chat fan-out: courier lookup failed", zap.Error(err))
			return
		}
		if courier.Reachable() {
			s.notifyAsync(ctx, courier.Channel(), msg.Text)
		}
	}
}

func (s *service) notifyAsync(ctx context.Context, ch structs.Channel, text string) {
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		if err := s.gateway.Notify(sendCtx, ch, text); err != nil {
			s.logger.Debug(ctx, "chat notify dropped", zap.Error(err))
		}
	}()
}

func participant(job structs.DeliveryJob, role structs.Role, actorID string) error {
	switch role {
	case structs.RolePartner:
		if job.PartnerID != actorID {
			return structs.ErrNotOwner
		}
	case structs.RoleCourier:
		if job.CourierID == nil || *job.CourierID != actorID {
			return structs.ErrNotOwner
		}
	default:
		return structs.ErrValidation
	}
	return nil
}

package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/poderjkapk-ux/cur-sub000/internal/geocode"
	"github.com/poderjkapk-ux/cur-sub000/internal/notify"
	"github.com/poderjkapk-ux/cur-sub000/internal/structs"
	"github.com/poderjkapk-ux/cur-sub000/internal/ws"
	"github.com/poderjkapk-ux/cur-sub000/pkg/config"
	"github.com/poderjkapk-ux/cur-sub000/pkg/logger"
	courierrepo "github.com/poderjkapk-ux/cur-sub000/pkg/repository/postgres/courier_repo"
	jobrepo "github.com/poderjkapk-ux/cur-sub000/pkg/repository/postgres/job_repo"
	partnerrepo "github.com/poderjkapk-ux/cur-sub000/pkg/repository/postgres/partner_repo"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Provide(New)

const defaultNotifyTimeout = 3 * time.Second

type Service interface {
	Create(ctx context.Context, partnerID string, req structs.CreateJob) (structs.DeliveryJob, error)
	Accept(ctx context.Context, jobID, courierID string) (structs.DeliveryJob, error)
	MarkArrivedPickup(ctx context.Context, jobID, courierID string) error
	MarkReady(ctx context.Context, jobID, partnerID string) error
	MarkPickedUp(ctx context.Context, jobID, courierID string) error
	MarkDelivered(ctx context.Context, jobID, courierID string) (structs.JobStatus, error)
	ConfirmReturn(ctx context.Context, jobID, partnerID string) error
	Cancel(ctx context.Context, jobID, partnerID string) error
	BoostFee(ctx context.Context, jobID, partnerID string, amount int64) (int64, error)
	RateCourier(ctx context.Context, jobID, partnerID string, rating int, review string) error
	GetJob(ctx context.Context, jobID string) (structs.DeliveryJob, error)
	ListActive(ctx context.Context, partnerID string) ([]structs.DeliveryJob, error)
}

type Params struct {
	fx.In
	Logger      logger.Logger
	Config      config.IConfig `optional:"true"`
	JobRepo     jobrepo.Repo
	CourierRepo courierrepo.Repo
	PartnerRepo partnerrepo.Repo
	Hub         *ws.Hub
	Gateway     notify.Gateway
	Geocoder    geocode.Service `optional:"true"`
}

type service struct {
	logger        logger.Logger
	jobRepo       jobrepo.Repo
	courierRepo   courierrepo.Repo
	partnerRepo   partnerrepo.Repo
	hub           *ws.Hub
	gateway       notify.Gateway
	geocoder      geocode.Service
	notifyTimeout time.Duration
}

func New(p Params) Service {
	timeout := defaultNotifyTimeout
	if p.Config != nil {
		if d := p.Config.GetDuration("notify.timeout"); d > 0 {
			timeout = d
		}
	}

	return &service{
		logger:        p.Logger,
		jobRepo:       p.JobRepo,
		courierRepo:   p.CourierRepo,
		partnerRepo:   p.PartnerRepo,
		hub:           p.Hub,
		gateway:       p.Gateway,
		geocoder:      p.Geocoder,
		notifyTimeout: timeout,
	}
}

func (s *service) Create(ctx context.Context, partnerID string, req structs.CreateJob) (structs.DeliveryJob, error) {
	if strings.TrimSpace(req.DropoffAddress) == "" || strings.TrimSpace(req.CustomerPhone) == "" {
		return structs.DeliveryJob{}, structs.ErrValidation
	}
	if req.OrderPrice < 0 || req.DeliveryFee < 0 {
		return structs.DeliveryJob{}, structs.ErrValidation
	}
	if !req.PaymentType.Valid() {
		return structs.DeliveryJob{}, structs.ErrValidation
	}

	partner, err := s.partnerRepo.GetByID(ctx, partnerID)
	if err != nil {
		return structs.DeliveryJob{}, err
	}
	if !partner.IsActive {
		return structs.DeliveryJob{}, structs.ErrUserBlocked
	}

	// coordinates are optional on input; resolve best-effort for map display
	if req.DropoffLat == 0 && req.DropoffLng == 0 && s.geocoder != nil {
		if lat, lng, err := s.geocoder.Lookup(ctx, req.DropoffAddress); err == nil {
			req.DropoffLat, req.DropoffLng = lat, lng
		}
	}

	job := structs.DeliveryJob{
		ID:               uuid.NewString(),
		PartnerID:        partner.ID,
		Status:           structs.StatusPending,
		CustomerName:     req.CustomerName,
		CustomerPhone:    req.CustomerPhone,
		DropoffAddress:   req.DropoffAddress,
		DropoffLat:       req.DropoffLat,
		DropoffLng:       req.DropoffLng,
		OrderPrice:       req.OrderPrice,
		DeliveryFee:      req.DeliveryFee,
		PaymentType:      req.PaymentType,
		IsReturnRequired: req.IsReturnRequired,
		Comment:          req.Comment,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.jobRepo.Create(ctx, job); err != nil {
		return structs.DeliveryJob{}, err
	}

	s.logger.Info(ctx, "job created",
		zap.String("job_id", job.ID),
		zap.String("partner_id", partner.ID),
		zap.Int64("delivery_fee", job.DeliveryFee),
	)

	s.broadcastToCouriers(ctx,
		structs.Event{Type: structs.EventNewOrder, Payload: structs.NewOrderPayload{Job: job}},
		newOrderText(job),
	)

	return job, nil
}

func (s *service) Accept(ctx context.Context, jobID, courierID string) (structs.DeliveryJob, error) {
	courier, err := s.courierRepo.GetByID(ctx, courierID)
	if err != nil {
		return structs.DeliveryJob{}, err
	}
	if !courier.IsActive {
		return structs.DeliveryJob{}, structs.ErrUserBlocked
	}

	won, err := s.jobRepo.ClaimPending(ctx, jobID, courierID, time.Now().UTC())
	if err != nil {
		return structs.DeliveryJob{}, err
	}
	if !won {
		job, err := s.jobRepo.GetByID(ctx, jobID)
		if err != nil {
			return structs.DeliveryJob{}, err
		}
		if job.Status == structs.StatusCancelled {
			return structs.DeliveryJob{}, structs.ErrInvalidTransition
		}
		return structs.DeliveryJob{}, structs.ErrJobAlreadyTaken
	}

	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return structs.DeliveryJob{}, err
	}

	s.logger.Info(ctx, "job accepted",
		zap.String("job_id", jobID),
		zap.String("courier_id", courierID),
	)

	s.notifyPartner(ctx, job, structs.Event{
		Type:    structs.EventJobUpdate,
		Payload: structs.JobPatchPayload{ID: job.ID, Status: job.Status, CourierID: courierID},
	}, fmt.Sprintf("Courier %s accepted job %s", courier.Name, shortID(job.ID)))

	return job, nil
}

func (s *service) MarkArrivedPickup(ctx context.Context, jobID, courierID string) error {
	return s.advanceByCourier(ctx, jobID, courierID, structs.StatusAssigned, structs.StatusArrivedPickup)
}

func (s *service) MarkPickedUp(ctx context.Context, jobID, courierID string) error {
	return s.advanceByCourier(ctx, jobID, courierID, structs.StatusArrivedPickup, structs.StatusPickedUp)
}

func (s *service) MarkDelivered(ctx context.Context, jobID, courierID string) (structs.JobStatus, error) {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return "", err
	}
	if job.CourierID == nil || *job.CourierID != courierID {
		return "", structs.ErrNotOwner
	}
	if job.Status != structs.StatusPickedUp {
		return "", structs.ErrInvalidTransition
	}

	// cash collected from the customer goes back to the partner first
	target := structs.StatusDelivered
	if job.IsReturnRequired {
		target = structs.StatusReturning
	}

	ok, err := s.jobRepo.AdvanceStatus(ctx, jobID, structs.StatusPickedUp, target, time.Now().UTC())
	if err != nil {
		return "", err
	}
	if !ok {
		return "", structs.ErrInvalidTransition
	}

	s.logger.Info(ctx, "job delivered by courier",
		zap.String("job_id", jobID),
		zap.String("status", string(target)),
	)

	job.Status = target
	s.notifyPartner(ctx, job, structs.Event{
		Type:    structs.EventJobUpdate,
		Payload: structs.JobPatchPayload{ID: jobID, Status: target},
	}, fmt.Sprintf("Job %s: %s", shortID(jobID), target))

	return target, nil
}

func (s *service) ConfirmReturn(ctx context.Context, jobID, partnerID string) error {
	job, err := s.ownedByPartner(ctx, jobID, partnerID)
	if err != nil {
		return err
	}
	if job.Status != structs.StatusReturning {
		return structs.ErrInvalidTransition
	}

	ok, err := s.jobRepo.AdvanceStatus(ctx, jobID, structs.StatusReturning, structs.StatusDelivered, time.Now().UTC())
	if err != nil {
		return err
	}
	if !ok {
		return structs.ErrInvalidTransition
	}

	s.logger.Info(ctx, "job return confirmed", zap.String("job_id", jobID))

	s.notifyCourier(ctx, job, structs.Event{
		Type:    structs.EventJobUpdate,
		Payload: structs.JobPatchPayload{ID: jobID, Status: structs.StatusDelivered},
	}, fmt.Sprintf("Job %s closed, return confirmed", shortID(jobID)))

	return nil
}

func (s *service) MarkReady(ctx context.Context, jobID, partnerID string) error {
	job, err := s.ownedByPartner(ctx, jobID, partnerID)
	if err != nil {
		return err
	}
	if job.Status != structs.StatusAssigned && job.Status != structs.StatusArrivedPickup {
		return structs.ErrInvalidTransition
	}

	ok, err := s.jobRepo.MarkReady(ctx, jobID, time.Now().UTC())
	if err != nil {
		return err
	}
	if !ok {
		return structs.ErrInvalidTransition
	}

	s.notifyCourier(ctx, job, structs.Event{
		Type:    structs.EventJobReady,
		Payload: structs.JobPatchPayload{ID: jobID, Status: job.Status, Ready: true},
	}, fmt.Sprintf("Order %s is ready for pickup", shortID(jobID)))

	return nil
}

func (s *service) Cancel(ctx context.Context, jobID, partnerID string) error {
	job, err := s.ownedByPartner(ctx, jobID, partnerID)
	if err != nil {
		return err
	}

	ok, err := s.jobRepo.CancelFromEarly(ctx, jobID, time.Now().UTC())
	if err != nil {
		return err
	}
	if !ok {
		return structs.ErrInvalidTransition
	}

	s.logger.Info(ctx, "job cancelled", zap.String("job_id", jobID))

	// the assigned courier, if any, must learn the job is void
	s.notifyCourier(ctx, job, structs.Event{
		Type:    structs.EventJobUpdate,
		Payload: structs.JobPatchPayload{ID: jobID, Status: structs.StatusCancelled},
	}, fmt.Sprintf("Job %s was cancelled by the partner", shortID(jobID)))

	return nil
}

func (s *service) BoostFee(ctx context.Context, jobID, partnerID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, structs.ErrValidation
	}

	job, err := s.ownedByPartner(ctx, jobID, partnerID)
	if err != nil {
		return 0, err
	}

	newFee, ok, err := s.jobRepo.BoostFee(ctx, jobID, amount)
	if err != nil {
		return 0, err
	}
	if !ok {
		// assigned, cancelled or otherwise past pending
		return 0, structs.ErrInvalidTransition
	}

	s.logger.Info(ctx, "job fee boosted",
		zap.String("job_id", jobID),
		zap.Int64("delivery_fee", newFee),
	)

	job.DeliveryFee = newFee
	s.broadcastToCouriers(ctx,
		structs.Event{Type: structs.EventNewOrder, Payload: structs.NewOrderPayload{Job: job}},
		newOrderText(job),
	)

	return newFee, nil
}

func (s *service) RateCourier(ctx context.Context, jobID, partnerID string, rating int, review string) error {
	if rating < 1 || rating > 5 {
		return structs.ErrValidation
	}

	job, err := s.ownedByPartner(ctx, jobID, partnerID)
	if err != nil {
		return err
	}
	if job.Status != structs.StatusDelivered {
		return structs.ErrInvalidTransition
	}
	if job.CourierID == nil {
		return structs.ErrInvalidTransition
	}

	ok, err := s.jobRepo.SetRating(ctx, jobID, rating, review)
	if err != nil {
		return err
	}
	if !ok {
		// already rated
		return structs.ErrInvalidTransition
	}

	if err := s.courierRepo.UpdateRating(ctx, *job.CourierID, rating); err != nil {
		return err
	}

	s.logger.Info(ctx, "courier rated",
		zap.String("job_id", jobID),
		zap.String("courier_id", *job.CourierID),
		zap.Int("rating", rating),
	)
	return nil
}

func (s *service) GetJob(ctx context.Context, jobID string) (structs.DeliveryJob, error) {
	return s.jobRepo.GetByID(ctx, jobID)
}

func (s *service) ListActive(ctx context.Context, partnerID string) ([]structs.DeliveryJob, error) {
	return s.jobRepo.ListActiveByPartner(ctx, partnerID)
}

// advanceByCourier runs a courier-driven transition under ownership and
// status guards, then tells the partner.
func (s *service) advanceByCourier(ctx context.Context, jobID, courierID string, from, to structs.JobStatus) error {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.CourierID == nil || *job.CourierID != courierID {
		return structs.ErrNotOwner
	}
	if job.Status != from {
		return structs.ErrInvalidTransition
	}

	ok, err := s.jobRepo.AdvanceStatus(ctx, jobID, from, to, time.Now().UTC())
	if err != nil {
		return err
	}
	if !ok {
		return structs.ErrInvalidTransition
	}

	s.logger.Info(ctx, "job status advanced",
		zap.String("job_id", jobID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)

	job.Status = to
	s.notifyPartner(ctx, job, structs.Event{
		Type:    structs.EventJobUpdate,
		Payload: structs.JobPatchPayload{ID: jobID, Status: to},
	}, fmt.Sprintf("Job %s: %s", shortID(jobID), to))

	return nil
}

func (s *service) ownedByPartner(ctx context.Context, jobID, partnerID string) (structs.DeliveryJob, error) {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return structs.DeliveryJob{}, err
	}
	if job.PartnerID != partnerID {
		return structs.DeliveryJob{}, structs.ErrNotOwner
	}
	return job, nil
}

// broadcastToCouriers pushes the event to every online courier's live
// connection and, in parallel, through the gateway for reach beyond the
// currently-connected set.
func (s *service) broadcastToCouriers(ctx context.Context, evt structs.Event, text string) {
	couriers, err := s.courierRepo.ListOnline(ctx)
	if err != nil {
		s.logger.Warn(ctx, "broadcast: list online couriers failed", zap.Error(err))
		return
	}

	for _, courier := range couriers {
		s.hub.Send(structs.RoleCourier, courier.ID, evt)
		if courier.Reachable() {
			s.notifyAsync(ctx, courier.Channel(), text)
		}
	}
}

func (s *service) notifyPartner(ctx context.Context, job structs.DeliveryJob, evt structs.Event, text string) {
	if s.hub.Send(structs.RolePartner, job.PartnerID, evt) {
		return
	}

	partner, err := s.partnerRepo.GetByID(ctx, job.PartnerID)
	if err != nil {
		s.logger.Warn(ctx, "notify partner: lookup failed", zap.Error(err))
		return
	}
	s.notifyAsync(ctx, partner.Channel(), text)
}

func (s *service) notifyCourier(ctx context.Context, job structs.DeliveryJob, evt structs.Event, text string) {
	if job.CourierID == nil {
		return
	}
	if s.hub.Send(structs.RoleCourier, *job.CourierID, evt) {
		return
	}

	courier, err := s.courierRepo.GetByID(ctx, *job.CourierID)
	if err != nil {
		s.logger.Warn(ctx, "notify courier: lookup failed", zap.Error(err))
		return
	}
	if courier.Reachable() {
		s.notifyAsync(ctx, courier.Channel(), text)
	}
}

// notifyAsync fires the gateway send off the transition's critical path.
// Failures are logged by the gateway and never roll back a state change.
func (s *service) notifyAsync(ctx context.Context, ch structs.Channel, text string) {
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()

		if err := s.gateway.Notify(sendCtx, ch, text); err != nil {
			s.logger.Debug(ctx, "async notify dropped", zap.Error(err))
		}
	}()
}

func newOrderText(job structs.DeliveryJob) string {
	return fmt.Sprintf("New order %s: %s, fee %d", shortID(job.ID), job.DropoffAddress, job.DeliveryFee)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

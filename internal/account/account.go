package account

import (
	"context"
	"strings"
	"time"

	"github.com/poderjkapk-ux/cur-sub000/internal/structs"
	"github.com/poderjkapk-ux/cur-sub000/internal/verify"
	"github.com/poderjkapk-ux/cur-sub000/pkg/logger"
	"github.com/poderjkapk-ux/cur-sub000/pkg/utils"
	courierrepo "github.com/poderjkapk-ux/cur-sub000/pkg/repository/postgres/courier_repo"
	partnerrepo "github.com/poderjkapk-ux/cur-sub000/pkg/repository/postgres/partner_repo"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Provide(New)

// Service covers registration, login and courier presence. A courier
// registers only with a verified phone token coming from the bot flow.
type Service interface {
	RegisterCourier(ctx context.Context, req structs.RegisterCourier) (structs.Courier, error)
	LoginCourier(ctx context.Context, req structs.CourierLogin) (structs.Courier, string, error)
	RegisterPartner(ctx context.Context, req structs.RegisterPartner) (structs.DeliveryPartner, error)
	LoginPartner(ctx context.Context, req structs.PartnerLogin) (structs.DeliveryPartner, string, error)
	SetShift(ctx context.Context, courierID string, online bool) error
	PingLocation(ctx context.Context, courierID string, lat, lng float64) error
}

type Params struct {
	fx.In
	Logger      logger.Logger
	CourierRepo courierrepo.Repo
	PartnerRepo partnerrepo.Repo
	Verify      verify.Service
}

type service struct {
	logger      logger.Logger
	courierRepo courierrepo.Repo
	partnerRepo partnerrepo.Repo
	verify      verify.Service
}

func New(p Params) Service {
	return &service{
		logger:      p.Logger,
		courierRepo: p.CourierRepo,
		partnerRepo: p.PartnerRepo,
		verify:      p.Verify,
	}
}

func (s *service) RegisterCourier(ctx context.Context, req structs.RegisterCourier) (structs.Courier, error) {
	if strings.TrimSpace(req.Name) == "" || req.Password == "" || req.VerifyToken == "" {
		return structs.Courier{}, structs.ErrValidation
	}

	pv, err := s.verify.Consume(ctx, req.VerifyToken)
	if err != nil {
		return structs.Courier{}, err
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return structs.Courier{}, err
	}

	courier := structs.Courier{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Phone:        pv.Phone,
		PasswordHash: hash,
		IsActive:     true,
		PushToken:    req.PushToken,
		TgChatID:     pv.ChatID,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.courierRepo.Create(ctx, courier); err != nil {
		return structs.Courier{}, err
	}

	s.logger.Info(ctx, "courier registered", zap.String("courier_id", courier.ID))
	return courier, nil
}

func (s *service) LoginCourier(ctx context.Context, req structs.CourierLogin) (structs.Courier, string, error) {
	courier, err := s.courierRepo.GetByPhone(ctx, req.Phone)
	if err != nil {
		return structs.Courier{}, "", structs.ErrUnauthorized
	}
	if !courier.IsActive {
		return structs.Courier{}, "", structs.ErrUserBlocked
	}
	if !utils.CompareInBcrypt(courier.PasswordHash, req.Password) {
		return structs.Courier{}, "", structs.ErrUnauthorized
	}

	token, err := utils.GenerateJWT(courier.ID, string(structs.RoleCourier))
	if err != nil {
		return structs.Courier{}, "", err
	}
	return courier, token, nil
}

func (s *service) RegisterPartner(ctx context.Context, req structs.RegisterPartner) (structs.DeliveryPartner, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Phone) == "" ||
		strings.TrimSpace(req.Address) == "" || req.Password == "" {
		return structs.DeliveryPartner{}, structs.ErrValidation
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return structs.DeliveryPartner{}, err
	}

	partner := structs.DeliveryPartner{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Address:      req.Address,
		Lat:          req.Lat,
		Lng:          req.Lng,
		Phone:        req.Phone,
		Email:        req.Email,
		PasswordHash: hash,
		IsActive:     true,
		TgChatID:     req.TgChatID,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.partnerRepo.Create(ctx, partner); err != nil {
		return structs.DeliveryPartner{}, err
	}

	s.logger.Info(ctx, "partner registered", zap.String("partner_id", partner.ID))
	return partner, nil
}

func (s *service) LoginPartner(ctx context.Context, req structs.PartnerLogin) (structs.DeliveryPartner, string, error) {
	partner, err := s.partnerRepo.GetByPhone(ctx, req.Phone)
	if err != nil {
		return structs.DeliveryPartner{}, "", structs.ErrUnauthorized
	}
	if !partner.IsActive {
		return structs.DeliveryPartner{}, "", structs.ErrUserBlocked
	}
	if !utils.CompareInBcrypt(partner.PasswordHash, req.Password) {
		return structs.DeliveryPartner{}, "", structs.ErrUnauthorized
	}

	token, err := utils.GenerateJWT(partner.ID, string(structs.RolePartner))
	if err != nil {
		return structs.DeliveryPartner{}, "", err
	}
	return partner, token, nil
}

func (s *service) SetShift(ctx context.Context, courierID string, online bool) error {
	return s.courierRepo.SetOnline(ctx, courierID, online, time.Now().UTC())
}

func (s *service) PingLocation(ctx context.Context, courierID string, lat, lng float64) error {
	return s.courierRepo.UpdateLocation(ctx, courierID, lat, lng, time.Now().UTC())
}

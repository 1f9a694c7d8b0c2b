package account

import (
	"net/http"

	"github.com/poderjkapk-ux/cur-sub000/internal/account"
	"github.com/poderjkapk-ux/cur-sub000/internal/responses"
	"github.com/poderjkapk-ux/cur-sub000/internal/structs"
	"github.com/poderjkapk-ux/cur-sub000/internal/verify"
	"github.com/poderjkapk-ux/cur-sub000/pkg/logger"
	"github.com/poderjkapk-ux/cur-sub000/pkg/reply"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Provide(New)

type (
	Handler interface {
		RegisterCourier(c *gin.Context)
		LoginCourier(c *gin.Context)
		RegisterPartner(c *gin.Context)
		LoginPartner(c *gin.Context)
		SetShift(c *gin.Context)
		PingLocation(c *gin.Context)
		StartVerification(c *gin.Context)
		VerificationStatus(c *gin.Context)
	}

	Params struct {
		fx.In
		Logger     logger.Logger
		AccountSvc account.Service
		VerifySvc  verify.Service
	}

	handler struct {
		logger     logger.Logger
		accountSvc account.Service
		verifySvc  verify.Service
	}
)

func New(p Params) Handler {
	return &handler{
		logger:     p.Logger,
		accountSvc: p.AccountSvc,
		verifySvc:  p.VerifySvc,
	}
}

func (h *handler) RegisterCourier(c *gin.Context) {
	var (
		response structs.Response
		request  structs.RegisterCourier
		ctx      = c.Request.Context()
	)
	defer reply.Json(c.Writer, http.StatusOK, &response)

	if err := c.ShouldBindJSON(&request); err != nil {
		response = responses.BadRequest
		return
	}

	courier, err := h.accountSvc.RegisterCourier(ctx, request)
	if err != nil {
		h.logger.Warn(ctx, "err on accountSvc.RegisterCourier", zap.Error(err))
		response = responses.FromError(err)
		return
	}

	response = responses.WithPayload(responses.Success, courier)
}

func (h *handler) LoginCourier(c *gin.Context) {
	var (
		response structs.Response
		request  structs.CourierLogin
		ctx      = c.Request.Context()
	)
	defer reply.Json(c.Writer, http.StatusOK, &response)

	if err := c.ShouldBindJSON(&request); err != nil {
		response = responses.BadRequest
		return
	}

	courier, token, err := h.accountSvc.LoginCourier(ctx, request)
	if err != nil {
		response = responses.FromError(err)
		return
	}

	response = responses.WithPayload(responses.Success, gin.H{"courier": courier, "token": token})
}

func (h *handler) RegisterPartner(c *gin.Context) {
	var (
		response structs.Response
		request  structs.RegisterPartner
		ctx      = c.Request.Context()
	)
	defer reply.Json(c.Writer, http.StatusOK, &response)

	if err := c.ShouldBindJSON(&request); err != nil {
		response = responses.BadRequest
		return
	}

	partner, err := h.accountSvc.RegisterPartner(ctx, request)
	if err != nil {
		h.logger.Warn(ctx, "err on accountSvc.RegisterPartner", zap.Error(err))
		response = responses.FromError(err)
		return
	}

	response = responses.WithPayload(responses.Success, partner)
}

func (h *handler) LoginPartner(c *gin.Context) {
	var (
		response structs.Response
		request  structs.PartnerLogin
		ctx      = c.Request.Context()
	)
	defer reply.Json(c.Writer, http.StatusOK, &response)

	if err := c.ShouldBindJSON(&request); err != nil {
		response = responses.BadRequest
		return
	}

	partner, token, err := h.accountSvc.LoginPartner(ctx, request)
	if err != nil {
		response = responses.FromError(err)
		return
	}

	response = responses.WithPayload(responses.Success, gin.H{"partner": partner, "token": token})
}

func (h *handler) SetShift(c *gin.Context) {
	var (
		response structs.Response
		request  structs.ShiftToggle
		ctx      = c.Request.Context()
	)
	defer reply.Json(c.Writer, http.StatusOK, &response)

	if err := c.ShouldBindJSON(&request); err != nil {
		response = responses.BadRequest
		return
	}

	if err := h.accountSvc.SetShift(ctx, c.GetString("actor_id"), request.Online); err != nil {
		response = responses.FromError(err)
		return
	}

	response = responses.Success
}

func (h *handler) PingLocation(c *gin.Context) {
	var (
		response structs.Response
		request  structs.LocationPing
		ctx      = c.Request.Context()
	)
	defer reply.Json(c.Writer, http.StatusOK, &response)

	if err := c.ShouldBindJSON(&request); err != nil {
		response = responses.BadRequest
		return
	}

	if err := h.accountSvc.PingLocation(ctx, c.GetString("actor_id"), request.Lat, request.Lng); err != nil {
		response = responses.FromError(err)
		return
	}

	response = responses.Success
}

func (h *handler) StartVerification(c *gin.Context) {
	var (
		response structs.Response
		ctx      = c.Request.Context()
	)
	defer reply.Json(c.Writer, http.StatusOK, &response)

	pv, err := h.verifySvc.Start(ctx)
	if err != nil {
		h.logger.Error(ctx, "err on verifySvc.Start", zap.Error(err))
		response = responses.FromError(err)
		return
	}

	response = responses.WithPayload(responses.Success, pv)
}

func (h *handler) VerificationStatus(c *gin.Context) {
	var (
		response structs.Response
		ctx      = c.Request.Context()
	)
	defer reply.Json(c.Writer, http.StatusOK, &response)

	pv, err := h.verifySvc.Status(ctx, c.Param("token"))
	if err != nil {
		response = responses.FromError(err)
		return
	}

	response = responses.WithPayload(responses.Success, pv)
}

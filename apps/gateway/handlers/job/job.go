package job

import (
	"context"
	"net/http"

	"github.com/poderjkapk-ux/cur-sub000/internal/dispatch"
	"github.com/poderjkapk-ux/cur-sub000/internal/responses"
	"github.com/poderjkapk-ux/cur-sub000/internal/structs"
	"github.com/poderjkapk-ux/cur-sub000/pkg/logger"
	"github.com/poderjkapk-ux/cur-sub000/pkg/reply"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Provide(New)

type (
	Handler interface {
		CreateJob(c *gin.Context)
		GetJob(c *gin.Context)
		ListActiveJobs(c *gin.Context)
		AcceptJob(c *gin.Context)
		MarkArrived(c *gin.Context)
		MarkReady(c *gin.Context)
		MarkPickedUp(c *gin.Context)
		MarkDelivered(c *gin.Context)
		ConfirmReturn(c *gin.Context)
		CancelJob(c *gin.Context)
		BoostFee(c *gin.Context)
		RateCourier(c *gin.Context)
	}

	Params struct {
		fx.In
		Logger      logger.Logger
		DispatchSvc dispatch.Service
	}

	handler struct {
		logger      logger.Logger
		dispatchSvc dispatch.Service
	}
)

func New(p Params) Handler {
	return &handler{
		logger:      p.Logger,
		dispatchSvc: p.DispatchSvc,
	}
}

func (h *handler) CreateJob(c *gin.Context) {
	var (
		response structs.Response
		request  structs.CreateJob
		ctx      = c.Request.Context()
	)
	defer reply.Json(c.Writer, http.StatusOK, &response)

	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.Warn(ctx, "error parse request", zap.Error(err))
		response = responses.BadRequest
		return
	}

	job, err := h.dispatchSvc.Create(ctx, actorID(c), request)
	if err != nil {
		h.logger.Warn(ctx, "err on dispatchSvc.Create", zap.Error(err))
		response = responses.FromError(err)
		return
	}

	response = responses.WithPayload(responses.Success, job)
}

func (h *handler) GetJob(c *gin.Context) {
	var (
		response structs.Response
		ctx      = c.Request.Context()
	)
	defer reply.Json(c.Writer, http.StatusOK, &response)

	job, err := h.dispatchSvc.GetJob(ctx, c.Param("id"))
	if err != nil {
		response = responses.FromError(err)
		return
	}

	response = responses.WithPayload(responses.Success, job)
}

func (h *handler) ListActiveJobs(c *gin.Context) {
	var (
		response structs.Response
		ctx      = c.Request.Context()
	)
	defer reply.Json(c.Writer, http.StatusOK, &response)

	jobs, err := h.dispatchSvc.ListActive(ctx, actorID(c))
	if err != nil {
		h.logger.Error(ctx, "err on dispatchSvc.ListActive", zap.Error(err))
		response = responses.FromError(err)
		return
	}

	response = responses.WithPayload(responses.Success, jobs)
}

func (h *handler) AcceptJob(c *gin.Context) {
	var (
		response structs.Response
		ctx      = c.Request.Context()
	)
	defer reply.Json(c.Writer, http.StatusOK, &response)

	job, err := h.dispatchSvc.Accept(ctx, c.Param("id"), actorID(c))
	if err != nil {
		h.logger.Warn(ctx, "err on dispatchSvc.Accept", zap.Error(err))
		response = responses.FromError(err)
		return
	}

	response = responses.WithPayload(responses.Success, job)
}

func (h *handler) MarkArrived(c *gin.Context) {
	h.courierTransition(c, h.dispatchSvc.MarkArrivedPickup)
}

func (h *handler) MarkPickedUp(c *gin.Context) {
	h.courierTransition(c, h.dispatchSvc.MarkPickedUp)
}

func (h *handler) MarkDelivered(c *gin.Context) {
	var (
		response structs.Response
		ctx      = c.Request.Context()
	)
	defer reply.Json(c.Writer, http.StatusOK, &response)

	status, err := h.dispatchSvc.MarkDelivered(ctx, c.Param("id"), actorID(c))
	if err != nil {
		h.logger.Warn(ctx, "err on dispatchSvc.MarkDelivered", zap.Error(err))
		response = responses.FromError(err)
		return
	}

	response = responses.WithPayload(responses.Success, gin.H{"status": status})
}

func (h *handler) MarkReady(c *gin.Context) {
	h.partnerTransition(c, h.dispatchSvc.MarkReady)
}

func (h *handler) ConfirmReturn(c *gin.Context) {
	h.partnerTransition(c, h.dispatchSvc.ConfirmReturn)
}

func (h *handler) CancelJob(c *gin.Context) {
	h.partnerTransition(c, h.dispatchSvc.Cancel)
}

func (h *handler) BoostFee(c *gin.Context) {
	var (
		response structs.Response
		request  structs.BoostFee
		ctx      = c.Request.Context()
	)
	defer reply.Json(c.Writer, http.StatusOK, &response)

	if err := c.ShouldBindJSON(&request); err != nil {
		response = responses.BadRequest
		return
	}

	newFee, err := h.dispatchSvc.BoostFee(ctx, c.Param("id"), actorID(c), request.Amount)
	if err != nil {
		h.logger.Warn(ctx, "err on dispatchSvc.BoostFee", zap.Error(err))
		response = responses.FromError(err)
		return
	}

	response = responses.WithPayload(responses.Success, gin.H{"delivery_fee": newFee})
}

func (h *handler) RateCourier(c *gin.Context) {
	var (
		response structs.Response
		request  structs.RateCourier
		ctx      = c.Request.Context()
	)
	defer reply.Json(c.Writer, http.StatusOK, &response)

	if err := c.ShouldBindJSON(&request); err != nil {
		response = responses.BadRequest
		return
	}

	if err := h.dispatchSvc.RateCourier(ctx, c.Param("id"), actorID(c), request.Rating, request.Review); err != nil {
		h.logger.Warn(ctx, "err on dispatchSvc.RateCourier", zap.Error(err))
		response = responses.FromError(err)
		return
	}

	response = responses.Success
}

type transitionFn func(ctx context.Context, jobID, actorID string) error

func (h *handler) courierTransition(c *gin.Context, fn transitionFn) {
	h.transition(c, fn)
}

func (h *handler) partnerTransition(c *gin.Context, fn transitionFn) {
	h.transition(c, fn)
}

func (h *handler) transition(c *gin.Context, fn transitionFn) {
	var (
		response structs.Response
		ctx      = c.Request.Context()
	)
	defer reply.Json(c.Writer, http.StatusOK, &response)

	if err := fn(ctx, c.Param("id"), actorID(c)); err != nil {
		h.logger.Warn(ctx, "err on job transition", zap.Error(err))
		response = responses.FromError(err)
		return
	}

	response = responses.Success
}

func actorID(c *gin.Context) string {
	return c.GetString("actor_id")
}

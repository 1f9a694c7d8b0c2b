package chat

import (
	"net/http"

	"github.com/poderjkapk-ux/cur-sub000/internal/chat"
	"github.com/poderjkapk-ux/cur-sub000/internal/responses"
	"github.com/poderjkapk-ux/cur-sub000/internal/structs"
	"github.com/poderjkapk-ux/cur-sub000/pkg/logger"
	"github.com/poderjkapk-ux/cur-sub000/pkg/reply"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Provide(New)

type (
	Handler interface {
		SendMessage(c *gin.Context)
		History(c *gin.Context)
	}

	Params struct {
		fx.In
		Logger  logger.Logger
		ChatSvc chat.Service
	}

	handler struct {
		logger  logger.Logger
		chatSvc chat.Service
	}
)

func New(p Params) Handler {
	return &handler{
		logger:  p.Logger,
		chatSvc: p.ChatSvc,
	}
}

func (h *handler) SendMessage(c *gin.Context) {
	var (
		response structs.Response
		request  structs.SendChat
		ctx      = c.Request.Context()
	)
	defer reply.Json(c.Writer, http.StatusOK, &response)

	if err := c.ShouldBindJSON(&request); err != nil {
		response = responses.BadRequest
		return
	}

	msg, err := h.chatSvc.Send(ctx,
		c.Param("id"),
		structs.Role(c.GetString("role")),
		c.GetString("actor_id"),
		request.Text,
	)
	if err != nil {
		h.logger.Warn(ctx, "err on chatSvc.Send", zap.Error(err))
		response = responses.FromError(err)
		return
	}

	response = responses.WithPayload(responses.Success, msg)
}

func (h *handler) History(c *gin.Context) {
	var (
		response structs.Response
		ctx      = c.Request.Context()
	)
	defer reply.Json(c.Writer, http.StatusOK, &response)

	msgs, err := h.chatSvc.History(ctx,
		c.Param("id"),
		structs.Role(c.GetString("role")),
		c.GetString("actor_id"),
	)
	if err != nil {
		response = responses.FromError(err)
		return
	}

	if limit := cast.ToInt(c.Query("limit")); limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	response = responses.WithPayload(responses.Success, msgs)
}

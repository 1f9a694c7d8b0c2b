package ws

import (
	"net/http"

	rtws "github.com/poderjkapk-ux/cur-sub000/internal/ws"
	"github.com/poderjkapk-ux/cur-sub000/internal/structs"
	"github.com/poderjkapk-ux/cur-sub000/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Provide(New)

type (
	Handler interface {
		CourierWS(c *gin.Context)
		PartnerWS(c *gin.Context)
	}

	Params struct {
		fx.In
		Hub    *rtws.Hub
		Logger logger.Logger
	}

	handler struct {
		hub    *rtws.Hub
		logger logger.Logger
	}
)

func New(p Params) Handler {
	return &handler{
		hub:    p.Hub,
		logger: p.Logger,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// GET /api/v1/ws/courier?token=<jwt>
func (h *handler) CourierWS(c *gin.Context) {
	h.subscribe(c, structs.RoleCourier)
}

// GET /api/v1/ws/partner?token=<jwt>
func (h *handler) PartnerWS(c *gin.Context) {
	h.subscribe(c, structs.RolePartner)
}

func (h *handler) subscribe(c *gin.Context, role structs.Role) {
	actorID := c.GetString("actor_id")
	if actorID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error(c.Request.Context(), "websocket upgrade failed", zap.Error(err))
		return
	}

	client := rtws.NewClient(role, actorID, conn, h.hub)
	h.hub.Register(role, actorID, client)
	client.Run()
}

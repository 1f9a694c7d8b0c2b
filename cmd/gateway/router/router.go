package router

import (
	"context"
	"net/http"

	"github.com/poderjkapk-ux/cur-sub000/apps/gateway/handlers/account"
	"github.com/poderjkapk-ux/cur-sub000/apps/gateway/handlers/chat"
	"github.com/poderjkapk-ux/cur-sub000/apps/gateway/handlers/job"
	"github.com/poderjkapk-ux/cur-sub000/apps/gateway/handlers/middleware"
	wsh "github.com/poderjkapk-ux/cur-sub000/apps/gateway/handlers/ws"
	"github.com/poderjkapk-ux/cur-sub000/internal/structs"
	"github.com/poderjkapk-ux/cur-sub000/pkg/config"
	"github.com/poderjkapk-ux/cur-sub000/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Options(
	fx.Invoke(
		NewRouter,
	),
)

type Params struct {
	fx.In

	middleware.Middleware
	Lifecycle fx.Lifecycle
	Config    config.IConfig
	Logger    logger.Logger
	Account   account.Handler
	Job       job.Handler
	Chat      chat.Handler
	WS        wsh.Handler
}

func NewRouter(params Params) {
	r := gin.New()
	baseUrl := "/api/v1"
	out := r.Group(baseUrl)
	out.Use(params.Ctx(), gin.Logger(), gin.Recovery())

	authGroup := out.Group("/auth")
	{
		authGroup.POST("/courier/register", params.Account.RegisterCourier)
		authGroup.POST("/courier/login", params.Account.LoginCourier)
		authGroup.POST("/partner/register", params.Account.RegisterPartner)
		authGroup.POST("/partner/login", params.Account.LoginPartner)
		authGroup.POST("/verify", params.Account.StartVerification)
		authGroup.GET("/verify/:token", params.Account.VerificationStatus)
	}

	partnerGroup := out.Group("/partner", params.CheckAuth(structs.RolePartner))
	{
		partnerGroup.POST("/job", params.Job.CreateJob)
		partnerGroup.GET("/job", params.Job.ListActiveJobs)
		partnerGroup.GET("/job/:id", params.Job.GetJob)
		partnerGroup.PUT("/job/:id/ready", params.Job.MarkReady)
		partnerGroup.PUT("/job/:id/cancel", params.Job.CancelJob)
		partnerGroup.PUT("/job/:id/boost", params.Job.BoostFee)
		partnerGroup.PUT("/job/:id/confirm-return", params.Job.ConfirmReturn)
		partnerGroup.POST("/job/:id/rate", params.Job.RateCourier)
		partnerGroup.POST("/job/:id/chat", params.Chat.SendMessage)
		partnerGroup.GET("/job/:id/chat", params.Chat.History)
	}

	courierGroup := out.Group("/courier", params.CheckAuth(structs.RoleCourier))
	{
		courierGroup.GET("/job/:id", params.Job.GetJob)
		courierGroup.PUT("/job/:id/accept", params.Job.AcceptJob)
		courierGroup.PUT("/job/:id/arrived", params.Job.MarkArrived)
		courierGroup.PUT("/job/:id/picked-up", params.Job.MarkPickedUp)
		courierGroup.PUT("/job/:id/delivered", params.Job.MarkDelivered)
		courierGroup.PUT("/shift", params.Account.SetShift)
		courierGroup.PUT("/location", params.Account.PingLocation)
		courierGroup.POST("/job/:id/chat", params.Chat.SendMessage)
		courierGroup.GET("/job/:id/chat", params.Chat.History)
	}

	wsGroup := out.Group("/ws")
	{
		wsGroup.GET("/courier", params.CheckAuth(structs.RoleCourier), params.WS.CourierWS)
		wsGroup.GET("/partner", params.CheckAuth(structs.RolePartner), params.WS.PartnerWS)
	}

	server := http.Server{
		Addr: params.Config.GetString("server.port"),
		Handler: cors.New(cors.Options{
			AllowedHeaders:   []string{"*"},
			AllowedOrigins:   []string{"http://localhost:5173"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
			AllowCredentials: true,
			AllowOriginVaryRequestFunc: func(r *http.Request, origin string) (bool, []string) {
				return true, []string{"*"}
			},
		}).Handler(r),
	}

	params.Lifecycle.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				params.Logger.Info(ctx, "Starting application")
				go func() {
					if err := server.ListenAndServe(); err != nil {
						params.Logger.Error(ctx, "Err on ListenAndServe", zap.Error(err))
					}
				}()

				params.Logger.Info(ctx, "Application starting on port", zap.String("port", params.Config.GetString("server.port")))
				return nil
			},
			OnStop: func(ctx context.Context) error {
				params.Logger.Error(ctx, "Application stopped")
				return server.Shutdown(ctx)
			},
		},
	)
}

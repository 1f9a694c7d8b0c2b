package handlers

import (
	"github.com/poderjkapk-ux/cur-sub000/apps/gateway/handlers/account"
	"github.com/poderjkapk-ux/cur-sub000/apps/gateway/handlers/chat"
	"github.com/poderjkapk-ux/cur-sub000/apps/gateway/handlers/job"
	"github.com/poderjkapk-ux/cur-sub000/apps/gateway/handlers/middleware"
	"github.com/poderjkapk-ux/cur-sub000/apps/gateway/handlers/ws"

	"go.uber.org/fx"
)

var Module = fx.Options(
	middleware.Module,
	account.Module,
	job.Module,
	chat.Module,
	ws.Module,
)

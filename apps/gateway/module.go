package gateway

import (
	"github.com/poderjkapk-ux/cur-sub000/apps/gateway/handlers"

	"go.uber.org/fx"
)

var Module = fx.Options(
	handlers.Module,
)

package internal

import (
	"github.com/poderjkapk-ux/cur-sub000/internal/account"
	"github.com/poderjkapk-ux/cur-sub000/internal/chat"
	"github.com/poderjkapk-ux/cur-sub000/internal/dispatch"
	"github.com/poderjkapk-ux/cur-sub000/internal/geocode"
	"github.com/poderjkapk-ux/cur-sub000/internal/monitor"
	"github.com/poderjkapk-ux/cur-sub000/internal/notify"
	"github.com/poderjkapk-ux/cur-sub000/internal/verify"
	"github.com/poderjkapk-ux/cur-sub000/internal/ws"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ws.Module,
	notify.Module,
	geocode.Module,
	verify.Module,
	account.Module,
	dispatch.Module,
	chat.Module,
	monitor.Module,
)

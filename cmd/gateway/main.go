package main

import (
	"github.com/poderjkapk-ux/cur-sub000/apps/bot"
	"github.com/poderjkapk-ux/cur-sub000/apps/gateway"
	"github.com/poderjkapk-ux/cur-sub000/cmd/gateway/router"
	"github.com/poderjkapk-ux/cur-sub000/internal"
	"github.com/poderjkapk-ux/cur-sub000/pkg"

	"go.uber.org/fx"
)

func main() {
	fx.New(
		gateway.Module,
		router.Module,
		pkg.Module,
		internal.Module,
		bot.Module,
	).Run()
}

package repository

import (
	"go.uber.org/fx"

	"github.com/poderjkapk-ux/cur-sub000/pkg/repository/postgres"
)

var Module = fx.Options(
	postgres.Module,
)

package pkg

import (
	"go.uber.org/fx"

	"github.com/poderjkapk-ux/cur-sub000/pkg/config"
	"github.com/poderjkapk-ux/cur-sub000/pkg/db"
	"github.com/poderjkapk-ux/cur-sub000/pkg/logger"
	"github.com/poderjkapk-ux/cur-sub000/pkg/migration"
	"github.com/poderjkapk-ux/cur-sub000/pkg/redis"
	"github.com/poderjkapk-ux/cur-sub000/pkg/reply"
	"github.com/poderjkapk-ux/cur-sub000/pkg/repository"
)

var Module = fx.Options(
	config.Module,
	logger.Module,
	migration.Module,
	repository.Module,
	db.Module,
	reply.Module,
	redis.Module,
)

package postgres

import (
	chatrepo "github.com/poderjkapk-ux/cur-sub000/pkg/repository/postgres/chat_repo"
	courierrepo "github.com/poderjkapk-ux/cur-sub000/pkg/repository/postgres/courier_repo"
	jobrepo "github.com/poderjkapk-ux/cur-sub000/pkg/repository/postgres/job_repo"
	partnerrepo "github.com/poderjkapk-ux/cur-sub000/pkg/repository/postgres/partner_repo"

	"go.uber.org/fx"
)

var Module = fx.Options(
	jobrepo.Module,
	courierrepo.Module,
	partnerrepo.Module,
	chatrepo.Module,
)

package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/poderjkapk-ux/cur-sub000/internal/notify"
	"github.com/poderjkapk-ux/cur-sub000/internal/structs"
	"github.com/poderjkapk-ux/cur-sub000/pkg/config"
	"github.com/poderjkapk-ux/cur-sub000/pkg/logger"
	courierrepo "github.com/poderjkapk-ux/cur-sub000/pkg/repository/postgres/courier_repo"
	jobrepo "github.com/poderjkapk-ux/cur-sub000/pkg/repository/postgres/job_repo"
	partnerrepo "github.com/poderjkapk-ux/cur-sub000/pkg/repository/postgres/partner_repo"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(run),
)

const (
	defaultInterval   = time.Minute
	defaultTier1After = 5 * time.Minute
	defaultTier2After = 10 * time.Minute
)

// Monitor escalates orders stuck in pending. Tier 1 pings every free online
// courier; tier 2 pings the owning partner and the operator channel. Each
// tier fires exactly once per job, tracked by a flag on the job row rather
// than a timing window.
type Monitor struct {
	logger         logger.Logger
	jobRepo        jobrepo.Repo
	courierRepo    courierrepo.Repo
	partnerRepo    partnerrepo.Repo
	gateway        notify.Gateway
	interval       time.Duration
	tier1After     time.Duration
	tier2After     time.Duration
	operatorChatID int64
}

type Params struct {
	fx.In
	Logger      logger.Logger
	Config      config.IConfig `optional:"true"`
	JobRepo     jobrepo.Repo
	CourierRepo courierrepo.Repo
	PartnerRepo partnerrepo.Repo
	Gateway     notify.Gateway
}

func New(p Params) *Monitor {
	m := &Monitor{
		logger:      p.Logger,
		jobRepo:     p.JobRepo,
		courierRepo: p.CourierRepo,
		partnerRepo: p.PartnerRepo,
		gateway:     p.Gateway,
		interval:    defaultInterval,
		tier1After:  defaultTier1After,
		tier2After:  defaultTier2After,
	}

	if p.Config != nil {
		if d := p.Config.GetDuration("monitor.interval"); d > 0 {
			m.interval = d
		}
		if d := p.Config.GetDuration("monitor.tier1_after"); d > 0 {
			m.tier1After = d
		}
		if d := p.Config.GetDuration("monitor.tier2_after"); d > 0 {
			m.tier2After = d
		}
		m.operatorChatID = p.Config.GetInt64("operator_chat_id")
	}

	return m
}

type runParams struct {
	fx.In
	fx.Lifecycle

	Monitor *Monitor
	Logger  logger.Logger
}

func run(p runParams) {
	ctx, cancel := context.WithCancel(context.Background())

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go p.Monitor.Run(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

// Run loops until ctx is cancelled. A failing sweep skips the cycle and
// retries on the next tick; the loop itself never exits on error.
func (m *Monitor) Run(ctx context.Context) {
	m.logger.Info(ctx, "stale order monitor started",
		zap.Duration("interval", m.interval))

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info(ctx, "stale order monitor stopped")
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *Monitor) sweep(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error(ctx, "monitor sweep panicked", zap.Any("panic", r))
		}
	}()

	now := time.Now().UTC()

	if err := m.escalateTier1(ctx, now); err != nil {
		m.logger.Error(ctx, "monitor tier-1 sweep failed", zap.Error(err))
	}
	if err := m.escalateTier2(ctx, now); err != nil {
		m.logger.Error(ctx, "monitor tier-2 sweep failed", zap.Error(err))
	}
}

// Tier 1: a "hot order" broadcast through the gateway so it reaches couriers
// regardless of live-connection status. Couriers already carrying a job are
// skipped.
func (m *Monitor) escalateTier1(ctx context.Context, now time.Time) error {
	jobs, err := m.jobRepo.ListPendingForEscalation(ctx, now.Add(-m.tier1After), 1)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return nil
	}

	couriers, err := m.courierRepo.ListOnline(ctx)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		text := fmt.Sprintf("Hot order: %s, fee %d, waiting since %s",
			job.DropoffAddress, job.DeliveryFee, job.CreatedAt.Format("15:04"))

		for _, courier := range couriers {
			if !courier.Reachable() {
				continue
			}
			active, err := m.jobRepo.CountActiveByCourier(ctx, courier.ID)
			if err != nil {
				m.logger.Warn(ctx, "monitor: active count failed", zap.Error(err))
				continue
			}
			if active > 0 {
				continue
			}
			if err := m.gateway.Notify(ctx, courier.Channel(), text); err != nil {
				m.logger.Warn(ctx, "monitor: tier-1 notify failed",
					zap.String("courier_id", courier.ID), zap.Error(err))
			}
		}

		if err := m.jobRepo.MarkEscalated(ctx, job.ID, 1); err != nil {
			m.logger.Error(ctx, "monitor: mark tier-1 failed",
				zap.String("job_id", job.ID), zap.Error(err))
			continue
		}

		m.logger.Info(ctx, "tier-1 escalation sent",
			zap.String("job_id", job.ID),
			zap.Int("online_couriers", len(couriers)),
		)
	}

	return nil
}

// Tier 2: the partner and the operator channel hear that nobody took the job.
func (m *Monitor) escalateTier2(ctx context.Context, now time.Time) error {
	jobs, err := m.jobRepo.ListPendingForEscalation(ctx, now.Add(-m.tier2After), 2)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		text := fmt.Sprintf("Order %s has been pending for over %s with no courier",
			job.ID, m.tier2After)

		partner, err := m.partnerRepo.GetByID(ctx, job.PartnerID)
		if err != nil {
			m.logger.Warn(ctx, "monitor: partner lookup failed",
				zap.String("job_id", job.ID), zap.Error(err))
		} else if err := m.gateway.Notify(ctx, partner.Channel(), text); err != nil {
			m.logger.Warn(ctx, "monitor: tier-2 partner notify failed", zap.Error(err))
		}

		if m.operatorChatID != 0 {
			ch := structs.Channel{TelegramChatID: m.operatorChatID}
			if err := m.gateway.Notify(ctx, ch, text); err != nil {
				m.logger.Warn(ctx, "monitor: tier-2 operator notify failed", zap.Error(err))
			}
		}

		if err := m.jobRepo.MarkEscalated(ctx, job.ID, 2); err != nil {
			m.logger.Error(ctx, "monitor: mark tier-2 failed",
				zap.String("job_id", job.ID), zap.Error(err))
			continue
		}

		m.logger.Info(ctx, "tier-2 escalation sent", zap.String("job_id", job.ID))
	}

	return nil
}

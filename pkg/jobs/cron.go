package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/skillvest/referral-backend/internal/config"
	"github.com/skillvest/referral-backend/internal/services"
	"golang.org/x/exp/slog"
)

// CronManager schedules recurring jobs. The only job today is the
// monthly bonus sweep; the admin endpoint remains the manual trigger.
type CronManager struct {
	cron         *cron.Cron
	bonusService *services.BonusService
	cfg          *config.Config
}

// NewCronManager creates a new CronManager
func NewCronManager(bonusService *services.BonusService, cfg *config.Config) *CronManager {
	return &CronManager{
		cron:         cron.New(),
		bonusService: bonusService,
		cfg:          cfg,
	}
}

// SetupJobs registers the scheduled jobs from config
func (cm *CronManager) SetupJobs() error {
	if !cm.cfg.Jobs.RunMonthlyCycle {
		slog.Info("monthly bonus cycle scheduler disabled")
		return nil
	}

	_, err := cm.cron.AddFunc(cm.cfg.Jobs.MonthlyCycleCron, func() {
		// Sweep the period that just closed, not the one starting now.
		period := time.Now().AddDate(0, -1, 0)
		month, year := int(period.Month()), period.Year()

		slog.Info("starting scheduled monthly bonus cycle", "month", month, "year", year)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		summary, err := cm.bonusService.RunMonthlyCycle(ctx, month, year)
		if err != nil {
			slog.Error("scheduled monthly bonus cycle failed", "error", err, "month", month, "year", year)
			return
		}
		slog.Info("scheduled monthly bonus cycle finished",
			"month", month, "year", year, "paid", summary.BonusesPaid,
			"capped", summary.BonusesCapped, "failures", summary.Failures)
	})
	return err
}

// Start begins the scheduler
func (cm *CronManager) Start() {
	cm.cron.Start()
}

// Stop halts the scheduler and waits for running jobs
func (cm *CronManager) Stop() context.Context {
	return cm.cron.Stop()
}

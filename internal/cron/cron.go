package cron

import (
	"context"
	"os"

	cronv3 "github.com/robfig/cron/v3"

	"github.com/inboxpilot/mailsync/config"
	"github.com/inboxpilot/mailsync/interfaces"
	"github.com/inboxpilot/mailsync/internal/logger"
	"github.com/inboxpilot/mailsync/internal/tracing"
)

const (
	// CronScheduleHeartbeat logs liveness; empty disables it.
	defaultHeartbeatSchedule = "0 * * * * *"
)

type CronManager struct {
	cfg    *config.Config
	log    logger.Logger
	cron   *cronv3.Cron
	stopCh chan struct{}
	jobIDs map[string]cronv3.EntryID
	sync   interfaces.SyncService
}

func NewCronManager(cfg *config.Config, log logger.Logger, sync interfaces.SyncService) *CronManager {
	return &CronManager{
		cfg:    cfg,
		log:    log,
		stopCh: make(chan struct{}),
		jobIDs: make(map[string]cronv3.EntryID),
		sync:   sync,
	}
}

// StartCron initializes and starts the cron scheduler. RunCycle holds its
// own in-progress guard, and the chain additionally skips a tick while the
// previous one still runs.
func (cm *CronManager) StartCron() {
	cm.log.Info("Starting cron manager")
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
			cronv3.Recover(cronv3.DefaultLogger),
		),
	}
	c := cronv3.New(cronOptions...)
	cm.registerJobs(c)
	c.Start()
	cm.cron = c
}

// Stop gracefully stops the cron manager, waiting for running jobs.
func (cm *CronManager) Stop() {
	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		<-ctx.Done()
	}
	close(cm.stopCh)
}

func (cm *CronManager) registerJobs(c *cronv3.Cron) {
	podName := os.Getenv("POD_NAME")
	if podName == "" {
		podName = "local"
	}

	id, err := c.AddFunc(defaultHeartbeatSchedule, func() {
		defer tracing.RecoverAndLogToJaeger(cm.log)
		cm.log.Infof("Cron heartbeat from pod: %s", podName)
	})
	if err != nil {
		cm.log.Fatalf("Could not add heartbeat cron job: %v", err)
	}
	cm.jobIDs["heartbeat"] = id

	if cm.cfg.SyncConfig.CronScheduleSync != "" {
		id, err := c.AddFunc(cm.cfg.SyncConfig.CronScheduleSync, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.runSyncCycle()
		})
		if err != nil {
			cm.log.Fatalf("Could not add mailbox sync cron job: %v", err)
		}
		cm.jobIDs["mailbox_sync"] = id
		cm.log.Infof("Registered mailbox sync job with schedule: %s", cm.cfg.SyncConfig.CronScheduleSync)
	}
}

func (cm *CronManager) runSyncCycle() {
	ctx := context.Background()

	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.runSyncCycle")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	cm.sync.RunCycle(ctx)
}

package cron

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboxpilot/mailsync/config"
	"github.com/inboxpilot/mailsync/internal/logger"
)

type stubSyncService struct {
	cycles atomic.Int32
}

func (s *stubSyncService) RunCycle(ctx context.Context) {
	s.cycles.Add(1)
}

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func getConfig(schedule string) *config.Config {
	return &config.Config{
		AppConfig: &config.AppConfig{
			Logger: &logger.Config{LogLevel: "info"},
		},
		SyncConfig: &config.SyncConfig{
			CronScheduleSync: schedule,
		},
	}
}

func TestNewCronManager(t *testing.T) {
	cfg := getConfig("*/10 * * * * *")
	log := getLogger()

	cm := NewCronManager(cfg, log, &stubSyncService{})

	assert.NotNil(t, cm)
	assert.Equal(t, cfg, cm.cfg)
	assert.Equal(t, log, cm.log)
	assert.NotNil(t, cm.jobIDs)
}

func TestCronManager_RegistersSyncJob(t *testing.T) {
	cm := NewCronManager(getConfig("*/10 * * * * *"), getLogger(), &stubSyncService{})

	cm.StartCron()
	defer cm.Stop()

	assert.Contains(t, cm.jobIDs, "mailbox_sync")
	assert.Contains(t, cm.jobIDs, "heartbeat")
}

func TestCronManager_EmptyScheduleSkipsSyncJob(t *testing.T) {
	cm := NewCronManager(getConfig(""), getLogger(), &stubSyncService{})

	cm.StartCron()
	defer cm.Stop()

	assert.NotContains(t, cm.jobIDs, "mailbox_sync")
}

func TestCronManager_SyncJobRuns(t *testing.T) {
	stub := &stubSyncService{}
	cm := NewCronManager(getConfig("* * * * * *"), getLogger(), stub)

	cm.StartCron()
	defer cm.Stop()

	require.Eventually(t, func() bool {
		return stub.cycles.Load() >= 1
	}, 3*time.Second, 50*time.Millisecond)
}

func TestCronManager_Stop(t *testing.T) {
	cm := NewCronManager(getConfig("*/10 * * * * *"), getLogger(), &stubSyncService{})

	cm.StartCron()
	cm.Stop()

	select {
	case <-cm.stopCh:
	default:
		t.Error("Stop channel was not closed")
	}
}

// File: internal/jobs/role_sync_retry.go
package jobs

import (
	"context"
	"time"

	"identity_sync_backend/internal/config"
	"identity_sync_backend/internal/rolesync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// RoleRetrier replays role pushes that failed during webhook handling.
type RoleRetrier interface {
	RetryDue(ctx context.Context, limit int) (rolesync.RetryResult, error)
}

// RoleSyncRetryJob periodically retries failed role pushes.
type RoleSyncRetryJob struct {
	retrier       RoleRetrier
	logger        *zap.Logger
	cfg           *config.Config
	cronScheduler *cron.Cron
	runTimeout    time.Duration
}

// NewRoleSyncRetryJob creates the job. Overlapping runs are skipped so one slow
// provider outage never stacks pushes for the same task.
func NewRoleSyncRetryJob(retrier RoleRetrier, logger *zap.Logger, cfg *config.Config) *RoleSyncRetryJob {
	cronLog := NewCronLogger(logger.Named("cron"))
	scheduler := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	return &RoleSyncRetryJob{
		retrier:       retrier,
		logger:        logger.Named("RoleSyncRetryJob"),
		cfg:           cfg,
		cronScheduler: scheduler,
		runTimeout:    5 * time.Minute,
	}
}

// SetupAndStart schedules the job on ROLE_SYNC_RETRY_SCHEDULE and starts the
// scheduler. An empty schedule disables the job.
func (j *RoleSyncRetryJob) SetupAndStart() error {
	jobSpec := j.cfg.RoleSyncRetrySchedule
	if jobSpec == "" {
		j.logger.Warn("Role sync retry schedule not defined (ROLE_SYNC_RETRY_SCHEDULE). Failed role pushes will not be retried.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule role sync retry job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Role sync retry job scheduled", zap.String("spec", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

// RunOnce performs a single retry pass. It backs both the scheduler and the
// retry-role-sync command.
func (j *RoleSyncRetryJob) RunOnce(ctx context.Context, limit int) (rolesync.RetryResult, error) {
	if limit <= 0 {
		limit = j.cfg.RoleSyncBatchSize
	}
	res, err := j.retrier.RetryDue(ctx, limit)
	if err != nil {
		j.logger.Error("Role sync retry run failed", zap.Error(err))
		return res, err
	}
	j.logger.Info("Role sync retry run completed",
		zap.Int("attempted", res.Attempted),
		zap.Int("synced", res.Synced),
		zap.Int("failed", res.Failed),
		zap.Int64("pending", res.Pending),
	)
	return res, nil
}

func (j *RoleSyncRetryJob) runJob() {
	ctx, cancel := context.WithTimeout(context.Background(), j.runTimeout)
	defer cancel()
	_, _ = j.RunOnce(ctx, j.cfg.RoleSyncBatchSize)
}

// Stop stops the scheduler and waits up to 10s for a running pass to finish.
func (j *RoleSyncRetryJob) Stop() {
	if j.cronScheduler == nil {
		return
	}
	j.logger.Info("Stopping role sync retry job scheduler...")
	stopCtx := j.cronScheduler.Stop()
	select {
	case <-stopCtx.Done():
		j.logger.Info("Role sync retry job scheduler stopped gracefully.")
	case <-time.After(10 * time.Second):
		j.logger.Warn("Role sync retry job scheduler stop timed out.")
	}
}

package rolesync

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"identity_sync_backend/internal/config"
	"identity_sync_backend/internal/identity"
	"identity_sync_backend/internal/platform/metrics"

	"go.uber.org/zap"
)

const (
	triggerWebhook = "webhook"
	triggerRetry   = "retry"
)

// Dispatcher pushes roles to the identity provider and records the outcome on
// the pending task.
type Dispatcher struct {
	repo        Repository
	updater     identity.RoleUpdater
	metrics     *metrics.Prom
	logger      *zap.Logger
	maxAttempts int
	backoff     func(attempt int) time.Duration
	now         func() time.Time
}

// NewDispatcher creates a Dispatcher using ROLE_SYNC_MAX_ATTEMPTS.
func NewDispatcher(repo Repository, updater identity.RoleUpdater, m *metrics.Prom, cfg *config.Config, logger *zap.Logger) *Dispatcher {
	maxAttempts := cfg.RoleSyncMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &Dispatcher{
		repo:        repo,
		updater:     updater,
		metrics:     m,
		logger:      logger.Named("RoleSync"),
		maxAttempts: maxAttempts,
		backoff:     ExponentialBackoff,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Push sends role for userID right away. The caller must have saved a Task for
// the user beforehand: on success it is completed, on failure it is scheduled
// for a retry and the provider error is returned.
func (d *Dispatcher) Push(ctx context.Context, userID, role string) error {
	err := d.push(ctx, triggerWebhook, Task{UserID: userID, Role: role})
	if err != nil {
		return fmt.Errorf("push role to identity provider: %w", err)
	}
	return nil
}

// RetryDue replays up to limit due tasks. A failing task does not stop the run.
func (d *Dispatcher) RetryDue(ctx context.Context, limit int) (RetryResult, error) {
	var res RetryResult

	tasks, err := d.repo.ListDue(ctx, d.now(), d.maxAttempts, limit)
	if err != nil {
		return res, fmt.Errorf("list due role sync tasks: %w", err)
	}

	for _, task := range tasks {
		if ctx.Err() != nil {
			break
		}
		res.Attempted++
		if err := d.push(ctx, triggerRetry, task); err != nil {
			res.Failed++
			continue
		}
		res.Synced++
	}

	pending, err := d.repo.CountPending(ctx)
	if err != nil {
		return res, fmt.Errorf("count pending role sync tasks: %w", err)
	}
	res.Pending = pending
	d.metrics.SetRoleSyncPending(pending)
	return res, nil
}

func (d *Dispatcher) push(ctx context.Context, trigger string, task Task) error {
	pushErr := d.updater.UpdateRole(ctx, task.UserID, task.Role)
	d.metrics.ObserveRoleSync(trigger, pushErr)

	if pushErr == nil {
		if err := d.repo.Complete(ctx, task.UserID, task.Role); err != nil {
			// The provider is up to date; a leftover task only causes one redundant push.
			d.logger.Warn("Role pushed but task could not be completed", zap.String("userID", task.UserID), zap.Error(err))
		}
		return nil
	}

	next := d.now().Add(d.backoff(task.Attempts))
	if err := d.repo.MarkFailed(ctx, task.UserID, pushErr.Error(), next); err != nil {
		d.logger.Error("Failed to record role push failure", zap.String("userID", task.UserID), zap.Error(err))
	}
	d.logger.Warn("Role push failed",
		zap.String("trigger", trigger),
		zap.String("userID", task.UserID),
		zap.String("role", task.Role),
		zap.Int("attempt", task.Attempts+1),
		zap.Time("nextAttemptAt", next),
		zap.Error(pushErr),
	)
	return pushErr
}

// ExponentialBackoff returns 2s, 4s, 8s, ... capped at 5 minutes, plus up to 250ms jitter.
func ExponentialBackoff(attempt int) time.Duration {
	base := 2 * time.Second
	capDelay := 5 * time.Minute

	delay := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if delay > capDelay || delay <= 0 {
		delay = capDelay
	}

	delay += time.Duration(rand.Intn(250)) * time.Millisecond
	return delay
}

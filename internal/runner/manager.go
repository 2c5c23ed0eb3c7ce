// Package runner drives task loops and validates task requests.
package runner

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/lochan861/mt/internal/logger"
	"github.com/lochan861/mt/internal/metrics"
	"github.com/lochan861/mt/internal/models"
	"github.com/lochan861/mt/internal/store"
	"go.uber.org/zap"
)

var (
	ErrAlreadyRunning = errors.New("task is already running")
	ErrNotRunning     = errors.New("task is not running")
	ErrNoTargets      = errors.New("task has no targets")
)

type loop struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager runs at most one loop per task. Each loop owns its task record
// until it exits; Stop cancels the loop and waits for the final write.
type Manager struct {
	store   store.TaskStore
	checker Checker
	metrics *metrics.Metrics

	mu    sync.Mutex
	loops map[string]*loop

	// Overridable in tests
	sleep func(ctx context.Context, d time.Duration) error
	randN func(n int) int
	now   func() time.Time
}

// NewManager creates a manager that persists through taskStore
func NewManager(taskStore store.TaskStore, checker Checker) *Manager {
	return &Manager{
		store:   taskStore,
		checker: checker,
		metrics: metrics.Get(),
		loops:   make(map[string]*loop),
		sleep:   sleepContext,
		randN:   rand.Intn,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Start marks task running and launches its loop. The loop outlives ctx,
// which only bounds the initial status write.
func (m *Manager) Start(ctx context.Context, task *models.Task) error {
	if len(task.Targets) == 0 {
		return ErrNoTargets
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.loops[task.ID]; ok {
		return ErrAlreadyRunning
	}

	now := m.now()
	if task.Status == models.TaskFinished {
		task.Iterations = 0
	}
	task.Status = models.TaskRunning
	task.StartedAt = &now
	task.StoppedAt = nil
	task.LastError = ""
	if err := m.store.UpdateTask(ctx, task); err != nil {
		return fmt.Errorf("failed to mark task running: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	l := &loop{cancel: cancel, done: make(chan struct{})}
	m.loops[task.ID] = l

	m.metrics.TasksRunning.Inc()
	m.metrics.TaskTransitionsTotal.WithLabelValues(string(models.TaskRunning)).Inc()
	logger.Log.Info("Task started",
		logger.WithTaskID(task.ID),
		logger.WithUserID(task.UserID),
		zap.Int("targets", len(task.Targets)),
		zap.Int("cursor", task.Cursor),
	)

	go m.run(loopCtx, task.Clone(), l)
	return nil
}

// Stop cancels a running loop and waits until it has persisted its final state
func (m *Manager) Stop(ctx context.Context, taskID string) error {
	m.mu.Lock()
	l, ok := m.loops[taskID]
	m.mu.Unlock()
	if !ok {
		return ErrNotRunning
	}

	l.cancel()
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether a loop exists for taskID
func (m *Manager) IsRunning(taskID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.loops[taskID]
	return ok
}

// Running returns the number of live loops
func (m *Manager) Running() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.loops)
}

// Shutdown stops every loop, waiting at most until ctx is done
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	loops := make([]*loop, 0, len(m.loops))
	for _, l := range m.loops {
		loops = append(loops, l)
	}
	m.mu.Unlock()

	for _, l := range loops {
		l.cancel()
	}
	for _, l := range loops {
		select {
		case <-l.done:
		case <-ctx.Done():
			return fmt.Errorf("shutdown interrupted with loops still running: %w", ctx.Err())
		}
	}
	logger.Log.Info("Task manager stopped", zap.Int("loops", len(loops)))
	return nil
}

func (m *Manager) run(ctx context.Context, task *models.Task, l *loop) {
	// Writes after cancellation must still land
	persistCtx := context.WithoutCancel(ctx)

	for {
		if ctx.Err() != nil {
			m.exit(persistCtx, task, l, models.TaskStopped, "")
			return
		}

		target := task.Targets[task.Cursor%len(task.Targets)]
		res := m.checker.Check(ctx, target)
		if ctx.Err() != nil && res.Err != nil {
			// Interrupted mid-check; the attempt is not an outcome
			m.exit(persistCtx, task, l, models.TaskStopped, "")
			return
		}
		m.recordMetrics(res)

		entry := &models.TaskLog{
			TaskID:     task.ID,
			Target:     target,
			StatusCode: res.StatusCode,
			OK:         res.OK,
			LatencyMS:  res.Latency.Milliseconds(),
			CreatedAt:  m.now(),
		}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		}
		if err := m.store.AppendLog(persistCtx, entry); err != nil {
			m.exit(persistCtx, task, l, models.TaskFailed, err.Error())
			return
		}

		logger.Log.Debug("Task check",
			logger.WithTaskID(task.ID),
			zap.String("target", target),
			zap.Int("status_code", res.StatusCode),
			zap.Bool("ok", res.OK),
		)

		task.Cursor = (task.Cursor + 1) % len(task.Targets)
		task.Iterations++

		if task.MaxIterations > 0 && task.Iterations >= task.MaxIterations {
			m.exit(persistCtx, task, l, models.TaskFinished, "")
			return
		}

		if err := m.store.UpdateTask(persistCtx, task); err != nil {
			m.exit(persistCtx, task, l, models.TaskFailed, err.Error())
			return
		}

		if err := m.sleep(ctx, m.nextDelay(task)); err != nil {
			m.exit(persistCtx, task, l, models.TaskStopped, "")
			return
		}
	}
}

// nextDelay is uniform over [delay, delay+jitter] whole seconds
func (m *Manager) nextDelay(task *models.Task) time.Duration {
	seconds := task.DelaySeconds
	if task.JitterSeconds > 0 {
		seconds += m.randN(task.JitterSeconds + 1)
	}
	return time.Duration(seconds) * time.Second
}

func (m *Manager) recordMetrics(res Result) {
	outcome := "ok"
	switch {
	case res.Err != nil:
		outcome = "error"
	case !res.OK:
		outcome = "unhealthy"
	}
	m.metrics.TaskChecksTotal.WithLabelValues(outcome).Inc()
	m.metrics.TaskCheckDuration.Observe(res.Latency.Seconds())
}

func (m *Manager) exit(ctx context.Context, task *models.Task, l *loop, status models.TaskStatus, lastError string) {
	now := m.now()
	task.Status = status
	task.StoppedAt = &now
	task.LastError = lastError

	if err := m.store.UpdateTask(ctx, task); err != nil {
		logger.Log.Error("Failed to persist final task state",
			logger.WithTaskID(task.ID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}

	fields := []zap.Field{
		logger.WithTaskID(task.ID),
		zap.String("status", string(status)),
		zap.Int("iterations", task.Iterations),
	}
	if lastError != "" {
		logger.Log.Error("Task loop failed", append(fields, zap.String("error", lastError))...)
	} else {
		logger.Log.Info("Task loop exited", fields...)
	}

	m.metrics.TasksRunning.Dec()
	m.metrics.TaskTransitionsTotal.WithLabelValues(string(status)).Inc()

	m.mu.Lock()
	delete(m.loops, task.ID)
	m.mu.Unlock()
	l.cancel()
	close(l.done)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

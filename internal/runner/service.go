package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/lochan861/mt/internal/logger"
	"github.com/lochan861/mt/internal/models"
	"github.com/lochan861/mt/internal/store"
	"go.uber.org/zap"
)

const (
	MaxTargets         = 100
	MaxNameLength      = 100
	MinDelaySeconds    = 5
	DefaultDelay       = 60
	DefaultJitter      = 10
	MaxJitterSeconds   = 3600
	DefaultLogLimit    = 50
	MaxLogLimit        = 500
	maxTargetsFileSize = 64 << 10
)

// ValidationError reports a rejected request field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// CreateTaskRequest describes a new task. Nil delay fields take defaults.
type CreateTaskRequest struct {
	Name          string   `json:"name" form:"name"`
	Targets       []string `json:"targets" form:"targets"`
	DelaySeconds  *int     `json:"delay_seconds" form:"delay_seconds"`
	JitterSeconds *int     `json:"jitter_seconds" form:"jitter_seconds"`
	MaxIterations int      `json:"max_iterations" form:"max_iterations"`
}

// Service applies ownership and validation on top of the store and manager
type Service struct {
	store   store.TaskStore
	manager *Manager
}

// NewService creates a task service
func NewService(taskStore store.TaskStore, manager *Manager) *Service {
	return &Service{store: taskStore, manager: manager}
}

// Recover resets tasks left running by a previous process
func (s *Service) Recover(ctx context.Context) error {
	n, err := s.store.ResetRunning(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		logger.Log.Warn("Reset tasks left running by previous process", zap.Int64("count", n))
	}
	return nil
}

// CreateTask validates req and stores a pending task owned by userID
func (s *Service) CreateTask(ctx context.Context, userID string, req CreateTaskRequest) (*models.Task, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("name", "name is required")
	}
	if len(name) > MaxNameLength {
		return nil, invalid("name", "name must be at most %d characters", MaxNameLength)
	}

	targets, err := normalizeTargets(req.Targets)
	if err != nil {
		return nil, err
	}

	delay := DefaultDelay
	if req.DelaySeconds != nil {
		delay = *req.DelaySeconds
	}
	if delay < MinDelaySeconds {
		return nil, invalid("delay_seconds", "delay must be at least %d seconds", MinDelaySeconds)
	}

	jitter := DefaultJitter
	if req.JitterSeconds != nil {
		jitter = *req.JitterSeconds
	}
	if jitter < 0 || jitter > MaxJitterSeconds {
		return nil, invalid("jitter_seconds", "jitter must be between 0 and %d seconds", MaxJitterSeconds)
	}

	if req.MaxIterations < 0 {
		return nil, invalid("max_iterations", "max_iterations cannot be negative")
	}

	task := &models.Task{
		ID:            uuid.New().String(),
		UserID:        userID,
		Name:          name,
		Targets:       targets,
		DelaySeconds:  delay,
		JitterSeconds: jitter,
		MaxIterations: req.MaxIterations,
		Status:        models.TaskPending,
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, err
	}

	logger.Log.Info("Task created",
		logger.WithTaskID(task.ID),
		logger.WithUserID(userID),
		zap.Int("targets", len(targets)),
	)
	return task, nil
}

// GetTask returns a task owned by userID; other users' tasks read as missing
func (s *Service) GetTask(ctx context.Context, userID, taskID string) (*models.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, store.ErrTaskNotFound
	}
	return task, nil
}

// ListTasks returns userID's tasks, newest first
func (s *Service) ListTasks(ctx context.Context, userID string) ([]*models.Task, error) {
	return s.store.ListTasks(ctx, userID)
}

// StartTask launches the task loop
func (s *Service) StartTask(ctx context.Context, userID, taskID string) (*models.Task, error) {
	task, err := s.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.manager.Start(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// StopTask stops the task loop and returns the persisted final state
func (s *Service) StopTask(ctx context.Context, userID, taskID string) (*models.Task, error) {
	if _, err := s.GetTask(ctx, userID, taskID); err != nil {
		return nil, err
	}
	if err := s.manager.Stop(ctx, taskID); err != nil {
		return nil, err
	}
	return s.store.GetTask(ctx, taskID)
}

// DeleteTask stops the task if needed, then removes it and its logs
func (s *Service) DeleteTask(ctx context.Context, userID, taskID string) error {
	if _, err := s.GetTask(ctx, userID, taskID); err != nil {
		return err
	}
	if err := s.manager.Stop(ctx, taskID); err != nil && !errors.Is(err, ErrNotRunning) {
		return err
	}
	if err := s.store.DeleteTask(ctx, taskID); err != nil {
		return err
	}
	logger.Log.Info("Task deleted", logger.WithTaskID(taskID), logger.WithUserID(userID))
	return nil
}

// TaskLogs returns the newest log entries; limit is clamped to [1, MaxLogLimit]
func (s *Service) TaskLogs(ctx context.Context, userID, taskID string, limit int) ([]*models.TaskLog, error) {
	if _, err := s.GetTask(ctx, userID, taskID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	if limit > MaxLogLimit {
		limit = MaxLogLimit
	}
	return s.store.ListLogs(ctx, taskID, limit)
}

// ParseTargetsFile reads one target per line from an uploaded .txt file
func ParseTargetsFile(filename string, r io.Reader) ([]string, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".txt") {
		return nil, invalid("targets_file", "targets file must be a .txt file")
	}

	var targets []string
	scanner := bufio.NewScanner(io.LimitReader(r, maxTargetsFileSize))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			targets = append(targets, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read targets file: %w", err)
	}
	return targets, nil
}

func normalizeTargets(raw []string) ([]string, error) {
	targets := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		u, err := url.Parse(t)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, invalid("targets", "invalid target %q: must be an absolute http(s) URL", t)
		}
		targets = append(targets, t)
	}
	if len(targets) == 0 {
		return nil, invalid("targets", "at least one target is required")
	}
	if len(targets) > MaxTargets {
		return nil, invalid("targets", "at most %d targets are allowed", MaxTargets)
	}
	return targets, nil
}

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lochan861/mt/internal/models"
	"gorm.io/gorm"
)

// GormStore is a Store backed by sqlite or postgres through gorm
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open, migrated database
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateTask(ctx context.Context, task *models.Task) error {
	task.PackTargets()
	if err := s.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (s *GormStore) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	task.UnpackTargets()
	return &task, nil
}

func (s *GormStore) ListTasks(ctx context.Context, userID string) ([]*models.Task, error) {
	var tasks []*models.Task
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	for _, t := range tasks {
		t.UnpackTargets()
	}
	return tasks, nil
}

func (s *GormStore) UpdateTask(ctx context.Context, task *models.Task) error {
	task.PackTargets()
	result := s.db.WithContext(ctx).Model(task).Select("*").Omit("created_at").Updates(task)
	if result.Error != nil {
		return fmt.Errorf("failed to update task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (s *GormStore) DeleteTask(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskLog{}).Error; err != nil {
			return fmt.Errorf("failed to delete task logs: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&models.Task{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete task: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrTaskNotFound
		}
		return nil
	})
}

func (s *GormStore) AppendLog(ctx context.Context, entry *models.TaskLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append task log: %w", err)
	}
	return nil
}

func (s *GormStore) ListLogs(ctx context.Context, taskID string, limit int) ([]*models.TaskLog, error) {
	var logs []*models.TaskLog
	q := s.db.WithContext(ctx).Where("task_id = ?", taskID).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return logs, nil
}

func (s *GormStore) ResetRunning(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.Task{}).
		Where("status = ?", models.TaskRunning).
		Updates(map[string]interface{}{
			"status":     models.TaskStopped,
			"stopped_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to reset running tasks: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	if _, err := s.GetUserByEmail(ctx, user.Email); err == nil {
		return ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return err
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *GormStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

func (s *GormStore) UpdateUser(ctx context.Context, user *models.User) error {
	result := s.db.WithContext(ctx).Model(user).Select("*").Omit("created_at").Updates(user)
	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

var _ Store = (*GormStore)(nil)

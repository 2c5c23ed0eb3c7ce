// Package store persists users, tasks and task logs.
package store

import (
	"context"
	"errors"

	"github.com/lochan861/mt/internal/models"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// TaskStore persists tasks and their logs
type TaskStore interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	ListTasks(ctx context.Context, userID string) ([]*models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id string) error
	AppendLog(ctx context.Context, entry *models.TaskLog) error
	// ListLogs returns the newest entries first
	ListLogs(ctx context.Context, taskID string, limit int) ([]*models.TaskLog, error)
	// ResetRunning marks every running task stopped and returns how many changed
	ResetRunning(ctx context.Context) (int64, error)
}

// UserStore persists accounts
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// GetUserByEmail matches case-insensitively
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
}

// Store is everything the service needs from a backend
type Store interface {
	TaskStore
	UserStore
}

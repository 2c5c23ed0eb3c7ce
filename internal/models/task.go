package models

import (
	"strings"
	"time"
)

// TaskStatus is the lifecycle state of a task
type TaskStatus string

const (
	TaskPending  TaskStatus = "pending"
	TaskRunning  TaskStatus = "running"
	TaskStopped  TaskStatus = "stopped"
	TaskFinished TaskStatus = "finished"
	TaskFailed   TaskStatus = "failed"
)

// Task is a user-owned uptime check that cycles through its targets
type Task struct {
	ID            string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID        string     `gorm:"index;not null" json:"user_id"`
	Name          string     `gorm:"not null" json:"name"`
	Targets       []string   `gorm:"-" json:"targets"`
	TargetList    string     `gorm:"column:targets;type:text" json:"-"`
	DelaySeconds  int        `json:"delay_seconds"`
	JitterSeconds int        `json:"jitter_seconds"`
	MaxIterations int        `json:"max_iterations"`
	Status        TaskStatus `gorm:"index;type:varchar(16)" json:"status"`
	Iterations    int        `json:"iterations"`
	Cursor        int        `json:"cursor"`
	LastError     string     `json:"last_error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	StoppedAt     *time.Time `json:"stopped_at,omitempty"`
}

// PackTargets copies Targets into the persisted column
func (t *Task) PackTargets() {
	t.TargetList = strings.Join(t.Targets, "\n")
}

// UnpackTargets restores Targets from the persisted column
func (t *Task) UnpackTargets() {
	if t.TargetList == "" {
		t.Targets = nil
		return
	}
	t.Targets = strings.Split(t.TargetList, "\n")
}

// Clone returns a deep copy
func (t *Task) Clone() *Task {
	c := *t
	c.Targets = append([]string(nil), t.Targets...)
	if t.StartedAt != nil {
		v := *t.StartedAt
		c.StartedAt = &v
	}
	if t.StoppedAt != nil {
		v := *t.StoppedAt
		c.StoppedAt = &v
	}
	return &c
}

// TaskLog records the outcome of one check
type TaskLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TaskID     string    `gorm:"index;not null" json:"task_id"`
	Target     string    `json:"target"`
	StatusCode int       `json:"status_code"`
	OK         bool      `json:"ok"`
	Error      string    `json:"error,omitempty"`
	LatencyMS  int64     `json:"latency_ms"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

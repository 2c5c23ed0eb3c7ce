package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lochan861/mt/internal/models"
)

// MemoryStore keeps everything in process memory. Reads and writes copy
// values so callers never share state with the store.
type MemoryStore struct {
	mu     sync.RWMutex
	tasks  map[string]*models.Task
	logs   map[string][]*models.TaskLog
	users  map[string]*models.User
	nextID uint
}

// NewMemoryStore returns an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks: make(map[string]*models.Task),
		logs:  make(map[string][]*models.TaskLog),
		users: make(map[string]*models.User),
	}
}

func (s *MemoryStore) CreateTask(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	s.tasks[task.ID] = task.Clone()
	return nil
}

func (s *MemoryStore) GetTask(_ context.Context, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return task.Clone(), nil
}

func (s *MemoryStore) ListTasks(_ context.Context, userID string) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]*models.Task, 0)
	for _, t := range s.tasks {
		if t.UserID == userID {
			tasks = append(tasks, t.Clone())
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (s *MemoryStore) UpdateTask(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tasks[task.ID]
	if !ok {
		return ErrTaskNotFound
	}
	updated := task.Clone()
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	task.UpdatedAt = updated.UpdatedAt
	s.tasks[task.ID] = updated
	return nil
}

func (s *MemoryStore) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return ErrTaskNotFound
	}
	delete(s.tasks, id)
	delete(s.logs, id)
	return nil
}

func (s *MemoryStore) AppendLog(_ context.Context, entry *models.TaskLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	entry.ID = s.nextID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	c := *entry
	s.logs[entry.TaskID] = append(s.logs[entry.TaskID], &c)
	return nil
}

func (s *MemoryStore) ListLogs(_ context.Context, taskID string, limit int) ([]*models.TaskLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.logs[taskID]
	n := len(entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*models.TaskLog, 0, n)
	// Appended in order, so walking backwards yields newest first
	for i := len(entries) - 1; i >= 0 && len(out) < n; i-- {
		c := *entries[i]
		out = append(out, &c)
	}
	return out, nil
}

func (s *MemoryStore) ResetRunning(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	now := time.Now().UTC()
	for _, t := range s.tasks {
		if t.Status == models.TaskRunning {
			t.Status = models.TaskStopped
			t.StoppedAt = &now
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrUserExists
		}
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	c := *user
	s.users[user.ID] = &c
	return nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *MemoryStore) UpdateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return ErrUserNotFound
	}
	user.UpdatedAt = time.Now().UTC()
	c := *user
	s.users[user.ID] = &c
	return nil
}

var _ Store = (*MemoryStore)(nil)

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lochan861/mt/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// StoreTestSuite runs the same behaviour checks against every backend
type StoreTestSuite struct {
	suite.Suite
	newStore func(t *testing.T) Store
	store    Store
	ctx      context.Context
}

func (suite *StoreTestSuite) SetupTest() {
	suite.store = suite.newStore(suite.T())
	suite.ctx = context.Background()
}

func newTask(userID string) *models.Task {
	return &models.Task{
		ID:            uuid.New().String(),
		UserID:        userID,
		Name:          "homepage",
		Targets:       []string{"https://a.example/health", "https://b.example/health"},
		DelaySeconds:  60,
		JitterSeconds: 10,
		Status:        models.TaskPending,
	}
}

func (suite *StoreTestSuite) TestCreateAndGetTask() {
	t := suite.T()

	task := newTask("user-1")
	require.NoError(t, suite.store.CreateTask(suite.ctx, task))

	got, err := suite.store.GetTask(suite.ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.Name, got.Name)
	assert.Equal(t, task.Targets, got.Targets)
	assert.Equal(t, models.TaskPending, got.Status)

	_, err = suite.store.GetTask(suite.ctx, "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func (suite *StoreTestSuite) TestListTasksScopedToUser() {
	t := suite.T()

	require.NoError(t, suite.store.CreateTask(suite.ctx, newTask("user-1")))
	require.NoError(t, suite.store.CreateTask(suite.ctx, newTask("user-1")))
	require.NoError(t, suite.store.CreateTask(suite.ctx, newTask("user-2")))

	tasks, err := suite.store.ListTasks(suite.ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
	for _, task := range tasks {
		assert.Equal(t, "user-1", task.UserID)
		assert.Len(t, task.Targets, 2)
	}

	none, err := suite.store.ListTasks(suite.ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func (suite *StoreTestSuite) TestUpdateTask() {
	t := suite.T()

	task := newTask("user-1")
	require.NoError(t, suite.store.CreateTask(suite.ctx, task))

	now := time.Now().UTC()
	task.Status = models.TaskRunning
	task.Cursor = 3
	task.Iterations = 3
	task.StartedAt = &now
	require.NoError(t, suite.store.UpdateTask(suite.ctx, task))

	got, err := suite.store.GetTask(suite.ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskRunning, got.Status)
	assert.Equal(t, 3, got.Cursor)
	require.NotNil(t, got.StartedAt)

	// Zero values are written too
	task.Cursor = 0
	task.LastError = ""
	require.NoError(t, suite.store.UpdateTask(suite.ctx, task))
	got, err = suite.store.GetTask(suite.ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Cursor)

	ghost := newTask("user-1")
	assert.ErrorIs(t, suite.store.UpdateTask(suite.ctx, ghost), ErrTaskNotFound)
}

func (suite *StoreTestSuite) TestReturnedTasksAreCopies() {
	t := suite.T()

	task := newTask("user-1")
	require.NoError(t, suite.store.CreateTask(suite.ctx, task))

	got, err := suite.store.GetTask(suite.ctx, task.ID)
	require.NoError(t, err)
	got.Targets[0] = "mutated"
	got.Status = models.TaskFailed

	again, err := suite.store.GetTask(suite.ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://a.example/health", again.Targets[0])
	assert.Equal(t, models.TaskPending, again.Status)
}

func (suite *StoreTestSuite) TestLogsNewestFirstAndLimited() {
	t := suite.T()

	task := newTask("user-1")
	require.NoError(t, suite.store.CreateTask(suite.ctx, task))

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		require.NoError(t, suite.store.AppendLog(suite.ctx, &models.TaskLog{
			TaskID:     task.ID,
			Target:     task.Targets[i%2],
			StatusCode: 200 + i,
			OK:         true,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}))
	}

	logs, err := suite.store.ListLogs(suite.ctx, task.ID, 3)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, 204, logs[0].StatusCode)
	assert.Equal(t, 203, logs[1].StatusCode)
	assert.Equal(t, 202, logs[2].StatusCode)

	all, err := suite.store.ListLogs(suite.ctx, task.ID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func (suite *StoreTestSuite) TestDeleteTaskRemovesLogs() {
	t := suite.T()

	task := newTask("user-1")
	require.NoError(t, suite.store.CreateTask(suite.ctx, task))
	require.NoError(t, suite.store.AppendLog(suite.ctx, &models.TaskLog{TaskID: task.ID, Target: "https://a.example"}))

	require.NoError(t, suite.store.DeleteTask(suite.ctx, task.ID))

	_, err := suite.store.GetTask(suite.ctx, task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	logs, err := suite.store.ListLogs(suite.ctx, task.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, logs)

	assert.ErrorIs(t, suite.store.DeleteTask(suite.ctx, task.ID), ErrTaskNotFound)
}

func (suite *StoreTestSuite) TestResetRunning() {
	t := suite.T()

	running := newTask("user-1")
	running.Status = models.TaskRunning
	finished := newTask("user-1")
	finished.Status = models.TaskFinished
	require.NoError(t, suite.store.CreateTask(suite.ctx, running))
	require.NoError(t, suite.store.CreateTask(suite.ctx, finished))

	n, err := suite.store.ResetRunning(suite.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := suite.store.GetTask(suite.ctx, running.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStopped, got.Status)
	assert.NotNil(t, got.StoppedAt)

	got, err = suite.store.GetTask(suite.ctx, finished.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskFinished, got.Status)
}

func (suite *StoreTestSuite) TestUsers() {
	t := suite.T()

	user := &models.User{ID: uuid.New().String(), Email: "Ops@Example.com", PasswordHash: "hash"}
	require.NoError(t, suite.store.CreateUser(suite.ctx, user))

	got, err := suite.store.GetUserByEmail(suite.ctx, "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	dup := &models.User{ID: uuid.New().String(), Email: "OPS@example.com", PasswordHash: "hash"}
	assert.ErrorIs(t, suite.store.CreateUser(suite.ctx, dup), ErrUserExists)

	now := time.Now().UTC()
	got.LastLoginAt = &now
	require.NoError(t, suite.store.UpdateUser(suite.ctx, got))
	byID, err := suite.store.GetUserByID(suite.ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, byID.LastLoginAt)

	_, err = suite.store.GetUserByID(suite.ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = suite.store.GetUserByEmail(suite.ctx, "missing@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func newSQLiteStore(t *testing.T) Store {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Task{}, &models.TaskLog{}))
	return NewGormStore(db)
}

func TestGormStore(t *testing.T) {
	suite.Run(t, &StoreTestSuite{newStore: newSQLiteStore})
}

func TestMemoryStore(t *testing.T) {
	suite.Run(t, &StoreTestSuite{newStore: func(*testing.T) Store { return NewMemoryStore() }})
}

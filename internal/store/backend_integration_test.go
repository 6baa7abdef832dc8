package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"lifeplanner/internal/backend"
	"lifeplanner/internal/model"
	"lifeplanner/internal/repository"
	"lifeplanner/internal/store"
)

func newServer(t *testing.T) *backend.Server {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return backend.NewServer(db,
		backend.WithEmailVerification(false),
		backend.WithPasswordHashCost(bcrypt.MinCost),
	)
}

func signedInStore(t *testing.T, srv *backend.Server, email string, opts ...store.Option) *store.Store {
	t.Helper()
	ctx := context.Background()
	s := store.New(srv.NewClient(), opts...)
	require.NoError(t, s.Init(ctx))
	t.Cleanup(s.Close)
	require.NoError(t, s.SignUp(ctx, email, "secret123", "Tester"))
	require.NoError(t, s.SignIn(ctx, email, "secret123"))
	return s
}

func TestTaskCreateThenUpdateStatus(t *testing.T) {
	ctx := context.Background()
	s := signedInStore(t, newServer(t), "ann@example.com")

	created, err := s.CreateTask(ctx, model.Task{Title: "Write report", Priority: model.PriorityHigh, Status: model.StatusNotStarted})
	require.NoError(t, err)

	tasks := s.Tasks()
	require.Len(t, tasks, 1)
	assert.NotEmpty(t, tasks[0].ID)
	assert.Equal(t, "Write report", tasks[0].Title)
	assert.Equal(t, model.PriorityHigh, tasks[0].Priority)
	assert.Equal(t, model.StatusNotStarted, tasks[0].Status)
	assert.Equal(t, s.Identity().ID, tasks[0].UserID)

	completed := model.StatusCompleted
	require.NoError(t, s.UpdateTask(ctx, created.ID, model.TaskPatch{Status: &completed}))

	after := s.Tasks()
	require.Len(t, after, 1)
	want := tasks[0]
	want.Status = model.StatusCompleted
	assert.Equal(t, want, after[0])

	require.NoError(t, s.Load(ctx))
	assert.Equal(t, model.StatusCompleted, s.Tasks()[0].Status)
}

func TestHabitCompletedTwiceToday(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)
	s := signedInStore(t, newServer(t), "ann@example.com", store.WithClock(func() time.Time { return now }))

	habit, err := s.CreateHabit(ctx, model.Habit{Name: "Meditate"})
	require.NoError(t, err)
	assert.Zero(t, habit.Streak)
	assert.Nil(t, habit.LastCompleted)

	for i := 0; i < 2; i++ {
		got, err := s.CompleteHabit(ctx, habit.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Streak)
		require.NotNil(t, got.LastCompleted)
		assert.Equal(t, "2025-03-10", *got.LastCompleted)
	}

	require.NoError(t, s.Load(ctx))
	reloaded := s.Habits()
	require.Len(t, reloaded, 1)
	assert.Equal(t, 1, reloaded[0].Streak)
	assert.Equal(t, "2025-03-10", *reloaded[0].LastCompleted)
}

func TestRestoreAcrossClients(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)

	client := srv.NewClient()
	first := store.New(client)
	require.NoError(t, first.Init(ctx))
	defer first.Close()
	require.NoError(t, first.SignUp(ctx, "ann@example.com", "secret123", "Ann"))
	require.NoError(t, first.SignIn(ctx, "ann@example.com", "secret123"))
	goal, err := first.CreateGoal(ctx, model.Goal{Title: "Marathon"})
	require.NoError(t, err)
	_, err = first.CreateGoalStep(ctx, goal.ID, "Buy shoes")
	require.NoError(t, err)

	restored := srv.NewClient()
	restored.Restore(client.Token())
	second := store.New(restored)
	require.NoError(t, second.Init(ctx))
	defer second.Close()

	assert.Equal(t, store.Authenticated, second.Status())
	assert.Equal(t, "Ann", second.Identity().DisplayName)
	require.Len(t, second.Goals(), 1)
	require.Len(t, second.StepsForGoal(goal.ID), 1)

	require.NoError(t, second.DeleteGoal(ctx, goal.ID))
	assert.Empty(t, second.GoalSteps())
	require.NoError(t, first.Load(ctx))
	assert.Empty(t, first.Goals())
	assert.Empty(t, first.GoalSteps())
}

func TestOtherAccountsRowsStayInvisible(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	alice := signedInStore(t, srv, "alice@example.com")
	eve := signedInStore(t, srv, "eve@example.com")

	task, err := alice.CreateTask(ctx, model.Task{Title: "Secret"})
	require.NoError(t, err)

	require.NoError(t, eve.Load(ctx))
	assert.Empty(t, eve.Tasks())
	err = eve.DeleteTask(ctx, task.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, alice.Load(ctx))
	assert.Len(t, alice.Tasks(), 1)
}

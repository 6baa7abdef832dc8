package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeplanner/internal/backend"
	"lifeplanner/internal/model"
)

var errBoom = errors.New("boom")

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func newSignedInStore(t *testing.T, b *fakeBackend, opts ...Option) *Store {
	t.Helper()
	s := New(b, opts...)
	require.NoError(t, s.Init(context.Background()))
	t.Cleanup(s.Close)
	require.NoError(t, s.SignIn(context.Background(), "ann@example.com", "secret123"))
	return s
}

func TestNewStoreIsAnonymous(t *testing.T) {
	s := New(newFakeBackend())
	assert.Equal(t, Anonymous, s.Status())
	assert.Nil(t, s.Identity())
	assert.Empty(t, s.Tasks())
	assert.Equal(t, "anonymous", s.Status().String())
}

func TestInitWithoutSession(t *testing.T) {
	b := newFakeBackend()
	s := New(b)
	require.NoError(t, s.Init(context.Background()))
	defer s.Close()

	assert.Equal(t, Anonymous, s.Status())
	selects, _, _, _ := b.tasks.counts()
	assert.Zero(t, selects)
	assert.Equal(t, 1, b.listenerCount())
}

func TestInitRestoresSessionAndLoadsOnce(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	b.tasks.rows = []model.Task{{ID: "t1", UserID: "user-1", Title: "Pay rent"}}
	b.current = b.session("session-restored")

	s := New(b)
	require.NoError(t, s.Init(ctx))
	defer s.Close()

	assert.Equal(t, Authenticated, s.Status())
	require.NotNil(t, s.Identity())
	assert.Equal(t, "ann@example.com", s.Identity().Email)
	assert.Equal(t, "Ann", s.Identity().DisplayName)
	require.Len(t, s.Tasks(), 1)

	// A late initial event for the same session must not reload.
	b.emit(backend.EventInitialSession, b.session("session-restored"))
	b.emit(backend.EventSignedIn, b.session("session-restored"))

	selects, _, _, _ := b.tasks.counts()
	assert.Equal(t, 1, selects)
}

func TestSignInLoadsOnce(t *testing.T) {
	b := newFakeBackend()
	s := newSignedInStore(t, b)

	assert.Equal(t, Authenticated, s.Status())
	for name, table := range map[string]interface{ counts() (int, int, int, int) }{
		"tasks":  b.tasks,
		"habits": b.habits,
		"goals":  b.goals,
		"vision": b.vision,
	} {
		selects, _, _, _ := table.counts()
		assert.Equal(t, 1, selects, name)
	}
	selects, _, _, _ := b.steps.counts()
	assert.Equal(t, 1, selects)
}

func TestSignInFailureRevertsStatus(t *testing.T) {
	b := newFakeBackend()
	b.signInErr = backend.ErrInvalidCredentials
	s := New(b)
	require.NoError(t, s.Init(context.Background()))
	defer s.Close()

	err := s.SignIn(context.Background(), "ann@example.com", "wrong")
	assert.ErrorIs(t, err, backend.ErrInvalidCredentials)
	assert.Equal(t, Anonymous, s.Status())
	assert.Nil(t, s.Identity())
}

func TestSignUpPassesRedirect(t *testing.T) {
	b := newFakeBackend()
	s := New(b, WithRedirectURL("https://planner.test/verify"))

	require.NoError(t, s.SignUp(context.Background(), " ann@example.com ", "secret123", " Ann "))

	require.Len(t, b.signUps, 1)
	assert.Equal(t, backend.SignUpRequest{
		Email:      "ann@example.com",
		Password:   "secret123",
		FullName:   "Ann",
		RedirectTo: "https://planner.test/verify",
	}, b.signUps[0])
	assert.Equal(t, Anonymous, s.Status())
}

func TestCreateAppendsServerRowOnce(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	s := newSignedInStore(t, b)

	task, err := s.CreateTask(ctx, model.Task{Title: "Pay rent"})
	require.NoError(t, err)
	habit, err := s.CreateHabit(ctx, model.Habit{Name: "Read", Streak: 9})
	require.NoError(t, err)
	goal, err := s.CreateGoal(ctx, model.Goal{Title: "Marathon", Progress: 40})
	require.NoError(t, err)
	step, err := s.CreateGoalStep(ctx, goal.ID, "Buy shoes")
	require.NoError(t, err)
	item, err := s.CreateVisionItem(ctx, model.VisionItem{Quote: model.Ptr("Dream big")})
	require.NoError(t, err)

	assert.Zero(t, habit.Streak)
	assert.Zero(t, goal.Progress)

	assertOnce(t, s.Tasks(), func(r model.Task) bool { return r.ID == task.ID })
	assertOnce(t, s.Habits(), func(r model.Habit) bool { return r.ID == habit.ID })
	assertOnce(t, s.Goals(), func(r model.Goal) bool { return r.ID == goal.ID })
	assertOnce(t, s.GoalSteps(), func(r model.GoalStep) bool { return r.ID == step.ID })
	assertOnce(t, s.VisionItems(), func(r model.VisionItem) bool { return r.ID == item.ID })

	for _, got := range []struct {
		id, owner string
		created   time.Time
	}{
		{task.ID, task.UserID, task.CreatedAt},
		{habit.ID, habit.UserID, habit.CreatedAt},
		{goal.ID, goal.UserID, goal.CreatedAt},
		{item.ID, item.UserID, item.CreatedAt},
	} {
		assert.NotEmpty(t, got.id)
		assert.Equal(t, "user-1", got.owner)
		assert.False(t, got.created.IsZero())
	}
	assert.Equal(t, goal.ID, step.GoalID)
}

func assertOnce[T any](t *testing.T, rows []T, match func(T) bool) {
	t.Helper()
	n := 0
	for _, r := range rows {
		if match(r) {
			n++
		}
	}
	assert.Equal(t, 1, n)
}

func TestMutationsRequireIdentity(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	s := New(b)

	_, err := s.CreateTask(ctx, model.Task{Title: "x"})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.ErrorIs(t, s.UpdateGoal(ctx, "g", model.GoalPatch{}), ErrNotAuthenticated)
	assert.ErrorIs(t, s.DeleteVisionItem(ctx, "v"), ErrNotAuthenticated)
	_, err = s.CompleteHabit(ctx, "h")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.ErrorIs(t, s.Load(ctx), ErrNotAuthenticated)

	_, inserts, _, _ := b.tasks.counts()
	assert.Zero(t, inserts)
}

func TestFailedMutationsLeaveMirrorAlone(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	s := newSignedInStore(t, b)

	task, err := s.CreateTask(ctx, model.Task{Title: "Pay rent"})
	require.NoError(t, err)

	b.tasks.insertErr = errBoom
	_, err = s.CreateTask(ctx, model.Task{Title: "Second"})
	assert.ErrorIs(t, err, errBoom)
	assert.Len(t, s.Tasks(), 1)

	b.tasks.updateErr = errBoom
	err = s.UpdateTask(ctx, task.ID, model.TaskPatch{Title: model.Ptr("Changed")})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, "Pay rent", s.Tasks()[0].Title)

	b.tasks.deleteErr = errBoom
	assert.ErrorIs(t, s.DeleteTask(ctx, task.ID), errBoom)
	assert.Len(t, s.Tasks(), 1)
}

func TestInvalidPatchIsNotSent(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	s := newSignedInStore(t, b)
	goal, err := s.CreateGoal(ctx, model.Goal{Title: "Marathon"})
	require.NoError(t, err)

	err = s.UpdateGoal(ctx, goal.ID, model.GoalPatch{Progress: model.Ptr(150)})
	var verr model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "progress", verr.Field)

	_, _, updates, _ := b.goals.counts()
	assert.Zero(t, updates)
}

func TestUpdateMergesOnlySubmittedFields(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	s := newSignedInStore(t, b)

	item, err := s.CreateVisionItem(ctx, model.VisionItem{Quote: model.Ptr("Dream big"), PositionX: 10, PositionY: 20})
	require.NoError(t, err)

	require.NoError(t, s.UpdateVisionItem(ctx, item.ID, model.VisionItemPatch{PositionX: model.Ptr(300)}))
	assert.Equal(t, map[string]any{"position_x": 300}, b.vision.lastFields)

	got := s.VisionItems()[0]
	assert.Equal(t, 300, got.PositionX)
	assert.Equal(t, 20, got.PositionY)
	assert.Equal(t, "Dream big", *got.Quote)
}

func TestDeleteGoalDropsItsSteps(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	s := newSignedInStore(t, b)

	goal, err := s.CreateGoal(ctx, model.Goal{Title: "Marathon"})
	require.NoError(t, err)
	other, err := s.CreateGoal(ctx, model.Goal{Title: "Learn Go"})
	require.NoError(t, err)
	for _, title := range []string{"Buy shoes", "Run 5k", "Run 10k"} {
		_, err := s.CreateGoalStep(ctx, goal.ID, title)
		require.NoError(t, err)
	}
	kept, err := s.CreateGoalStep(ctx, other.ID, "Tour")
	require.NoError(t, err)

	require.NoError(t, s.DeleteGoal(ctx, goal.ID))

	assert.Empty(t, s.StepsForGoal(goal.ID))
	require.Len(t, s.GoalSteps(), 1)
	assert.Equal(t, kept.ID, s.GoalSteps()[0].ID)
	require.Len(t, s.Goals(), 1)

	_, _, _, goalDeletes := b.goals.counts()
	_, _, _, stepDeletes := b.steps.counts()
	assert.Equal(t, 1, goalDeletes)
	assert.Zero(t, stepDeletes)
}

func TestGoalStepUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	s := newSignedInStore(t, b)

	goal, err := s.CreateGoal(ctx, model.Goal{Title: "Marathon"})
	require.NoError(t, err)
	step, err := s.CreateGoalStep(ctx, goal.ID, "Buy shoes")
	require.NoError(t, err)

	require.NoError(t, s.UpdateGoalStep(ctx, step.ID, model.GoalStepPatch{IsCompleted: model.Ptr(true)}))
	assert.True(t, s.GoalSteps()[0].IsCompleted)
	assert.Equal(t, "Buy shoes", s.GoalSteps()[0].Title)

	require.NoError(t, s.DeleteGoalStep(ctx, step.ID))
	assert.Empty(t, s.GoalSteps())
}

func TestSignOutClearsEverything(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	s := newSignedInStore(t, b)

	_, err := s.CreateTask(ctx, model.Task{Title: "Pay rent"})
	require.NoError(t, err)
	_, err = s.CreateHabit(ctx, model.Habit{Name: "Read"})
	require.NoError(t, err)
	goal, err := s.CreateGoal(ctx, model.Goal{Title: "Marathon"})
	require.NoError(t, err)
	_, err = s.CreateGoalStep(ctx, goal.ID, "Buy shoes")
	require.NoError(t, err)
	_, err = s.CreateVisionItem(ctx, model.VisionItem{Quote: model.Ptr("Dream big")})
	require.NoError(t, err)

	b.signOutErr = errBoom
	assert.ErrorIs(t, s.SignOut(ctx), errBoom)

	snap := s.Snapshot()
	assert.Nil(t, snap.Identity)
	assert.Empty(t, snap.Tasks)
	assert.Empty(t, snap.Habits)
	assert.Empty(t, snap.Goals)
	assert.Empty(t, snap.GoalSteps)
	assert.Empty(t, snap.VisionItems)
	assert.Equal(t, Anonymous, s.Status())
}

func TestSignOutWhenAnonymous(t *testing.T) {
	b := newFakeBackend()
	b.signOutErr = backend.ErrNotAuthenticated
	s := New(b)
	assert.NoError(t, s.SignOut(context.Background()))
}

func TestLateResponseAfterSignOutIsDropped(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	s := newSignedInStore(t, b)

	b.tasks.onInsert = func() {
		require.NoError(t, s.SignOut(ctx))
	}
	_, err := s.CreateTask(ctx, model.Task{Title: "Pay rent"})
	require.NoError(t, err)

	assert.Empty(t, s.Tasks())
	assert.Nil(t, s.Identity())
}

func TestCreateRacingLoadKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	s := newSignedInStore(t, b)

	b.tasks.onInsert = func() {
		require.NoError(t, s.Load(ctx))
	}
	task, err := s.CreateTask(ctx, model.Task{Title: "Pay rent"})
	require.NoError(t, err)
	assertOnce(t, s.Tasks(), func(r model.Task) bool { return r.ID == task.ID })

	goal, err := s.CreateGoal(ctx, model.Goal{Title: "Marathon"})
	require.NoError(t, err)
	b.steps.onInsert = func() {
		require.NoError(t, s.Load(ctx))
	}
	step, err := s.CreateGoalStep(ctx, goal.ID, "Buy shoes")
	require.NoError(t, err)
	assertOnce(t, s.GoalSteps(), func(r model.GoalStep) bool { return r.ID == step.ID })
	assert.Len(t, s.Tasks(), 1)
	assert.Len(t, s.Goals(), 1)
}

func TestIdentitySwitchReloads(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	s := newSignedInStore(t, b)

	_, err := s.CreateHabit(ctx, model.Habit{Name: "Read"})
	require.NoError(t, err)
	b.habits.rows = nil

	b.mu.Lock()
	b.user = backend.User{ID: "user-2", Email: "bob@example.com"}
	b.mu.Unlock()
	b.emit(backend.EventSignedIn, b.session("session-bob"))

	require.NotNil(t, s.Identity())
	assert.Equal(t, "user-2", s.Identity().ID)
	assert.Empty(t, s.Habits())
	selects, _, _, _ := b.habits.counts()
	assert.Equal(t, 2, selects)
}

func TestPartialLoadFailure(t *testing.T) {
	b := newFakeBackend()
	b.tasks.rows = []model.Task{{ID: "t1", UserID: "user-1", Title: "Pay rent"}}
	b.habits.selectErr = errBoom
	b.vision.rows = []model.VisionItem{{ID: "v1", UserID: "user-1", Quote: model.Ptr("Dream big")}}
	s := newSignedInStore(t, b)

	assert.Len(t, s.Tasks(), 1)
	assert.Len(t, s.VisionItems(), 1)
	assert.Empty(t, s.Habits())

	err := s.Load(context.Background())
	assert.ErrorIs(t, err, errBoom)
	assert.ErrorContains(t, err, "load habits")
	assert.NotContains(t, err.Error(), "load tasks")
}

func TestGoalStepsLoadIsScopedToGoals(t *testing.T) {
	b := newFakeBackend()
	b.goals.rows = []model.Goal{
		{ID: "g1", UserID: "user-1", Title: "Marathon"},
		{ID: "g2", UserID: "user-1", Title: "Learn Go"},
	}
	b.steps.rows = []model.GoalStep{
		{ID: "s1", GoalID: "g1", Title: "Buy shoes"},
		{ID: "s2", GoalID: "g-foreign", Title: "Someone else's"},
	}
	s := newSignedInStore(t, b)

	assert.Equal(t, []string{"g1", "g2"}, b.steps.goalIDs)
	require.Len(t, s.GoalSteps(), 1)
	assert.Equal(t, "s1", s.GoalSteps()[0].ID)
}

func TestGoalsFailureSkipsSteps(t *testing.T) {
	b := newFakeBackend()
	b.goals.selectErr = errBoom
	s := newSignedInStore(t, b)

	selects, _, _, _ := b.steps.counts()
	assert.Zero(t, selects)
	assert.ErrorContains(t, s.Load(context.Background()), "load goal steps: skipped")
}

func TestCompleteHabitTwiceSameDay(t *testing.T) {
	ctx := context.Background()
	clock := &fixedClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	b := newFakeBackend()
	s := newSignedInStore(t, b, WithClock(clock.Now))

	habit, err := s.CreateHabit(ctx, model.Habit{Name: "Read"})
	require.NoError(t, err)

	first, err := s.CompleteHabit(ctx, habit.ID)
	require.NoError(t, err)
	second, err := s.CompleteHabit(ctx, habit.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Streak)
	assert.Equal(t, first, second)
	_, _, updates, _ := b.habits.counts()
	assert.Equal(t, 1, updates)

	clock.now = clock.now.AddDate(0, 0, 5)
	third, err := s.CompleteHabit(ctx, habit.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, third.Streak)
	assert.Equal(t, "2025-03-15", *s.Habits()[0].LastCompleted)
}

func TestCompleteHabitConsecutivePolicy(t *testing.T) {
	ctx := context.Background()
	clock := &fixedClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	b := newFakeBackend()
	s := newSignedInStore(t, b, WithClock(clock.Now), WithStreakPolicy(ConsecutiveStreak))

	habit, err := s.CreateHabit(ctx, model.Habit{Name: "Read"})
	require.NoError(t, err)

	for day := 0; day < 3; day++ {
		h, err := s.CompleteHabit(ctx, habit.ID)
		require.NoError(t, err)
		assert.Equal(t, day+1, h.Streak)
		clock.now = clock.now.AddDate(0, 0, 1)
	}

	clock.now = clock.now.AddDate(0, 0, 2)
	h, err := s.CompleteHabit(ctx, habit.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, h.Streak)
}

func TestUpdateHabitCannotSetStreak(t *testing.T) {
	ctx := context.Background()
	clock := &fixedClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	b := newFakeBackend()
	s := newSignedInStore(t, b, WithClock(clock.Now))

	habit, err := s.CreateHabit(ctx, model.Habit{Name: "Read"})
	require.NoError(t, err)
	_, err = s.CompleteHabit(ctx, habit.ID)
	require.NoError(t, err)

	var verr model.ValidationError
	err = s.UpdateHabit(ctx, habit.ID, model.HabitPatch{Streak: model.Ptr(0)})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "streak", verr.Field)
	err = s.UpdateHabit(ctx, habit.ID, model.HabitPatch{LastCompleted: model.Ptr("2025-01-01")})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "last_completed", verr.Field)

	_, _, updates, _ := b.habits.counts()
	assert.Equal(t, 1, updates)
	assert.Equal(t, 1, s.Habits()[0].Streak)
	assert.Equal(t, "2025-03-10", *s.Habits()[0].LastCompleted)

	require.NoError(t, s.UpdateHabit(ctx, habit.ID, model.HabitPatch{Name: model.Ptr("Read more")}))
	assert.Equal(t, "Read more", s.Habits()[0].Name)
	assert.Equal(t, 1, s.Habits()[0].Streak)
}

func TestCompleteUnknownHabit(t *testing.T) {
	s := newSignedInStore(t, newFakeBackend())
	_, err := s.CompleteHabit(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdvanceTask(t *testing.T) {
	ctx := context.Background()
	s := newSignedInStore(t, newFakeBackend())
	task, err := s.CreateTask(ctx, model.Task{Title: "Pay rent"})
	require.NoError(t, err)

	for _, want := range []model.TaskStatus{model.StatusInProgress, model.StatusCompleted, model.StatusNotStarted} {
		got, err := s.AdvanceTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, want, s.Tasks()[0].Status)
	}

	_, err = s.AdvanceTask(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveProfileUpdatesDisplayName(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	s := newSignedInStore(t, b)

	saved, err := s.SaveProfile(ctx, ProfileSettings{FullName: " Ann Lee ", AvatarURL: ""})
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", saved.FullName)
	assert.Empty(t, saved.AvatarURL)
	assert.Equal(t, "Ann Lee", s.Identity().DisplayName)

	got, err := s.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestCloseUnsubscribes(t *testing.T) {
	b := newFakeBackend()
	s := New(b)
	require.NoError(t, s.Init(context.Background()))
	require.Equal(t, 1, b.listenerCount())
	s.Close()
	assert.Zero(t, b.listenerCount())
	s.Close()
}

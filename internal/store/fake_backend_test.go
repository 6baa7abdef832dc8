package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lifeplanner/internal/backend"
	"lifeplanner/internal/model"
)

var createdAt = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

// fakeTable is an in-memory backend table that counts calls and can be told
// to fail.
type fakeTable[T any] struct {
	mu        sync.Mutex
	rows      []T
	stamp     func(row *T, n int)
	onInsert  func()
	selectErr error
	insertErr error
	updateErr error
	deleteErr error

	selects    int
	inserts    int
	updates    int
	deletes    int
	lastFields map[string]any
}

func (t *fakeTable[T]) Select(context.Context) ([]T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selects++
	if t.selectErr != nil {
		return nil, t.selectErr
	}
	return append([]T(nil), t.rows...), nil
}

func (t *fakeTable[T]) Insert(_ context.Context, row T) (T, error) {
	t.mu.Lock()
	t.inserts++
	if t.insertErr != nil {
		t.mu.Unlock()
		var zero T
		return zero, t.insertErr
	}
	t.stamp(&row, t.inserts)
	t.rows = append(t.rows, row)
	hook := t.onInsert
	t.mu.Unlock()
	if hook != nil {
		hook()
	}
	return row, nil
}

func (t *fakeTable[T]) Update(_ context.Context, _ string, fields map[string]any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.updates++
	t.lastFields = fields
	return t.updateErr
}

func (t *fakeTable[T]) Delete(context.Context, string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deletes++
	return t.deleteErr
}

func (t *fakeTable[T]) counts() (selects, inserts, updates, deletes int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.selects, t.inserts, t.updates, t.deletes
}

type fakeSteps struct {
	fakeTable[model.GoalStep]
	goalIDs []string
}

func (t *fakeSteps) Select(_ context.Context, goalIDs []string) ([]model.GoalStep, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selects++
	t.goalIDs = goalIDs
	if t.selectErr != nil {
		return nil, t.selectErr
	}
	allowed := make(map[string]bool, len(goalIDs))
	for _, id := range goalIDs {
		allowed[id] = true
	}
	var out []model.GoalStep
	for _, step := range t.rows {
		if allowed[step.GoalID] {
			out = append(out, step)
		}
	}
	return out, nil
}

type fakeProfiles struct {
	mu      sync.Mutex
	profile model.Profile
}

func (p *fakeProfiles) Get(context.Context) (model.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profile, nil
}

func (p *fakeProfiles) Upsert(_ context.Context, profile model.Profile) (model.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profile = profile
	return profile, nil
}

// fakeBackend notifies listeners synchronously, like backend.Client.
type fakeBackend struct {
	mu         sync.Mutex
	user       backend.User
	current    *backend.Session
	signIns    int
	signUps    []backend.SignUpRequest
	signInErr  error
	signOutErr error
	listeners  map[int]backend.AuthListener
	nextID     int

	tasks    *fakeTable[model.Task]
	habits   *fakeTable[model.Habit]
	goals    *fakeTable[model.Goal]
	steps    *fakeSteps
	vision   *fakeTable[model.VisionItem]
	profiles *fakeProfiles
}

func newFakeBackend() *fakeBackend {
	b := &fakeBackend{
		user:      backend.User{ID: "user-1", Email: "ann@example.com", FullName: "Ann"},
		listeners: make(map[int]backend.AuthListener),
		profiles:  &fakeProfiles{},
	}
	owner := func() string {
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.user.ID
	}
	b.tasks = &fakeTable[model.Task]{stamp: func(t *model.Task, n int) {
		t.ID, t.UserID, t.CreatedAt = fmt.Sprintf("task-%d", n), owner(), createdAt
		if t.Priority == "" {
			t.Priority = model.PriorityMedium
		}
		if t.Status == "" {
			t.Status = model.StatusNotStarted
		}
	}}
	b.habits = &fakeTable[model.Habit]{stamp: func(h *model.Habit, n int) {
		h.ID, h.UserID, h.CreatedAt = fmt.Sprintf("habit-%d", n), owner(), createdAt
	}}
	b.goals = &fakeTable[model.Goal]{stamp: func(g *model.Goal, n int) {
		g.ID, g.UserID, g.CreatedAt = fmt.Sprintf("goal-%d", n), owner(), createdAt
	}}
	b.steps = &fakeSteps{fakeTable: fakeTable[model.GoalStep]{stamp: func(s *model.GoalStep, n int) {
		s.ID, s.CreatedAt = fmt.Sprintf("step-%d", n), createdAt
	}}}
	b.vision = &fakeTable[model.VisionItem]{stamp: func(v *model.VisionItem, n int) {
		v.ID, v.UserID, v.CreatedAt = fmt.Sprintf("vision-%d", n), owner(), createdAt
	}}
	return b
}

func (b *fakeBackend) session(id string) *backend.Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &backend.Session{ID: id, Token: "token-" + id, User: b.user}
}

func (b *fakeBackend) emit(event backend.AuthEvent, session *backend.Session) {
	b.mu.Lock()
	listeners := make([]backend.AuthListener, 0, len(b.listeners))
	for _, fn := range b.listeners {
		listeners = append(listeners, fn)
	}
	b.mu.Unlock()
	for _, fn := range listeners {
		fn(event, session)
	}
}

func (b *fakeBackend) SignUp(_ context.Context, req backend.SignUpRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.signUps = append(b.signUps, req)
	return nil
}

func (b *fakeBackend) SignIn(context.Context, string, string) (*backend.Session, error) {
	b.mu.Lock()
	if b.signInErr != nil {
		b.mu.Unlock()
		return nil, b.signInErr
	}
	b.signIns++
	n := b.signIns
	b.mu.Unlock()

	session := b.session(fmt.Sprintf("session-%d", n))
	b.mu.Lock()
	b.current = session
	b.mu.Unlock()
	b.emit(backend.EventSignedIn, session)
	return session, nil
}

func (b *fakeBackend) SignOut(context.Context) error {
	b.mu.Lock()
	b.current = nil
	err := b.signOutErr
	b.mu.Unlock()
	b.emit(backend.EventSignedOut, nil)
	return err
}

func (b *fakeBackend) CurrentSession(context.Context) (*backend.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current, nil
}

func (b *fakeBackend) OnAuthStateChange(fn backend.AuthListener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners, id)
	}
}

func (b *fakeBackend) listenerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

func (b *fakeBackend) Tasks() backend.Table[model.Task] { return b.tasks }
func (b *fakeBackend) Habits() backend.Table[model.Habit] { return b.habits }
func (b *fakeBackend) Goals() backend.Table[model.Goal] { return b.goals }
func (b *fakeBackend) GoalSteps() backend.StepTable { return b.steps }
func (b *fakeBackend) VisionBoard() backend.Table[model.VisionItem] { return b.vision }
func (b *fakeBackend) Profiles() backend.ProfileTable { return b.profiles }

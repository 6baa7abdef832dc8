// Package store keeps the signed-in identity and an in-memory mirror of the
// user's tasks, habits, goals, goal steps and vision board. Every mutation
// goes to the backend first; the mirror is patched only when the backend
// accepts it.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"lifeplanner/internal/backend"
	"lifeplanner/internal/logging"
	"lifeplanner/internal/model"
)

var (
	// ErrNotAuthenticated is returned by operations that need an identity.
	ErrNotAuthenticated = backend.ErrNotAuthenticated
	// ErrNotFound is returned when an id is not present in the mirror.
	ErrNotFound = errors.New("record not found")
)

// Backend is the remote service the store mirrors. *backend.Client
// implements it.
type Backend interface {
	SignUp(ctx context.Context, req backend.SignUpRequest) error
	SignIn(ctx context.Context, email, password string) (*backend.Session, error)
	SignOut(ctx context.Context) error
	CurrentSession(ctx context.Context) (*backend.Session, error)
	OnAuthStateChange(fn backend.AuthListener) func()

	Tasks() backend.Table[model.Task]
	Habits() backend.Table[model.Habit]
	Goals() backend.Table[model.Goal]
	GoalSteps() backend.StepTable
	VisionBoard() backend.Table[model.VisionItem]
	Profiles() backend.ProfileTable
}

// Status is the identity lifecycle state.
type Status int

const (
	Anonymous Status = iota
	Authenticating
	Authenticated
)

func (s Status) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Identity is the signed-in account.
type Identity struct {
	ID          string
	Email       string
	DisplayName string
}

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = logging.OrNop(l) }
}

// WithClock sets the source of "today" for habit completion and summaries.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRedirectURL sets where the email verification link points.
func WithRedirectURL(url string) Option {
	return func(s *Store) { s.redirectURL = url }
}

func WithStreakPolicy(p StreakPolicy) Option {
	return func(s *Store) { s.streak = p }
}

// WithLoadTimeout bounds bulk loads started by session change events.
func WithLoadTimeout(d time.Duration) Option {
	return func(s *Store) { s.loadTimeout = d }
}

// Store is the per-client application state. Create one with New, call Init
// once, and Close when done.
type Store struct {
	backend     Backend
	log         *zap.Logger
	now         func() time.Time
	redirectURL string
	streak      StreakPolicy
	loadTimeout time.Duration

	mu            sync.RWMutex
	status        Status
	identity      *Identity
	sessionID     string
	loadedSession string
	tasks         []model.Task
	habits        []model.Habit
	goals         []model.Goal
	steps         []model.GoalStep
	vision        []model.VisionItem
	unsubscribe   func()
}

func New(b Backend, opts ...Option) *Store {
	s := &Store{
		backend:     b,
		log:         zap.NewNop(),
		now:         time.Now,
		redirectURL: "/",
		streak:      NaiveStreak,
		loadTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status reports the identity lifecycle state.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Identity returns the signed-in account, or nil.
func (s *Store) Identity() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}

func (s *Store) Tasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Task(nil), s.tasks...)
}

func (s *Store) Habits() []model.Habit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Habit(nil), s.habits...)
}

func (s *Store) Goals() []model.Goal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Goal(nil), s.goals...)
}

func (s *Store) GoalSteps() []model.GoalStep {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.GoalStep(nil), s.steps...)
}

// StepsForGoal returns the steps of one goal in mirror order.
func (s *Store) StepsForGoal(goalID string) []model.GoalStep {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.GoalStep
	for _, step := range s.steps {
		if step.GoalID == goalID {
			out = append(out, step)
		}
	}
	return out
}

func (s *Store) VisionItems() []model.VisionItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.VisionItem(nil), s.vision...)
}

// Snapshot is a consistent copy of every collection.
type Snapshot struct {
	Identity    *Identity
	Tasks       []model.Task
	Habits      []model.Habit
	Goals       []model.Goal
	GoalSteps   []model.GoalStep
	VisionItems []model.VisionItem
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Tasks:       append([]model.Task(nil), s.tasks...),
		Habits:      append([]model.Habit(nil), s.habits...),
		Goals:       append([]model.Goal(nil), s.goals...),
		GoalSteps:   append([]model.GoalStep(nil), s.steps...),
		VisionItems: append([]model.VisionItem(nil), s.vision...),
	}
	if s.identity != nil {
		id := *s.identity
		snap.Identity = &id
	}
	return snap
}

// session returns the current session id, or ErrNotAuthenticated.
func (s *Store) session() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return "", ErrNotAuthenticated
	}
	return s.sessionID, nil
}

// apply runs fn under the write lock if the session is still sessionID.
// Responses that arrive after sign-out or an identity switch are dropped.
func (s *Store) apply(sessionID string, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil || s.sessionID != sessionID {
		return false
	}
	fn()
	return true
}

func (s *Store) failed(op string, err error) error {
	s.log.Warn("operation failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}

// clearLocked empties identity and every collection. Caller holds s.mu.
func (s *Store) clearLocked() {
	s.status = Anonymous
	s.identity = nil
	s.sessionID = ""
	s.loadedSession = ""
	s.clearCollectionsLocked()
}

func (s *Store) clearCollectionsLocked() {
	s.tasks = []model.Task{}
	s.habits = []model.Habit{}
	s.goals = []model.Goal{}
	s.steps = []model.GoalStep{}
	s.vision = []model.VisionItem{}
}

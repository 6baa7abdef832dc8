package backend

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"lifeplanner/internal/logging"
	"lifeplanner/internal/model"
	"lifeplanner/internal/repository"
)

const minPasswordLength = 6

// Notifier delivers email verification links.
type Notifier interface {
	SendVerification(ctx context.Context, email, link string) error
}

// LogNotifier writes verification links to the log instead of mailing them.
type LogNotifier struct {
	Log *zap.Logger
}

func (n LogNotifier) SendVerification(_ context.Context, email, link string) error {
	logging.OrNop(n.Log).Info("verification link issued", zap.String("email", email), zap.String("link", link))
	return nil
}

// Server is the shared backend: accounts, sessions and the owned tables.
// Clients created from it carry their own session.
type Server struct {
	users    *repository.UserRepository
	sessions *repository.SessionRepository
	tasks    *repository.TaskRepository
	habits   *repository.HabitRepository
	goals    *repository.GoalRepository
	vision   *repository.VisionRepository

	notifier         Notifier
	log              *zap.Logger
	now              func() time.Time
	sessionTTL       time.Duration
	requireVerified  bool
	passwordHashCost int
}

type ServerOption func(*Server)

func WithNotifier(n Notifier) ServerOption {
	return func(s *Server) { s.notifier = n }
}

func WithLogger(l *zap.Logger) ServerOption {
	return func(s *Server) { s.log = logging.OrNop(l) }
}

func WithClock(now func() time.Time) ServerOption {
	return func(s *Server) { s.now = now }
}

func WithSessionTTL(ttl time.Duration) ServerOption {
	return func(s *Server) { s.sessionTTL = ttl }
}

// WithEmailVerification controls whether sign-in requires a confirmed email.
func WithEmailVerification(required bool) ServerOption {
	return func(s *Server) { s.requireVerified = required }
}

// WithPasswordHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithPasswordHashCost(cost int) ServerOption {
	return func(s *Server) { s.passwordHashCost = cost }
}

func NewServer(db *gorm.DB, opts ...ServerOption) *Server {
	s := &Server{
		users:            repository.NewUserRepository(db),
		sessions:         repository.NewSessionRepository(db),
		tasks:            repository.NewTaskRepository(db),
		habits:           repository.NewHabitRepository(db),
		goals:            repository.NewGoalRepository(db),
		vision:           repository.NewVisionRepository(db),
		log:              zap.NewNop(),
		now:              time.Now,
		sessionTTL:       7 * 24 * time.Hour,
		requireVerified:  true,
		passwordHashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = LogNotifier{Log: s.log}
	}
	return s
}

// NewClient returns a client without a session.
func (s *Server) NewClient() *Client {
	return &Client{srv: s, listeners: make(map[int]AuthListener)}
}

// SignUpRequest carries account creation input.
type SignUpRequest struct {
	Email      string
	Password   string
	FullName   string
	RedirectTo string
}

func (s *Server) signUp(ctx context.Context, req SignUpRequest) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !strings.Contains(email, "@") || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
		return ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLength {
		return ErrWeakPassword
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.passwordHashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	token := newToken()
	user := model.User{
		Email:             email,
		PasswordHash:      string(hash),
		FullName:          strings.TrimSpace(req.FullName),
		VerificationToken: &token,
	}
	if !s.requireVerified {
		now := s.now()
		user.VerifiedAt = &now
		user.VerificationToken = nil
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrEmailTaken
		}
		return err
	}
	s.log.Info("account created", zap.String("user", user.ID), zap.Bool("verified", user.Verified()))

	if user.VerificationToken == nil {
		return nil
	}
	link, err := verificationLink(req.RedirectTo, token)
	if err != nil {
		return err
	}
	if err := s.notifier.SendVerification(ctx, email, link); err != nil {
		return fmt.Errorf("send verification: %w", err)
	}
	return nil
}

// Verify confirms the email address behind a verification token.
func (s *Server) Verify(ctx context.Context, token string) error {
	user, err := s.users.Verify(ctx, strings.TrimSpace(token), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	s.log.Info("email verified", zap.String("user", user.ID))
	return nil
}

func (s *Server) signIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if s.requireVerified && !user.Verified() {
		return nil, ErrEmailNotConfirmed
	}

	now := s.now()
	row := model.Session{
		UserID:    user.ID,
		Token:     newToken(),
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, &row); err != nil {
		return nil, err
	}
	return newSession(row, *user), nil
}

// resolve returns the live session for token, or ErrInvalidToken.
func (s *Server) resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	row, err := s.sessions.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if row.Expired(s.now()) {
		return nil, ErrInvalidToken
	}
	user, err := s.users.FindByID(ctx, row.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return newSession(*row, *user), nil
}

func (s *Server) revoke(ctx context.Context, token string) error {
	return s.sessions.DeleteByToken(ctx, token)
}

// PurgeExpiredSessions drops sessions past their expiry.
func (s *Server) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("expired sessions purged", zap.Int64("count", n))
	}
	return n, nil
}

func verificationLink(redirectTo, token string) (string, error) {
	if redirectTo == "" {
		redirectTo = "/"
	}
	u, err := url.Parse(redirectTo)
	if err != nil {
		return "", fmt.Errorf("parse redirect %q: %w", redirectTo, err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

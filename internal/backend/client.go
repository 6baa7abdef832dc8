package backend

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"lifeplanner/internal/model"
)

// AuthEvent names a session change.
type AuthEvent string

const (
	EventInitialSession AuthEvent = "INITIAL_SESSION"
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
)

// AuthListener receives session changes. Session is nil after sign-out.
type AuthListener func(event AuthEvent, session *Session)

// User is the identity attached to a session.
type User struct {
	ID       string
	Email    string
	FullName string
}

// Session is an authenticated sign-in.
type Session struct {
	ID        string
	Token     string
	User      User
	ExpiresAt time.Time
}

func newSession(row model.Session, user model.User) *Session {
	return &Session{
		ID:    row.ID,
		Token: row.Token,
		User: User{
			ID:       user.ID,
			Email:    user.Email,
			FullName: user.FullName,
		},
		ExpiresAt: row.ExpiresAt,
	}
}

// Client is one caller's view of the backend. It holds at most one session
// and scopes every table call to that session's user.
type Client struct {
	srv *Server

	mu        sync.Mutex
	token     string
	session   *Session
	listeners map[int]AuthListener
	nextID    int
}

// Restore seeds the client with a token issued earlier. The token is
// checked on the next CurrentSession call.
func (c *Client) Restore(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.session = nil
}

// Token returns the current session token, empty when signed out.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// OnAuthStateChange registers fn for sign-in and sign-out events and returns
// a function that removes it.
func (c *Client) OnAuthStateChange(fn AuthListener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Client) emit(event AuthEvent, session *Session) {
	c.mu.Lock()
	listeners := make([]AuthListener, 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(event, copySession(session))
	}
}

// SignUp creates an account. It does not sign the client in; the account
// must be verified through the emailed link first.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) error {
	return c.srv.signUp(ctx, req)
}

// SignIn opens a session and notifies listeners.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	session, err := c.srv.signIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.token = session.Token
	c.session = session
	c.mu.Unlock()

	c.srv.log.Info("signed in", zap.String("user", session.User.ID), zap.String("session", session.ID))
	c.emit(EventSignedIn, session)
	return copySession(session), nil
}

// SignOut revokes the session. Local state is cleared and listeners are
// notified even if revocation fails.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	c.token = ""
	c.session = nil
	c.mu.Unlock()

	var err error
	if token != "" {
		err = c.srv.revoke(ctx, token)
	}
	c.emit(EventSignedOut, nil)
	return err
}

// CurrentSession returns the live session, or nil when there is none.
// An expired or revoked token is dropped.
func (c *Client) CurrentSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token == "" {
		return nil, nil
	}

	session, err := c.srv.resolve(ctx, token)
	if errors.Is(err, ErrInvalidToken) {
		c.mu.Lock()
		if c.token == token {
			c.token = ""
			c.session = nil
		}
		c.mu.Unlock()
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()
	return copySession(session), nil
}

// userID authorizes a table call against the stored token.
func (c *Client) userID(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token == "" {
		return "", ErrNotAuthenticated
	}
	session, err := c.srv.resolve(ctx, token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return "", ErrNotAuthenticated
		}
		return "", err
	}
	return session.User.ID, nil
}

func copySession(s *Session) *Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

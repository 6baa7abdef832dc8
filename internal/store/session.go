package store

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"lifeplanner/internal/backend"
	"lifeplanner/internal/model"
)

// Init restores an existing session and subscribes to session changes.
//
// The subscription is the single trigger for bulk loads. The restored
// session is fed into the same handler as an initial event; a session that
// was already loaded is never loaded twice.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	if s.unsubscribe == nil {
		s.unsubscribe = s.backend.OnAuthStateChange(s.onAuthStateChange)
	}
	s.mu.Unlock()

	session, err := s.backend.CurrentSession(ctx)
	if err != nil {
		return s.failed("restore session", err)
	}
	s.handleAuthChange(ctx, backend.EventInitialSession, session)
	return nil
}

// Close stops listening to session changes.
func (s *Store) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (s *Store) onAuthStateChange(event backend.AuthEvent, session *backend.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), s.loadTimeout)
	defer cancel()
	s.handleAuthChange(ctx, event, session)
}

func (s *Store) handleAuthChange(ctx context.Context, event backend.AuthEvent, session *backend.Session) {
	if session == nil {
		s.mu.Lock()
		if event == backend.EventSignedOut || s.identity == nil {
			s.clearLocked()
		}
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	if s.identity != nil && s.identity.ID != session.User.ID {
		s.clearCollectionsLocked()
	}
	s.identity = &Identity{
		ID:          session.User.ID,
		Email:       session.User.Email,
		DisplayName: session.User.FullName,
	}
	s.status = Authenticated
	s.sessionID = session.ID
	duplicate := s.loadedSession == session.ID
	if !duplicate {
		s.loadedSession = session.ID
	}
	s.mu.Unlock()

	if duplicate {
		s.log.Debug("session already loaded", zap.String("event", string(event)), zap.String("session", session.ID))
		return
	}
	s.log.Info("session active", zap.String("event", string(event)), zap.String("user", session.User.ID))
	if err := s.Load(ctx); err != nil {
		s.log.Warn("bulk load incomplete", zap.String("user", session.User.ID), zap.Error(err))
	}
}

// SignUp requests a new account. It does not sign in; the account becomes
// usable once the emailed verification link is followed.
func (s *Store) SignUp(ctx context.Context, email, password, displayName string) error {
	err := s.backend.SignUp(ctx, backend.SignUpRequest{
		Email:      strings.TrimSpace(email),
		Password:   password,
		FullName:   strings.TrimSpace(displayName),
		RedirectTo: s.redirectURL,
	})
	if err != nil {
		return s.failed("sign up", err)
	}
	return nil
}

// SignIn opens a session. On success the identity is set and all
// collections are loaded before SignIn returns.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	s.mu.Lock()
	if s.status == Anonymous {
		s.status = Authenticating
	}
	s.mu.Unlock()

	session, err := s.backend.SignIn(ctx, strings.TrimSpace(email), password)
	if err != nil {
		s.mu.Lock()
		if s.status == Authenticating {
			s.status = Anonymous
		}
		s.mu.Unlock()
		return s.failed("sign in", err)
	}
	// Backends that notify asynchronously are covered here; the handler
	// skips the load if the listener already ran.
	s.handleAuthChange(ctx, backend.EventSignedIn, session)
	return nil
}

// SignOut ends the session. Identity and every collection are cleared even
// when the backend call fails.
func (s *Store) SignOut(ctx context.Context) error {
	err := s.backend.SignOut(ctx)

	s.mu.Lock()
	s.clearLocked()
	s.mu.Unlock()

	if err != nil && !errors.Is(err, backend.ErrNotAuthenticated) {
		return s.failed("sign out", err)
	}
	return nil
}

// Profile fetches the account settings row.
func (s *Store) Profile(ctx context.Context) (ProfileSettings, error) {
	if _, err := s.session(); err != nil {
		return ProfileSettings{}, err
	}
	p, err := s.backend.Profiles().Get(ctx)
	if err != nil {
		return ProfileSettings{}, s.failed("load profile", err)
	}
	return profileSettings(p.FullName, p.AvatarURL), nil
}

// SaveProfile stores the account settings and refreshes the display name.
func (s *Store) SaveProfile(ctx context.Context, settings ProfileSettings) (ProfileSettings, error) {
	sessionID, err := s.session()
	if err != nil {
		return ProfileSettings{}, err
	}
	saved, err := s.backend.Profiles().Upsert(ctx, settings.row())
	if err != nil {
		return ProfileSettings{}, s.failed("save profile", err)
	}
	out := profileSettings(saved.FullName, saved.AvatarURL)
	s.apply(sessionID, func() {
		if out.FullName != "" {
			s.identity.DisplayName = out.FullName
		}
	})
	return out, nil
}

// ProfileSettings are the editable account fields.
type ProfileSettings struct {
	FullName  string
	AvatarURL string
}

func profileSettings(fullName, avatarURL *string) ProfileSettings {
	var p ProfileSettings
	if fullName != nil {
		p.FullName = *fullName
	}
	if avatarURL != nil {
		p.AvatarURL = *avatarURL
	}
	return p
}

func (p ProfileSettings) row() model.Profile {
	var row model.Profile
	if name := strings.TrimSpace(p.FullName); name != "" {
		row.FullName = &name
	}
	if avatar := strings.TrimSpace(p.AvatarURL); avatar != "" {
		row.AvatarURL = &avatar
	}
	return row
}

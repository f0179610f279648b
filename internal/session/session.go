// Package session tracks citizen kiosk sessions and issues the bearer
// tokens that authenticate follow-up requests.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	dErrors "identia/pkg/domain-errors"
	"identia/pkg/platform/sentinel"
)

// Session is one citizen interaction with the assistant.
type Session struct {
	ID           string    `json:"session_id"`
	State        string    `json:"state"`
	ProcedureID  string    `json:"procedure_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// Store persists sessions.
type Store interface {
	Save(ctx context.Context, session Session) error
	FindByID(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

// Service manages session lifecycle.
type Service struct {
	store  Store
	tokens *JWTService
	logger *slog.Logger
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a session Service. Tokens expire after ttl.
func NewService(store Store, tokens *JWTService, ttl time.Duration, opts ...Option) *Service {
	s := &Service{
		store:  store,
		tokens: tokens,
		logger: slog.Default(),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens a new session and issues its bearer token.
func (s *Service) Start(ctx context.Context) (Session, string, error) {
	now := s.now()
	session := Session{
		ID:           uuid.NewString(),
		State:        "active",
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := s.store.Save(ctx, session); err != nil {
		return Session{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "save session")
	}

	token, err := s.tokens.Generate(session.ID, "", s.ttl)
	if err != nil {
		return Session{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "sign session token")
	}

	s.logger.Info("session started", "session_id", session.ID)
	return session, token, nil
}

// Get returns a session by id.
func (s *Service) Get(ctx context.Context, id string) (Session, error) {
	session, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Session{}, dErrors.New(dErrors.CodeNotFound, "Sesión no encontrada")
		}
		return Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "find session")
	}
	return session, nil
}

// Touch bumps the session's last-activity time. Unknown sessions are ignored
// so stale clients cannot error out hot paths.
func (s *Service) Touch(ctx context.Context, id string) {
	session, err := s.store.FindByID(ctx, id)
	if err != nil {
		return
	}
	session.LastActivity = s.now()
	if err := s.store.Save(ctx, session); err != nil {
		s.logger.Warn("touch session", "session_id", id, "error", err)
	}
}

// BindProcedure associates a procedure with the session and issues a fresh
// token carrying the procedure claim.
func (s *Service) BindProcedure(ctx context.Context, sessionID, procedureID string) (string, error) {
	session, err := s.store.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "Sesión no encontrada")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "find session")
	}

	session.ProcedureID = procedureID
	session.LastActivity = s.now()
	if err := s.store.Save(ctx, session); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "save session")
	}

	token, err := s.tokens.Generate(sessionID, procedureID, s.ttl)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "sign session token")
	}
	return token, nil
}

// EnsureSession returns the session with the given id, creating it when the
// id is empty or unknown. Mirrors the tolerant behavior of procedure start:
// a citizen without a session gets one implicitly.
func (s *Service) EnsureSession(ctx context.Context, id string) (Session, error) {
	if id != "" {
		if session, err := s.store.FindByID(ctx, id); err == nil {
			return session, nil
		}
	}
	now := s.now()
	session := Session{
		ID:           id,
		State:        "active",
		CreatedAt:    now,
		LastActivity: now,
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if err := s.store.Save(ctx, session); err != nil {
		return Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "save session")
	}
	return session, nil
}

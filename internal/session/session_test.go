package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "identia/pkg/domain-errors"
)

func newTestService() *Service {
	return NewService(NewInMemoryStore(), NewJWTService("test-signing-key", "identia"), 30*time.Minute)
}

func TestStartIssuesValidToken(t *testing.T) {
	svc := newTestService()

	session, token, err := svc.Start(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "active", session.State)
	require.NotEmpty(t, token)

	claims, err := NewJWTService("test-signing-key", "identia").ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, claims.SessionID)
	assert.Empty(t, claims.ProcedureID)
}

func TestGetUnknownSession(t *testing.T) {
	svc := newTestService()

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestBindProcedureReissuesToken(t *testing.T) {
	svc := newTestService()
	session, _, err := svc.Start(context.Background())
	require.NoError(t, err)

	token, err := svc.BindProcedure(context.Background(), session.ID, "proc-99")
	require.NoError(t, err)

	claims, err := NewJWTService("test-signing-key", "identia").ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, claims.SessionID)
	assert.Equal(t, "proc-99", claims.ProcedureID)

	stored, err := svc.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, "proc-99", stored.ProcedureID)
}

func TestEnsureSessionCreatesWhenMissing(t *testing.T) {
	svc := newTestService()

	created, err := svc.EnsureSession(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	reused, err := svc.EnsureSession(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, reused.ID)
	assert.Equal(t, created.CreatedAt, reused.CreatedAt)

	adopted, err := svc.EnsureSession(context.Background(), "client-supplied-id")
	require.NoError(t, err)
	assert.Equal(t, "client-supplied-id", adopted.ID)
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	token, err := NewJWTService("key-one", "identia").Generate("sess-1", "", time.Minute)
	require.NoError(t, err)

	_, err = NewJWTService("key-two", "identia").ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := NewJWTService("test-signing-key", "identia")
	token, err := svc.Generate("sess-1", "", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestTouchUpdatesLastActivity(t *testing.T) {
	current := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	store := NewInMemoryStore()
	svc := NewService(store, NewJWTService("k", "identia"), time.Hour,
		WithClock(func() time.Time { return current }))

	session, _, err := svc.Start(context.Background())
	require.NoError(t, err)

	current = current.Add(5 * time.Minute)
	svc.Touch(context.Background(), session.ID)

	stored, err := store.FindByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, current, stored.LastActivity)
}

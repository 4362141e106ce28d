package identity_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendora/internal/identity"
	"vendora/pkg/domain"
	dErrors "vendora/pkg/domain-errors"
	"vendora/pkg/platform/audit"
	"vendora/pkg/platform/audit/publisher"
	auditmemory "vendora/pkg/platform/audit/store/memory"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := identity.NewTokenService("test-key", "vendora", time.Hour)
	actorID := uuid.New()

	token, err := svc.GenerateToken(actorID, "staff", "de")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, actorID.String(), claims.ActorID)
	assert.Equal(t, "staff", claims.Role)
	assert.Equal(t, "de", claims.Locale)
}

func TestTokenService_RejectsExpiredToken(t *testing.T) {
	svc := identity.NewTokenService("test-key", "vendora", -time.Minute)

	token, err := svc.GenerateToken(uuid.New(), "staff", "")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestTokenService_RejectsTokenSignedWithOtherKey(t *testing.T) {
	issuer := identity.NewTokenService("key-one", "vendora", time.Hour)
	verifier := identity.NewTokenService("key-two", "vendora", time.Hour)

	token, err := issuer.GenerateToken(uuid.New(), "staff", "")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func newLoginService(t *testing.T) (*identity.LoginService, *identity.MemoryCredentialStore, *auditmemory.Store) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	creds := identity.NewMemoryCredentialStore()
	auditStore := auditmemory.New()
	tokens := identity.NewTokenService("test-key", "vendora", time.Hour)
	return identity.NewLoginService(creds, tokens, publisher.New(auditStore, logger), logger), creds, auditStore
}

func TestLogin_ValidCredentialsIssueToken(t *testing.T) {
	svc, creds, auditStore := newLoginService(t)
	userID := domain.NewUserID()
	require.NoError(t, creds.Add(userID, "staff@venue.test", "s3cret", "staff", "en"))

	session, err := svc.Login(context.Background(), "staff@venue.test", "s3cret")

	require.NoError(t, err)
	assert.Equal(t, userID, session.UserID)
	assert.Equal(t, "staff", session.Role)
	assert.NotEmpty(t, session.AccessToken)

	events, _ := auditStore.ListRecent(context.Background(), 10)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionStaffLogin, events[0].Action)
}

func TestLogin_WrongPasswordIsUnauthorizedAndAudited(t *testing.T) {
	svc, creds, auditStore := newLoginService(t)
	require.NoError(t, creds.Add(domain.NewUserID(), "staff@venue.test", "s3cret", "staff", "en"))

	_, err := svc.Login(context.Background(), "staff@venue.test", "wrong")

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	events, _ := auditStore.ListRecent(context.Background(), 10)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionStaffLoginFailed, events[0].Action)
}

func TestLogin_UnknownEmailMatchesWrongPasswordError(t *testing.T) {
	svc, creds, _ := newLoginService(t)
	require.NoError(t, creds.Add(domain.NewUserID(), "staff@venue.test", "s3cret", "staff", "en"))

	_, wrongPassword := svc.Login(context.Background(), "staff@venue.test", "nope")
	_, unknownEmail := svc.Login(context.Background(), "ghost@venue.test", "nope")

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.Equal(t, dErrors.MessageOf(wrongPassword), dErrors.MessageOf(unknownEmail))
}

package identity

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"vendora/pkg/domain"
	dErrors "vendora/pkg/domain-errors"
	"vendora/pkg/platform/audit"
	"vendora/pkg/platform/orchestrator"
	"vendora/pkg/requestcontext"
)

// Credential is one staff or merchant login record.
type Credential struct {
	UserID       domain.UserID
	Email        string
	PasswordHash []byte
	Role         string
	Locale       string
}

// CredentialStore looks up login credentials by email.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (Credential, bool, error)
}

// MemoryCredentialStore keeps credentials in memory for tests and local
// development.
type MemoryCredentialStore struct {
	mu    sync.RWMutex
	creds map[string]Credential
}

// NewMemoryCredentialStore creates an empty credential store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{creds: make(map[string]Credential)}
}

// Add hashes the password and stores the credential.
func (s *MemoryCredentialStore) Add(userID domain.UserID, email, password, role, locale string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[strings.ToLower(email)] = Credential{
		UserID:       userID,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Locale:       locale,
	}
	return nil
}

// FindByEmail implements CredentialStore.
func (s *MemoryCredentialStore) FindByEmail(ctx context.Context, email string) (Credential, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.creds[strings.ToLower(email)]
	return cred, ok, nil
}

// Session is the result of a successful login.
type Session struct {
	UserID      domain.UserID `json:"userId"`
	Role        string        `json:"role"`
	AccessToken string        `json:"accessToken"`
	IssuedAt    time.Time     `json:"issuedAt"`
}

// LoginService authenticates staff and merchant credentials. Both outcomes
// are written to the audit sink directly: login is not a domain write, so
// it bypasses the orchestrator, but failed attempts must still leave a
// compliance trail.
type LoginService struct {
	creds  CredentialStore
	tokens *TokenService
	sink   orchestrator.AuditSink
	logger *slog.Logger
}

// NewLoginService builds the login service.
func NewLoginService(creds CredentialStore, tokens *TokenService, sink orchestrator.AuditSink, logger *slog.Logger) *LoginService {
	return &LoginService{creds: creds, tokens: tokens, sink: sink, logger: logger}
}

// Login verifies the credentials and issues an access token. The error for
// a wrong password and an unknown email is identical.
func (s *LoginService) Login(ctx context.Context, email, password string) (Session, error) {
	if email == "" || password == "" {
		return Session{}, dErrors.New(dErrors.CodeValidation, "email and password are required")
	}

	cred, found, err := s.creds.FindByEmail(ctx, email)
	if err != nil {
		return Session{}, dErrors.Wrap(err, dErrors.CodePersistence, "credential lookup failed")
	}
	if !found || bcrypt.CompareHashAndPassword(cred.PasswordHash, []byte(password)) != nil {
		s.auditLogin(ctx, audit.ActionStaffLoginFailed, cred.UserID, email)
		return Session{}, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}

	token, err := s.tokens.GenerateToken(uuid.UUID(cred.UserID), cred.Role, cred.Locale)
	if err != nil {
		return Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "token generation failed")
	}

	s.auditLogin(ctx, audit.ActionStaffLogin, cred.UserID, email)
	return Session{
		UserID:      cred.UserID,
		Role:        cred.Role,
		AccessToken: token,
		IssuedAt:    time.Now(),
	}, nil
}

func (s *LoginService) auditLogin(ctx context.Context, action audit.Action, userID domain.UserID, email string) {
	err := s.sink.LogAction(ctx, orchestrator.AuditRecord{
		Action:  string(action),
		ActorID: userID,
		Subject: email,
		Details: map[string]string{"email": email},
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "login audit write failed",
			"action", string(action),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}

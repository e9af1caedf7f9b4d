package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/academic-erp/internal/auth"
	"github.com/spec-kit/academic-erp/internal/config"
	"github.com/spec-kit/academic-erp/internal/domain"
	"github.com/spec-kit/academic-erp/internal/events"
	"github.com/spec-kit/academic-erp/internal/observability"
)

// Outcomes recorded for login attempts.
const (
	LoginOutcomeSuccess      = "success"
	LoginOutcomeMissingEmail = "missing_email"
	LoginOutcomeInvalidState = "invalid_state"
	LoginOutcomeProvider     = "provider_error"
	LoginOutcomeDirectory    = "directory_error"
	LoginOutcomeSigning      = "signing_error"
)

// Reasons reported by ValidateToken.
const (
	ValidationInvalidToken = "invalid token"
	ValidationNotEmployee  = "not_employee"
)

// LoginResult is what a completed login hands back to the HTTP layer.
type LoginResult struct {
	Token      string
	ExpiresAt  time.Time
	Email      string
	Roles      domain.Roles
	Employee   *domain.Employee
	Registered bool
}

// IsOutreach reports whether the login grants the outreach role.
func (r *LoginResult) IsOutreach() bool {
	return r != nil && r.Roles.Has(domain.RoleOutreach)
}

// TokenValidation is the answer to a service-to-service token check.
type TokenValidation struct {
	Valid bool
	Email string
	Roles domain.Roles
	Error string
}

// LoginService bridges an external identity-provider login to a bearer credential.
// Every identity with an email is registered on first sight and receives a
// credential; access is decided per request by the gate.
type LoginService struct {
	directory  *DirectoryService
	tokens     *auth.TokenManager
	provider   auth.IdentityProvider
	states     auth.StateStore
	stateTTL   time.Duration
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// LoginDependencies encapsulates collaborators of the login service.
type LoginDependencies struct {
	Directory  *DirectoryService
	Tokens     *auth.TokenManager
	Provider   auth.IdentityProvider
	States     auth.StateStore
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewLoginService builds the service.
func NewLoginService(cfg config.OAuthConfig, deps LoginDependencies) *LoginService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoginService{
		directory:  deps.Directory,
		tokens:     deps.Tokens,
		provider:   deps.Provider,
		states:     deps.States,
		stateTTL:   cfg.StateTTL(),
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// BeginLogin records a one-time state and returns the provider consent URL.
func (s *LoginService) BeginLogin(ctx context.Context) (string, error) {
	state := uuid.NewString()
	if err := s.states.Save(ctx, state, s.stateTTL); err != nil {
		s.logger.Error("save login state", zap.Error(err))
		return "", auth.ErrAuthFailed
	}
	return s.provider.AuthCodeURL(state), nil
}

// HandleCallback consumes the state, exchanges the code and completes the login.
func (s *LoginService) HandleCallback(ctx context.Context, state, code string) (*LoginResult, error) {
	ok, err := s.states.Consume(ctx, state)
	if err != nil {
		s.logger.Error("consume login state", zap.Error(err))
		return nil, s.fail(ctx, LoginOutcomeInvalidState, auth.ErrAuthFailed)
	}
	if !ok {
		s.logger.Info("unknown or expired login state")
		return nil, s.fail(ctx, LoginOutcomeInvalidState, auth.ErrAuthFailed)
	}

	identity, err := s.provider.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("identity provider exchange failed", zap.Error(err))
		return nil, s.fail(ctx, LoginOutcomeProvider, auth.ErrAuthFailed)
	}
	return s.CompleteLogin(ctx, *identity)
}

// CompleteLogin registers the identity if needed and issues a credential for it.
func (s *LoginService) CompleteLogin(ctx context.Context, identity auth.ExternalIdentity) (*LoginResult, error) {
	email := identity.Email
	if strings.TrimSpace(email) == "" {
		return nil, s.fail(ctx, LoginOutcomeMissingEmail, auth.ErrMissingEmail)
	}

	employee, created, err := s.directory.CreateIfAbsent(ctx, email, identity.GivenName, identity.FamilyName)
	if err != nil {
		s.logger.Error("register employee", zap.String("email", email), zap.Error(err))
		return nil, s.fail(ctx, LoginOutcomeDirectory, auth.ErrAuthFailed)
	}

	token, expiresAt, err := s.tokens.Issue(employee.Email)
	if err != nil {
		s.logger.Error("issue token", zap.String("email", email), zap.Error(err))
		return nil, s.fail(ctx, LoginOutcomeSigning, auth.ErrAuthFailed)
	}

	roles := domain.RolesFor(employee)
	if created {
		s.publish(ctx, events.New(events.EventEmployeeRegistered, employee.Email, events.EmployeeRegisteredPayload{
			EmployeeID: employee.ID,
			Email:      employee.Email,
		}))
	}
	s.publish(ctx, events.New(events.EventLoginCompleted, employee.Email, events.LoginCompletedPayload{
		Email:     employee.Email,
		Roles:     roles.Strings(),
		ExpiresAt: expiresAt,
	}))
	s.metrics.RecordLogin(LoginOutcomeSuccess)

	return &LoginResult{
		Token:      token,
		ExpiresAt:  expiresAt,
		Email:      employee.Email,
		Roles:      roles,
		Employee:   employee,
		Registered: created,
	}, nil
}

// ValidateToken checks a credential for its own subject and reports the current roles.
// Only directory failures are returned as errors.
func (s *LoginService) ValidateToken(ctx context.Context, token string) (TokenValidation, error) {
	subject, err := s.tokens.ExtractSubject(token)
	if err != nil || !s.tokens.Validate(token, subject) {
		return TokenValidation{Error: ValidationInvalidToken}, nil
	}

	roles, err := s.directory.ResolveRoles(ctx, subject)
	if err != nil {
		return TokenValidation{}, err
	}
	if len(roles) == 0 {
		return TokenValidation{Email: subject, Error: ValidationNotEmployee}, nil
	}
	return TokenValidation{Valid: true, Email: subject, Roles: roles}, nil
}

func (s *LoginService) fail(ctx context.Context, outcome string, err error) error {
	s.metrics.RecordLogin(outcome)
	s.publish(ctx, events.New(events.EventLoginFailed, "", events.LoginFailedPayload{Reason: outcome}))
	return err
}

func (s *LoginService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

// IsAuthFailure reports whether err is one of the login failures the HTTP layer maps to a redirect.
func IsAuthFailure(err error) bool {
	return errors.Is(err, auth.ErrAuthFailed) || errors.Is(err, auth.ErrMissingEmail)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/academic-erp/internal/auth"
	"github.com/spec-kit/academic-erp/internal/config"
	"github.com/spec-kit/academic-erp/internal/domain"
	"github.com/spec-kit/academic-erp/internal/events"
	"github.com/spec-kit/academic-erp/internal/observability"
	"github.com/spec-kit/academic-erp/internal/repository"
)

type stubProvider struct {
	identities map[string]*auth.ExternalIdentity
	err        error
}

func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://idp.test/authorize?state=" + url.QueryEscape(state)
}

func (p *stubProvider) Exchange(_ context.Context, code string) (*auth.ExternalIdentity, error) {
	if p.err != nil {
		return nil, p.err
	}
	identity, ok := p.identities[code]
	if !ok {
		return nil, errors.New("invalid_grant")
	}
	return identity, nil
}

type failingRepository struct {
	repository.EmployeeRepository
	err error
}

func (r failingRepository) InsertIfAbsent(context.Context, *domain.Employee) (bool, error) {
	return false, r.err
}

func (r failingRepository) GetByEmail(context.Context, string) (*domain.Employee, error) {
	return nil, r.err
}

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) handler(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordedEvents) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type loginFixture struct {
	svc      *LoginService
	repo     *repository.MemoryEmployeeRepository
	tokens   *auth.TokenManager
	provider *stubProvider
	recorded *recordedEvents
	metrics  *observability.Metrics
}

func newLoginFixture(t *testing.T, employees repository.EmployeeRepository, seed ...domain.Employee) *loginFixture {
	t.Helper()
	tokens, err := auth.NewTokenManager(config.AuthConfig{
		JWTSecret:             "service-test-secret",
		SigningMethod:         "HS256",
		Issuer:                "academic-erp-test",
		AccessTokenTTLMinutes: 30,
	})
	require.NoError(t, err)

	memory := repository.NewMemoryEmployeeRepository(seed...)
	if employees == nil {
		employees = memory
	}

	dispatcher := events.NewInMemoryDispatcher()
	recorded := &recordedEvents{}
	for _, eventType := range events.AllEventTypes {
		dispatcher.Subscribe(eventType, recorded.handler)
	}

	provider := &stubProvider{identities: map[string]*auth.ExternalIdentity{}}
	metrics := observability.NewMetrics()
	svc := NewLoginService(config.OAuthConfig{}, LoginDependencies{
		Directory:  NewDirectoryService(employees),
		Tokens:     tokens,
		Provider:   provider,
		States:     repository.NewMemoryLoginStateRepository(),
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     zap.NewNop(),
	})
	return &loginFixture{svc: svc, repo: memory, tokens: tokens, provider: provider, recorded: recorded, metrics: metrics}
}

func TestCompleteLogin_FirstLoginRegistersAndIssues(t *testing.T) {
	f := newLoginFixture(t, nil)

	result, err := f.svc.CompleteLogin(context.Background(), auth.ExternalIdentity{Email: "new@x.com", GivenName: "New"})
	require.NoError(t, err)

	assert.True(t, result.Registered)
	assert.Equal(t, "new@x.com", result.Email)
	assert.Equal(t, domain.Roles{domain.RoleEmployee}, result.Roles)
	assert.False(t, result.IsOutreach())
	assert.Equal(t, "New", result.Employee.FirstName)
	assert.Equal(t, domain.DefaultLastName, result.Employee.LastName)
	assert.True(t, f.tokens.Validate(result.Token, "new@x.com"))
	assert.Equal(t, []events.EventType{events.EventEmployeeRegistered, events.EventLoginCompleted}, f.recorded.types())
}

func TestCompleteLogin_IsIdempotent(t *testing.T) {
	f := newLoginFixture(t, nil)
	ctx := context.Background()

	first, err := f.svc.CompleteLogin(ctx, auth.ExternalIdentity{Email: "a@x.com", GivenName: "Ada", FamilyName: "L"})
	require.NoError(t, err)
	second, err := f.svc.CompleteLogin(ctx, auth.ExternalIdentity{Email: "a@x.com", GivenName: "Other", FamilyName: "Name"})
	require.NoError(t, err)

	assert.True(t, first.Registered)
	assert.False(t, second.Registered)
	assert.Equal(t, first.Employee.ID, second.Employee.ID)
	assert.Equal(t, "Ada", second.Employee.FirstName)
	assert.Equal(t, 1, f.repo.Len())
}

func TestCompleteLogin_OutreachRoles(t *testing.T) {
	f := newLoginFixture(t, nil, domain.Employee{Email: "o@x.com", FirstName: "O", LastName: "R", Department: "outreach"})

	result, err := f.svc.CompleteLogin(context.Background(), auth.ExternalIdentity{Email: "o@x.com"})
	require.NoError(t, err)
	assert.False(t, result.Registered)
	assert.Equal(t, domain.Roles{domain.RoleEmployee, domain.RoleOutreach}, result.Roles)
	assert.True(t, result.IsOutreach())
}

func TestCompleteLogin_MissingEmail(t *testing.T) {
	f := newLoginFixture(t, nil)

	_, err := f.svc.CompleteLogin(context.Background(), auth.ExternalIdentity{Email: "  ", GivenName: "X"})
	assert.ErrorIs(t, err, auth.ErrMissingEmail)
	assert.True(t, IsAuthFailure(err))
	assert.Zero(t, f.repo.Len())
	assert.Equal(t, []events.EventType{events.EventLoginFailed}, f.recorded.types())
}

func TestCompleteLogin_DirectoryFailureIsGeneric(t *testing.T) {
	f := newLoginFixture(t, failingRepository{err: errors.New("pq: connection refused")})

	_, err := f.svc.CompleteLogin(context.Background(), auth.ExternalIdentity{Email: "a@x.com"})
	assert.ErrorIs(t, err, auth.ErrAuthFailed)
	assert.NotContains(t, err.Error(), "connection refused")
}

func TestCompleteLogin_ConcurrentFirstLoginsCreateOneRecord(t *testing.T) {
	f := newLoginFixture(t, nil)
	results := make([]*LoginResult, 16)

	var g errgroup.Group
	for i := range results {
		i := i
		g.Go(func() error {
			result, err := f.svc.CompleteLogin(context.Background(), auth.ExternalIdentity{Email: "race@x.com"})
			results[i] = result
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 1, f.repo.Len())
	registered := 0
	for _, result := range results {
		assert.True(t, f.tokens.Validate(result.Token, "race@x.com"))
		assert.Equal(t, results[0].Employee.ID, result.Employee.ID)
		if result.Registered {
			registered++
		}
	}
	assert.Equal(t, 1, registered)
}

func TestLoginRoundTrip(t *testing.T) {
	f := newLoginFixture(t, nil)
	ctx := context.Background()
	f.provider.identities["code-1"] = &auth.ExternalIdentity{Email: "a@x.com", GivenName: "Ada", FamilyName: "L"}

	consent, err := f.svc.BeginLogin(ctx)
	require.NoError(t, err)
	parsed, err := url.Parse(consent)
	require.NoError(t, err)
	state := parsed.Query().Get("state")
	require.NotEmpty(t, state)

	result, err := f.svc.HandleCallback(ctx, state, "code-1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", result.Email)

	_, err = f.svc.HandleCallback(ctx, state, "code-1")
	assert.ErrorIs(t, err, auth.ErrAuthFailed)
}

func TestHandleCallback_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown state", func(t *testing.T) {
		f := newLoginFixture(t, nil)
		_, err := f.svc.HandleCallback(ctx, "forged", "code-1")
		assert.ErrorIs(t, err, auth.ErrAuthFailed)
	})

	t.Run("provider error", func(t *testing.T) {
		f := newLoginFixture(t, nil)
		f.provider.err = errors.New("upstream 500")
		consent, err := f.svc.BeginLogin(ctx)
		require.NoError(t, err)
		parsed, _ := url.Parse(consent)

		_, err = f.svc.HandleCallback(ctx, parsed.Query().Get("state"), "code-1")
		assert.ErrorIs(t, err, auth.ErrAuthFailed)
		assert.NotContains(t, err.Error(), "upstream")
	})

	t.Run("missing email from provider", func(t *testing.T) {
		f := newLoginFixture(t, nil)
		f.provider.identities["code-1"] = &auth.ExternalIdentity{GivenName: "NoMail"}
		consent, err := f.svc.BeginLogin(ctx)
		require.NoError(t, err)
		parsed, _ := url.Parse(consent)

		_, err = f.svc.HandleCallback(ctx, parsed.Query().Get("state"), "code-1")
		assert.ErrorIs(t, err, auth.ErrMissingEmail)
	})
}

func TestValidateToken(t *testing.T) {
	f := newLoginFixture(t, nil, domain.Employee{Email: "o@x.com", Department: "Outreach"})
	ctx := context.Background()

	token, _, err := f.tokens.Issue("o@x.com")
	require.NoError(t, err)
	got, err := f.svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, TokenValidation{Valid: true, Email: "o@x.com", Roles: domain.Roles{domain.RoleEmployee, domain.RoleOutreach}}, got)

	stranger, _, err := f.tokens.Issue("stranger@x.com")
	require.NoError(t, err)
	got, err = f.svc.ValidateToken(ctx, stranger)
	require.NoError(t, err)
	assert.False(t, got.Valid)
	assert.Equal(t, ValidationNotEmployee, got.Error)

	got, err = f.svc.ValidateToken(ctx, "garbage")
	require.NoError(t, err)
	assert.Equal(t, TokenValidation{Error: ValidationInvalidToken}, got)

	got, err = f.svc.ValidateToken(ctx, token[:len(token)-4]+"AAAA")
	require.NoError(t, err)
	assert.False(t, got.Valid)
}

func TestIsAuthFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"auth failed", auth.ErrAuthFailed, true},
		{"missing email", auth.ErrMissingEmail, true},
		{"wrapped", fmt.Errorf("callback: %w", auth.ErrAuthFailed), true},
		{"other", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAuthFailure(tt.err))
		})
	}
}

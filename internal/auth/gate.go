package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/academic-erp/internal/domain"
	"github.com/spec-kit/academic-erp/internal/observability"
	apperrors "github.com/spec-kit/academic-erp/pkg/util"
)

const principalKey = "auth_principal"

// PublicPathPrefixes are reachable without a token: the login round-trip and token introspection.
var PublicPathPrefixes = []string{"/api/auth", "/oauth2", "/login/oauth2"}

// Principal is the authenticated caller of one request.
type Principal struct {
	Email string
	Roles domain.Roles
}

// RoleResolver derives the current roles of an employee; an unknown email yields no roles.
type RoleResolver interface {
	ResolveRoles(ctx context.Context, email string) (domain.Roles, error)
}

// RequestGate authenticates bearer tokens and attaches the caller's principal.
// Requests without a usable token pass through unauthenticated; RequireRole decides later.
type RequestGate struct {
	tokens    *TokenManager
	directory RoleResolver
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewRequestGate constructs the gate.
func NewRequestGate(tokens *TokenManager, directory RoleResolver, metrics *observability.Metrics, logger *zap.Logger) *RequestGate {
	return &RequestGate{tokens: tokens, directory: directory, metrics: metrics, logger: logger}
}

// Handle runs once per request.
func (g *RequestGate) Handle(c *fiber.Ctx) error {
	if isPublicPath(c.Path()) {
		g.metrics.RecordGateDecision("bypass")
		return c.Next()
	}
	if _, ok := PrincipalFromContext(c); ok {
		return c.Next()
	}

	token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		g.metrics.RecordGateDecision("anonymous")
		return c.Next()
	}

	subject, err := g.tokens.ExtractSubject(token)
	if err != nil {
		g.reject(c, "malformed", err)
		return c.Next()
	}
	if err := g.tokens.Verify(token, subject); err != nil {
		g.reject(c, rejectReason(err), err)
		return c.Next()
	}

	roles, err := g.directory.ResolveRoles(c.UserContext(), subject)
	if err != nil {
		g.logger.Error("role lookup failed", zap.String("subject", subject), zap.Error(err))
		return apperrors.NewInternalError(err)
	}
	if len(roles) == 0 {
		g.reject(c, "unknown_subject", ErrUnknownSubject)
		return c.Next()
	}

	c.Locals(principalKey, &Principal{Email: subject, Roles: roles})
	g.metrics.RecordGateDecision("authenticated")
	return c.Next()
}

func (g *RequestGate) reject(c *fiber.Ctx, reason string, err error) {
	g.metrics.RecordGateDecision(reason)
	g.logger.Debug("bearer token ignored",
		zap.String("reason", reason),
		zap.String("path", c.Path()),
		zap.Error(err))
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrMalformedToken):
		return "malformed"
	case errors.Is(err, ErrSubjectMismatch):
		return "subject_mismatch"
	default:
		return "invalid"
	}
}

func isPublicPath(path string) bool {
	for _, prefix := range PublicPathPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// PrincipalFromContext retrieves the authenticated caller, if any.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal != nil
}

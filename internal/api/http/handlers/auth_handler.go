package handlers

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/academic-erp/internal/api/dto"
	"github.com/spec-kit/academic-erp/internal/auth"
	"github.com/spec-kit/academic-erp/internal/service"
	apperrors "github.com/spec-kit/academic-erp/pkg/util"
)

// Error codes carried back to the frontend callback.
const (
	CallbackErrorEmailNotFound = "email_not_found"
	CallbackErrorAuthFailed    = "auth_failed"
)

// AuthHandler exposes the external login round-trip and token introspection.
type AuthHandler struct {
	login       *service.LoginService
	frontendURL string
	logger      *zap.Logger
}

// NewAuthHandler constructs handler.
func NewAuthHandler(login *service.LoginService, frontendCallbackURL string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{login: login, frontendURL: frontendCallbackURL, logger: logger}
}

// Authorize handles GET /oauth2/authorization/google.
func (h *AuthHandler) Authorize(c *fiber.Ctx) error {
	consentURL, err := h.login.BeginLogin(c.UserContext())
	if err != nil {
		return c.Redirect(h.callbackURL(url.Values{"error": {CallbackErrorAuthFailed}}), fiber.StatusFound)
	}
	return c.Redirect(consentURL, fiber.StatusFound)
}

// Callback handles GET /login/oauth2/code/google and redirects to the frontend.
func (h *AuthHandler) Callback(c *fiber.Ctx) error {
	if providerErr := c.Query("error"); providerErr != "" {
		h.logger.Info("identity provider denied login", zap.String("error", providerErr))
		return c.Redirect(h.callbackURL(url.Values{"error": {CallbackErrorAuthFailed}}), fiber.StatusFound)
	}

	result, err := h.login.HandleCallback(c.UserContext(), c.Query("state"), c.Query("code"))
	switch {
	case errors.Is(err, auth.ErrMissingEmail):
		return c.Redirect(h.callbackURL(url.Values{"error": {CallbackErrorEmailNotFound}}), fiber.StatusFound)
	case service.IsAuthFailure(err):
		return c.Redirect(h.callbackURL(url.Values{"error": {CallbackErrorAuthFailed}}), fiber.StatusFound)
	case err != nil:
		h.logger.Error("unexpected login callback failure", zap.Error(err))
		return c.Redirect(h.callbackURL(url.Values{"error": {CallbackErrorAuthFailed}}), fiber.StatusFound)
	}

	return c.Redirect(h.callbackURL(url.Values{
		"token":      {result.Token},
		"isOutreach": {strconv.FormatBool(result.IsOutreach())},
	}), fiber.StatusFound)
}

// ValidateToken handles POST /api/auth/validate-token.
func (h *AuthHandler) ValidateToken(c *fiber.Ctx) error {
	var req dto.ValidateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	validation, err := h.login.ValidateToken(c.UserContext(), req.Token)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(dto.NewValidateTokenResponse(validation))
}

func (h *AuthHandler) callbackURL(params url.Values) string {
	target, err := url.Parse(h.frontendURL)
	if err != nil {
		return h.frontendURL + "?" + params.Encode()
	}
	query := target.Query()
	for key, values := range params {
		query[key] = values
	}
	target.RawQuery = query.Encode()
	return target.String()
}

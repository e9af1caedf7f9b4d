package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/academic-erp/internal/api/http/handlers"
	"github.com/spec-kit/academic-erp/internal/auth"
	"github.com/spec-kit/academic-erp/internal/domain"
	"github.com/spec-kit/academic-erp/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health        *handlers.HealthHandler
	Auth          *handlers.AuthHandler
	Employees     *handlers.EmployeesHandler
	Organisations *handlers.OrganisationsHandler
	Gate          *auth.RequestGate
	Metrics       *observability.Metrics
	AuthLimiter   *limiter.Limiter
	Logger        *zap.Logger
}

// RegisterRoutes wires HTTP routes. The request gate runs for every route
// registered after it; the role checks sit on the protected groups.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if registry := cfg.Metrics.Registry(); registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	app.Use(cfg.Gate.Handle)

	limited := func(h fiber.Handler) []fiber.Handler {
		if cfg.AuthLimiter == nil {
			return []fiber.Handler{h}
		}
		return []fiber.Handler{rateLimitMiddleware(cfg.AuthLimiter, cfg.Logger), h}
	}

	app.Get("/oauth2/authorization/google", limited(cfg.Auth.Authorize)...)
	app.Get("/login/oauth2/code/google", limited(cfg.Auth.Callback)...)
	app.Post("/api/auth/validate-token", limited(cfg.Auth.ValidateToken)...)

	app.Get("/api/employees/me", auth.RequireRole(domain.RoleEmployee), cfg.Employees.Me)

	orgs := app.Group("/api/organisations", auth.RequireRole(domain.RoleOutreach))
	orgs.Get("/", cfg.Organisations.List)
	orgs.Post("/", cfg.Organisations.Create)
	orgs.Get("/paginated", cfg.Organisations.ListPage)
	orgs.Get("/search", cfg.Organisations.Search)
	orgs.Get("/search/name", cfg.Organisations.SearchByName)
	orgs.Get("/check-email", cfg.Organisations.CheckEmail)
	orgs.Get("/:id/exists", cfg.Organisations.Exists)
	orgs.Get("/:id", cfg.Organisations.Get)
	orgs.Put("/:id", cfg.Organisations.Update)
	orgs.Delete("/:id", cfg.Organisations.Delete)
}

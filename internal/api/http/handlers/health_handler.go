package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/academic-erp/internal/persistence"
)

const readinessTimeout = 2 * time.Second

// Dependency states reported by readiness.
const (
	dependencyOK          = "ok"
	dependencyDisabled    = "disabled"
	dependencyUnreachable = "unreachable"
)

// HealthHandler serves the liveness and readiness probes. An unconfigured
// dependency is reported as disabled and does not fail readiness.
type HealthHandler struct {
	serviceName  string
	version      string
	dependencies []persistence.Dependency
}

// NewHealthHandler returns a handler probing deps on every readiness check.
func NewHealthHandler(serviceName, version string, deps ...persistence.Dependency) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, dependencies: deps}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready pings every enabled dependency in parallel.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	var (
		mu     sync.Mutex
		states = fiber.Map{}
		ready  = true
	)
	var g errgroup.Group
	for _, dep := range h.dependencies {
		dep := dep
		g.Go(func() error {
			state := probe(ctx, dep)
			mu.Lock()
			defer mu.Unlock()
			states[dep.Name()] = state
			if state == dependencyUnreachable {
				ready = false
			}
			return nil
		})
	}
	_ = g.Wait()

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"service":      h.serviceName,
			"dependencies": states,
		})
	}
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": states,
		},
	})
}

func probe(ctx context.Context, dep persistence.Dependency) string {
	if !dep.Enabled() {
		return dependencyDisabled
	}
	if err := dep.Ping(ctx); err != nil {
		return dependencyUnreachable
	}
	return dependencyOK
}

package persistence

import "context"

// Dependency is an optional backing service the readiness probe reports on.
type Dependency interface {
	Name() string
	Enabled() bool
	Ping(ctx context.Context) error
}

var (
	_ Dependency = (*Postgres)(nil)
	_ Dependency = (*Redis)(nil)
)

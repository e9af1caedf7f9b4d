package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/academic-erp/internal/events"
	"github.com/spec-kit/academic-erp/internal/observability"
)

// AuditService writes an audit line for every login and outreach change.
type AuditService struct {
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewAuditService creates the service.
func NewAuditService(logger *zap.Logger, metrics *observability.Metrics) *AuditService {
	return &AuditService{
		logger:  logger.Named("audit"),
		metrics: metrics,
	}
}

// Handle records one event. Failed logins are logged at warn level.
func (a *AuditService) Handle(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Time("timestamp", event.Timestamp),
		zap.Any("payload", event.Payload),
	}
	if event.Actor != "" {
		fields = append(fields, zap.String("actor", event.Actor))
	}

	if event.Type == events.EventLoginFailed {
		a.logger.Warn("audit", fields...)
	} else {
		a.logger.Info("audit", fields...)
	}
	a.metrics.RecordAuditEvent(string(event.Type))
	return nil
}

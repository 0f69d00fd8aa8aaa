package event

import (
	"context"

	"github.com/joinville/accounts/internal/domain/account"
	"github.com/joinville/accounts/internal/domain/identity"
	"github.com/joinville/accounts/internal/domain/shared"
	"github.com/joinville/accounts/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// AuditHandler writes an audit line for the account events that matter to
// the municipality
type AuditHandler struct {
	logger *zap.Logger
}

// NewAuditHandler creates an audit handler logging under the "audit" name
func NewAuditHandler(log *zap.Logger) *AuditHandler {
	return &AuditHandler{logger: log.Named("audit")}
}

// EventTypes returns the event types this handler is interested in
func (h *AuditHandler) EventTypes() []string {
	return []string{
		identity.EventTypeUserRegistered,
		identity.EventTypeUserPasswordChanged,
		account.EventTypeSignatureRequested,
		account.EventTypeSignatureStatusChanged,
	}
}

// Handle logs the event. Unknown events are logged with their envelope only.
func (h *AuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}

	switch e := event.(type) {
	case *identity.UserRegisteredEvent:
		fields = append(fields, logger.Document(e.UserName))
	case *identity.UserPasswordChangedEvent:
		fields = append(fields, logger.Document(e.UserName))
	case *account.SignatureRequestedEvent:
		fields = append(fields, logger.Document(e.CPF), zap.String("protocol", e.SeiProtocol))
	case *account.SignatureStatusChangedEvent:
		fields = append(fields,
			logger.Document(e.CPF),
			zap.String("from", e.OldStatus.Code()),
			zap.String("to", e.NewStatus.Code()))
	}

	h.logger.Info("account event", fields...)
	return nil
}

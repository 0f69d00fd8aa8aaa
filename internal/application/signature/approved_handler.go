package signature

import (
	"context"
	"fmt"

	"github.com/joinville/accounts/internal/domain/account"
	"github.com/joinville/accounts/internal/domain/shared"
	"github.com/joinville/accounts/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ApprovalNotifier tells a citizen that the signature was released
type ApprovalNotifier interface {
	SendSignatureApproved(ctx context.Context, name, email string) error
}

// ApprovedHandler mails the citizen when the signature becomes approved
type ApprovedHandler struct {
	notifier ApprovalNotifier
	logger   *zap.Logger
}

// NewApprovedHandler creates the handler
func NewApprovedHandler(notifier ApprovalNotifier, logger *zap.Logger) *ApprovedHandler {
	return &ApprovedHandler{notifier: notifier, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *ApprovedHandler) EventTypes() []string {
	return []string{account.EventTypeSignatureStatusChanged}
}

// Handle processes a SignatureStatusChangedEvent
func (h *ApprovedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	changed, ok := event.(*account.SignatureStatusChangedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			account.EventTypeSignatureStatusChanged, event.EventType())
	}
	if changed.NewStatus != account.SignatureApproved || changed.OldStatus == account.SignatureApproved {
		return nil
	}
	if changed.Email == "" {
		h.logger.Warn("approved signature without e-mail", logger.Document(changed.CPF))
		return nil
	}

	if err := h.notifier.SendSignatureApproved(ctx, changed.Name, changed.Email); err != nil {
		return fmt.Errorf("notify signature approval: %w", err)
	}
	h.logger.Info("signature approval notified", logger.Document(changed.CPF))
	return nil
}

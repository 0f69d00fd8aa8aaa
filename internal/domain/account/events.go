package account

import (
	"github.com/joinville/accounts/internal/domain/shared"
)

// AggregateTypePerson is the aggregate type of person events
const AggregateTypePerson = "Person"

// Person domain event types
const (
	EventTypeSignatureRequested     = "SignatureRequested"
	EventTypeSignatureStatusChanged = "SignatureStatusChanged"
)

// SignatureRequestedEvent is published when a citizen submits the
// electronic signature request to SEI
type SignatureRequestedEvent struct {
	shared.BaseDomainEvent
	CPF         string `json:"cpf"`
	Email       string `json:"email"`
	SeiProtocol string `json:"sei_protocol"`
}

// NewSignatureRequestedEvent creates a new SignatureRequestedEvent
func NewSignatureRequestedEvent(p *Person) *SignatureRequestedEvent {
	return &SignatureRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSignatureRequested, AggregateTypePerson, p.ID),
		CPF:             p.CPF,
		Email:           p.Email,
		SeiProtocol:     p.SeiProtocol,
	}
}

// SignatureStatusChangedEvent is published whenever the signature status
// of a person changes
type SignatureStatusChangedEvent struct {
	shared.BaseDomainEvent
	CPF       string          `json:"cpf"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	OldStatus SignatureStatus `json:"old_status"`
	NewStatus SignatureStatus `json:"new_status"`
}

// NewSignatureStatusChangedEvent creates a new SignatureStatusChangedEvent
func NewSignatureStatusChangedEvent(p *Person, old SignatureStatus) *SignatureStatusChangedEvent {
	return &SignatureStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSignatureStatusChanged, AggregateTypePerson, p.ID),
		CPF:             p.CPF,
		Name:            p.Name,
		Email:           p.Email,
		OldStatus:       old,
		NewStatus:       p.SignatureStatus,
	}
}

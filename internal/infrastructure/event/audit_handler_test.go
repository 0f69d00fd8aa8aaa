package event

import (
	"context"
	"testing"

	"github.com/joinville/accounts/internal/domain/account"
	"github.com/joinville/accounts/internal/domain/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAuditHandler_Handle(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := NewAuditHandler(zap.New(core))

	person := &account.Person{CPF: "52998224725", Name: "Maria da Silva", SignatureStatus: account.SignatureApproved}
	err := h.Handle(context.Background(), account.NewSignatureStatusChangedEvent(person, account.SignatureUnderApproval))
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "audit", entries[0].LoggerName)
	fields := entries[0].ContextMap()
	assert.Equal(t, account.EventTypeSignatureStatusChanged, fields["event_type"])
	assert.Equal(t, account.SignatureUnderApproval.Code(), fields["from"])
	assert.Equal(t, account.SignatureApproved.Code(), fields["to"])
}

func TestAuditHandler_EventTypes(t *testing.T) {
	h := NewAuditHandler(zap.NewNop())
	assert.ElementsMatch(t, []string{
		identity.EventTypeUserRegistered,
		identity.EventTypeUserPasswordChanged,
		account.EventTypeSignatureRequested,
		account.EventTypeSignatureStatusChanged,
	}, h.EventTypes())
}

package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joinville/accounts/internal/domain/shared"
)

func newEvent(eventType string) shared.DomainEvent {
	e := shared.NewBaseDomainEvent(eventType, "User", uuid.New())
	return &e
}

func TestEventRecorder_Count(t *testing.T) {
	rec := NewEventRecorder()
	assert.Empty(t, rec.EventTypes())

	require.NoError(t, rec.Handle(context.Background(), newEvent("UserRegistered")))
	require.NoError(t, rec.Handle(context.Background(), newEvent("UserPasswordChanged")))
	require.NoError(t, rec.Handle(context.Background(), newEvent("UserRegistered")))

	assert.Equal(t, 2, rec.Count("UserRegistered"))
	assert.Equal(t, 0, rec.Count("SignatureRequested"))
	assert.Len(t, rec.Events(), 3)
}

func TestEventRecorder_Fail(t *testing.T) {
	rec := NewEventRecorder("SignatureRequested")
	rec.Fail(assert.AnError)

	err := rec.Handle(context.Background(), newEvent("SignatureRequested"))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, rec.Count("SignatureRequested"), "failed events are still recorded")
}

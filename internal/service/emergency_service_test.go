package service

import (
	"context"
	"errors"
	"testing"

	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmergencyService_BroadcastAndClear(t *testing.T) {
	f := newFixture(t)
	f.event(t)
	svc := newEmergencyService(f.repos, f.pub, f.log)
	ctx := context.Background()

	active, err := svc.Active(ctx, "evt-1")
	require.NoError(t, err)
	assert.Nil(t, active)

	b, err := svc.Broadcast(ctx, "evt-1", "  Evacuate stage left  ", models.EmergencyRed, "sm-1")
	require.NoError(t, err)
	assert.Equal(t, "Evacuate stage left", b.Message)
	assert.True(t, b.Active)

	active, err = svc.Active(ctx, "evt-1")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, b.ID, active.ID)

	cleared, err := svc.Clear(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, cleared.Active)
	assert.NotNil(t, cleared.ClearedAt)

	active, err = svc.Active(ctx, "evt-1")
	require.NoError(t, err)
	assert.Nil(t, active)

	_, err = svc.Clear(ctx, "evt-1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []realtime.EventType{realtime.EmergencyAlert, realtime.EmergencyClear}, f.pub.types())
}

func TestEmergencyService_BroadcastValidation(t *testing.T) {
	f := newFixture(t)
	f.event(t)
	svc := newEmergencyService(f.repos, f.pub, f.log)

	_, err := svc.Broadcast(context.Background(), "evt-1", " ", "purple", "")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Details, 2)

	_, err = svc.Broadcast(context.Background(), "missing", "Fire", models.EmergencyRed, "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.pub.types())
}

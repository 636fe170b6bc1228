package service

import (
	"context"
	"errors"
	"testing"

	"github.com/fame-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventService_CreateAppliesDefaults(t *testing.T) {
	f := newFixture(t)
	svc := newEventService(f.repos, f.log)
	ctx := context.Background()

	event, err := svc.Create(ctx, map[string]any{
		"name":       "Winter Gala",
		"venue":      "Opera House",
		"show_dates": []any{"2026-12-02", "2026-12-01", "2026-12-02"},
		"id":         "client-chosen",
	}, "user-1")
	require.NoError(t, err)

	assert.NotEqual(t, "client-chosen", event.ID)
	assert.Equal(t, []string{"2026-12-01", "2026-12-02"}, event.ShowDates)
	assert.Equal(t, "19:00", event.Timing.ShowStartTime)
	assert.Equal(t, 5, event.Timing.DefaultPerformanceDuration)
	assert.Equal(t, models.EventDraft, event.Status)
	assert.Equal(t, "user-1", event.CreatedBy)

	got, err := svc.Get(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.Name, got.Name)
}

func TestEventService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	svc := newEventService(f.repos, f.log)

	_, err := svc.Create(context.Background(), map[string]any{
		"name":       "",
		"show_dates": []any{"01/12/2026"},
	}, "")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Details, "venue is required")
}

func TestEventService_UpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	svc := newEventService(f.repos, f.log)
	ctx := context.Background()
	f.event(t)

	updated, err := svc.Update(ctx, "evt-1", map[string]any{
		"status": "completed",
		"timing": map[string]any{"show_start_time": "18:30", "buffer_between_acts": 2},
	})
	require.NoError(t, err)
	assert.Equal(t, models.EventCompleted, updated.Status)
	assert.Equal(t, "18:30", updated.Timing.ShowStartTime)
	assert.Equal(t, "Summer Fest", updated.Name)

	_, err = svc.Update(ctx, "missing", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.Delete(ctx, "evt-1"))
	assert.ErrorIs(t, svc.Delete(ctx, "evt-1"), ErrNotFound)
	_, err = svc.Get(ctx, "evt-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

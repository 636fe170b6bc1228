package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/realtime"
	"github.com/fame-api/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShowOrderFixture(t *testing.T) (*fixture, *showOrderService) {
	f := newFixture(t)
	f.event(t)
	svc := newShowOrderService(f.repos, f.pub, f.log)
	svc.clock = func() time.Time { return time.Date(2026, 7, 2, 12, 0, 0, 0, time.UTC) }
	return f, svc
}

func TestShowOrderService_GetBuildsTimeline(t *testing.T) {
	f, svc := newShowOrderFixture(t)
	day1 := strPtr("2026-07-01")
	f.artist(t, "a1", "one@fame.test", intPtr(1), day1, 5)
	a2 := f.artist(t, "a2", "two@fame.test", intPtr(3), day1, 4)
	f.cue(t, "c1", intPtr(2), nil, 10)
	f.artist(t, "other-day", "three@fame.test", intPtr(1), strPtr("2026-07-02"), 5)
	f.artist(t, "unassigned", "four@fame.test", nil, day1, 5)

	// measured track length wins over the stated minutes
	_, err := f.repos.Artist.Update(context.Background(), "evt-1", a2.ID, func(a *models.Artist) error {
		a.ActualDuration = intPtr(150)
		return nil
	})
	require.NoError(t, err)

	order, err := svc.Get(context.Background(), "evt-1", "2026-07-01")
	require.NoError(t, err)

	require.Len(t, order.Items, 3)
	assert.Equal(t, []string{"a1", "c1", "a2"}, []string{order.Items[0].ID, order.Items[1].ID, order.Items[2].ID})
	assert.Equal(t, 150, order.Items[2].DurationSeconds)
	assert.InDelta(t, 17.5, order.TotalShowMinutes, 0.001)
	assert.Equal(t, "17:30", order.TotalShowTime)

	require.Len(t, order.Timeline, 3)
	assert.Equal(t, "20:00", order.Timeline[0].Start)
	assert.Equal(t, "20:05", order.Timeline[0].End)
	assert.Equal(t, "20:06", order.Timeline[1].Start)
	assert.Equal(t, "20:17", order.Timeline[2].Start)
	assert.Empty(t, order.Issues)
}

func TestShowOrderService_GetDefaultsDateAndReportsIssues(t *testing.T) {
	f, svc := newShowOrderFixture(t)
	today := strPtr("2026-07-02")
	f.artist(t, "a1", "one@fame.test", intPtr(1), today, 5)
	f.artist(t, "a2", "two@fame.test", intPtr(1), today, 5)

	order, err := svc.Get(context.Background(), "evt-1", "")
	require.NoError(t, err)
	assert.Equal(t, "2026-07-02", order.Date)
	require.NotEmpty(t, order.Issues)
	assert.Equal(t, validation.IssueDuplicateOrder, order.Issues[0].Kind)

	_, err = svc.Get(context.Background(), "evt-1", "2027-01-01")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = svc.Get(context.Background(), "missing", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestShowOrderService_Reorder(t *testing.T) {
	f, svc := newShowOrderFixture(t)
	ctx := context.Background()
	day1 := strPtr("2026-07-01")
	f.artist(t, "a1", "one@fame.test", intPtr(1), day1, 5)
	f.artist(t, "a2", "two@fame.test", intPtr(2), day1, 5)
	f.artist(t, "a3", "three@fame.test", nil, nil, 5)
	f.cue(t, "c1", nil, nil, 3)

	order, err := svc.Reorder(ctx, "evt-1", "2026-07-01", []models.ShowItemRef{
		{Type: models.ShowItemCue, ID: "c1"},
		{Type: models.ShowItemArtist, ID: "a3"},
		{Type: models.ShowItemArtist, ID: "a1"},
	})
	require.NoError(t, err)

	ids := make([]string, len(order.Items))
	for i, item := range order.Items {
		ids[i] = item.ID
		assert.Equal(t, i+1, item.PerformanceOrder)
	}
	assert.Equal(t, []string{"c1", "a3", "a1"}, ids)

	a2, err := f.repos.Artist.GetByID(ctx, "evt-1", "a2")
	require.NoError(t, err)
	assert.Nil(t, a2.PerformanceOrder, "artists left out of the list lose their slot")

	a3, err := f.repos.Artist.GetByID(ctx, "evt-1", "a3")
	require.NoError(t, err)
	require.NotNil(t, a3.PerformanceDate)
	assert.Equal(t, "2026-07-01", *a3.PerformanceDate)

	assert.Equal(t, []realtime.EventType{realtime.ShowOrderUpdated}, f.pub.types())
}

func TestShowOrderService_ReorderRejectsBadInput(t *testing.T) {
	f, svc := newShowOrderFixture(t)
	f.artist(t, "a1", "one@fame.test", nil, nil, 5)

	tests := []struct {
		name string
		date string
		refs []models.ShowItemRef
	}{
		{"missing date", "", []models.ShowItemRef{{Type: models.ShowItemArtist, ID: "a1"}}},
		{"duplicate", "2026-07-01", []models.ShowItemRef{
			{Type: models.ShowItemArtist, ID: "a1"}, {Type: models.ShowItemArtist, ID: "a1"},
		}},
		{"unknown", "2026-07-01", []models.ShowItemRef{{Type: models.ShowItemCue, ID: "ghost"}}},
		{"bad type", "2026-07-01", []models.ShowItemRef{{Type: "band", ID: "a1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Reorder(context.Background(), "evt-1", tt.date, tt.refs)
			var verr *ValidationError
			assert.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
		})
	}
	assert.Empty(t, f.pub.types())
}

func TestShowOrderService_UpdateStatusDemotesPreviousAct(t *testing.T) {
	f, svc := newShowOrderFixture(t)
	ctx := context.Background()
	day1 := strPtr("2026-07-01")
	f.artist(t, "a1", "one@fame.test", intPtr(1), day1, 5)
	f.artist(t, "a2", "two@fame.test", intPtr(2), day1, 5)
	f.cue(t, "c1", intPtr(3), day1, 2)

	item, err := svc.UpdateStatus(ctx, "evt-1", models.ShowItemArtist, "a1", models.StatusCurrentlyOnStage)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCurrentlyOnStage, item.PerformanceStatus)

	_, err = svc.UpdateStatus(ctx, "evt-1", models.ShowItemCue, "c1", models.StatusCurrentlyOnStage)
	require.NoError(t, err)

	a1, err := f.repos.Artist.GetByID(ctx, "evt-1", "a1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, a1.PerformanceStatus)

	order, err := svc.Get(ctx, "evt-1", "2026-07-01")
	require.NoError(t, err)
	onStage := 0
	for _, it := range order.Items {
		if it.PerformanceStatus == models.StatusCurrentlyOnStage {
			onStage++
		}
	}
	assert.Equal(t, 1, onStage)

	assert.Equal(t, []realtime.EventType{
		realtime.ArtistStatusChanged,
		realtime.ArtistStatusChanged, // a1 completed
		realtime.CueUpdated,
	}, f.pub.types())
}

func TestShowOrderService_UpdateStatusKeepsOtherDates(t *testing.T) {
	f, svc := newShowOrderFixture(t)
	ctx := context.Background()
	f.artist(t, "a1", "one@fame.test", intPtr(1), strPtr("2026-07-01"), 5)
	f.artist(t, "a2", "two@fame.test", intPtr(1), strPtr("2026-07-02"), 5)
	f.cue(t, "c1", intPtr(2), nil, 2)

	_, err := svc.UpdateStatus(ctx, "evt-1", models.ShowItemArtist, "a1", models.StatusCurrentlyOnStage)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, "evt-1", models.ShowItemArtist, "a2", models.StatusCurrentlyOnStage)
	require.NoError(t, err)

	a1, err := f.repos.Artist.GetByID(ctx, "evt-1", "a1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCurrentlyOnStage, a1.PerformanceStatus, "day one is a different show")

	// an undated cue plays every date, so it takes over from both
	_, err = svc.UpdateStatus(ctx, "evt-1", models.ShowItemCue, "c1", models.StatusCurrentlyOnStage)
	require.NoError(t, err)
	for _, id := range []string{"a1", "a2"} {
		a, err := f.repos.Artist.GetByID(ctx, "evt-1", id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, a.PerformanceStatus, id)
	}
}

func TestShowOrderService_UpdateStatusErrors(t *testing.T) {
	f, svc := newShowOrderFixture(t)
	ctx := context.Background()
	f.artist(t, "a1", "one@fame.test", intPtr(1), strPtr("2026-07-01"), 5)
	_, err := f.repos.Artist.Update(ctx, "evt-1", "a1", func(a *models.Artist) error {
		a.PerformanceStatus = models.StatusCurrentlyOnStage
		return nil
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, "evt-1", models.ShowItemArtist, "ghost", models.StatusCurrentlyOnStage)
	assert.ErrorIs(t, err, ErrNotFound)

	a1, err := f.repos.Artist.GetByID(ctx, "evt-1", "a1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCurrentlyOnStage, a1.PerformanceStatus, "a missing target must not demote anyone")

	_, err = svc.UpdateStatus(ctx, "evt-1", models.ShowItemArtist, "a1", "dancing")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestShowOrderService_LiveBoard(t *testing.T) {
	f, svc := newShowOrderFixture(t)
	ctx := context.Background()
	day1 := strPtr("2026-07-01")
	for i, id := range []string{"a1", "a2", "a3", "a4", "a5"} {
		f.artist(t, id, id+"@fame.test", intPtr(i+1), day1, 5)
	}
	set := func(id string, st models.ArtistStatus) {
		_, err := f.repos.Artist.Update(ctx, "evt-1", id, func(a *models.Artist) error {
			a.PerformanceStatus = st
			return nil
		})
		require.NoError(t, err)
	}
	set("a1", models.StatusCompleted)
	set("a2", models.StatusCurrentlyOnStage)
	set("a4", models.StatusNextOnStage)

	require.NoError(t, f.repos.Emergency.Put(ctx, &models.EmergencyBroadcast{
		ID: "b1", EventID: "evt-1", Message: "Hold", EmergencyCode: models.EmergencyYellow, Active: true,
	}))

	board, err := svc.LiveBoard(ctx, "evt-1", "2026-07-01")
	require.NoError(t, err)

	require.NotNil(t, board.Current)
	assert.Equal(t, "a2", board.Current.ID)
	require.NotNil(t, board.NextOnStage)
	assert.Equal(t, "a4", board.NextOnStage.ID, "an explicit next_on_stage wins")
	require.NotNil(t, board.NextOnDeck)
	assert.Equal(t, "a3", board.NextOnDeck.ID)
	require.Len(t, board.Upcoming, 1)
	assert.Equal(t, "a5", board.Upcoming[0].ID)
	assert.Equal(t, 1, board.Completed)
	require.NotNil(t, board.Emergency)
	assert.Equal(t, "Hold", board.Emergency.Message)
}

func TestShowOrderService_LiveBoardEmpty(t *testing.T) {
	_, svc := newShowOrderFixture(t)

	board, err := svc.LiveBoard(context.Background(), "evt-1", "")
	require.NoError(t, err)
	assert.Equal(t, "2026-07-02", board.Date)
	assert.Nil(t, board.Current)
	assert.Nil(t, board.NextOnStage)
	assert.Nil(t, board.NextOnDeck)
	assert.Empty(t, board.Upcoming)
	assert.Nil(t, board.Emergency)
}

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fame-api/internal/auth"
	"github.com/fame-api/internal/config"
	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/realtime"
	"github.com/fame-api/internal/repository"
	"github.com/fame-api/internal/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, ev realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []realtime.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]realtime.EventType, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type fixture struct {
	repos *repository.Repositories
	pub   *recordingPublisher
	cfg   *config.Config
	log   zerolog.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		repos: repository.New(storage.NewMemoryStore()),
		pub:   &recordingPublisher{},
		cfg: &config.Config{
			Storage: config.StorageConfig{PublicURL: "/api/media"},
			Upload:  config.UploadConfig{MaxUploadSize: 1 << 20},
			Import:  config.ImportConfig{BatchSize: 2},
		},
		log: zerolog.Nop(),
	}
}

// event stores an event with two show dates starting at 20:00
func (f *fixture) event(t *testing.T) *models.Event {
	t.Helper()
	e := &models.Event{
		ID:        "evt-1",
		Name:      "Summer Fest",
		Venue:     "Main Hall",
		ShowDates: []string{"2026-07-01", "2026-07-02"},
		Timing: models.EventTiming{
			ShowStartTime:              "20:00",
			DefaultPerformanceDuration: 5,
			BufferBetweenActs:          1,
		},
		Status:    models.EventActive,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.repos.Event.Create(context.Background(), e))
	return e
}

func (f *fixture) artist(t *testing.T, id, email string, order *int, date *string, minutes int) *models.Artist {
	t.Helper()
	a := &models.Artist{
		ID:                  id,
		EventID:             "evt-1",
		ArtistName:          "Artist " + id,
		Email:               email,
		PerformanceDuration: minutes,
		PerformanceOrder:    order,
		PerformanceDate:     date,
		PerformanceStatus:   models.StatusNotStarted,
		RehearsalCompleted:  true,
	}
	require.NoError(t, f.repos.Artist.Create(context.Background(), a))
	return a
}

func (f *fixture) cue(t *testing.T, id string, order *int, date *string, minutes int) *models.Cue {
	t.Helper()
	c := &models.Cue{
		ID:                id,
		EventID:           "evt-1",
		Type:              models.CueMCBreak,
		Title:             "Cue " + id,
		Duration:          minutes,
		PerformanceOrder:  order,
		PerformanceDate:   date,
		PerformanceStatus: models.StatusNotStarted,
	}
	require.NoError(t, f.repos.Cue.Create(context.Background(), c))
	return c
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

func staff() *auth.Session {
	return &auth.Session{UserID: "sm", Role: models.RoleStageManager}
}

func artistActor(email string) *auth.Session {
	return &auth.Session{UserID: "u-" + email, Email: email, Role: models.RoleArtist}
}

package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fame-api/internal/auth"
	"github.com/fame-api/internal/config"
	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/realtime"
	"github.com/fame-api/internal/repository"
	"github.com/fame-api/internal/service"
	"github.com/fame-api/internal/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
events:
  - name: Summer Fest
    venue: Main Hall
    show_dates: ["2026-07-01", "2026-07-02"]
    timing:
      show_start_time: "20:00"
      default_performance_duration: 6
      buffer_between_acts: 2
users:
  - email: sm@fame.test
    name: Sam
    password: stage-manager-pw
    role: stage_manager
  - email: dj@fame.test
    name: Dee
    password: dj-password
    role: dj
`

func newServices(t *testing.T) *service.Services {
	t.Helper()
	blobs, err := storage.NewLocalBlobStore(t.TempDir())
	require.NoError(t, err)
	cfg := &config.Config{Import: config.ImportConfig{BatchSize: 10}}
	return service.NewServices(
		repository.New(storage.NewMemoryStore()),
		blobs,
		realtime.NopPublisher{},
		auth.NewSessionManager("seed-test-secret-0123", time.Hour),
		cfg,
		zerolog.Nop(),
	)
}

func TestLoadAndApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	require.Len(t, f.Events, 1)
	require.Len(t, f.Users, 2)

	services := newServices(t)
	ctx := context.Background()

	res, err := Apply(ctx, services, f, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, Result{EventsCreated: 1, UsersCreated: 2}, res)

	events, err := services.Event.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "20:00", events[0].Timing.ShowStartTime)
	assert.Equal(t, 6, events[0].Timing.DefaultPerformanceDuration)
	assert.Equal(t, "seed", events[0].CreatedBy)

	user, _, _, err := services.Auth.Login(ctx, "dj@fame.test", "dj-password")
	require.NoError(t, err)
	assert.Equal(t, models.RoleDJ, user.Role)

	again, err := Apply(ctx, services, f, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, Result{EventsSkipped: 1, UsersSkipped: 2}, again)
}

func TestApplyRejectsInvalidEvent(t *testing.T) {
	f := &File{Events: []map[string]any{{"name": "No Venue", "show_dates": []any{"2026-07-01"}}}}

	_, err := Apply(context.Background(), newServices(t), f, zerolog.Nop())
	require.Error(t, err)
	var verr *service.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("events: [unterminated"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

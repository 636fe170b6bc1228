package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/repository"
	"github.com/fame-api/internal/storage"
)

func newRepos(t *testing.T) (*repository.Repositories, storage.DocumentStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	return repository.New(store), store
}

func TestEventRepository_CreateListDelete(t *testing.T) {
	repos, store := newRepos(t)
	ctx := context.Background()

	older := &models.Event{ID: "e1", Name: "Spring", CreatedAt: time.Now().Add(-time.Hour)}
	newer := &models.Event{ID: "e2", Name: "Summer", CreatedAt: time.Now()}
	for _, e := range []*models.Event{older, newer} {
		if err := repos.Event.Create(ctx, e); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	if err := repos.Event.Create(ctx, older); !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	// Nested documents must not show up as events
	if err := repos.Artist.Create(ctx, &models.Artist{ID: "a1", EventID: "e1", Email: "a@x.io"}); err != nil {
		t.Fatalf("artist Create failed: %v", err)
	}

	events, err := repos.Event.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(events) != 2 || events[0].ID != "e2" {
		t.Fatalf("expected [e2 e1], got %+v", events)
	}

	if err := repos.Event.Delete(ctx, "e1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "events/e1/artists.json"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected artists document to be removed, got %v", err)
	}
	if got, _ := repos.Event.GetByID(ctx, "e1"); got != nil {
		t.Errorf("expected deleted event to be gone")
	}
}

func TestEventRepository_UpdateMissing(t *testing.T) {
	repos, _ := newRepos(t)
	got, err := repos.Event.Update(context.Background(), "nope", func(e *models.Event) error {
		e.Name = "x"
		return nil
	})
	if err != nil || got != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", got, err)
	}
}

func TestArtistRepository_BatchInsertDuplicateEmail(t *testing.T) {
	repos, _ := newRepos(t)
	ctx := context.Background()

	artists := []*models.Artist{
		{ID: "a1", EventID: "e1", Email: "one@test.com"},
		{ID: "a2", EventID: "e1", Email: "two@test.com"},
	}
	inserted, err := repos.Artist.BatchInsert(ctx, "e1", artists)
	if err != nil {
		t.Fatalf("BatchInsert failed: %v", err)
	}
	if inserted != 2 {
		t.Errorf("Expected 2 inserted, got %d", inserted)
	}

	_, err = repos.Artist.BatchInsert(ctx, "e1", []*models.Artist{{ID: "a3", EventID: "e1", Email: "ONE@test.com"}})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	list, _ := repos.Artist.List(ctx, "e1")
	if len(list) != 2 {
		t.Errorf("failed batch must not write, got %d artists", len(list))
	}
}

func TestArtistRepository_ConcurrentUpdatesKeepEveryWrite(t *testing.T) {
	repos, _ := newRepos(t)
	ctx := context.Background()

	const n = 4
	for i := 0; i < n; i++ {
		a := &models.Artist{ID: fmt.Sprintf("a%d", i), EventID: "e1", Email: fmt.Sprintf("a%d@test.com", i)}
		if err := repos.Artist.Create(ctx, a); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for {
				_, err := repos.Artist.Update(ctx, "e1", fmt.Sprintf("a%d", i), func(a *models.Artist) error {
					a.RehearsalCompleted = true
					return nil
				})
				if !errors.Is(err, storage.ErrConflict) {
					if err != nil {
						t.Errorf("Update failed: %v", err)
					}
					return
				}
			}
		}(i)
	}
	wg.Wait()

	list, _ := repos.Artist.List(ctx, "e1")
	for _, a := range list {
		if !a.RehearsalCompleted {
			t.Errorf("update to %s was lost", a.ID)
		}
	}
}

func TestArtistRepository_UpdateAndDelete(t *testing.T) {
	repos, _ := newRepos(t)
	ctx := context.Background()
	_ = repos.Artist.Create(ctx, &models.Artist{ID: "a1", EventID: "e1", Email: "a@test.com", ArtistName: "Old"})

	updated, err := repos.Artist.Update(ctx, "e1", "a1", func(a *models.Artist) error {
		a.ArtistName = "New"
		return nil
	})
	if err != nil || updated == nil || updated.ArtistName != "New" {
		t.Fatalf("Update = (%v, %v)", updated, err)
	}

	missing, err := repos.Artist.Update(ctx, "e1", "zzz", func(a *models.Artist) error { return nil })
	if err != nil || missing != nil {
		t.Errorf("expected (nil, nil) for missing artist, got (%v, %v)", missing, err)
	}

	if err := repos.Artist.Delete(ctx, "e1", "a1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := repos.Artist.Delete(ctx, "e1", "a1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_UniqueEmailAcrossRoles(t *testing.T) {
	repos, _ := newRepos(t)
	ctx := context.Background()

	dj := &models.User{ID: "u1", Email: "crew@test.com", Role: models.RoleDJ}
	if err := repos.User.Create(ctx, dj); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	sm := &models.User{ID: "u2", Email: "Crew@Test.com", Role: models.RoleStageManager}
	if err := repos.User.Create(ctx, sm); !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	found, err := repos.User.GetByEmail(ctx, " CREW@test.com ")
	if err != nil || found == nil || found.ID != "u1" {
		t.Fatalf("GetByEmail = (%v, %v)", found, err)
	}

	count, _ := repos.User.Count(ctx)
	if count != 1 {
		t.Errorf("Expected count 1, got %d", count)
	}
}

func TestRegistrationRepository_Take(t *testing.T) {
	repos, _ := newRepos(t)
	ctx := context.Background()

	reg := &models.StageManagerRegistration{ID: "r1", Email: "sm@test.com", Name: "SM"}
	if err := repos.Registration.Add(ctx, reg); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := repos.Registration.Add(ctx, &models.StageManagerRegistration{ID: "r2", Email: "SM@test.com"}); !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	pending, _ := repos.Registration.EmailPending(ctx, "sm@test.com")
	if !pending {
		t.Error("expected email to be pending")
	}

	taken, err := repos.Registration.Take(ctx, "r1")
	if err != nil || taken == nil || taken.Email != "sm@test.com" {
		t.Fatalf("Take = (%v, %v)", taken, err)
	}
	again, err := repos.Registration.Take(ctx, "r1")
	if err != nil || again != nil {
		t.Errorf("second Take should find nothing, got (%v, %v)", again, err)
	}
}

func TestJobRepository_PendingJobs(t *testing.T) {
	repos, _ := newRepos(t)
	ctx := context.Background()

	jobs := []*models.Job{
		{ID: "job-1", Status: models.JobStatusPending, CreatedAt: time.Now().Add(-time.Minute)},
		{ID: "job-2", Status: models.JobStatusProcessing, CreatedAt: time.Now()},
		{ID: "job-3", Status: models.JobStatusPending, CreatedAt: time.Now()},
	}
	for _, j := range jobs {
		if err := repos.Job.Create(ctx, j); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	_ = repos.Job.AddErrors(ctx, "job-1", []models.ValidationError{{Line: 1, Message: "bad"}})

	pending, err := repos.Job.GetPendingJobs(ctx)
	if err != nil {
		t.Fatalf("GetPendingJobs failed: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != "job-1" {
		t.Errorf("Expected [job-1 job-3], got %+v", pending)
	}
}

func TestJobRepository_MarkAsProcessing(t *testing.T) {
	repos, _ := newRepos(t)
	ctx := context.Background()
	_ = repos.Job.Create(ctx, &models.Job{ID: "job-1", Status: models.JobStatusPending})

	claimed, err := repos.Job.MarkJobAsProcessing(ctx, "job-1")
	if err != nil || !claimed {
		t.Fatalf("first claim = (%v, %v)", claimed, err)
	}
	claimed, err = repos.Job.MarkJobAsProcessing(ctx, "job-1")
	if err != nil || claimed {
		t.Errorf("second claim should fail, got (%v, %v)", claimed, err)
	}

	job, _ := repos.Job.GetByID(ctx, "job-1")
	if job.Status != models.JobStatusProcessing || job.StartedAt == nil {
		t.Errorf("unexpected job state %+v", job)
	}
}

func TestJobRepository_ValidationErrors(t *testing.T) {
	repos, _ := newRepos(t)
	ctx := context.Background()

	errs := []models.ValidationError{
		{Line: 1, Message: "email is required"},
		{Line: 2, Message: "performance_duration must be a number"},
		{Line: 3, Message: "duplicate email"},
	}
	if err := repos.Job.AddErrors(ctx, "job-1", errs[:2]); err != nil {
		t.Fatalf("AddErrors failed: %v", err)
	}
	if err := repos.Job.AddErrors(ctx, "job-1", errs[2:]); err != nil {
		t.Fatalf("AddErrors failed: %v", err)
	}

	all, _ := repos.Job.GetErrors(ctx, "job-1", 0)
	if len(all) != 3 {
		t.Errorf("Expected 3 errors, got %d", len(all))
	}
	limited, _ := repos.Job.GetErrors(ctx, "job-1", 2)
	if len(limited) != 2 {
		t.Errorf("Expected 2 errors with limit, got %d", len(limited))
	}
}

func TestJobRepository_IdempotencyKey(t *testing.T) {
	repos, _ := newRepos(t)
	ctx := context.Background()

	job := &models.Job{ID: "job-1", Status: models.JobStatusPending, IdempotencyKey: "roster/upload #1"}
	if err := repos.Job.Create(ctx, job); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, err := repos.Job.GetByIdempotencyKey(ctx, "roster/upload #1")
	if err != nil || found == nil || found.ID != "job-1" {
		t.Fatalf("GetByIdempotencyKey = (%v, %v)", found, err)
	}

	dup := &models.Job{ID: "job-2", Status: models.JobStatusPending, IdempotencyKey: "roster/upload #1"}
	if err := repos.Job.Create(ctx, dup); !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	if j, _ := repos.Job.GetByID(ctx, "job-2"); j != nil {
		t.Error("duplicate job must not be stored")
	}

	none, _ := repos.Job.GetByIdempotencyKey(ctx, "other")
	if none != nil {
		t.Error("expected no job for unknown key")
	}
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/storage"
)

// jobRepo is the concrete implementation of JobRepository
type jobRepo struct {
	store storage.DocumentStore
}

type idempotencyRecord struct {
	JobID string `json:"job_id"`
}

// NewJobRepo creates a new job repository
func NewJobRepo(store storage.DocumentStore) JobRepository {
	return &jobRepo{store: store}
}

// Create inserts a new job. When the job carries an idempotency key that was
// already used, ErrDuplicate is returned and nothing is written.
func (r *jobRepo) Create(ctx context.Context, job *models.Job) error {
	if job.IdempotencyKey != "" {
		body, err := json.Marshal(idempotencyRecord{JobID: job.ID})
		if err != nil {
			return err
		}
		_, err = r.store.Put(ctx, idempotencyKey(job.IdempotencyKey), body, storage.MustNotExist)
		if errors.Is(err, storage.ErrConflict) {
			return fmt.Errorf("idempotency key %s: %w", job.IdempotencyKey, ErrDuplicate)
		}
		if err != nil {
			return err
		}
	}

	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = r.store.Put(ctx, jobKey(job.ID), body, storage.MustNotExist)
	return err
}

// Update updates job status and counters
func (r *jobRepo) Update(ctx context.Context, job *models.Job) error {
	return storage.WriteJSON(ctx, r.store, jobKey(job.ID), job)
}

// GetByID retrieves a job by ID
func (r *jobRepo) GetByID(ctx context.Context, id string) (*models.Job, error) {
	job, found, err := storage.ReadJSON[models.Job](ctx, r.store, jobKey(id))
	if err != nil || !found {
		return nil, err
	}
	return &job, nil
}

// GetByIdempotencyKey retrieves a job by idempotency key
func (r *jobRepo) GetByIdempotencyKey(ctx context.Context, key string) (*models.Job, error) {
	rec, found, err := storage.ReadJSON[idempotencyRecord](ctx, r.store, idempotencyKey(key))
	if err != nil || !found {
		return nil, err
	}
	return r.GetByID(ctx, rec.JobID)
}

// GetPendingJobs retrieves pending jobs, oldest first
func (r *jobRepo) GetPendingJobs(ctx context.Context) ([]*models.Job, error) {
	keys, err := r.store.List(ctx, jobsPrefix)
	if err != nil {
		return nil, err
	}

	var jobs []*models.Job
	for _, key := range keys {
		id, ok := topLevelID(key, jobsPrefix)
		if !ok {
			continue
		}
		job, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if job != nil && job.Status == models.JobStatusPending {
			jobs = append(jobs, job)
		}
	}

	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
	return jobs, nil
}

// MarkJobAsProcessing claims a pending job. Only one caller can win the claim.
func (r *jobRepo) MarkJobAsProcessing(ctx context.Context, jobID string) (bool, error) {
	claimed := false
	_, err := storage.Update(ctx, r.store, jobKey(jobID), func(job *models.Job, exists bool) error {
		claimed = false
		if !exists || job.Status != models.JobStatusPending {
			return storage.ErrSkipWrite
		}
		now := time.Now().UTC()
		job.Status = models.JobStatusProcessing
		job.StartedAt = &now
		claimed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return claimed, nil
}

// AddErrors appends validation errors for a job
func (r *jobRepo) AddErrors(ctx context.Context, jobID string, errs []models.ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	_, err := storage.Update(ctx, r.store, jobErrorsKey(jobID), func(list *[]models.ValidationError, exists bool) error {
		*list = append(*list, errs...)
		return nil
	})
	return err
}

// GetErrors retrieves validation errors for a job. limit <= 0 returns all.
func (r *jobRepo) GetErrors(ctx context.Context, jobID string, limit int) ([]models.ValidationError, error) {
	list, _, err := storage.ReadJSON[[]models.ValidationError](ctx, r.store, jobErrorsKey(jobID))
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

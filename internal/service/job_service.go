package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fame-api/internal/config"
	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/monitoring"
	"github.com/fame-api/internal/repository"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	defaultImportWorkers = 4
	defaultPollInterval  = 2 * time.Second
	jobErrorPreview      = 100
)

// jobService queues roster imports and runs them on a bounded pool
type jobService struct {
	jobRepo       repository.JobRepository
	importService ImportService
	log           zerolog.Logger
	pollInterval  time.Duration

	// pool runs at most `workers` imports; a job that finds it full stays
	// pending until a later tick.
	pool errgroup.Group

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

func newJobService(jobRepo repository.JobRepository, cfg config.ImportConfig, log zerolog.Logger) *jobService {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultImportWorkers
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	s := &jobService{
		jobRepo:      jobRepo,
		log:          log.With().Str("service", "job").Int("workers", workers).Logger(),
		pollInterval: interval,
	}
	s.pool.SetLimit(workers)
	return s
}

// SetImportService sets the import service for job processing
func (s *jobService) SetImportService(importService ImportService) {
	s.importService = importService
}

// StartProcessor polls for pending imports until ctx is cancelled or
// StopProcessor is called. It blocks.
func (s *jobService) StartProcessor(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.stopped = make(chan struct{})
	stopped := s.stopped
	s.mu.Unlock()
	defer close(stopped)

	s.log.Info().Dur("poll_interval", s.pollInterval).Msg("Import processor started")
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Import processor stopping")
			return
		case <-ticker.C:
			s.dispatchPending(ctx)
		}
	}
}

// StopProcessor stops polling and waits for running imports to finish
func (s *jobService) StopProcessor() {
	s.mu.Lock()
	cancel, stopped := s.cancel, s.stopped
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	<-stopped
	s.pool.Wait()
	s.log.Info().Msg("Import processor stopped")
}

// dispatchPending hands pending jobs to free workers, oldest first
func (s *jobService) dispatchPending(ctx context.Context) {
	pending, err := s.jobRepo.GetPendingJobs(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list pending imports")
		return
	}

	for _, job := range pending {
		if ctx.Err() != nil {
			return
		}
		if !s.pool.TryGo(func() error { s.run(ctx, job); return nil }) {
			s.log.Debug().Int("waiting", len(pending)).Msg("Import workers busy")
			return
		}
	}
}

// run claims a job and imports it. Losing the claim means another
// instance took the job.
func (s *jobService) run(ctx context.Context, job *models.Job) {
	claimed, err := s.jobRepo.MarkJobAsProcessing(ctx, job.ID)
	if err != nil {
		s.log.Error().Err(err).Str("job_id", job.ID).Msg("Failed to claim import")
		return
	}
	if !claimed {
		return
	}
	started := time.Now().UTC()
	job.Status, job.StartedAt = models.JobStatusProcessing, &started

	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("job_id", job.ID).Msg("Import panicked")
			s.fail(job)
		}
	}()

	if s.importService == nil {
		s.log.Error().Str("job_id", job.ID).Msg("No import service configured")
		s.fail(job)
		return
	}

	s.log.Info().
		Str("job_id", job.ID).
		Str("event_id", job.EventID).
		Str("format", string(job.Format)).
		Msg("Importing roster")
	if err := s.importService.ProcessImport(ctx, job); err != nil {
		s.log.Error().Err(err).Str("job_id", job.ID).Msg("Roster import failed")
	}
}

func (s *jobService) fail(job *models.Job) {
	done := time.Now().UTC()
	job.Status, job.CompletedAt = models.JobStatusFailed, &done
	if err := s.jobRepo.Update(context.Background(), job); err != nil {
		s.log.Error().Err(err).Str("job_id", job.ID).Msg("Failed to mark import as failed")
	}
	monitoring.TrackImportJob(string(job.Status))
}

// GetJob returns a job with the first errors of its report
func (s *jobService) GetJob(ctx context.Context, id string) (*models.JobResponse, error) {
	job, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	preview, err := s.jobRepo.GetErrors(ctx, id, jobErrorPreview)
	if err != nil {
		s.log.Warn().Err(err).Str("job_id", id).Msg("Failed to load error preview")
	}

	resp := &models.JobResponse{Job: *job, Errors: preview, ErrorCount: job.FailedCount}
	if job.FailedCount > 0 {
		resp.ErrorReport = "/api/imports/" + job.ID + "/errors"
	}
	return resp, nil
}

// GetJobByIdempotencyKey returns the job created with key, or nil
func (s *jobService) GetJobByIdempotencyKey(ctx context.Context, key string) (*models.Job, error) {
	return s.jobRepo.GetByIdempotencyKey(ctx, key)
}

// GetJobErrors returns the full error report of a job
func (s *jobService) GetJobErrors(ctx context.Context, id string) ([]models.ValidationError, error) {
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	return s.jobRepo.GetErrors(ctx, id, 0)
}

func (s *jobService) find(ctx context.Context, id string) (*models.Job, error) {
	job, err := s.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("import job %s: %w", id, ErrNotFound)
	}
	return job, nil
}

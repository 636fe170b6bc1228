package service

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fame-api/internal/config"
	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/monitoring"
	"github.com/fame-api/internal/realtime"
	"github.com/fame-api/internal/repository"
	"github.com/fame-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// errorFlushThreshold caps how many row errors are held in memory before
// they are written to the job's error document.
const errorFlushThreshold = 1000

// CSV columns converted from text before validation
var (
	csvIntColumns  = []string{"performance_duration", "actual_duration", "performance_order"}
	csvBoolColumns = []string{"rehearsal_completed"}
)

// importService is the concrete implementation of ImportService
type importService struct {
	repos     *repository.Repositories
	publisher realtime.Publisher
	cfg       *config.Config
	log       zerolog.Logger
}

// newImportService creates a new ImportService
func newImportService(repos *repository.Repositories, publisher realtime.Publisher, cfg *config.Config, log zerolog.Logger) *importService {
	return &importService{
		repos:     repos,
		publisher: publisher,
		cfg:       cfg,
		log:       log.With().Str("service", "import").Logger(),
	}
}

// CreateImportJob queues a roster import. A reused idempotency key returns
// the job created the first time.
func (s *importService) CreateImportJob(ctx context.Context, req *models.ImportRequest, filePath string) (*models.Job, error) {
	if req.Format != models.ImportCSV && req.Format != models.ImportNDJSON {
		return nil, invalid("format must be csv or ndjson")
	}
	event, err := s.repos.Event.GetByID(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, fmt.Errorf("event %s: %w", req.EventID, ErrNotFound)
	}

	job := &models.Job{
		ID:             uuid.New().String(),
		EventID:        req.EventID,
		Format:         req.Format,
		Status:         models.JobStatusPending,
		IdempotencyKey: req.IdempotencyKey,
		FilePath:       filePath,
		CreatedBy:      req.CreatedBy,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.repos.Job.Create(ctx, job); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			existing, getErr := s.repos.Job.GetByIdempotencyKey(ctx, req.IdempotencyKey)
			if getErr != nil {
				return nil, getErr
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}

	s.log.Info().
		Str("job_id", job.ID).
		Str("event_id", job.EventID).
		Str("format", string(job.Format)).
		Str("file", filePath).
		Msg("Import job created")

	return job, nil
}

// ProcessImport runs an import job to completion
func (s *importService) ProcessImport(ctx context.Context, job *models.Job) error {
	startTime := time.Now()
	if job.StartedAt == nil {
		started := startTime.UTC()
		job.StartedAt = &started
	}
	job.Status = models.JobStatusProcessing
	if err := s.repos.Job.Update(ctx, job); err != nil {
		s.log.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to mark job as processing")
	}

	s.log.Info().
		Str("job_id", job.ID).
		Str("event_id", job.EventID).
		Str("format", string(job.Format)).
		Msg("Starting import processing")

	err := s.processRoster(ctx, job)

	duration := time.Since(startTime)
	job.DurationMs = duration.Milliseconds()
	if job.ProcessedCount > 0 && duration.Seconds() > 0 {
		job.RowsPerSec = float64(job.ProcessedCount) / duration.Seconds()
	}
	completedAt := time.Now().UTC()
	job.CompletedAt = &completedAt

	var errorRate float64
	if job.TotalRecords > 0 {
		errorRate = float64(job.FailedCount) / float64(job.TotalRecords) * 100
	}

	if err != nil {
		job.Status = models.JobStatusFailed
		s.log.Error().Err(err).Str("job_id", job.ID).Msg("Import failed")
	} else {
		job.Status = models.JobStatusCompleted
		s.log.Info().
			Str("job_id", job.ID).
			Int("total", job.TotalRecords).
			Int("successful", job.SuccessfulCount).
			Int("failed", job.FailedCount).
			Float64("error_rate_pct", errorRate).
			Int64("duration_ms", job.DurationMs).
			Float64("rows_per_sec", job.RowsPerSec).
			Msg("Import completed")
	}

	monitoring.TrackImportRows(job.SuccessfulCount, job.FailedCount)
	monitoring.TrackImportJob(string(job.Status))

	// The job record must reflect the outcome even when ctx was cancelled
	if updateErr := s.repos.Job.Update(context.WithoutCancel(ctx), job); updateErr != nil {
		s.log.Error().Err(updateErr).Str("job_id", job.ID).Msg("Failed to store job result")
	}

	if job.SuccessfulCount > 0 {
		publish(ctx, s.publisher, s.log, realtime.ArtistRegistered, job.EventID, map[string]any{
			"artist_name": fmt.Sprintf("%d artists", job.SuccessfulCount),
			"job_id":      job.ID,
			"count":       job.SuccessfulCount,
		})
	}

	return err
}

// rosterRow is one decoded line of an import file
type rosterRow struct {
	line int
	raw  map[string]any
	err  error
}

// rowReader yields rows until io.EOF
type rowReader interface {
	next() (rosterRow, error)
}

// processRoster validates each row and inserts the valid ones in batches
func (s *importService) processRoster(ctx context.Context, job *models.Job) error {
	event, err := s.repos.Event.GetByID(ctx, job.EventID)
	if err != nil {
		return err
	}
	if event == nil {
		return fmt.Errorf("event %s no longer exists", job.EventID)
	}

	file, err := os.Open(job.FilePath)
	if err != nil {
		return err
	}
	defer file.Close()

	var rows rowReader
	switch job.Format {
	case models.ImportCSV:
		rows, err = newCSVRows(file)
		if err != nil {
			return fmt.Errorf("failed to read CSV header: %w", err)
		}
	case models.ImportNDJSON:
		rows = newNDJSONRows(file)
	default:
		return fmt.Errorf("unknown import format: %s", job.Format)
	}

	validator := validation.NewRosterValidator()
	emails, err := s.repos.Artist.Emails(ctx, job.EventID)
	if err != nil {
		return err
	}
	validator.SetEmailCache(emails)

	batchSize := s.cfg.Import.BatchSize
	var batch []*models.Artist
	var validationErrors []models.ValidationError

	reject := func(line int, errs ...models.ValidationError) {
		job.FailedCount++
		job.ProcessedCount++
		for _, e := range errs {
			e.Line = line
			validationErrors = append(validationErrors, e)
		}
		if len(validationErrors) >= errorFlushThreshold {
			s.flushValidationErrors(ctx, job.ID, &validationErrors)
		}
	}

	flush := func() {
		if len(batch) == 0 {
			return
		}
		inserted, err := s.repos.Artist.BatchInsert(ctx, job.EventID, batch)
		if err != nil {
			s.log.Error().Err(err).Int("batch_size", len(batch)).Msg("Batch insert failed")
			job.FailedCount += len(batch)
		} else {
			job.SuccessfulCount += inserted
		}
		job.ProcessedCount += len(batch)
		batch = batch[:0]

		s.log.Debug().
			Str("job_id", job.ID).
			Int("processed", job.ProcessedCount).
			Float64("rows_per_sec", float64(job.ProcessedCount)/time.Since(*job.StartedAt).Seconds()).
			Msg("Batch processed")
	}

	for {
		row, err := rows.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		job.TotalRecords++

		if job.TotalRecords%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		if row.err != nil {
			reject(row.line, models.ValidationError{Field: "row", Message: row.err.Error()})
			continue
		}

		if errs := validator.ValidateRow(row.raw); len(errs) > 0 {
			out := make([]models.ValidationError, len(errs))
			for i, e := range errs {
				out[i] = models.ValidationError{Field: e.Field, Message: e.Message, Value: e.Value}
			}
			reject(row.line, out...)
			continue
		}

		artist, verr := s.rowToArtist(event, row.raw)
		if verr != nil {
			reject(row.line, *verr)
			continue
		}
		batch = append(batch, artist)
		validator.AddEmail(artist.Email)

		if len(batch) >= batchSize {
			flush()
		}
	}
	flush()

	if len(validationErrors) > 0 {
		s.flushValidationErrors(ctx, job.ID, &validationErrors)
	}
	return nil
}

// rowToArtist builds an artist from a validated row
func (s *importService) rowToArtist(event *models.Event, raw map[string]any) (*models.Artist, *models.ValidationError) {
	artist := &models.Artist{}
	if err := applyPatch(artist, raw); err != nil {
		return nil, &models.ValidationError{Field: "row", Message: err.Error()}
	}
	if artist.PerformanceDate != nil && !event.HasShowDate(*artist.PerformanceDate) {
		return nil, &models.ValidationError{
			Field:   "performance_date",
			Message: "performance_date is not a show date of this event",
			Value:   *artist.PerformanceDate,
		}
	}

	ts := time.Now().UTC()
	artist.ID = uuid.New().String()
	artist.EventID = event.ID
	artist.Email = strings.TrimSpace(artist.Email)
	artist.ArtistName = strings.TrimSpace(artist.ArtistName)
	if artist.PerformanceStatus == "" {
		artist.PerformanceStatus = models.StatusNotStarted
	}
	if artist.MusicTracks == nil {
		artist.MusicTracks = []models.MusicTrack{}
	}
	if artist.GalleryFiles == nil {
		artist.GalleryFiles = []models.MediaFile{}
	}
	artist.CreatedAt = ts
	artist.UpdatedAt = ts
	return artist, nil
}

// flushValidationErrors writes accumulated errors and resets the slice
func (s *importService) flushValidationErrors(ctx context.Context, jobID string, errors *[]models.ValidationError) {
	if len(*errors) == 0 {
		return
	}
	if err := s.repos.Job.AddErrors(ctx, jobID, *errors); err != nil {
		s.log.Error().Err(err).Int("count", len(*errors)).Msg("Failed to flush validation errors")
	}
	*errors = (*errors)[:0]
}

// csvRows reads a roster CSV with a header line
type csvRows struct {
	reader    *csv.Reader
	headerMap map[string]int
	line      int
}

func newCSVRows(r io.Reader) (*csvRows, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	headerMap := make(map[string]int, len(header))
	for i, h := range header {
		headerMap[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return &csvRows{reader: reader, headerMap: headerMap, line: 1}, nil
}

func (c *csvRows) next() (rosterRow, error) {
	record, err := c.reader.Read()
	if err == io.EOF {
		return rosterRow{}, io.EOF
	}
	c.line++
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return rosterRow{line: c.line, err: fmt.Errorf("malformed CSV: %v", perr.Err)}, nil
		}
		return rosterRow{}, err
	}

	raw := make(map[string]any, len(c.headerMap))
	for name := range c.headerMap {
		if v := getField(record, c.headerMap, name); v != "" {
			raw[name] = v
		}
	}
	for _, col := range csvIntColumns {
		if v, ok := raw[col].(string); ok {
			if n, err := strconv.Atoi(v); err == nil {
				raw[col] = n
			}
		}
	}
	for _, col := range csvBoolColumns {
		if v, ok := raw[col].(string); ok {
			if b, err := strconv.ParseBool(v); err == nil {
				raw[col] = b
			}
		}
	}
	return rosterRow{line: c.line, raw: raw}, nil
}

// ndjsonRows reads one JSON object per line, skipping blank lines
type ndjsonRows struct {
	scanner *bufio.Scanner
	line    int
}

func newNDJSONRows(r io.Reader) *ndjsonRows {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	return &ndjsonRows{scanner: scanner}
}

func (n *ndjsonRows) next() (rosterRow, error) {
	for n.scanner.Scan() {
		n.line++
		line := strings.TrimSpace(n.scanner.Text())
		if line == "" {
			continue
		}
		var raw map[string]any
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			return rosterRow{line: n.line, err: fmt.Errorf("invalid JSON: %v", err)}, nil
		}
		if raw == nil {
			return rosterRow{line: n.line, err: errors.New("invalid JSON: expected an object")}, nil
		}
		return rosterRow{line: n.line, raw: raw}, nil
	}
	if err := n.scanner.Err(); err != nil {
		return rosterRow{}, err
	}
	return rosterRow{}, io.EOF
}

func getField(record []string, headerMap map[string]int, field string) string {
	if idx, ok := headerMap[field]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fame-api/internal/auth"
	"github.com/fame-api/internal/config"
	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ImportHandler handles roster import endpoints
type ImportHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *ImportHandler {
	return &ImportHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "import").Logger(),
	}
}

// importFormat picks the roster format from the explicit field or the file
// extension
func importFormat(explicit, filename string) (models.ImportFormat, bool) {
	switch strings.ToLower(explicit) {
	case "csv":
		return models.ImportCSV, true
	case "ndjson", "jsonl":
		return models.ImportNDJSON, true
	case "":
	default:
		return "", false
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return models.ImportCSV, true
	case ".ndjson", ".jsonl":
		return models.ImportNDJSON, true
	}
	return "", false
}

// CreateImport handles POST /api/events/:eventId/imports. The body is a
// multipart roster file (CSV or NDJSON); the job runs in the background.
func (h *ImportHandler) CreateImport(c *gin.Context) {
	ctx := c.Request.Context()
	eventID := c.Param("eventId")
	key := c.GetHeader("Idempotency-Key")

	if key != "" {
		prior, err := h.services.Job.GetJobByIdempotencyKey(ctx, key)
		if err != nil {
			h.log.Warn().Err(err).Str("idempotency_key", key).Msg("Idempotency lookup failed")
		}
		if prior != nil {
			if prior.EventID != eventID {
				respondMessage(c, http.StatusConflict, "idempotency key already used for another event")
				return
			}
			respondOK(c, http.StatusOK, prior)
			return
		}
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "roster file is required (multipart field \"file\")")
		return
	}
	defer file.Close()

	limit := h.cfg.Import.MaxUploadSize
	if header.Size > limit {
		respondMessage(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("roster exceeds %d MB", limit>>20))
		return
	}

	hint := c.PostForm("format")
	if hint == "" {
		hint = c.Query("format")
	}
	format, ok := importFormat(hint, header.Filename)
	if !ok {
		respondMessage(c, http.StatusBadRequest, "roster must be a .csv or .ndjson file")
		return
	}

	path, err := h.saveRoster(eventID, format, io.LimitReader(file, limit+1), limit)
	if errors.Is(err, errRosterTooLarge) {
		respondMessage(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("roster exceeds %d MB", limit>>20))
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("event_id", eventID).Msg("Failed to store roster upload")
		respondMessage(c, http.StatusInternalServerError, "failed to store roster")
		return
	}

	req := &models.ImportRequest{EventID: eventID, Format: format, IdempotencyKey: key}
	if s := currentSession(c); s != nil {
		req.CreatedBy = s.UserID
	}
	job, err := h.services.Import.CreateImportJob(ctx, req, path)
	if err != nil {
		os.Remove(path)
		respondError(c, h.log, err)
		return
	}

	h.log.Info().
		Str("job_id", job.ID).
		Str("event_id", eventID).
		Str("roster", header.Filename).
		Str("format", string(format)).
		Msg("Roster import queued")

	respondOK(c, http.StatusAccepted, gin.H{
		"job_id":     job.ID,
		"status":     job.Status,
		"event_id":   job.EventID,
		"format":     job.Format,
		"status_url": "/api/imports/" + job.ID,
	})
}

var errRosterTooLarge = errors.New("roster too large")

// saveRoster copies the upload into the import spool directory and returns
// its path. Reads past limit fail with errRosterTooLarge.
func (h *ImportHandler) saveRoster(eventID string, format models.ImportFormat, r io.Reader, limit int64) (string, error) {
	dir := h.cfg.Import.UploadDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("roster_%s_%s.%s", eventID, uuid.NewString()[:8], format))

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > limit {
		err = errRosterTooLarge
	}
	if err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// GetImportStatus handles GET /api/imports/:job_id
func (h *ImportHandler) GetImportStatus(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.services.Job.GetJob(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if !h.canSeeJob(c, job.EventID) {
		return
	}

	respondOK(c, http.StatusOK, job)
}

// GetImportErrors handles GET /api/imports/:job_id/errors?format=json|csv
func (h *ImportHandler) GetImportErrors(c *gin.Context) {
	ctx := c.Request.Context()
	jobID := c.Param("job_id")

	job, err := h.services.Job.GetJob(ctx, jobID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if !h.canSeeJob(c, job.EventID) {
		return
	}

	rows, err := h.services.Job.GetJobErrors(ctx, jobID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=roster_errors_%s.csv", jobID))
		if err := writeErrorReport(c.Writer, rows); err != nil {
			h.log.Warn().Err(err).Str("job_id", jobID).Msg("Error report write failed")
		}
		return
	}

	if rows == nil {
		rows = []models.ValidationError{}
	}
	respondOK(c, http.StatusOK, gin.H{
		"job_id":      jobID,
		"error_count": len(rows),
		"errors":      rows,
	})
}

// writeErrorReport writes one CSV row per rejected roster line
func writeErrorReport(w io.Writer, rows []models.ValidationError) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"line", "field", "message", "value"}); err != nil {
		return err
	}
	for _, e := range rows {
		var value string
		if e.Value != nil {
			value = fmt.Sprint(e.Value)
		}
		if err := cw.Write([]string{strconv.Itoa(e.Line), e.Field, e.Message, value}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// canSeeJob answers 403 when the caller is not assigned to the job's event
func (h *ImportHandler) canSeeJob(c *gin.Context, eventID string) bool {
	if auth.CanAccessEvent(currentSession(c), eventID) {
		return true
	}
	respondMessage(c, http.StatusForbidden, "no access to this event")
	return false
}

package api

import (
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/fame-api/internal/config"
	"github.com/fame-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// multipartOverhead is allowed on top of the media limit for form fields
const multipartOverhead = 1 << 20

// MediaHandler handles media upload and playback
type MediaHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *MediaHandler {
	return &MediaHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "media").Logger(),
	}
}

// Upload handles POST /api/gcs/upload. The multipart form carries the file
// plus event_id and artist_id; audio uploads may add song_title, duration
// (seconds), is_main_track and notes.
func (h *MediaHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.Upload.MaxUploadSize+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "file is required (multipart field \"file\")")
		return
	}

	eventID := c.PostForm("event_id")
	artistID := c.PostForm("artist_id")
	if eventID == "" || artistID == "" {
		respondMessage(c, http.StatusBadRequest, "event_id and artist_id are required")
		return
	}

	var duration int
	if raw := strings.TrimSpace(c.PostForm("duration")); raw != "" {
		duration, err = strconv.Atoi(raw)
		if err != nil {
			respondMessage(c, http.StatusBadRequest, "duration must be a whole number of seconds")
			return
		}
	}
	isMain, _ := strconv.ParseBool(c.PostForm("is_main_track"))

	file, err := fh.Open()
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	defer file.Close()

	result, err := h.services.Media.Upload(c.Request.Context(), &service.UploadRequest{
		EventID:     eventID,
		ArtistID:    artistID,
		Actor:       currentSession(c),
		FileName:    path.Base(fh.Filename),
		Body:        file,
		SongTitle:   c.PostForm("song_title"),
		Duration:    duration,
		IsMainTrack: isMain,
		Notes:       c.PostForm("notes"),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusCreated, result)
}

// Serve handles GET /api/media/*path with Range support
func (h *MediaHandler) Serve(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("path"), "/")

	obj, err := h.services.Media.Open(c.Request.Context(), key)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	defer obj.Close()

	if obj.ContentType != "" {
		c.Header("Content-Type", obj.ContentType)
	}
	c.Header("Cache-Control", "public, max-age=86400")
	http.ServeContent(c.Writer, c.Request, path.Base(key), obj.ModTime, obj)
}

package api

import (
	"net/http"

	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/service"
	"github.com/fame-api/internal/status"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// EventHandler handles events, artists and cues
type EventHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(services *service.Services, log zerolog.Logger) *EventHandler {
	return &EventHandler{
		services: services,
		log:      log.With().Str("handler", "event").Logger(),
	}
}

// bindObject decodes a JSON object body, answering 400 when it is not one
func bindObject(c *gin.Context) (map[string]any, bool) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil || raw == nil {
		respondMessage(c, http.StatusBadRequest, "request body must be a JSON object")
		return nil, false
	}
	return raw, true
}

// ListEvents handles GET /api/events
func (h *EventHandler) ListEvents(c *gin.Context) {
	events, err := h.services.Event.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if events == nil {
		events = []*models.Event{}
	}
	respondOK(c, http.StatusOK, events)
}

// CreateEvent handles POST /api/events
func (h *EventHandler) CreateEvent(c *gin.Context) {
	raw, ok := bindObject(c)
	if !ok {
		return
	}
	event, err := h.services.Event.Create(c.Request.Context(), raw, currentSession(c).UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusCreated, event)
}

// GetEvent handles GET /api/events/:eventId
func (h *EventHandler) GetEvent(c *gin.Context) {
	event, err := h.services.Event.Get(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, event)
}

// UpdateEvent handles PATCH /api/events/:eventId
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	raw, ok := bindObject(c)
	if !ok {
		return
	}
	event, err := h.services.Event.Update(c.Request.Context(), c.Param("eventId"), raw)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, event)
}

// DeleteEvent handles DELETE /api/events/:eventId
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	id := c.Param("eventId")
	if err := h.services.Event.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

// ListArtists handles GET /api/events/:eventId/artists?status=&date=
func (h *EventHandler) ListArtists(c *gin.Context) {
	filter := models.ArtistFilter{Date: c.Query("date")}
	if raw := c.Query("status"); raw != "" {
		s, ok := status.Parse(raw)
		if !ok {
			respondMessage(c, http.StatusBadRequest, "unknown status filter")
			return
		}
		filter.Status = s
	}

	artists, err := h.services.Artist.List(c.Request.Context(), c.Param("eventId"), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if artists == nil {
		artists = []models.Artist{}
	}
	respondOK(c, http.StatusOK, artists)
}

// RegisterArtist handles POST /api/events/:eventId/artists, the public
// registration form
func (h *EventHandler) RegisterArtist(c *gin.Context) {
	raw, ok := bindObject(c)
	if !ok {
		return
	}
	artist, err := h.services.Artist.Register(c.Request.Context(), c.Param("eventId"), raw)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.Info().Str("event_id", artist.EventID).Str("artist_id", artist.ID).Msg("Artist registered")
	respondOK(c, http.StatusCreated, artist)
}

// GetArtist handles GET /api/events/:eventId/artists/:artistId
func (h *EventHandler) GetArtist(c *gin.Context) {
	artist, err := h.services.Artist.Get(c.Request.Context(), c.Param("eventId"), c.Param("artistId"), currentSession(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, artist)
}

// UpdateArtist handles PATCH /api/events/:eventId/artists/:artistId
func (h *EventHandler) UpdateArtist(c *gin.Context) {
	raw, ok := bindObject(c)
	if !ok {
		return
	}
	artist, err := h.services.Artist.Update(c.Request.Context(), c.Param("eventId"), c.Param("artistId"), raw, currentSession(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, artist)
}

// DeleteArtist handles DELETE /api/events/:eventId/artists/:artistId
func (h *EventHandler) DeleteArtist(c *gin.Context) {
	id := c.Param("artistId")
	if err := h.services.Artist.Delete(c.Request.Context(), c.Param("eventId"), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

// AssignArtist handles PATCH /api/events/:eventId/artists/:artistId/assign
func (h *EventHandler) AssignArtist(c *gin.Context) {
	var req models.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "performance_date and performance_order must be a date string and an integer")
		return
	}
	artist, err := h.services.Artist.Assign(c.Request.Context(), c.Param("eventId"), c.Param("artistId"), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, artist)
}

// ListCues handles GET /api/events/:eventId/cues
func (h *EventHandler) ListCues(c *gin.Context) {
	cues, err := h.services.Cue.List(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if cues == nil {
		cues = []models.Cue{}
	}
	respondOK(c, http.StatusOK, cues)
}

// CreateCue handles POST /api/events/:eventId/cues
func (h *EventHandler) CreateCue(c *gin.Context) {
	raw, ok := bindObject(c)
	if !ok {
		return
	}
	cue, err := h.services.Cue.Create(c.Request.Context(), c.Param("eventId"), raw)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusCreated, cue)
}

// UpdateCue handles PATCH /api/events/:eventId/cues/:cueId
func (h *EventHandler) UpdateCue(c *gin.Context) {
	raw, ok := bindObject(c)
	if !ok {
		return
	}
	cue, err := h.services.Cue.Update(c.Request.Context(), c.Param("eventId"), c.Param("cueId"), raw)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, cue)
}

// DeleteCue handles DELETE /api/events/:eventId/cues/:cueId
func (h *EventHandler) DeleteCue(c *gin.Context) {
	id := c.Param("cueId")
	if err := h.services.Cue.Delete(c.Request.Context(), c.Param("eventId"), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

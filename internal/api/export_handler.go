package api

import (
	"strings"

	"github.com/fame-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ExportHandler streams event lineups
type ExportHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

// exportFormat prefers ?format=, then the Accept header, then csv
func exportFormat(c *gin.Context) string {
	if f := c.Query("format"); f != "" {
		return strings.ToLower(f)
	}
	accept := c.GetHeader("Accept")
	switch {
	case strings.Contains(accept, "application/x-ndjson"):
		return "ndjson"
	case strings.Contains(accept, "application/json"):
		return "json"
	}
	return "csv"
}

// StreamLineup handles GET /api/events/:eventId/export
func (h *ExportHandler) StreamLineup(c *gin.Context) {
	eventID := c.Param("eventId")
	format := exportFormat(c)

	err := h.services.Export.StreamLineup(c.Request.Context(), c.Writer, eventID, format)
	if err == nil {
		return
	}
	if c.Writer.Written() {
		// headers are gone; all that is left is to log
		h.log.Error().Err(err).Str("event_id", eventID).Str("format", format).Msg("Lineup export aborted")
		return
	}
	respondError(c, h.log, err)
}

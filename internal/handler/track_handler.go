package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/records-hexbin/internal/models"
	"github.com/jengzang/records-hexbin/internal/service"
	"github.com/jengzang/records-hexbin/pkg/response"
)

// TrackHandler imports recorded tracks into sessions
type TrackHandler struct {
	sessions     *service.SessionService
	trackService *service.TrackService
}

// NewTrackHandler creates a new track handler. trackService may be nil when
// no track database is configured.
func NewTrackHandler(sessions *service.SessionService, trackService *service.TrackService) *TrackHandler {
	return &TrackHandler{
		sessions:     sessions,
		trackService: trackService,
	}
}

// ImportTracks handles POST /api/v1/sessions/:id/import/tracks
func (h *TrackHandler) ImportTracks(c *gin.Context) {
	if h.trackService == nil {
		response.ServiceUnavailable(c, "Track database is not configured")
		return
	}

	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		response.NotFound(c, "Session not found")
		return
	}

	var req models.ImportTracksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.trackService.ImportTracks(sess.Engine, req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidImport) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, result)
}

package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/records-hexbin/internal/models"
	"github.com/jengzang/records-hexbin/internal/service"
	"github.com/jengzang/records-hexbin/internal/spatial"
	"github.com/jengzang/records-hexbin/pkg/response"
)

// SessionHandler handles HTTP requests against engine sessions
type SessionHandler struct {
	sessions *service.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
	}
}

// session resolves the :id parameter, writing a 404 when it is unknown
func (h *SessionHandler) session(c *gin.Context) (*service.Session, bool) {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		response.NotFound(c, "Session not found")
		return nil, false
	}
	return sess, true
}

// CreateSession handles POST /api/v1/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req models.CreateSessionRequest
	// an empty body uses the defaults
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, "Invalid request body")
		return
	}

	sess, err := h.sessions.Create(req)
	if err != nil {
		if errors.Is(err, service.ErrTooManySessions) {
			response.ServiceUnavailable(c, err.Error())
			return
		}
		response.BadRequest(c, err.Error())
		return
	}
	response.Created(c, sess.Info())
}

// ListSessions handles GET /api/v1/sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	response.Success(c, h.sessions.List())
}

// GetSession handles GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	response.Success(c, sess.Info())
}

// DeleteSession handles DELETE /api/v1/sessions/:id
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		response.NotFound(c, "Session not found")
		return
	}
	response.Success(c, nil)
}

// SetViewport handles PUT /api/v1/sessions/:id/viewport
func (h *SessionHandler) SetViewport(c *gin.Context) {
	var view spatial.Viewport
	if err := c.ShouldBindJSON(&view); err != nil {
		response.BadRequest(c, "Invalid viewport")
		return
	}

	sess, err := h.sessions.SetViewport(c.Param("id"), view)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			response.NotFound(c, "Session not found")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, sess.Info())
}

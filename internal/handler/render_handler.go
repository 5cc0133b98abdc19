package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/records-hexbin/internal/hexagonal"
	"github.com/jengzang/records-hexbin/internal/spatial"
	"github.com/jengzang/records-hexbin/internal/thumbs"
	"github.com/jengzang/records-hexbin/pkg/response"
)

// GetFrame handles GET /api/v1/sessions/:id/frame. It redraws unless
// cached=true asks for the last frame.
func (h *SessionHandler) GetFrame(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var frame *hexagonal.Frame
	if c.Query("cached") == "true" {
		frame = sess.Engine.Frame()
	} else {
		frame = sess.Engine.Redraw()
	}
	response.Success(c, frame)
}

// GetPickBuffer handles GET /api/v1/sessions/:id/pick.png
func (h *SessionHandler) GetPickBuffer(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	sess.Engine.Frame()
	var buf bytes.Buffer
	if err := sess.Engine.PickBuffer().EncodePNG(&buf); err != nil {
		response.InternalError(c, err.Error())
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// GetThumb handles GET /api/v1/sessions/:id/thumbs/:thumb
func (h *SessionHandler) GetThumb(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	t, found := sess.Engine.Thumbs().Get(c.Param("thumb"))
	if !found {
		response.NotFound(c, "Thumb not found")
		return
	}
	if t.Status == thumbs.Pending {
		response.NotFound(c, "Thumb is still loading")
		return
	}
	if t.Image == nil && len(t.SVG) > 0 {
		c.Data(http.StatusOK, "image/svg+xml", t.SVG)
		return
	}

	var buf bytes.Buffer
	if err := t.EncodePNG(&buf); err != nil {
		response.InternalError(c, err.Error())
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// GetHexagon handles GET /api/v1/sessions/:id/hexagon?lat=&lng=
func (h *SessionHandler) GetHexagon(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	if err1 != nil || err2 != nil {
		response.BadRequest(c, "Invalid lat/lng parameters")
		return
	}

	sess.Engine.Frame()
	hex, found := sess.Engine.Hexagon(spatial.LatLng{Lat: lat, Lng: lng})
	if !found {
		response.NotFound(c, "No hexagon at this location")
		return
	}
	response.Success(c, hex)
}

// GetSelection handles GET /api/v1/sessions/:id/selection
func (h *SessionHandler) GetSelection(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	response.Success(c, sess.Engine.Selection())
}

// Select handles POST /api/v1/sessions/:id/selection. A latlng selector is
// resolved against the pick buffer of the last frame.
func (h *SessionHandler) Select(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var sel hexagonal.Selector
	if err := c.ShouldBindJSON(&sel); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	sess.Engine.Frame()
	sess.Engine.SetSelection(sel)
	// highlights are collected by the draw pass
	frame := sess.Engine.Redraw()
	response.Success(c, frame.Selection)
}

// ClearSelection handles DELETE /api/v1/sessions/:id/selection
func (h *SessionHandler) ClearSelection(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	sess.Engine.ClearSelection()
	frame := sess.Engine.Redraw()
	response.Success(c, frame.Selection)
}

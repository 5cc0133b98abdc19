package handler

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/records-hexbin/internal/models"
	"github.com/jengzang/records-hexbin/pkg/response"
)

// AddPoints handles POST /api/v1/sessions/:id/points
func (h *SessionHandler) AddPoints(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req models.AddPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	var n int
	switch strings.ToLower(req.Mode) {
	case "", "point":
		n = sess.Engine.AddPoint(req.LatLngs, req.Meta)
	case "line":
		n = sess.Engine.AddLine(req.LatLngs, req.Meta)
	case "points":
		n = sess.Engine.AddPoints(req.LatLngs, req.Meta)
	default:
		response.BadRequest(c, "Invalid mode, expected point, line or points")
		return
	}

	response.Success(c, models.CountResponse{Count: n, Totals: sess.Engine.Totals()})
}

// AddGeoJSON handles POST /api/v1/sessions/:id/geojson
func (h *SessionHandler) AddGeoJSON(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req models.GeoJSONRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	var n int
	switch {
	case len(req.Data) > 0:
		n = sess.Engine.AddGeoJSON([]byte(req.Data), req.Meta)
	case req.URL != "":
		// only remote documents; local paths stay private to the server
		u, err := url.Parse(req.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			response.BadRequest(c, "url must be http or https")
			return
		}
		n = sess.Engine.AddGeoJSON(req.URL, req.Meta)
	default:
		response.BadRequest(c, "data or url is required")
		return
	}

	response.Success(c, models.CountResponse{Count: n, Totals: sess.Engine.Totals()})
}

// RemovePoints handles DELETE /api/v1/sessions/:id/points
func (h *SessionHandler) RemovePoints(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req models.RemovePointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	var n int
	switch {
	case req.All:
		n = sess.Engine.RemoveAll()
	case req.ID != "":
		n = sess.Engine.RemovePoint(req.ID, req.Group)
	case req.Group != "":
		n = sess.Engine.RemoveGroup(req.Group)
	default:
		response.BadRequest(c, "id, group or all is required")
		return
	}

	response.Success(c, models.CountResponse{Count: n, Totals: sess.Engine.Totals()})
}

package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/records-hexbin/internal/filter"
	"github.com/jengzang/records-hexbin/internal/hexagonal"
	"github.com/jengzang/records-hexbin/internal/models"
	"github.com/jengzang/records-hexbin/pkg/response"
)

// GetGroups handles GET /api/v1/sessions/:id/groups
func (h *SessionHandler) GetGroups(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	response.Success(c, sess.Engine.Groups())
}

// SetGroupOrder handles PUT /api/v1/sessions/:id/groups/order
func (h *SessionHandler) SetGroupOrder(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req models.GroupOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	switch {
	case len(req.Order) > 0:
		sess.Engine.SetGroupOrderList(req.Order)
	case req.Mode != "":
		sess.Engine.SetGroupOrder(req.Mode, req.Group)
	default:
		response.BadRequest(c, "mode or order is required")
		return
	}
	response.Success(c, sess.Engine.GroupOrder())
}

// UpdateGroup handles PUT /api/v1/sessions/:id/groups/:group
func (h *SessionHandler) UpdateGroup(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	group := c.Param("group")

	var req models.GroupUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if req.Visible != nil && !sess.Engine.SetGroupVisibility(group, *req.Visible) {
		response.NotFound(c, "Group not found")
		return
	}
	if req.Fill != nil || req.Stroke != nil {
		style := hexagonal.GroupStyle{}
		for _, g := range sess.Engine.Groups() {
			if g.Group == group {
				style = g.Style
			}
		}
		if req.Fill != nil {
			style.Fill = *req.Fill
		}
		if req.Stroke != nil {
			style.Stroke = *req.Stroke
		}
		sess.Engine.SetGroupStyle(group, style)
	}
	if req.Name != nil {
		sess.Engine.SetGroupName(group, *req.Name)
	}

	for _, g := range sess.Engine.Groups() {
		if g.Group == group {
			response.Success(c, g)
			return
		}
	}
	// styles may be set before any point of the group arrives
	response.Success(c, nil)
}

// SetClustering handles PUT /api/v1/sessions/:id/clustering
func (h *SessionHandler) SetClustering(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req hexagonal.ClusteringSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	sess.Engine.SetClustering(req)

	opts := sess.Engine.Options()
	response.Success(c, gin.H{
		"property": opts.ClusterProperty,
		"mode":     opts.ClusterMode,
		"scale":    opts.ClusterScale,
		"colors":   opts.ClusterColors,
	})
}

func (h *SessionHandler) filterState(c *gin.Context, e *hexagonal.Engine, added int) {
	active, filters := e.Filters()
	response.Success(c, gin.H{
		"added":   added,
		"active":  active,
		"filters": filters,
	})
}

// GetFilters handles GET /api/v1/sessions/:id/filters
func (h *SessionHandler) GetFilters(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	h.filterState(c, sess.Engine, 0)
}

// AddFilter handles POST /api/v1/sessions/:id/filters
func (h *SessionHandler) AddFilter(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var p filter.Predicate
	if err := c.ShouldBindJSON(&p); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if sess.Engine.AddFilter(p) == 0 {
		response.BadRequest(c, "Invalid filter")
		return
	}
	h.filterState(c, sess.Engine, 1)
}

// SetFilters handles PUT /api/v1/sessions/:id/filters
func (h *SessionHandler) SetFilters(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var s filter.Settings
	if err := c.ShouldBindJSON(&s); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	h.filterState(c, sess.Engine, sess.Engine.SetFilter(s))
}

// ClearFilters handles DELETE /api/v1/sessions/:id/filters?index=n.
// Without an index every filter is removed.
func (h *SessionHandler) ClearFilters(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.DefaultQuery("index", "-1"))
	if err != nil {
		response.BadRequest(c, "Invalid index parameter")
		return
	}
	sess.Engine.ClearFilter(index)
	h.filterState(c, sess.Engine, 0)
}

// ToggleFilters handles POST /api/v1/sessions/:id/filters/toggle
func (h *SessionHandler) ToggleFilters(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	sess.Engine.ToggleFilter()
	h.filterState(c, sess.Engine, 0)
}

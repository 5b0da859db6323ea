package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"vibecheck/internal/services"
)

type ViewsHandler struct {
	views *services.Views
}

func NewViewsHandler(views *services.Views) *ViewsHandler {
	return &ViewsHandler{views: views}
}

// Gallery returns all submissions, newest first.
func (h *ViewsHandler) Gallery(c *gin.Context) {
	subs, err := h.views.Gallery(c.Request.Context())
	if err != nil {
		FailFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": subs})
}

// Leaderboard returns submissions ranked by vote count.
func (h *ViewsHandler) Leaderboard(c *gin.Context) {
	// A missing or unparsable limit falls back to the view's default.
	limit, _ := strconv.Atoi(c.Query("limit"))
	subs, err := h.views.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		FailFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": subs})
}

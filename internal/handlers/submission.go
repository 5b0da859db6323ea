package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vibecheck/internal/services"
)

type SubmissionHandler struct {
	ledger *services.Ledger
}

func NewSubmissionHandler(ledger *services.Ledger) *SubmissionHandler {
	return &SubmissionHandler{ledger: ledger}
}

// Submit creates or replaces the current user's submission.
func (h *SubmissionHandler) Submit(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		Fail(c, http.StatusUnauthorized, services.ErrIdentityRequired.Error())
		return
	}

	var draft services.SubmissionDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		Fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, err := h.ledger.Submit(c.Request.Context(), user.ID, draft)
	if err != nil {
		FailFrom(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// Me returns the current profile with its derived vote set.
func (h *SubmissionHandler) Me(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		Fail(c, http.StatusUnauthorized, services.ErrIdentityRequired.Error())
		return
	}

	profile, err := h.ledger.Profile(c.Request.Context(), user.ID)
	if err != nil {
		FailFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"profile":         profile,
		"votes_remaining": profile.VotesRemaining(),
	})
}

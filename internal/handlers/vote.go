package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vibecheck/internal/services"
)

type VoteHandler struct {
	ledger *services.Ledger
}

func NewVoteHandler(ledger *services.Ledger) *VoteHandler {
	return &VoteHandler{ledger: ledger}
}

// Vote toggles the current user's vote on a submission.
func (h *VoteHandler) Vote(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		Fail(c, http.StatusUnauthorized, services.ErrIdentityRequired.Error())
		return
	}

	result, err := h.ledger.CastOrRetractVote(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		FailFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

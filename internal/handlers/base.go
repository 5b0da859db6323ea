package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"vibecheck/internal/middleware"
	"vibecheck/internal/models"
	"vibecheck/internal/services"
	"vibecheck/internal/store"
)

// CurrentUser returns the authenticated profile set by LoadUser.
func CurrentUser(c *gin.Context) (*models.UserProfile, bool) {
	value, exists := c.Get(middleware.CheckUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.UserProfile)
	return user, ok
}

// Fail writes the standard error body.
func Fail(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}

// FailFrom maps a ledger error onto the HTTP surface. Raw store errors
// never reach the client.
func FailFrom(c *gin.Context, err error) {
	var validation *services.ValidationError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "invalid submission",
			"fields": validation.Fields,
		})
	case errors.Is(err, services.ErrIdentityRequired):
		Fail(c, http.StatusUnauthorized, services.ErrIdentityRequired.Error())
	case errors.Is(err, services.ErrSubmissionNotFound), errors.Is(err, store.ErrNotFound):
		Fail(c, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrSelfVote):
		Fail(c, http.StatusUnprocessableEntity, services.ErrSelfVote.Error())
	case errors.Is(err, services.ErrVoteBudgetExceeded):
		Fail(c, http.StatusConflict, services.ErrVoteBudgetExceeded.Error())
	case errors.Is(err, services.ErrVoteConflict):
		Fail(c, http.StatusServiceUnavailable, services.ErrVoteConflict.Error())
	default:
		log.Printf("handlers: internal error: %v", err)
		Fail(c, http.StatusInternalServerError, "something went wrong, please try again")
	}
}

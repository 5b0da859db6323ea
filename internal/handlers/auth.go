package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vibecheck/internal/models"
	"vibecheck/internal/store"
	"vibecheck/internal/utils"
)

type AuthHandler struct {
	store store.Store
}

func NewAuthHandler(st store.Store) *AuthHandler {
	return &AuthHandler{store: st}
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup creates a password account. The profile starts with an empty
// vote set.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		// Default to the mailbox name.
		req.Username = strings.Split(req.Email, "@")[0]
	}
	if !strings.Contains(req.Email, "@") {
		Fail(c, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(req.Password) < 6 {
		Fail(c, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		FailFrom(c, err)
		return
	}

	user := &models.UserProfile{
		ID:       uuid.NewString(),
		Username: req.Username,
		Email:    req.Email,
		Password: hash,
	}
	if err := h.store.CreateProfile(c.Request.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			Fail(c, http.StatusConflict, "email already registered")
			return
		}
		FailFrom(c, err)
		return
	}

	h.startSession(c, user.ID)
	c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	user, err := h.store.GetProfileByEmail(c.Request.Context(), email)
	if err != nil || !utils.CheckPasswordHash(req.Password, user.Password) {
		Fail(c, http.StatusUnauthorized, "wrong email or password")
		return
	}

	h.startSession(c, user.ID)
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *AuthHandler) startSession(c *gin.Context, userID string) {
	session := sessions.Default(c)
	session.Set("user_id", userID)
	session.Save()
}

package handlers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"vibecheck/internal/models"
	"vibecheck/internal/store"
)

var googleOauthConfig *oauth2.Config

// InitGoogleOAuth wires the Google sign-in flow from the environment.
func InitGoogleOAuth() {
	siteURL := os.Getenv("SITE_URL")
	if siteURL == "" {
		siteURL = "http://localhost:8080"
	}

	googleOauthConfig = &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  siteURL + "/auth/google/callback",
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// GoogleUserInfo is the subset of the userinfo payload we consume.
type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	Picture       string `json:"picture"`
}

func generateStateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// GoogleLogin starts the OAuth dance.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	state, err := generateStateToken()
	if err != nil {
		Fail(c, http.StatusInternalServerError, "failed to generate state token")
		return
	}

	session := sessions.Default(c)
	session.Set("oauth_state", state)
	session.Save()

	url := googleOauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// GoogleCallback finishes the OAuth dance: verifies state, exchanges
// the code, and creates the profile on first sight with an empty vote
// set.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	session := sessions.Default(c)
	savedState := session.Get("oauth_state")

	if savedState == nil || c.Query("state") != savedState.(string) {
		Fail(c, http.StatusBadRequest, "invalid oauth state")
		return
	}
	session.Delete("oauth_state")
	session.Save()

	code := c.Query("code")
	if code == "" {
		Fail(c, http.StatusBadRequest, "missing authorization code")
		return
	}

	token, err := googleOauthConfig.Exchange(context.Background(), code)
	if err != nil {
		Fail(c, http.StatusInternalServerError, "failed to exchange token")
		return
	}

	userInfo, err := h.getGoogleUserInfo(token.AccessToken)
	if err != nil {
		Fail(c, http.StatusInternalServerError, "failed to fetch user info")
		return
	}
	if !userInfo.VerifiedEmail {
		Fail(c, http.StatusBadRequest, "google email not verified")
		return
	}

	user, err := h.store.GetProfileByGoogleID(c.Request.Context(), userInfo.ID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			FailFrom(c, err)
			return
		}
		username := userInfo.Name
		if username == "" {
			username = strings.Split(userInfo.Email, "@")[0]
		}
		user = &models.UserProfile{
			ID:       "google:" + userInfo.ID,
			Username: username,
			Email:    strings.ToLower(userInfo.Email),
			GoogleID: userInfo.ID,
			Avatar:   userInfo.Picture,
		}
		if err := h.store.CreateProfile(c.Request.Context(), user); err != nil {
			// The email may already hold a password account; attach the
			// session to it instead of failing sign-in.
			if errors.Is(err, store.ErrDuplicate) {
				if existing, lookupErr := h.store.GetProfileByEmail(c.Request.Context(), user.Email); lookupErr == nil {
					user = existing
				} else {
					FailFrom(c, err)
					return
				}
			} else {
				FailFrom(c, err)
				return
			}
		}
	}

	h.startSession(c, user.ID)
	c.Redirect(http.StatusFound, "/gallery")
}

func (h *AuthHandler) getGoogleUserInfo(accessToken string) (*GoogleUserInfo, error) {
	resp, err := http.Get("https://www.googleapis.com/oauth2/v2/userinfo?access_token=" + accessToken)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo request failed: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var userInfo GoogleUserInfo
	if err := json.Unmarshal(body, &userInfo); err != nil {
		return nil, err
	}
	return &userInfo, nil
}

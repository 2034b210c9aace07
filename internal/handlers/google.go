package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"tutoria/auth/internal/security"
	"tutoria/auth/internal/service"
)

const stateCookie = "oauth_state"

// GoogleRedirect starts the OAuth flow: mint a CSRF state nonce, stash it
// in a short-lived cookie and send the user to Google's consent page.
func (h HandlerSet) GoogleRedirect(c *gin.Context) {
	state, err := security.GenerateState()
	if err != nil {
		h.log.Error().Err(err).Msg("generate oauth state")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	secure := h.cfg.Environment == "production"
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, 600, "/", "", secure, true)

	c.Redirect(http.StatusTemporaryRedirect, h.google.AuthCodeURL(state))
}

// GoogleCallback finishes the flow: verify state, exchange the code,
// reconcile the asserted identity and hand the session token to the
// frontend via redirect.
func (h HandlerSet) GoogleCallback(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		h.redirectWithError(c, "google_denied")
		return
	}

	state := c.Query("state")
	stored, err := c.Cookie(stateCookie)
	if err != nil || state == "" || state != stored {
		h.redirectWithError(c, "invalid_state")
		return
	}
	secure := h.cfg.Environment == "production"
	c.SetCookie(stateCookie, "", -1, "/", "", secure, true)

	code := c.Query("code")
	if code == "" {
		h.redirectWithError(c, "missing_code")
		return
	}

	identity, err := h.google.FetchIdentity(c.Request.Context(), code)
	if err != nil {
		h.log.Error().Err(err).Msg("google identity fetch failed")
		h.redirectWithError(c, "google_exchange_failed")
		return
	}

	result, err := h.googleService.Authenticate(c.Request.Context(), identity)
	if err != nil {
		h.log.Warn().Err(err).Str("email", identity.Email).Msg("google reconciliation rejected")
		h.redirectWithError(c, reconcileErrorCode(err))
		return
	}

	callback, err := url.Parse(h.cfg.Google.FrontendURL)
	if err != nil {
		h.log.Error().Err(err).Msg("bad frontend url")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	callback.Path = callback.Path + "/auth/callback"
	q := callback.Query()
	q.Set("token", result.AccessToken)
	callback.RawQuery = q.Encode()

	c.Redirect(http.StatusTemporaryRedirect, callback.String())
}

func (h HandlerSet) redirectWithError(c *gin.Context, code string) {
	callback, err := url.Parse(h.cfg.Google.FrontendURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	callback.Path = callback.Path + "/auth/callback"
	q := callback.Query()
	q.Set("error", code)
	callback.RawQuery = q.Encode()

	c.Redirect(http.StatusTemporaryRedirect, callback.String())
}

func reconcileErrorCode(err error) string {
	switch {
	case errors.Is(err, service.ErrIdentityConflict):
		return "identity_conflict"
	case errors.Is(err, service.ErrAccountSuspended):
		return "account_suspended"
	case errors.Is(err, service.ErrAccountInactive):
		return "account_inactive"
	default:
		return "authentication_failed"
	}
}

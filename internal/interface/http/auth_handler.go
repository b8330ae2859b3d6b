package http

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/heartcheck/internal/domain/auth"
	apperrors "github.com/yanqian/heartcheck/pkg/errors"
)

// AuthHandler exposes clinician account endpoints.
type AuthHandler struct {
	svc               auth.Service
	postLoginRedirect string
}

// NewAuthHandler constructs the auth handler.
func NewAuthHandler(svc auth.Service, postLoginRedirect string) *AuthHandler {
	return &AuthHandler{svc: svc, postLoginRedirect: postLoginRedirect}
}

// Register creates a clinician account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	view, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, authHTTPError(err))
		return
	}

	c.JSON(http.StatusCreated, view)
}

// Login exchanges credentials for tokens.
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, authHTTPError(err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Refresh rotates tokens using a refresh token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req auth.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		abortWithError(c, authHTTPError(err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GoogleLogin redirects to Google's consent screen with PKCE.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	state, verifier, challenge, err := auth.NewOAuthState()
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "auth_failed", "failed to initialize oauth state", err))
		return
	}

	authURL, err := h.svc.GoogleAuthURL(c.Request.Context(), state, challenge)
	if err != nil {
		abortWithError(c, authHTTPError(err))
		return
	}

	setOAuthStateCookie(c, state, verifier)
	c.Redirect(http.StatusFound, authURL)
}

// GoogleCallback completes the OAuth flow and logs the clinician in.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	cookie, ok := readOAuthStateCookie(c)
	clearOAuthStateCookie(c)
	if !ok || cookie.State != c.Query("state") {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "oauth state mismatch", nil))
		return
	}

	resp, err := h.svc.GoogleCallback(c.Request.Context(), c.Query("code"), cookie.CodeVerifier)
	if err != nil {
		abortWithError(c, authHTTPError(err))
		return
	}

	if h.postLoginRedirect != "" {
		target := h.postLoginRedirect + "#token=" + url.QueryEscape(resp.Token) + "&refreshToken=" + url.QueryEscape(resp.RefreshToken)
		c.Redirect(http.StatusFound, target)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Profile returns the authenticated clinician's account details.
func (h *AuthHandler) Profile(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing token", nil))
		return
	}

	view, err := h.svc.Profile(c.Request.Context(), claims.ClinicianID)
	if err != nil {
		abortWithError(c, authHTTPError(err))
		return
	}

	c.JSON(http.StatusOK, view)
}

// Logout best-effort revokes any linked provider refresh token.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing token", nil))
		return
	}

	if err := h.svc.Logout(c.Request.Context(), claims.ClinicianID); err != nil {
		abortWithError(c, authHTTPError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

func authHTTPError(err error) *HTTPError {
	status := http.StatusInternalServerError
	code := "auth_failed"
	switch {
	case apperrors.IsCode(err, "invalid_input"), apperrors.IsCode(err, "invalid_request"):
		status = http.StatusBadRequest
		code = "invalid_request"
	case apperrors.IsCode(err, "email_exists"):
		status = http.StatusConflict
		code = "email_exists"
	case apperrors.IsCode(err, "invalid_credentials"):
		status = http.StatusUnauthorized
		code = "invalid_credentials"
	case apperrors.IsCode(err, "invalid_token"):
		status = http.StatusUnauthorized
		code = "invalid_token"
	case apperrors.IsCode(err, "user_not_found"):
		status = http.StatusNotFound
		code = "not_found"
	case apperrors.IsCode(err, "auth_not_configured"):
		status = http.StatusServiceUnavailable
		code = "auth_not_configured"
	case apperrors.IsCode(err, "account_linking_disabled"):
		status = http.StatusConflict
		code = "account_linking_disabled"
	case apperrors.IsCode(err, "oauth_exchange_failed"):
		status = http.StatusBadGateway
		code = "oauth_exchange_failed"
	}
	return NewHTTPError(status, code, errMessage(err), err)
}

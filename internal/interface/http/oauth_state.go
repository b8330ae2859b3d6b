package http

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	oauthStateCookieName = "oauth_state"
	// Long enough to complete the Google consent screen, short enough
	// that a stale cookie cannot be replayed later.
	oauthStateMaxAge = 300
)

// oauthState carries the CSRF state and the PKCE verifier across the
// redirect to Google. SameSite must stay Lax: the callback arrives as a
// cross-site navigation and a Strict cookie would not be sent with it.
type oauthState struct {
	State        string `json:"state"`
	CodeVerifier string `json:"verifier"`
}

func (s oauthState) valid() bool {
	return s.State != "" && s.CodeVerifier != ""
}

func setOAuthStateCookie(c *gin.Context, state, codeVerifier string) {
	data, _ := json.Marshal(oauthState{State: state, CodeVerifier: codeVerifier})
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookieName, base64.RawURLEncoding.EncodeToString(data),
		oauthStateMaxAge, "/", "", c.Request.TLS != nil, true)
}

func clearOAuthStateCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookieName, "", -1, "/", "", c.Request.TLS != nil, true)
}

func readOAuthStateCookie(c *gin.Context) (oauthState, bool) {
	value, err := c.Cookie(oauthStateCookieName)
	if err != nil || value == "" {
		return oauthState{}, false
	}
	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return oauthState{}, false
	}
	var state oauthState
	if err := json.Unmarshal(data, &state); err != nil || !state.valid() {
		return oauthState{}, false
	}
	return state, true
}

package http

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"syncsns/infrastructure/clients/instagram"
	"syncsns/infrastructure/configuration"
	"syncsns/infrastructure/logger"
	"syncsns/usecase"
)

// instagramEndpoint is the Instagram Basic Display authorize/token pair.
var instagramEndpoint = oauth2.Endpoint{
	AuthURL:  "https://api.instagram.com/oauth/authorize",
	TokenURL: "https://api.instagram.com/oauth/access_token",
}

type IInstagramOAuthHandler interface {
	GetAuthURL(c *gin.Context)
	Callback(c *gin.Context)
}

// oauthState ties a pending consent flow to the user who started it.
// The callback arrives on a public route, so the state value is the only
// link back to the authenticated user.
type oauthState struct {
	userID    string
	expiresAt time.Time
}

type instagramOAuthHandler struct {
	client            *instagram.Client
	connectionUsecase usecase.IConnectionUsecase
	stateMu           sync.Mutex
	states            map[string]oauthState
}

func NewInstagramOAuthHandler(client *instagram.Client, connectionUsecase usecase.IConnectionUsecase) IInstagramOAuthHandler {
	return &instagramOAuthHandler{
		client:            client,
		connectionUsecase: connectionUsecase,
		states:            map[string]oauthState{},
	}
}

func randomState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// putState records a pending state for the user and sweeps out entries
// that expired without ever being redeemed.
func (h *instagramOAuthHandler) putState(state, userID string, now time.Time) {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	for s, entry := range h.states {
		if now.After(entry.expiresAt) {
			delete(h.states, s)
		}
	}
	h.states[state] = oauthState{userID: userID, expiresAt: now.Add(10 * time.Minute)}
}

// takeState consumes the state and returns the user it was issued to.
func (h *instagramOAuthHandler) takeState(state string, now time.Time) (string, bool) {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	entry, ok := h.states[state]
	if !ok {
		return "", false
	}
	delete(h.states, state)
	if now.After(entry.expiresAt) {
		return "", false
	}
	return entry.userID, true
}

// GetAuthURL builds the Instagram consent URL (user must approve in
// browser). Runs behind the auth middleware so the state can be bound to
// the requesting user.
func (h *instagramOAuthHandler) GetAuthURL(c *gin.Context) {
	conf := configuration.C.OAuth.Instagram
	if conf.ClientID == "" || conf.RedirectURI == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "instagram oauth not configured"})
		return
	}
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	state := randomState()
	h.putState(state, userID, time.Now())

	oauthConf := &oauth2.Config{
		ClientID:    conf.ClientID,
		RedirectURL: conf.RedirectURI,
		Scopes:      []string{"instagram_business_basic", "instagram_business_content_publish"},
		Endpoint:    instagramEndpoint,
	}
	c.JSON(http.StatusOK, gin.H{"auth_url": oauthConf.AuthCodeURL(state), "state": state})
}

// Callback exchanges the authorization code, resolves the account behind
// the token, and stores the connection for the user the state was issued
// to.
func (h *instagramOAuthHandler) Callback(c *gin.Context) {
	lg := logger.GetLogger()
	if reason := c.Query("error"); reason != "" {
		lg.WithField("reason", c.Query("error_reason")).Info("instagram consent denied")
		c.JSON(http.StatusBadRequest, gin.H{"error": "consent_denied", "reason": reason})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}

	userID, ok := h.takeState(c.Query("state"), time.Now())
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_state"})
		return
	}

	cred, err := h.client.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		lg.WithField("error", err).Error("instagram code exchange failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "token_exchange_failed"})
		return
	}
	account, err := h.client.GetProfile(c.Request.Context(), cred.AccessToken)
	if err != nil {
		lg.WithField("error", err).Error("instagram profile lookup failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "profile_lookup_failed"})
		return
	}

	conn, err := h.connectionUsecase.Connect(c.Request.Context(), userID, *cred, account)
	if err != nil {
		lg.WithField("error", err).Error("connection store failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "connection_store_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"connected":  true,
		"connection": conn,
	})
}

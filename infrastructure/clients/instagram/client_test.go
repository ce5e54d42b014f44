package instagram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"syncsns/domain/model"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   map[string]interface{}
	Query  map[string]string
	Auth   string
}

// fakeGraph serves both the token host and the graph host from one
// httptest server and records every call in order.
type fakeGraph struct {
	mu       sync.Mutex
	requests []recordedRequest
	handlers map[string]http.HandlerFunc
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{handlers: map[string]http.HandlerFunc{}}
}

func (f *fakeGraph) handle(path string, h http.HandlerFunc) { f.handlers[path] = h }

func (f *fakeGraph) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  map[string]string{},
		Auth:   r.Header.Get("Authorization"),
	}
	for k, v := range r.URL.Query() {
		rec.Query[k] = v[0]
	}
	if r.Method == http.MethodPost {
		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "application/json") {
			_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		} else {
			_ = r.ParseForm()
			rec.Body = map[string]interface{}{}
			for k, v := range r.PostForm {
				rec.Body[k] = v[0]
			}
		}
	}
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()

	if h, ok := f.handlers[r.URL.Path]; ok {
		h(w, r)
		return
	}
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte(`{"error":{"message":"unknown path","type":"GraphMethodException","code":100}}`))
}

func (f *fakeGraph) calls(path string) []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedRequest
	for _, r := range f.requests {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func newTestClient(t *testing.T, graph *fakeGraph) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(graph)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://app.example/auth/instagram/callback",
		APIBaseURL:   srv.URL,
		GraphBaseURL: srv.URL,
	}), srv
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestExchangeCode_LongLivedUpgrade(t *testing.T) {
	graph := newFakeGraph()
	graph.handle("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"access_token": "short-token",
			"token_type":   "bearer",
			"user_id":      17841400000000000,
		})
	})
	graph.handle("/access_token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"access_token": "long-token",
			"token_type":   "bearer",
			"expires_in":   5184000,
		})
	})

	client, _ := newTestClient(t, graph)
	cred, err := client.ExchangeCode(context.Background(), "auth-code")

	require.NoError(t, err)
	assert.Equal(t, "long-token", cred.AccessToken)
	assert.Equal(t, "instagram", cred.Platform)
	require.NotNil(t, cred.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(5184000*time.Second), *cred.ExpiresAt, time.Minute)

	tokenCalls := graph.calls("/oauth/access_token")
	require.Len(t, tokenCalls, 1)
	assert.Equal(t, "authorization_code", tokenCalls[0].Body["grant_type"])
	assert.Equal(t, "client-id", tokenCalls[0].Body["client_id"])
	assert.Equal(t, "auth-code", tokenCalls[0].Body["code"])

	longCalls := graph.calls("/access_token")
	require.Len(t, longCalls, 1)
	assert.Equal(t, "ig_exchange_token", longCalls[0].Query["grant_type"])
	assert.Equal(t, "short-token", longCalls[0].Query["access_token"])
}

func TestExchangeCode_FallsBackToShortToken(t *testing.T) {
	graph := newFakeGraph()
	graph.handle("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"access_token": "short-token",
			"token_type":   "bearer",
			"user_id":      "17841400000000000",
		})
	})
	graph.handle("/access_token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": map[string]interface{}{"message": "upgrade unavailable", "type": "OAuthException", "code": 190},
		})
	})

	client, _ := newTestClient(t, graph)
	cred, err := client.ExchangeCode(context.Background(), "auth-code")

	require.NoError(t, err)
	assert.Equal(t, "short-token", cred.AccessToken)
	require.NotNil(t, cred.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *cred.ExpiresAt, time.Minute)
}

func TestExchangeCode_TokenEndpointError(t *testing.T) {
	graph := newFakeGraph()
	graph.handle("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error_type":    "OAuthException",
			"error_message": "Invalid authorization code",
		})
	})

	client, _ := newTestClient(t, graph)
	_, err := client.ExchangeCode(context.Background(), "bad-code")

	require.Error(t, err)
	pe := model.AsPlatformError(err)
	assert.Equal(t, model.ErrCodeTokenExchangeFailed, pe.Code)
	assert.Contains(t, pe.Message, "Invalid authorization code")
	assert.Empty(t, graph.calls("/access_token"))
}

func TestGetProfile(t *testing.T) {
	graph := newFakeGraph()
	graph.handle("/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id":           "17841400000000000",
			"username":     "someone",
			"account_type": "BUSINESS",
			"media_count":  12,
		})
	})

	client, _ := newTestClient(t, graph)
	account, err := client.GetProfile(context.Background(), "tok")

	require.NoError(t, err)
	assert.Equal(t, "17841400000000000", account.ID)
	assert.Equal(t, "someone", account.Username)

	calls := graph.calls("/me")
	require.Len(t, calls, 1)
	assert.Equal(t, "id,username,account_type,media_count", calls[0].Query["fields"])
	assert.Equal(t, "tok", calls[0].Query["access_token"])
}

func TestGetProfile_InvalidToken(t *testing.T) {
	graph := newFakeGraph()
	graph.handle("/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"error": map[string]interface{}{"message": "Invalid OAuth access token", "type": "OAuthException", "code": 190},
		})
	})

	client, _ := newTestClient(t, graph)
	_, err := client.GetProfile(context.Background(), "bad")

	require.Error(t, err)
	assert.Equal(t, model.ErrCodeCredentialInvalid, model.AsPlatformError(err).Code)
}

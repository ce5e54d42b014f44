package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"syncsns/domain/dto"
	"syncsns/domain/model"
	"syncsns/infrastructure/clients/instagram"
	"syncsns/infrastructure/configuration"
)

type MockConnectionUsecase struct {
	mock.Mock
}

func (m *MockConnectionUsecase) Connect(ctx context.Context, userID string, cred model.Credential, account *model.PlatformAccount) (*model.SocialConnection, error) {
	args := m.Called(ctx, userID, cred, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SocialConnection), args.Error(1)
}

func (m *MockConnectionUsecase) List(ctx context.Context, userID, platform string) ([]dto.ConnectionDTO, error) {
	args := m.Called(ctx, userID, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.ConnectionDTO), args.Error(1)
}

func (m *MockConnectionUsecase) Get(ctx context.Context, id int64, userID string) (*dto.ConnectionDTO, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ConnectionDTO), args.Error(1)
}

func (m *MockConnectionUsecase) Disconnect(ctx context.Context, id int64, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

// newInstagramBackend serves the token exchange, long-lived upgrade and
// profile lookup in one place so Callback can run end to end.
func newInstagramBackend(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/access_token":
			json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "short-tok", "token_type": "bearer", "user_id": 17841400})
		case "/access_token":
			json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "long-tok", "token_type": "bearer", "expires_in": 5184000})
		case "/me":
			json.NewEncoder(w).Encode(map[string]interface{}{"id": "17841400", "username": "samposter", "account_type": "BUSINESS", "media_count": 3})
		default:
			http.NotFound(w, r)
		}
	}))
}

func newOAuthHandler(t *testing.T, backend *httptest.Server, uc *MockConnectionUsecase) *instagramOAuthHandler {
	t.Helper()
	client := instagram.NewClient(instagram.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://app.example/auth/instagram/callback",
		APIBaseURL:   backend.URL,
		GraphBaseURL: backend.URL,
	})
	return NewInstagramOAuthHandler(client, uc).(*instagramOAuthHandler)
}

func withOAuthConfig(t *testing.T) {
	t.Helper()
	prev := configuration.C.OAuth.Instagram
	configuration.C.OAuth.Instagram.ClientID = "client-id"
	configuration.C.OAuth.Instagram.ClientSecret = "client-secret"
	configuration.C.OAuth.Instagram.RedirectURI = "https://app.example/auth/instagram/callback"
	t.Cleanup(func() { configuration.C.OAuth.Instagram = prev })
}

func getContext(w *httptest.ResponseRecorder, target string) *gin.Context {
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c
}

func TestInstagramOAuth_CallbackStoresConnectionForStateUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	withOAuthConfig(t)
	backend := newInstagramBackend(t)
	defer backend.Close()

	uc := new(MockConnectionUsecase)
	h := newOAuthHandler(t, backend, uc)

	// auth url issued for the authenticated user
	w := httptest.NewRecorder()
	c := getContext(w, "/api/auth/instagram")
	c.Set("user_id", "42")
	h.GetAuthURL(c)
	require.Equal(t, http.StatusOK, w.Code)

	var authRes struct {
		AuthURL string `json:"auth_url"`
		State   string `json:"state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &authRes))
	require.NotEmpty(t, authRes.State)
	assert.Contains(t, authRes.AuthURL, "state="+authRes.State)

	// callback arrives on a public route, no user in the context
	uc.On("Connect", mock.Anything, "42", mock.AnythingOfType("model.Credential"), mock.AnythingOfType("*model.PlatformAccount")).
		Return(&model.SocialConnection{ID: 1, UserID: "42", Platform: "instagram"}, nil)

	w = httptest.NewRecorder()
	c = getContext(w, "/auth/instagram/callback?code=auth-code&state="+authRes.State)
	h.Callback(c)

	require.Equal(t, http.StatusOK, w.Code)
	uc.AssertCalled(t, "Connect", mock.Anything, "42", mock.AnythingOfType("model.Credential"), mock.AnythingOfType("*model.PlatformAccount"))
}

func TestInstagramOAuth_GetAuthURL_RequiresUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	withOAuthConfig(t)
	backend := newInstagramBackend(t)
	defer backend.Close()

	h := newOAuthHandler(t, backend, new(MockConnectionUsecase))

	w := httptest.NewRecorder()
	h.GetAuthURL(getContext(w, "/api/auth/instagram"))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, h.states)
}

func TestInstagramOAuth_Callback_InvalidState(t *testing.T) {
	gin.SetMode(gin.TestMode)
	backend := newInstagramBackend(t)
	defer backend.Close()

	uc := new(MockConnectionUsecase)
	h := newOAuthHandler(t, backend, uc)

	w := httptest.NewRecorder()
	h.Callback(getContext(w, "/auth/instagram/callback?code=auth-code&state=never-issued"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	uc.AssertNotCalled(t, "Connect", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInstagramOAuth_StateIsSingleUse(t *testing.T) {
	h := &instagramOAuthHandler{states: map[string]oauthState{}}
	now := time.Now()
	h.putState("st-1", "42", now)

	userID, ok := h.takeState("st-1", now)
	require.True(t, ok)
	assert.Equal(t, "42", userID)

	_, ok = h.takeState("st-1", now)
	assert.False(t, ok)
}

func TestInstagramOAuth_ExpiredStateRejected(t *testing.T) {
	h := &instagramOAuthHandler{states: map[string]oauthState{}}
	now := time.Now()
	h.putState("st-1", "42", now)

	_, ok := h.takeState("st-1", now.Add(11*time.Minute))
	assert.False(t, ok)
	assert.Empty(t, h.states)
}

func TestInstagramOAuth_AbandonedStatesSweptOnInsert(t *testing.T) {
	h := &instagramOAuthHandler{states: map[string]oauthState{}}
	now := time.Now()
	h.putState("old-1", "1", now)
	h.putState("old-2", "2", now)

	h.putState("fresh", "3", now.Add(11*time.Minute))

	assert.Len(t, h.states, 1)
	_, kept := h.states["fresh"]
	assert.True(t, kept)
}

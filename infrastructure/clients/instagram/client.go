package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	"syncsns/domain/model"
	"syncsns/infrastructure/logger"
)

const (
	defaultAPIBaseURL   = "https://api.instagram.com"
	defaultGraphBaseURL = "https://graph.instagram.com"
	graphVersion        = "v18.0"

	// Short-lived tokens from the code exchange last about an hour.
	shortTokenLifetime = time.Hour
)

// Config holds the Instagram app credentials and endpoint overrides.
// The base URLs are settable so tests can point the client at a local
// server.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	APIBaseURL   string
	GraphBaseURL string
	HTTPClient   *http.Client
}

// Client talks to the Instagram token and graph endpoints.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	if cfg.GraphBaseURL == "" {
		cfg.GraphBaseURL = defaultGraphBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg, http: httpClient}
}

// ExchangeCode trades an authorization code for a credential. The
// short-lived token is upgraded to a long-lived one when possible; if the
// upgrade fails for any reason the short-lived credential is returned and
// the failure is only logged.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*model.Credential, error) {
	form := url.Values{}
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", c.cfg.RedirectURI)
	form.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIBaseURL+"/oauth/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, model.NewPlatformError(model.ErrCodeTokenExchangeFailed, err.Error())
	}
	defer resp.Body.Close()

	var short shortTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&short); err != nil {
		return nil, model.NewPlatformError(model.ErrCodeTokenExchangeFailed, "malformed token response")
	}
	if resp.StatusCode != http.StatusOK || short.AccessToken == "" {
		msg := short.ErrorMessage
		if msg == "" && short.Error != nil {
			msg = short.Error.Message
		}
		if msg == "" {
			msg = fmt.Sprintf("token endpoint returned status %d", resp.StatusCode)
		}
		return nil, model.NewPlatformError(model.ErrCodeTokenExchangeFailed, msg)
	}

	expiresAt := time.Now().UTC().Add(shortTokenLifetime)
	cred := &model.Credential{
		Platform:    "instagram",
		AccessToken: short.AccessToken,
		TokenType:   "bearer",
		ExpiresAt:   &expiresAt,
	}

	if long, err := c.exchangeLongLived(ctx, short.AccessToken); err != nil {
		logger.GetLogger().WithField("error", err).Warn("long-lived token exchange failed, keeping short-lived token")
	} else {
		longExpiry := time.Now().UTC().Add(time.Duration(long.ExpiresIn) * time.Second)
		cred.AccessToken = long.AccessToken
		cred.TokenType = long.TokenType
		cred.ExpiresAt = &longExpiry
	}
	return cred, nil
}

func (c *Client) exchangeLongLived(ctx context.Context, shortToken string) (*longTokenResponse, error) {
	qs, err := query.Values(longTokenQuery{
		GrantType:    "ig_exchange_token",
		ClientSecret: c.cfg.ClientSecret,
		AccessToken:  shortToken,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.GraphBaseURL+"/access_token?"+qs.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var long longTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&long); err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK || long.AccessToken == "" {
		if long.Error != nil {
			return nil, fmt.Errorf("%s", long.Error.Message)
		}
		return nil, fmt.Errorf("long-lived exchange returned status %d", resp.StatusCode)
	}
	return &long, nil
}

// GetProfile resolves the account behind an access token.
func (c *Client) GetProfile(ctx context.Context, accessToken string) (*model.PlatformAccount, error) {
	qs, err := query.Values(profileQuery{
		Fields:      "id,username,account_type,media_count",
		AccessToken: accessToken,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.GraphBaseURL+"/me?"+qs.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, model.NewPlatformError(model.ErrCodeCredentialInvalid, err.Error())
	}
	defer resp.Body.Close()

	var profile profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, model.NewPlatformError(model.ErrCodeCredentialInvalid, "malformed profile response")
	}
	if resp.StatusCode != http.StatusOK || profile.ID == "" {
		msg := fmt.Sprintf("profile lookup returned status %d", resp.StatusCode)
		if profile.Error != nil {
			msg = profile.Error.Message
		}
		return nil, model.NewPlatformError(model.ErrCodeCredentialInvalid, msg)
	}
	return &model.PlatformAccount{
		ID:                profile.ID,
		Username:          profile.Username,
		AccountType:       profile.AccountType,
		MediaCount:        profile.MediaCount,
		ProfilePictureURL: profile.ProfilePictureURL,
	}, nil
}

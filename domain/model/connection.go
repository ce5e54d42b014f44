package model

import "time"

// Credential is an immutable platform access credential produced by a
// token exchange. A re-exchange yields a new Credential; expired
// credentials simply fail downstream calls.
type Credential struct {
	Platform    string     `json:"platform"`
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// PlatformAccount is the platform-native identity behind a connection,
// as reported by the platform's "who am I" endpoint.
type PlatformAccount struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	AccountType       string `json:"account_type,omitempty"`
	MediaCount        int    `json:"media_count,omitempty"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`
}

// SocialConnection links a user to a platform account plus the credential
// used to publish there. At most one active row exists per
// (user_id, platform, platform_user_id); disconnecting soft-deletes.
type SocialConnection struct {
	ID                int64      `json:"id"`
	UserID            string     `json:"user_id"`
	Platform          string     `json:"platform"`
	PlatformUserID    string     `json:"platform_user_id"`
	Username          string     `json:"username"`
	DisplayName       string     `json:"display_name"`
	ProfilePictureURL string     `json:"profile_picture_url"`
	AccessToken       string     `json:"-"`
	RefreshToken      string     `json:"-"`
	TokenType         string     `json:"-"`
	TokenExpiresAt    *time.Time `json:"-"`
	ConnectedAt       time.Time  `json:"connected_at"`
	IsActive          bool       `json:"is_active"`
	DisconnectedAt    *time.Time `json:"disconnected_at,omitempty"`
}

// Credential returns the publish credential stored on the connection.
func (c *SocialConnection) Credential() Credential {
	return Credential{
		Platform:    c.Platform,
		AccessToken: c.AccessToken,
		TokenType:   c.TokenType,
		ExpiresAt:   c.TokenExpiresAt,
	}
}

package instagram

import "encoding/json"

// apiError is the error envelope graph endpoints return.
type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

// shortTokenResponse is the payload of the authorization-code exchange.
// The token endpoint reports failures with top-level error fields rather
// than the graph envelope.
type shortTokenResponse struct {
	AccessToken  string      `json:"access_token"`
	TokenType    string      `json:"token_type"`
	UserID       json.Number `json:"user_id"`
	ErrorType    string      `json:"error_type"`
	ErrorMessage string      `json:"error_message"`
	Error        *apiError   `json:"error"`
}

// longTokenResponse is the payload of the long-lived token upgrade.
type longTokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	Error       *apiError `json:"error"`
}

// profileResponse is the /me payload.
type profileResponse struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	AccountType       string    `json:"account_type"`
	MediaCount        int       `json:"media_count"`
	ProfilePictureURL string    `json:"profile_picture_url"`
	Error             *apiError `json:"error"`
}

// containerResponse is returned by media container creation and by
// media_publish. Both carry only the created object's id.
type containerResponse struct {
	ID    string    `json:"id"`
	Error *apiError `json:"error"`
}

// longTokenQuery builds the long-lived upgrade query string.
type longTokenQuery struct {
	GrantType    string `url:"grant_type"`
	ClientSecret string `url:"client_secret"`
	AccessToken  string `url:"access_token"`
}

// profileQuery builds the /me query string.
type profileQuery struct {
	Fields      string `url:"fields"`
	AccessToken string `url:"access_token"`
}

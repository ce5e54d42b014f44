package dto

import "time"

// ConnectionDTO is the safe (token-free) view of a social connection.
type ConnectionDTO struct {
	ID                int64     `json:"id"`
	Platform          string    `json:"platform"`
	PlatformUserID    string    `json:"platform_user_id"`
	Username          string    `json:"username"`
	DisplayName       string    `json:"display_name"`
	ProfilePictureURL string    `json:"profile_picture_url"`
	ConnectedAt       time.Time `json:"connected_at"`
	IsActive          bool      `json:"is_active"`
}

// UploadedFile describes one successfully stored image.
type UploadedFile struct {
	FileName  string `json:"file_name"`
	FilePath  string `json:"file_path"`
	PublicURL string `json:"public_url"`
	Size      int64  `json:"size"`
	Type      string `json:"type"`
}

// UploadError describes one rejected upload.
type UploadError struct {
	FileName string `json:"file_name"`
	Error    string `json:"error"`
}

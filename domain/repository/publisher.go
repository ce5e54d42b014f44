package repository

import (
	"context"

	"syncsns/domain/model"
)

// IPublisher is implemented once per platform. Publish either returns the
// platform-native post id or a *model.PlatformError describing the typed
// failure. Implementations perform at most one publish per call and do
// not retry internally.
type IPublisher interface {
	Publish(ctx context.Context, content string, images []string, cred model.Credential) (string, error)
}

// IPublishAudit appends publish attempt records. Implementations must be
// safe to call when the backing store is unavailable.
type IPublishAudit interface {
	Record(ctx context.Context, audit *model.PublishAudit) error
}

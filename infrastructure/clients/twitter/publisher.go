package twitter

import (
	"context"
	"fmt"
	"time"

	"syncsns/domain/model"
	"syncsns/domain/repository"
	"syncsns/infrastructure/logger"
)

// Publisher is a placeholder implementation: the Twitter API integration
// is not wired yet, so every publish reports success with a synthetic
// post id. Replace with a real client once app credentials exist.
type Publisher struct{}

func NewPublisher() repository.IPublisher { return &Publisher{} }

func (p *Publisher) Publish(ctx context.Context, content string, images []string, cred model.Credential) (string, error) {
	_ = cred
	logger.GetLogger().WithFields(map[string]interface{}{
		"images":  len(images),
		"content": len(content),
	}).Info("twitter publish simulated")
	return fmt.Sprintf("twitter_%d", time.Now().UnixNano()), nil
}

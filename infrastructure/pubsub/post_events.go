package pubsub

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"

	"syncsns/infrastructure/logger"
)

// NewPubSub creates the Google Pub/Sub client for publish outcome events.
func NewPubSub(ctx context.Context, projectID string) (*pubsub.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("pubsub project id not configured")
	}
	return pubsub.NewClient(ctx, projectID)
}

// IPostEvents emits a publish outcome event to the configured topic.
type IPostEvents interface {
	PublishOutcome(ctx context.Context, payload []byte) (string, error)
}

// PostEvents publishes to a Pub/Sub topic, creating it on first use. A
// nil client disables event emission.
type PostEvents struct {
	client *pubsub.Client
	topic  string
}

func NewPostEvents(client *pubsub.Client, topic string) IPostEvents {
	return &PostEvents{client: client, topic: topic}
}

func (p *PostEvents) PublishOutcome(ctx context.Context, payload []byte) (string, error) {
	if p.client == nil {
		return "", nil
	}

	topic := p.client.Topic(p.topic)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return "", err
	}
	if !exists {
		if _, err := p.client.CreateTopic(ctx, p.topic); err != nil {
			return "", err
		}
	}

	serverID, err := topic.Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx)
	if err != nil {
		return "", err
	}
	logger.GetLogger().WithField("server ID", serverID).Info("Publish outcome event emitted")
	return serverID, nil
}

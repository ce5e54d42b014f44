package pubsub_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"syncsns/infrastructure/pubsub"
)

func TestPostEvents_NilClientIsNoop(t *testing.T) {
	events := pubsub.NewPostEvents(nil, "publish-outcomes")

	id, err := events.PublishOutcome(context.Background(), []byte(`{}`))

	assert.NoError(t, err)
	assert.Empty(t, id)
}

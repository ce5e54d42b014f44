package servicebus

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"

	"syncsns/infrastructure/logger"
)

// NewServiceBus creates the Azure Service Bus client using the default
// credential chain.
func NewServiceBus(ctx context.Context, namespace string) (*azservicebus.Client, error) {
	if namespace == "" {
		return nil, fmt.Errorf("service bus namespace not configured")
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, err
	}
	return azservicebus.NewClient(namespace, cred, nil)
}

// IPostEvents forwards publish outcome events to a Service Bus queue.
type IPostEvents interface {
	Send(ctx context.Context, payload []byte) error
}

// PostEvents sends outcome events on the configured queue. A nil client
// disables forwarding.
type PostEvents struct {
	client *azservicebus.Client
	queue  string
}

func NewPostEvents(client *azservicebus.Client, queue string) IPostEvents {
	return &PostEvents{client: client, queue: queue}
}

func (p *PostEvents) Send(ctx context.Context, payload []byte) error {
	if p.client == nil {
		return nil
	}

	sender, err := p.client.NewSender(p.queue, nil)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while making new sender service bus.")
		return err
	}
	defer func() {
		if err := sender.Close(ctx); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while closing sender.")
		}
	}()

	if err := sender.SendMessage(ctx, &azservicebus.Message{Body: payload}, nil); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return err
	}
	return nil
}

package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/bloodbank/services/bank/config"
)

// Event names published by the bank.
const (
	EventAllocationCompleted = "allocation.completed"
	EventDonationsExpired    = "donations.expired"
)

// Publisher publishes bank events to a message queue
type Publisher interface {
	Publish(ctx context.Context, event string, body interface{}) error
	Close() error
}

// serviceBusPublisher implements Publisher using Azure Service Bus
type serviceBusPublisher struct {
	client    *azservicebus.Client
	sender    *azservicebus.Sender
	queueName string
	enabled   bool
}

// NewPublisher creates a Service Bus publisher. When no connection string is
// configured the publisher is a no-op, mirroring how the service degrades
// without its other optional collaborators.
func NewPublisher(cfg config.ServiceBusConfig) (Publisher, error) {
	if cfg.ConnectionString == "" {
		log.Warn().Msg("Service Bus connection string not provided, event publishing disabled")
		return &serviceBusPublisher{enabled: false}, nil
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus client")
	}

	sender, err := client.NewSender(cfg.QueueName, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus sender")
	}

	return &serviceBusPublisher{
		client:    client,
		sender:    sender,
		queueName: cfg.QueueName,
		enabled:   true,
	}, nil
}

// Publish sends an event with a JSON body to the queue
func (p *serviceBusPublisher) Publish(ctx context.Context, event string, body interface{}) error {
	if !p.enabled {
		return nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event body")
	}

	msg := &azservicebus.Message{
		Body: data,
		ApplicationProperties: map[string]interface{}{
			"event": event,
			"time":  time.Now().UTC().Format(time.RFC3339),
		},
	}

	if err := p.sender.SendMessage(ctx, msg, nil); err != nil {
		return errors.Wrapf(err, "failed to publish %s event", event)
	}
	return nil
}

// Close closes the Service Bus client
func (p *serviceBusPublisher) Close() error {
	if !p.enabled {
		return nil
	}

	if p.sender != nil {
		if err := p.sender.Close(context.Background()); err != nil {
			return err
		}
	}
	if p.client != nil {
		return p.client.Close(context.Background())
	}
	return nil
}

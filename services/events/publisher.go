package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/rabbitmq/amqp091-go"

	"github.com/inboxpilot/mailsync/dto"
	"github.com/inboxpilot/mailsync/interfaces"
	"github.com/inboxpilot/mailsync/internal/logger"
	"github.com/inboxpilot/mailsync/internal/tracing"
	"github.com/inboxpilot/mailsync/internal/utils"
)

const (
	ExchangeMailsync = "mailsync"

	RoutingKeyEmailLogged = "email.logged"
	RoutingKeyReplySent   = "email.reply.sent"

	appSource = "mailsync"
)

// RabbitMQPublisher emits advisory events about engine activity. Publishing
// is best-effort: failures are logged and swallowed, the log store stays the
// source of truth. With an empty URL the publisher is a no-op, which is how
// deployments without a broker run.
type RabbitMQPublisher struct {
	url             string
	logger          logger.Logger
	connection      *amqp091.Connection
	publishChannel  *amqp091.Channel
	connectionMutex sync.Mutex
	publishMutex    sync.Mutex
}

func NewRabbitMQPublisher(url string, log logger.Logger) interfaces.EventPublisher {
	p := &RabbitMQPublisher{
		url:    url,
		logger: log,
	}
	if url == "" {
		log.Warnf("no broker url configured, engine events will not be published")
		return p
	}
	if err := p.connect(); err != nil {
		log.Errorf("initial broker connection failed, will retry on publish: %v", err)
	}
	return p
}

func (r *RabbitMQPublisher) PublishEmailLogged(ctx context.Context, entryID, userID string) {
	r.publishEvent(ctx, RoutingKeyEmailLogged, entryID, userID, "EmailLogged")
}

func (r *RabbitMQPublisher) PublishReplySent(ctx context.Context, entryID, userID string) {
	r.publishEvent(ctx, RoutingKeyReplySent, entryID, userID, "ReplySent")
}

func (r *RabbitMQPublisher) publishEvent(ctx context.Context, routingKey, entryID, userID, eventType string) {
	if r.url == "" {
		return
	}

	span, ctx := opentracing.StartSpanFromContext(ctx, "RabbitMQPublisher.publishEvent")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("routing.key", routingKey)
	span.SetTag("entry.id", entryID)

	event := dto.Event{
		Event: dto.EventDetails{
			Id:        utils.GenerateNanoIDWithPrefix("event", 21),
			EntityId:  entryID,
			EventType: eventType,
			Data: map[string]string{
				"entryId": entryID,
				"userId":  userID,
			},
		},
		Metadata: dto.EventMetadata{
			AppSource: appSource,
			UserId:    userID,
			Timestamp: utils.Now().Format(time.RFC3339),
		},
	}

	if err := r.publish(event, routingKey); err != nil {
		tracing.TraceErr(span, err)
		r.logger.Warnf("failed to publish %s for %s: %v", eventType, entryID, err)
	}
}

func (r *RabbitMQPublisher) publish(event dto.Event, routingKey string) error {
	r.publishMutex.Lock()
	defer r.publishMutex.Unlock()

	if err := r.ensureConnectionAndChannel(); err != nil {
		return err
	}

	jsonBody, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}

	return r.publishChannel.Publish(
		ExchangeMailsync,
		routingKey,
		false,
		false,
		amqp091.Publishing{
			DeliveryMode: amqp091.Persistent,
			ContentType:  "application/json",
			Body:         jsonBody,
			Timestamp:    time.Now(),
		})
}

func (r *RabbitMQPublisher) connect() error {
	r.connectionMutex.Lock()
	defer r.connectionMutex.Unlock()

	var err error
	r.connection, err = amqp091.Dial(r.url)
	if err != nil {
		return errors.Wrap(err, "failed to connect to RabbitMQ")
	}

	return r.setupPublishChannel()
}

func (r *RabbitMQPublisher) setupPublishChannel() error {
	channel, err := r.connection.Channel()
	if err != nil {
		return errors.Wrap(err, "failed to open channel")
	}

	err = channel.ExchangeDeclare(
		ExchangeMailsync,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return errors.Wrap(err, "failed to declare exchange")
	}

	r.publishChannel = channel
	return nil
}

func (r *RabbitMQPublisher) ensureConnectionAndChannel() error {
	if r.connection == nil || r.connection.IsClosed() {
		if err := r.connect(); err != nil {
			return err
		}
	}
	if r.publishChannel == nil || r.publishChannel.IsClosed() {
		if err := r.setupPublishChannel(); err != nil {
			return err
		}
	}
	return nil
}

func (r *RabbitMQPublisher) Close() {
	r.connectionMutex.Lock()
	defer r.connectionMutex.Unlock()

	if r.publishChannel != nil {
		if err := r.publishChannel.Close(); err != nil {
			r.logger.Errorf("error closing publish channel: %v", err)
		}
	}
	if r.connection != nil {
		if err := r.connection.Close(); err != nil {
			r.logger.Errorf("error closing connection: %v", err)
		}
	}
}

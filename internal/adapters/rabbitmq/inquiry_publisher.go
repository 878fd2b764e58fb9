package rabbitmq_adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"property-browser-service/internal/constants"
	"property-browser-service/internal/contextkeys"
	"property-browser-service/internal/contracts"
	"property-browser-service/internal/core/domain"
	"property-browser-service/internal/core/port"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 10 * time.Second

// EventProducer - то, что нужно адаптеру от rabbitmq_producer.Publisher
type EventProducer interface {
	Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error
}

// inquiryEvent - тело события PropertyInquiryEvent v1
type inquiryEvent struct {
	InquiryID    string `json:"inquiry_id"`
	SessionID    string `json:"session_id,omitempty"`
	PropertyID   string `json:"property_id"`
	PropertyName string `json:"property_name"`
	ClientName   string `json:"client_name"`
	ClientPhone  string `json:"client_phone"`
	Message      string `json:"message"`
	Channel      string `json:"channel"`
	Link         string `json:"link"`
	CreatedAt    string `json:"created_at"`
}

// InquiryPublisher - реализация InquiryPublisherPort для RabbitMQ
type InquiryPublisher struct {
	producer   EventProducer
	routingKey string
}

var _ port.InquiryPublisherPort = (*InquiryPublisher)(nil)

func NewInquiryPublisher(producer EventProducer, routingKey string) (*InquiryPublisher, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	if routingKey == "" {
		return nil, fmt.Errorf("rabbitmq adapter: routingKey cannot be empty")
	}
	return &InquiryPublisher{producer: producer, routingKey: routingKey}, nil
}

func (a *InquiryPublisher) PublishInquiry(ctx context.Context, inquiry domain.Inquiry) error {
	adapterLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "InquiryPublisher",
		"routing_key": a.routingKey,
		"inquiry_id":  inquiry.ID.String(),
	})

	body, err := json.Marshal(inquiryEvent{
		InquiryID:    inquiry.ID.String(),
		SessionID:    inquiry.SessionID,
		PropertyID:   inquiry.PropertyID,
		PropertyName: inquiry.PropertyName,
		ClientName:   inquiry.ClientName,
		ClientPhone:  inquiry.ClientPhone,
		Message:      inquiry.Message,
		Channel:      string(inquiry.Channel),
		Link:         inquiry.Link,
		CreatedAt:    inquiry.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		adapterLogger.Error("Failed to marshal inquiry event", err, nil)
		return fmt.Errorf("failed to marshal inquiry event: %w", err)
	}

	if err := contracts.ValidateEvent(constants.EventTypeInquiry, constants.EventVersionInquiry, body); err != nil {
		adapterLogger.Error("Inquiry event does not match its contract", err, nil)
		return fmt.Errorf("rabbitmq adapter: invalid inquiry event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers: amqp.Table{
			"event-type":    constants.EventTypeInquiry,
			"event-version": constants.EventVersionInquiry,
		},
	}
	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		msg.Headers["x-trace-id"] = traceID
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	adapterLogger.Debug("Publishing inquiry event", nil)
	if err := a.producer.Publish(publishCtx, a.routingKey, msg); err != nil {
		adapterLogger.Error("Failed to publish inquiry event", err, nil)
		return fmt.Errorf("rabbitmq adapter: failed to publish inquiry %s: %w", inquiry.ID, err)
	}

	adapterLogger.Info("Successfully published inquiry event", port.Fields{"property_id": inquiry.PropertyID})
	return nil
}

package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aescanero/dago-inquiry-router/internal/inquiry"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// DecisionEvent is published for every routed message
type DecisionEvent struct {
	EventID               string    `json:"event_id"`
	ConversationID        string    `json:"conversation_id"`
	MessageID             string    `json:"message_id"`
	TrackingID            string    `json:"tracking_id,omitempty"`
	Category              string    `json:"category"`
	Urgency               string    `json:"urgency"`
	Complexity            string    `json:"complexity"`
	RoutedTo              string    `json:"routed_to,omitempty"`
	AssignedAgent         string    `json:"assigned_agent,omitempty"`
	PriorityLevel         string    `json:"priority_level,omitempty"`
	EstimatedResponseTime string    `json:"estimated_response_time,omitempty"`
	SuggestedActions      []string  `json:"suggested_actions"`
	DTCCodes              []string  `json:"dtc_codes,omitempty"`
	Response              string    `json:"response"`
	Path                  string    `json:"path"`
	Timestamp             time.Time `json:"timestamp"`
}

// ErrorEvent is published when a message could not be handled
type ErrorEvent struct {
	EventID        string    `json:"event_id"`
	ConversationID string    `json:"conversation_id,omitempty"`
	MessageID      string    `json:"message_id,omitempty"`
	Error          string    `json:"error"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewDecisionEvent flattens a pipeline outcome into a decision event
func NewDecisionEvent(out *inquiry.Outcome, now time.Time) *DecisionEvent {
	event := &DecisionEvent{
		EventID:          uuid.NewString(),
		ConversationID:   out.ConversationID,
		MessageID:        out.MessageID,
		SuggestedActions: []string{},
		Response:         out.Response,
		Path:             out.Classification.Path,
		Timestamp:        now.UTC(),
	}

	if ev := out.Classification.Evaluation; ev != nil {
		event.Category = string(ev.Category)
		event.Urgency = string(ev.Urgency)
		event.Complexity = string(ev.Complexity)
		event.SuggestedActions = append(event.SuggestedActions, ev.SuggestedActions...)
	}

	if res := out.Result; res != nil {
		event.TrackingID = res.TrackingID
		event.RoutedTo = res.RoutedTo
		event.AssignedAgent = res.AssignedAgent
		event.PriorityLevel = string(res.PriorityLevel)
		event.EstimatedResponseTime = res.EstimatedResponseTime
		event.SuggestedActions = append(event.SuggestedActions[:0], res.SuggestedActions...)
	}

	if out.DTC.Evaluation != nil {
		event.DTCCodes = out.DTC.Evaluation.CodeList()
	}

	return event
}

// Publisher delivers decision events to a sink
type Publisher interface {
	PublishDecision(ctx context.Context, event *DecisionEvent) error
	Close() error
}

// StreamPublisher appends events to a Redis stream under the "data" field
type StreamPublisher struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

// NewStreamPublisher creates a Redis stream publisher
func NewStreamPublisher(client *redis.Client, stream string, logger *zap.Logger) *StreamPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamPublisher{
		client: client,
		stream: stream,
		logger: logger,
	}
}

// PublishDecision publishes a decision event
func (p *StreamPublisher) PublishDecision(ctx context.Context, event *DecisionEvent) error {
	if err := p.publish(ctx, p.stream, event); err != nil {
		return err
	}

	p.logger.Debug("published decision to stream",
		zap.String("stream", p.stream),
		zap.String("event_id", event.EventID),
	)
	return nil
}

// PublishError publishes an error event to the given stream
func (p *StreamPublisher) PublishError(ctx context.Context, stream string, event *ErrorEvent) error {
	return p.publish(ctx, stream, event)
}

func (p *StreamPublisher) publish(ctx context.Context, stream string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}
	return nil
}

// Close is a no-op; the Redis client is owned by the caller
func (p *StreamPublisher) Close() error {
	return nil
}

// messageWriter is the part of *kafka.Writer the publisher needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes decision events to a Kafka topic keyed by conversation id,
// so one conversation's decisions stay in one partition
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

// NewKafkaPublisher creates a Kafka publisher
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	return newKafkaPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}, topic, logger)
}

func newKafkaPublisher(writer messageWriter, topic string, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{
		writer: writer,
		topic:  topic,
		logger: logger,
	}
}

// PublishDecision publishes a decision event
func (p *KafkaPublisher) PublishDecision(ctx context.Context, event *DecisionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.ConversationID),
		Value: data,
		Time:  event.Timestamp,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write to kafka: %w", err)
	}

	p.logger.Debug("published decision to kafka",
		zap.String("topic", p.topic),
		zap.String("event_id", event.EventID),
	)
	return nil
}

// Close flushes and closes the Kafka writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

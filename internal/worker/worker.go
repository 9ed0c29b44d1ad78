package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aescanero/dago-inquiry-router/internal/config"
	"github.com/aescanero/dago-inquiry-router/internal/inquiry"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Handler runs the inquiry pipeline for one message
type Handler interface {
	Handle(ctx context.Context, in inquiry.Inbound) (*inquiry.Outcome, error)
}

// Worker consumes inbound messages from a Redis stream and publishes routing decisions
type Worker struct {
	id            string
	config        *config.Config
	redisClient   *redis.Client
	handler       Handler
	publisher     Publisher
	errors        *StreamPublisher
	logger        *zap.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	streamKey     string
	consumerGroup string
	errorStream   string
	retryDelay    time.Duration
	now           func() time.Time
}

// NewWorker creates a new worker. Decisions go to publisher; error events always
// go to the "<RESULT_STREAM>.errors" Redis stream.
func NewWorker(
	cfg *config.Config,
	redisClient *redis.Client,
	handler Handler,
	publisher Publisher,
	logger *zap.Logger,
) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		id:            cfg.WorkerID,
		config:        cfg,
		redisClient:   redisClient,
		handler:       handler,
		publisher:     publisher,
		errors:        NewStreamPublisher(redisClient, cfg.ErrorStream(), logger),
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
		streamKey:     cfg.StreamKey,
		consumerGroup: cfg.ConsumerGroup,
		errorStream:   cfg.ErrorStream(),
		retryDelay:    500 * time.Millisecond,
		now:           time.Now,
	}
}

// Start starts the worker
func (w *Worker) Start() error {
	w.logger.Info("starting inquiry worker",
		zap.String("worker_id", w.id),
		zap.String("stream_key", w.streamKey),
		zap.String("consumer_group", w.consumerGroup),
	)

	// Create consumer group if it doesn't exist
	if err := w.ensureConsumerGroup(); err != nil {
		return fmt.Errorf("failed to ensure consumer group: %w", err)
	}

	w.wg.Add(1)
	go w.processWork()

	w.logger.Info("inquiry worker started", zap.String("worker_id", w.id))
	return nil
}

// Stop stops the worker and waits for the message in flight
func (w *Worker) Stop() error {
	w.logger.Info("stopping inquiry worker", zap.String("worker_id", w.id))

	w.cancel()
	w.wg.Wait()

	w.logger.Info("inquiry worker stopped", zap.String("worker_id", w.id))
	return nil
}

// ensureConsumerGroup creates the consumer group if it doesn't exist
func (w *Worker) ensureConsumerGroup() error {
	err := w.redisClient.XGroupCreateMkStream(w.ctx, w.streamKey, w.consumerGroup, "0").Err()
	if err != nil {
		// BUSYGROUP means the group already exists
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			w.logger.Debug("consumer group already exists",
				zap.String("group", w.consumerGroup),
			)
			return nil
		}
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	w.logger.Info("created consumer group",
		zap.String("group", w.consumerGroup),
		zap.String("stream", w.streamKey),
	)
	return nil
}

// processWork reads one message at a time so a conversation's messages are
// handled in arrival order
func (w *Worker) processWork() {
	defer w.wg.Done()
	w.logger.Info("starting work processing loop")

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Info("work processing loop stopped")
			return
		default:
		}

		streams, err := w.redisClient.XReadGroup(w.ctx, &redis.XReadGroupArgs{
			Group:    w.consumerGroup,
			Consumer: w.id,
			Streams:  []string{w.streamKey, ">"},
			Count:    1,
			Block:    w.config.BlockTime,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) || w.ctx.Err() != nil {
				continue
			}
			w.logger.Error("failed to read from stream", zap.Error(err))
			w.sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				w.handleMessage(message)
			}
		}
	}
}

// handleMessage handles a single inbound message and acknowledges it
func (w *Worker) handleMessage(message redis.XMessage) {
	streamID := message.ID
	w.logger.Debug("processing inbound message",
		zap.String("stream_id", streamID),
	)

	in, err := parseInbound(message.Values)
	if err != nil {
		w.logger.Error("failed to parse inbound message",
			zap.String("stream_id", streamID),
			zap.Error(err),
		)
		w.publishError(inquiry.Inbound{MessageID: streamID}, err)
		w.acknowledgeMessage(streamID)
		return
	}
	if in.MessageID == "" {
		in.MessageID = streamID
	}

	// an in-flight message is finished even when Stop is called
	ctx := context.WithoutCancel(w.ctx)
	if err := w.processInquiry(ctx, in); err != nil {
		w.logger.Error("failed to process inquiry",
			zap.String("stream_id", streamID),
			zap.String("conversation_id", in.ConversationID),
			zap.Error(err),
		)
		w.publishError(in, err)
	}

	w.acknowledgeMessage(streamID)
}

// parseInbound decodes the JSON "data" field of a stream entry
func parseInbound(values map[string]interface{}) (inquiry.Inbound, error) {
	var in inquiry.Inbound

	dataStr, ok := values["data"].(string)
	if !ok {
		return in, fmt.Errorf("missing or invalid 'data' field")
	}
	if err := json.Unmarshal([]byte(dataStr), &in); err != nil {
		return in, fmt.Errorf("failed to unmarshal inbound message: %w", err)
	}
	if strings.TrimSpace(in.ConversationID) == "" {
		return in, fmt.Errorf("missing conversation_id")
	}
	return in, nil
}

// processInquiry runs the pipeline and publishes the decision
func (w *Worker) processInquiry(ctx context.Context, in inquiry.Inbound) error {
	out, err := w.handler.Handle(ctx, in)
	if err != nil {
		return fmt.Errorf("inquiry handling failed: %w", err)
	}

	event := NewDecisionEvent(out, w.now())
	if err := w.publishWithRetry(ctx, event); err != nil {
		return fmt.Errorf("failed to publish decision: %w", err)
	}

	w.logger.Info("published routing decision",
		zap.String("conversation_id", event.ConversationID),
		zap.String("tracking_id", event.TrackingID),
		zap.String("routed_to", event.RoutedTo),
	)
	return nil
}

// publishWithRetry tries the sink MaxRetries extra times before giving up
func (w *Worker) publishWithRetry(ctx context.Context, event *DecisionEvent) error {
	var err error
	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 {
			w.logger.Warn("retrying decision publish",
				zap.Int("attempt", attempt),
				zap.String("event_id", event.EventID),
				zap.Error(err),
			)
			w.sleep(w.retryDelay)
		}
		if err = w.publisher.PublishDecision(ctx, event); err == nil {
			return nil
		}
	}
	return err
}

// publishError publishes an error event
func (w *Worker) publishError(in inquiry.Inbound, err error) {
	event := &ErrorEvent{
		EventID:        uuid.NewString(),
		ConversationID: in.ConversationID,
		MessageID:      in.MessageID,
		Error:          err.Error(),
		Timestamp:      w.now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if publishErr := w.errors.PublishError(ctx, w.errorStream, event); publishErr != nil {
		w.logger.Error("failed to publish error event", zap.Error(publishErr))
	}
}

// acknowledgeMessage acknowledges a message from the stream
func (w *Worker) acknowledgeMessage(streamID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := w.redisClient.XAck(ctx, w.streamKey, w.consumerGroup, streamID).Err()
	if err != nil {
		w.logger.Error("failed to acknowledge message",
			zap.String("stream_id", streamID),
			zap.Error(err),
		)
	}
}

// sleep waits for d or until the worker stops
func (w *Worker) sleep(d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-w.ctx.Done():
	case <-t.C:
	}
}

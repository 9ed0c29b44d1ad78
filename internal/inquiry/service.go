package inquiry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aescanero/dago-inquiry-router/internal/classifier"
	"github.com/aescanero/dago-inquiry-router/internal/conversation"
	"github.com/aescanero/dago-inquiry-router/internal/domain"
	"github.com/aescanero/dago-inquiry-router/internal/dtc"
	"github.com/aescanero/dago-inquiry-router/internal/router"
	"go.uber.org/zap"
)

// DefaultHistoryLimit is the number of prior messages kept per conversation
const DefaultHistoryLimit = 20

// Inbound is one customer message to classify and route
type Inbound struct {
	ConversationID string    `json:"conversation_id"`
	MessageID      string    `json:"message_id"`
	Text           string    `json:"text"`
	Sender         string    `json:"sender,omitempty"`
	ReceivedAt     time.Time `json:"received_at"`
}

// Outcome is everything decided for one message. Response is the customer-facing
// acknowledgment, or the apology when routing failed; RoutingErr is set in that case.
type Outcome struct {
	ConversationID string
	MessageID      string
	Classification classifier.Outcome
	DTC            dtc.Result
	Response       string
	Result         *domain.RoutingResult
	RoutingErr     error
	State          *domain.ConversationState
}

// Service runs the per-message pipeline: load state, classify, detect codes,
// route, record and save
type Service struct {
	store        conversation.Store
	classifier   *classifier.Classifier
	router       *router.Router
	fallback     *classifier.LLMFallback
	detector     *dtc.Detector
	historyLimit int
	now          func() time.Time
	locks        keyedMutex
	logger       *zap.Logger
}

// Option configures a Service
type Option func(*Service)

// WithLLMFallback consults an LLM when no keyword matched
func WithLLMFallback(fallback *classifier.LLMFallback) Option {
	return func(s *Service) {
		s.fallback = fallback
	}
}

// WithDTCDetector scans messages for diagnostic trouble codes
func WithDTCDetector(detector *dtc.Detector) Option {
	return func(s *Service) {
		s.detector = detector
	}
}

// WithHistoryLimit caps the stored history; non-positive keeps everything
func WithHistoryLimit(limit int) Option {
	return func(s *Service) {
		s.historyLimit = limit
	}
}

// WithClock sets the clock used for new states and message timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new inquiry service
func NewService(store conversation.Store, c *classifier.Classifier, r *router.Router, logger *zap.Logger, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("state store is required")
	}
	if c == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if r == nil {
		return nil, fmt.Errorf("router is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		store:        store,
		classifier:   c,
		router:       r,
		historyLimit: DefaultHistoryLimit,
		now:          time.Now,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handle classifies and routes one message. Messages of the same conversation
// are handled one at a time; classification and routing failures degrade to
// default outputs, only state store failures are returned as errors.
func (s *Service) Handle(ctx context.Context, in Inbound) (*Outcome, error) {
	if strings.TrimSpace(in.ConversationID) == "" {
		return nil, fmt.Errorf("%w: conversation_id is required", conversation.ErrInvalidConversation)
	}

	unlock := s.locks.Lock(in.ConversationID)
	defer unlock()

	now := s.now().UTC()
	if in.ReceivedAt.IsZero() {
		in.ReceivedAt = now
	}

	state, err := conversation.LoadOrNew(ctx, s.store, in.ConversationID, func() *domain.ConversationState {
		return domain.NewConversationState(in.ConversationID, now)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation state: %w", err)
	}

	history := state.HistoryTexts()

	classification := s.classifier.Evaluate(in.Text, history)
	if s.fallback != nil {
		classification = s.fallback.Reclassify(ctx, in.Text, history, classification)
	}

	working := state.Clone()
	working.LastRoutingEvaluation = classification.Evaluation.Clone()

	var dtcResult dtc.Result
	if s.detector != nil {
		dtcResult = s.detector.Evaluate(ctx, in.Text)
		if dtcResult.Evaluation != nil {
			working.LastDTCEvaluation = dtcResult.Evaluation
		}
		if dtcResult.LookupRecord != nil {
			working.LastDTCLookup = dtcResult.LookupRecord
		}
	}

	reply := s.router.Respond(ctx, working, classification.Evaluation)
	next := reply.State
	if next == nil {
		next = working
	}

	next.AppendMessage(domain.Message{
		ID:         in.MessageID,
		Text:       in.Text,
		Sender:     in.Sender,
		ReceivedAt: in.ReceivedAt.UTC(),
	}, s.historyLimit)
	next.UpdatedAt = now

	if err := s.store.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to save conversation state: %w", err)
	}

	fields := []zap.Field{
		zap.String("conversation_id", in.ConversationID),
		zap.String("message_id", in.MessageID),
		zap.String("path", classification.Path),
		zap.Float64("score", classification.Score),
	}
	if reply.Result != nil {
		fields = append(fields,
			zap.String("tracking_id", reply.Result.TrackingID),
			zap.String("routed_to", reply.Result.RoutedTo),
			zap.String("assigned_agent", reply.Result.AssignedAgent),
		)
	}
	if classification.Evaluation != nil {
		fields = append(fields, zap.String("category", string(classification.Evaluation.Category)))
	}
	if dtcResult.Evaluation != nil {
		fields = append(fields, zap.Strings("dtc_codes", dtcResult.Evaluation.CodeList()))
	}
	s.logger.Info("inquiry routed", fields...)

	return &Outcome{
		ConversationID: in.ConversationID,
		MessageID:      in.MessageID,
		Classification: classification,
		DTC:            dtcResult,
		Response:       reply.Output,
		Result:         reply.Result,
		RoutingErr:     reply.Err,
		State:          next,
	}, nil
}

// Threads reports on a conversation's active threads
func (s *Service) Threads(ctx context.Context, conversationID, query string) (string, error) {
	state, err := s.store.Load(ctx, conversationID)
	if err != nil {
		return "", fmt.Errorf("failed to load conversation state: %w", err)
	}
	return conversation.ThreadReport(query, state.ActiveConversationThreads, s.now()), nil
}

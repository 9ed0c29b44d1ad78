package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aescanero/dago-inquiry-router/internal/domain"
	"github.com/aescanero/dago-inquiry-router/internal/eval/cel"
	"github.com/aescanero/dago-inquiry-router/internal/eval/template"
	"go.uber.org/zap"
)

var (
	// ErrRouting is returned when an evaluation cannot be turned into a reply
	ErrRouting = errors.New("routing failed")

	// ErrUnknownDestination is returned for dispatch rules naming an unknown destination
	ErrUnknownDestination = errors.New("unknown destination")
)

// specialists maps an explicitly requested route to the specialist who takes it
var specialists = map[string]string{
	domain.RouteTechnician:      "senior_technician",
	domain.RouteCustomerService: "customer_service_rep",
	domain.RoutePartsDepartment: "parts_specialist",
	domain.RouteServiceAdvisor:  "service_manager",
}

// Specialist returns the specialist for an explicit route; unmapped routes go
// to the general assistant
func Specialist(route string) string {
	if s, ok := specialists[route]; ok {
		return s
	}
	return domain.DestinationGeneralAssistant
}

// Reply is the router's answer for one message. On failure Output is a fixed
// apology, State is the caller's state unchanged and Err is set.
type Reply struct {
	Output string
	State  *domain.ConversationState
	Result *domain.RoutingResult
	Err    error
}

// Router turns routing evaluations into dispatch decisions
type Router struct {
	celEvaluator   *cel.Evaluator
	templateEngine *template.Engine
	rules          []Rule
	tracking       *TrackingGenerator
	now            func() time.Time
	logger         *zap.Logger
}

// Option configures a Router
type Option func(*Router)

// WithRules replaces the default dispatch rules
func WithRules(rules []Rule) Option {
	return func(r *Router) {
		r.rules = append([]Rule(nil), rules...)
	}
}

// WithClock sets the clock used for thread start times and tracking ids
func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		r.now = now
	}
}

// WithTemplateEngine shares a template engine with other components
func WithTemplateEngine(engine *template.Engine) Option {
	return func(r *Router) {
		r.templateEngine = engine
	}
}

// NewRouter creates a new router and validates its dispatch rules and templates
func NewRouter(logger *zap.Logger, opts ...Option) (*Router, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	evaluator, err := cel.NewEvaluator()
	if err != nil {
		return nil, err
	}

	r := &Router{
		celEvaluator: evaluator,
		rules:        DefaultRules(),
		now:          time.Now,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.templateEngine == nil {
		r.templateEngine = template.NewEngine()
	}
	r.tracking = NewTrackingGenerator(r.now)

	if err := validateRules(r.celEvaluator, r.rules); err != nil {
		return nil, fmt.Errorf("invalid dispatch rules: %w", err)
	}
	for destination, tmpl := range responseTemplates {
		if err := r.templateEngine.ValidateTemplate(tmpl + referenceTemplate); err != nil {
			return nil, fmt.Errorf("invalid response template for %s: %w", destination, err)
		}
	}

	return r, nil
}

// Route maps an evaluation to a routing result. A nil evaluation is replaced by
// the default general inquiry.
func (r *Router) Route(ctx context.Context, evaluation *domain.Evaluation) (*domain.RoutingResult, error) {
	if r == nil || r.celEvaluator == nil {
		return nil, fmt.Errorf("%w: router not configured", ErrRouting)
	}
	if evaluation == nil {
		evaluation = domain.DefaultEvaluation()
	}

	result := &domain.RoutingResult{
		RoutedTo:         domain.DestinationGeneralAssistant,
		PriorityLevel:    domain.ParseLevel(string(evaluation.Urgency)),
		SuggestedActions: append([]string{}, evaluation.SuggestedActions...),
		TrackingID:       r.tracking.Next(),
	}

	// Explicit requests skip the category rules
	if evaluation.ExplicitRouting != "" {
		result.RoutedTo = evaluation.ExplicitRouting
		result.AssignedAgent = Specialist(evaluation.ExplicitRouting)
		result.PriorityLevel = domain.LevelHigh

		r.logger.Info("explicit routing requested",
			zap.String("tracking_id", result.TrackingID),
			zap.String("routed_to", result.RoutedTo),
			zap.String("assigned_agent", result.AssignedAgent),
		)
		return result, nil
	}

	rule, index := r.matchRule(ctx, evaluation)
	if rule == nil {
		r.logger.Info("no rules matched, using general assistant",
			zap.String("tracking_id", result.TrackingID),
			zap.String("category", string(evaluation.Category)),
		)
		return result, nil
	}

	result.RoutedTo = rule.RoutedTo
	result.AssignedAgent = rule.AssignedAgent
	result.EstimatedResponseTime = rule.EstimatedResponseTime
	result.SuggestedActions = append(result.SuggestedActions, rule.AddActions...)

	r.logger.Info("rule matched",
		zap.String("tracking_id", result.TrackingID),
		zap.Int("rule_index", index),
		zap.String("rule", rule.Name),
		zap.String("routed_to", result.RoutedTo),
		zap.String("assigned_agent", result.AssignedAgent),
	)

	return result, nil
}

// Respond routes an evaluation and records the decision in a copy of the
// conversation state. A nil evaluation falls back to the state's last routing
// evaluation, then to the default general inquiry. Failures never escape: they
// produce the apology reply with the original state.
func (r *Router) Respond(ctx context.Context, state *domain.ConversationState, evaluation *domain.Evaluation) (reply Reply) {
	defer func() {
		if rec := recover(); rec != nil {
			reply = r.apology(state, fmt.Errorf("%w: %v", ErrRouting, rec))
		}
	}()

	if state == nil {
		return Reply{
			Output: MissingStateMessage,
			Err:    fmt.Errorf("%w: no conversation state", ErrRouting),
		}
	}

	if evaluation == nil {
		evaluation = state.LastRoutingEvaluation
	}
	if evaluation == nil {
		evaluation = domain.DefaultEvaluation()
	}

	result, err := r.Route(ctx, evaluation)
	if err != nil {
		return r.apology(state, err)
	}

	output, err := r.renderResponse(result)
	if err != nil {
		return r.apology(state, fmt.Errorf("%w: %v", ErrRouting, err))
	}

	now := r.now().UTC()
	next := state.Clone()
	next.ConversationRouting = result.Clone()
	next.LastRoutingTimestamp = &now
	next.UpdatedAt = now

	if evaluation.ExplicitRouting == "" {
		assignedTo := result.AssignedAgent
		if assignedTo == "" {
			assignedTo = result.RoutedTo
		}
		next.ActiveConversationThreads = append(next.ActiveConversationThreads, domain.ConversationThread{
			ID:         result.TrackingID,
			Category:   evaluation.Category,
			Urgency:    evaluation.Urgency,
			StartTime:  now,
			AssignedTo: assignedTo,
		})
	}

	return Reply{
		Output: output,
		State:  next,
		Result: result,
	}
}

func (r *Router) apology(state *domain.ConversationState, err error) Reply {
	if r != nil && r.logger != nil {
		conversationID := ""
		if state != nil {
			conversationID = state.ConversationID
		}
		r.logger.Error("routing failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
	}
	return Reply{
		Output: ApologyMessage,
		State:  state,
		Err:    err,
	}
}

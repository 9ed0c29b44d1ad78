package router

import (
	"context"
	"fmt"

	"github.com/aescanero/dago-inquiry-router/internal/domain"
	"github.com/aescanero/dago-inquiry-router/internal/eval/cel"
	"go.uber.org/zap"
)

// Actions added by dispatch rules
const (
	ActionCheckAlternativeSuppliers = "CHECK_ALTERNATIVE_SUPPLIERS"
	ActionRetrieveTechnicalDiagrams = "RETRIEVE_TECHNICAL_DIAGRAMS"
)

// Rule is a CEL-based dispatch rule. Rules are evaluated in order and the first
// matching rule decides the destination.
type Rule struct {
	Name                  string   `json:"name" yaml:"name"`
	Condition             string   `json:"condition" yaml:"condition"`
	RoutedTo              string   `json:"routed_to" yaml:"routed_to"`
	AssignedAgent         string   `json:"assigned_agent,omitempty" yaml:"assigned_agent,omitempty"`
	EstimatedResponseTime string   `json:"estimated_response_time,omitempty" yaml:"estimated_response_time,omitempty"`
	AddActions            []string `json:"add_actions,omitempty" yaml:"add_actions,omitempty"`
}

// DefaultRules returns the category dispatch rules. More specific rules come
// before the plain category rule they refine.
func DefaultRules() []Rule {
	const (
		diagnostics = "evaluation.category == 'VEHICLE_DIAGNOSTICS'"
		parts       = "evaluation.category == 'PARTS_INFORMATION'"
		warranty    = "evaluation.category == 'WARRANTY_SERVICE'"
		repair      = "evaluation.category == 'REPAIR_GUIDANCE'"
		maintenance = "evaluation.category == 'MAINTENANCE_ADVICE'"
		urgent      = " && evaluation.urgency == 'high'"
		complex     = " && evaluation.complexity == 'high'"
	)

	return []Rule{
		{
			Name:                  "urgent_diagnostics",
			Condition:             diagnostics + urgent,
			RoutedTo:              domain.DestinationDiagnosticSystem,
			AssignedAgent:         "diagnostic_specialist",
			EstimatedResponseTime: "5-10 minutes",
		},
		{
			Name:                  "complex_diagnostics",
			Condition:             diagnostics + complex,
			RoutedTo:              domain.DestinationDiagnosticSystem,
			AssignedAgent:         "diagnostic_specialist",
			EstimatedResponseTime: "30-60 minutes",
		},
		{
			Name:      "diagnostics",
			Condition: diagnostics,
			RoutedTo:  domain.DestinationDiagnosticSystem,
		},
		{
			Name:       "urgent_parts",
			Condition:  parts + urgent,
			RoutedTo:   domain.DestinationPartsDatabase,
			AddActions: []string{ActionCheckAlternativeSuppliers},
		},
		{
			Name:      "parts",
			Condition: parts,
			RoutedTo:  domain.DestinationPartsDatabase,
		},
		{
			Name:                  "urgent_warranty",
			Condition:             warranty + urgent,
			RoutedTo:              domain.DestinationCustomerService,
			AssignedAgent:         "customer_service_manager",
			EstimatedResponseTime: "15-30 minutes",
		},
		{
			Name:      "warranty",
			Condition: warranty,
			RoutedTo:  domain.DestinationCustomerService,
		},
		{
			Name:          "complex_repair",
			Condition:     repair + complex,
			RoutedTo:      domain.DestinationRepairDocumentation,
			AssignedAgent: "technical_advisor",
			AddActions:    []string{ActionRetrieveTechnicalDiagrams},
		},
		{
			Name:      "repair",
			Condition: repair,
			RoutedTo:  domain.DestinationRepairDocumentation,
		},
		{
			Name:                  "complex_maintenance",
			Condition:             maintenance + complex,
			RoutedTo:              domain.DestinationTechnicalKnowledgeBase,
			AssignedAgent:         "technical_specialist",
			EstimatedResponseTime: "1-4 hours",
		},
		{
			Name:      "maintenance",
			Condition: maintenance,
			RoutedTo:  domain.DestinationTechnicalKnowledgeBase,
		},
	}
}

// destinations are the places a dispatch rule may send an inquiry
var destinations = map[string]bool{
	domain.DestinationGeneralAssistant:       true,
	domain.DestinationDiagnosticSystem:       true,
	domain.DestinationPartsDatabase:          true,
	domain.DestinationCustomerService:        true,
	domain.DestinationRepairDocumentation:    true,
	domain.DestinationTechnicalKnowledgeBase: true,
}

// validateRules validates the dispatch rules
func validateRules(evaluator *cel.Evaluator, rules []Rule) error {
	for i, rule := range rules {
		if rule.Condition == "" {
			return fmt.Errorf("rule %d: condition is required", i)
		}
		if rule.RoutedTo == "" {
			return fmt.Errorf("rule %d: routed_to is required", i)
		}
		if !destinations[rule.RoutedTo] {
			return fmt.Errorf("rule %d: %w: %s", i, ErrUnknownDestination, rule.RoutedTo)
		}
		if err := evaluator.ValidateExpression(rule.Condition); err != nil {
			return fmt.Errorf("rule %d: invalid condition: %w", i, err)
		}
	}
	return nil
}

// matchRule returns the first rule whose condition holds, or nil
func (r *Router) matchRule(ctx context.Context, evaluation *domain.Evaluation) (*Rule, int) {
	vars := prepareEvaluationForCEL(evaluation)

	for i := range r.rules {
		rule := &r.rules[i]

		r.logger.Debug("evaluating rule",
			zap.Int("rule_index", i),
			zap.String("rule", rule.Name),
			zap.String("condition", rule.Condition),
		)

		matched, err := r.celEvaluator.EvaluateBool(ctx, rule.Condition, vars)
		if err != nil {
			r.logger.Warn("rule evaluation error",
				zap.Int("rule_index", i),
				zap.String("condition", rule.Condition),
				zap.Error(err),
			)
			// Continue to next rule on error
			continue
		}

		if matched {
			return rule, i
		}
	}

	return nil, -1
}

// prepareEvaluationForCEL converts an evaluation to a map for CEL evaluation
func prepareEvaluationForCEL(evaluation *domain.Evaluation) map[string]interface{} {
	actions := make([]interface{}, 0, len(evaluation.SuggestedActions))
	for _, a := range evaluation.SuggestedActions {
		actions = append(actions, a)
	}

	return map[string]interface{}{
		cel.Variable: map[string]interface{}{
			"category":         string(evaluation.Category),
			"urgency":          string(evaluation.Urgency),
			"complexity":       string(evaluation.Complexity),
			"explicitRouting":  evaluation.ExplicitRouting,
			"confidence":       evaluation.Confidence,
			"suggestedActions": actions,
		},
	}
}

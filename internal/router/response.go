package router

import (
	"fmt"

	"github.com/aescanero/dago-inquiry-router/internal/domain"
)

// Fixed replies used when routing cannot produce an acknowledgment
const (
	ApologyMessage      = "I'm having trouble processing your request. Could you please try again?"
	MissingStateMessage = "I can't process this request without the proper state information."
)

const (
	defaultResponse   = "I'll assist you with your inquiry right away."
	referenceTemplate = "\n\nYour inquiry reference number is: {{trackingId}}"
)

// responseTemplates holds one Handlebars acknowledgment per destination
var responseTemplates = map[string]string{
	domain.DestinationDiagnosticSystem: "{{#if assignedAgent}}" +
		"I'm connecting you with our diagnostic specialist who can help troubleshoot this issue." +
		"{{#if estimatedResponseTime}} They should respond within {{estimatedResponseTime}}.{{/if}}" +
		"{{else}}I'll analyze the diagnostic information for you. Let me retrieve the relevant details.{{/if}}",

	domain.DestinationPartsDatabase: "I'll check our parts inventory system for availability and pricing.",

	domain.DestinationCustomerService: "{{#contains assignedAgent \"manager\"}}" +
		"I'm escalating this to our customer service manager who will assist you" +
		"{{#if estimatedResponseTime}} within {{estimatedResponseTime}}{{/if}}." +
		"{{else}}I'll help you with your customer service needs right away.{{/contains}}",

	domain.DestinationRepairDocumentation: "I'm searching our repair documentation database for the information you need." +
		"{{#if assignedAgent}} I'll also connect you with a technical advisor for additional guidance.{{/if}}",

	domain.DestinationTechnicalKnowledgeBase: "I'm retrieving technical information to answer your question." +
		"{{#if assignedAgent}} For this complex inquiry, I'll also have our technical specialist review and provide additional insights" +
		"{{#if estimatedResponseTime}} within {{estimatedResponseTime}}{{/if}}.{{/if}}",
}

// responseTemplate returns the acknowledgment template for a routing result
func responseTemplate(result *domain.RoutingResult) string {
	tmpl, ok := responseTemplates[result.RoutedTo]
	if !ok {
		tmpl = defaultResponse
	}
	if result.TrackingID != "" {
		tmpl += referenceTemplate
	}
	return tmpl
}

// renderResponse renders the customer-facing acknowledgment for a routing result
func (r *Router) renderResponse(result *domain.RoutingResult) (string, error) {
	data := map[string]interface{}{
		"routedTo":              result.RoutedTo,
		"assignedAgent":         result.AssignedAgent,
		"priorityLevel":         string(result.PriorityLevel),
		"estimatedResponseTime": result.EstimatedResponseTime,
		"trackingId":            result.TrackingID,
	}

	output, err := r.templateEngine.Render(responseTemplate(result), data)
	if err != nil {
		return "", fmt.Errorf("failed to render response for %s: %w", result.RoutedTo, err)
	}

	return output, nil
}

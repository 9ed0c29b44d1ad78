// Package template provides a Handlebars template engine for LLM prompts and
// customer-facing acknowledgments.
//
// Example usage:
//
//	engine := template.NewEngine()
//
//	data := map[string]interface{}{
//	    "assignedAgent": "customer_service_manager",
//	    "estimatedResponseTime": "15-30 minutes",
//	}
//
//	tmpl := "{{#contains assignedAgent \"manager\"}}Escalating{{#if estimatedResponseTime}} within {{estimatedResponseTime}}{{/if}}.{{else}}Helping now.{{/contains}}"
//	result, err := engine.Render(tmpl, data)
//	// result: "Escalating within 15-30 minutes."
//
// Built-in helpers:
//   - contains - Block helper, renders its body when the string contains the substring
//   - join - Join list elements with separator
//
// Helpers are registered once per process; raymond's registry is global.
package template

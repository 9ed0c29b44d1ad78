// Package cel provides a CEL (Common Expression Language) evaluator for the
// router's dispatch rules.
//
// Expressions see a single map variable, evaluation, holding the classifier's
// output (category, urgency, complexity, explicitRouting, confidence,
// suggestedActions).
//
// Example usage:
//
//	evaluator, err := cel.NewEvaluator()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	vars := map[string]interface{}{
//	    "evaluation": map[string]interface{}{
//	        "category": "VEHICLE_DIAGNOSTICS",
//	        "urgency":  "high",
//	    },
//	}
//
//	matched, err := evaluator.EvaluateBool(ctx,
//	    "evaluation.category == 'VEHICLE_DIAGNOSTICS' && evaluation.urgency == 'high'", vars)
//	// matched == true
//
// Programs are compiled once and cached per expression.
package cel

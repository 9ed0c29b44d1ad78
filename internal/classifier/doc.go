// Package classifier scores customer messages against keyword tables and
// produces the routing evaluation consumed by the router.
//
// A message is scored together with its conversation history. Every keyword hit
// counts once per message, weighted by recency: 0.5 for the oldest message up to
// 1.0 for the current one. Urgency, complexity and explicit routing requests are
// read from the current message only.
//
// Example usage:
//
//	c, err := classifier.NewClassifier(classifier.DefaultTables(), logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out := c.Evaluate("My check engine light came on", nil)
//	// out.Evaluation.Category == domain.CategoryVehicleDiagnostics
//	// out.Score == 0.7, out.Path == classifier.PathFast
//
// When no keyword matches, the category is OTHER and the path is PathFallback.
// An LLMFallback can then ask a model for a category:
//
//	fallback := classifier.NewLLMFallback(
//	    classifier.NewDagoCompleter(llmClient, "claude-sonnet-4-5"),
//	    template.NewEngine(), 10*time.Second, logger)
//	out = fallback.Reclassify(ctx, text, history, out)
//
// Keyword tables may be replaced section by section from a YAML file with
// LoadTables.
package classifier

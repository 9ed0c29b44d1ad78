// Package router turns classifier evaluations into dispatch decisions.
//
// Routing happens in two steps:
//   - Explicit: a customer request for a specific route (technician, customer_service,
//     parts_department, service_advisor) wins outright, gets high priority and the
//     route's specialist.
//   - Rules: otherwise ordered CEL rules over the evaluation pick the destination,
//     an optional specialist, an estimated response time and extra actions. The
//     first matching rule wins; no match goes to the general assistant.
//
// Example:
//
//	r, err := router.NewRouter(logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	reply := r.Respond(ctx, state, &domain.Evaluation{
//	    Category:   domain.CategoryVehicleDiagnostics,
//	    Urgency:    domain.LevelHigh,
//	    Complexity: domain.LevelLow,
//	})
//	// reply.Result.RoutedTo == "diagnostic_system"
//	// reply.Result.AssignedAgent == "diagnostic_specialist"
//	// reply.Output ends with "Your inquiry reference number is: INQ-..."
//
// Custom rules replace the defaults:
//
//	r, err := router.NewRouter(logger, router.WithRules([]router.Rule{
//	    {Name: "parts", Condition: "evaluation.category == 'PARTS_INFORMATION'", RoutedTo: "parts_database"},
//	}))
//
// Respond never fails outright: errors yield ApologyMessage and the caller's state.
package router

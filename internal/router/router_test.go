package router

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/aescanero/dago-inquiry-router/internal/domain"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"
)

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestRouter(t *testing.T, opts ...Option) *Router {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	r, err := NewRouter(zaptest.NewLogger(t), opts...)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	return r
}

func TestRouteDispatch(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name       string
		eval       *domain.Evaluation
		routedTo   string
		agent      string
		eta        string
		addActions []string
	}{
		{"diagnostics plain", eval(domain.CategoryVehicleDiagnostics, domain.LevelMedium, domain.LevelLow),
			domain.DestinationDiagnosticSystem, "", "", nil},
		{"diagnostics urgent", eval(domain.CategoryVehicleDiagnostics, domain.LevelHigh, domain.LevelLow),
			domain.DestinationDiagnosticSystem, "diagnostic_specialist", "5-10 minutes", nil},
		{"diagnostics urgent and complex", eval(domain.CategoryVehicleDiagnostics, domain.LevelHigh, domain.LevelHigh),
			domain.DestinationDiagnosticSystem, "diagnostic_specialist", "5-10 minutes", nil},
		{"diagnostics complex", eval(domain.CategoryVehicleDiagnostics, domain.LevelLow, domain.LevelHigh),
			domain.DestinationDiagnosticSystem, "diagnostic_specialist", "30-60 minutes", nil},
		{"parts plain", eval(domain.CategoryPartsInformation, domain.LevelMedium, domain.LevelHigh),
			domain.DestinationPartsDatabase, "", "", nil},
		{"parts urgent", eval(domain.CategoryPartsInformation, domain.LevelHigh, domain.LevelLow),
			domain.DestinationPartsDatabase, "", "", []string{ActionCheckAlternativeSuppliers}},
		{"warranty plain", eval(domain.CategoryWarrantyService, domain.LevelLow, domain.LevelHigh),
			domain.DestinationCustomerService, "", "", nil},
		{"warranty urgent", eval(domain.CategoryWarrantyService, domain.LevelHigh, domain.LevelLow),
			domain.DestinationCustomerService, "customer_service_manager", "15-30 minutes", nil},
		{"repair plain", eval(domain.CategoryRepairGuidance, domain.LevelHigh, domain.LevelMedium),
			domain.DestinationRepairDocumentation, "", "", nil},
		{"repair complex", eval(domain.CategoryRepairGuidance, domain.LevelLow, domain.LevelHigh),
			domain.DestinationRepairDocumentation, "technical_advisor", "", []string{ActionRetrieveTechnicalDiagrams}},
		{"maintenance plain", eval(domain.CategoryMaintenanceAdvice, domain.LevelHigh, domain.LevelMedium),
			domain.DestinationTechnicalKnowledgeBase, "", "", nil},
		{"maintenance complex", eval(domain.CategoryMaintenanceAdvice, domain.LevelLow, domain.LevelHigh),
			domain.DestinationTechnicalKnowledgeBase, "technical_specialist", "1-4 hours", nil},
		{"pricing", eval(domain.CategoryPricingInformation, domain.LevelHigh, domain.LevelHigh),
			domain.DestinationGeneralAssistant, "", "", nil},
		{"other", eval(domain.CategoryOther, domain.LevelMedium, domain.LevelLow),
			domain.DestinationGeneralAssistant, "", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.eval.SuggestedActions = []string{"BASE_ACTION"}
			got, err := r.Route(context.Background(), tt.eval)
			if err != nil {
				t.Fatalf("Route() error = %v", err)
			}
			if got.RoutedTo != tt.routedTo || got.AssignedAgent != tt.agent || got.EstimatedResponseTime != tt.eta {
				t.Errorf("Route() = %s/%q/%q, want %s/%q/%q",
					got.RoutedTo, got.AssignedAgent, got.EstimatedResponseTime, tt.routedTo, tt.agent, tt.eta)
			}
			if got.PriorityLevel != tt.eval.Urgency {
				t.Errorf("priority = %s, want %s", got.PriorityLevel, tt.eval.Urgency)
			}
			wantActions := append([]string{"BASE_ACTION"}, tt.addActions...)
			if !reflect.DeepEqual(got.SuggestedActions, wantActions) {
				t.Errorf("actions = %v, want %v", got.SuggestedActions, wantActions)
			}
		})
	}
}

func eval(category domain.Category, urgency, complexity domain.Level) *domain.Evaluation {
	return &domain.Evaluation{Category: category, Urgency: urgency, Complexity: complexity}
}

func TestRouteExplicit(t *testing.T) {
	r := newTestRouter(t)

	tests := map[string]string{
		domain.RouteTechnician:      "senior_technician",
		domain.RouteCustomerService: "customer_service_rep",
		domain.RoutePartsDepartment: "parts_specialist",
		domain.RouteServiceAdvisor:  "service_manager",
		"billing":                   domain.DestinationGeneralAssistant,
	}
	for route, agent := range tests {
		ev := eval(domain.CategoryVehicleDiagnostics, domain.LevelLow, domain.LevelHigh)
		ev.ExplicitRouting = route
		got, err := r.Route(context.Background(), ev)
		if err != nil {
			t.Fatal(err)
		}
		if got.RoutedTo != route || got.AssignedAgent != agent || got.PriorityLevel != domain.LevelHigh {
			t.Errorf("explicit %s: got %s/%s/%s", route, got.RoutedTo, got.AssignedAgent, got.PriorityLevel)
		}
		if got.EstimatedResponseTime != "" {
			t.Errorf("explicit %s: unexpected eta %q", route, got.EstimatedResponseTime)
		}
	}
}

func TestRouteNilEvaluationUsesDefault(t *testing.T) {
	r := newTestRouter(t)
	got, err := r.Route(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.RoutedTo != domain.DestinationGeneralAssistant || got.PriorityLevel != domain.LevelMedium {
		t.Errorf("Route(nil) = %+v", got)
	}
	if got.SuggestedActions == nil || len(got.SuggestedActions) != 0 {
		t.Errorf("actions = %#v, want empty", got.SuggestedActions)
	}
}

func TestRespondResponses(t *testing.T) {
	r := newTestRouter(t)
	ctx := context.Background()

	tests := []struct {
		name string
		eval *domain.Evaluation
		want string
	}{
		{"diagnostics agent with eta", eval(domain.CategoryVehicleDiagnostics, domain.LevelHigh, domain.LevelLow),
			"I'm connecting you with our diagnostic specialist who can help troubleshoot this issue. They should respond within 5-10 minutes."},
		{"diagnostics no agent", eval(domain.CategoryVehicleDiagnostics, domain.LevelMedium, domain.LevelLow),
			"I'll analyze the diagnostic information for you. Let me retrieve the relevant details."},
		{"parts", eval(domain.CategoryPartsInformation, domain.LevelHigh, domain.LevelLow),
			"I'll check our parts inventory system for availability and pricing."},
		{"warranty manager", eval(domain.CategoryWarrantyService, domain.LevelHigh, domain.LevelLow),
			"I'm escalating this to our customer service manager who will assist you within 15-30 minutes."},
		{"warranty plain", eval(domain.CategoryWarrantyService, domain.LevelLow, domain.LevelLow),
			"I'll help you with your customer service needs right away."},
		{"repair advisor", eval(domain.CategoryRepairGuidance, domain.LevelLow, domain.LevelHigh),
			"I'm searching our repair documentation database for the information you need. I'll also connect you with a technical advisor for additional guidance."},
		{"repair plain", eval(domain.CategoryRepairGuidance, domain.LevelLow, domain.LevelLow),
			"I'm searching our repair documentation database for the information you need."},
		{"maintenance specialist", eval(domain.CategoryMaintenanceAdvice, domain.LevelLow, domain.LevelHigh),
			"I'm retrieving technical information to answer your question. For this complex inquiry, I'll also have our technical specialist review and provide additional insights within 1-4 hours."},
		{"maintenance plain", eval(domain.CategoryMaintenanceAdvice, domain.LevelLow, domain.LevelLow),
			"I'm retrieving technical information to answer your question."},
		{"general", eval(domain.CategoryOther, domain.LevelLow, domain.LevelLow),
			"I'll assist you with your inquiry right away."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := r.Respond(ctx, domain.NewConversationState("c1", fixedNow), tt.eval)
			if reply.Err != nil {
				t.Fatalf("Respond() error = %v", reply.Err)
			}
			want := tt.want + "\n\nYour inquiry reference number is: " + reply.Result.TrackingID
			if reply.Output != want {
				t.Errorf("Output = %q, want %q", reply.Output, want)
			}
		})
	}
}

func TestRespondExplicitCustomerService(t *testing.T) {
	r := newTestRouter(t)
	ev := eval(domain.CategoryOther, domain.LevelLow, domain.LevelLow)
	ev.ExplicitRouting = domain.RouteCustomerService

	reply := r.Respond(context.Background(), domain.NewConversationState("c1", fixedNow), ev)
	if !strings.HasPrefix(reply.Output, "I'll help you with your customer service needs right away.") {
		t.Errorf("Output = %q", reply.Output)
	}
}

func TestRespondUpdatesStateCopy(t *testing.T) {
	r := newTestRouter(t)
	state := domain.NewConversationState("c1", fixedNow.Add(-time.Hour))

	reply := r.Respond(context.Background(), state, eval(domain.CategoryVehicleDiagnostics, domain.LevelHigh, domain.LevelLow))
	if reply.Err != nil {
		t.Fatal(reply.Err)
	}

	if state.ConversationRouting != nil || len(state.ActiveConversationThreads) != 0 {
		t.Error("original state mutated")
	}

	next := reply.State
	if next.ConversationRouting == nil || next.ConversationRouting.TrackingID != reply.Result.TrackingID {
		t.Fatalf("conversationRouting = %+v", next.ConversationRouting)
	}
	if next.LastRoutingTimestamp == nil || !next.LastRoutingTimestamp.Equal(fixedNow) {
		t.Errorf("lastRoutingTimestamp = %v", next.LastRoutingTimestamp)
	}
	if len(next.ActiveConversationThreads) != 1 {
		t.Fatalf("threads = %+v", next.ActiveConversationThreads)
	}
	thread := next.ActiveConversationThreads[0]
	want := domain.ConversationThread{
		ID:         reply.Result.TrackingID,
		Category:   domain.CategoryVehicleDiagnostics,
		Urgency:    domain.LevelHigh,
		StartTime:  fixedNow,
		AssignedTo: "diagnostic_specialist",
	}
	if thread != want {
		t.Errorf("thread = %+v, want %+v", thread, want)
	}

	// without a specialist the thread is assigned to the destination
	reply = r.Respond(context.Background(), next, eval(domain.CategoryPartsInformation, domain.LevelLow, domain.LevelLow))
	if got := reply.State.ActiveConversationThreads[1].AssignedTo; got != domain.DestinationPartsDatabase {
		t.Errorf("assignedTo = %s, want parts_database", got)
	}
}

func TestRespondExplicitSkipsThread(t *testing.T) {
	r := newTestRouter(t)
	ev := eval(domain.CategoryVehicleDiagnostics, domain.LevelLow, domain.LevelLow)
	ev.ExplicitRouting = domain.RouteTechnician

	reply := r.Respond(context.Background(), domain.NewConversationState("c1", fixedNow), ev)
	if len(reply.State.ActiveConversationThreads) != 0 {
		t.Errorf("explicit routing appended a thread")
	}
	if reply.State.ConversationRouting == nil || reply.State.LastRoutingTimestamp == nil {
		t.Error("explicit routing must still record the decision")
	}
}

func TestRespondFallsBackToStateEvaluation(t *testing.T) {
	r := newTestRouter(t)
	state := domain.NewConversationState("c1", fixedNow)
	state.LastRoutingEvaluation = eval(domain.CategoryPartsInformation, domain.LevelLow, domain.LevelLow)

	reply := r.Respond(context.Background(), state, nil)
	if reply.Result.RoutedTo != domain.DestinationPartsDatabase {
		t.Errorf("routedTo = %s, want parts_database", reply.Result.RoutedTo)
	}

	reply = r.Respond(context.Background(), domain.NewConversationState("c2", fixedNow), nil)
	if reply.Result.RoutedTo != domain.DestinationGeneralAssistant {
		t.Errorf("routedTo = %s, want general_assistant", reply.Result.RoutedTo)
	}
	if reply.State.ActiveConversationThreads[0].Category != domain.CategoryGeneralInquiry {
		t.Errorf("default thread category = %s", reply.State.ActiveConversationThreads[0].Category)
	}
}

func TestRespondApology(t *testing.T) {
	var r Router
	state := domain.NewConversationState("c1", fixedNow)

	reply := r.Respond(context.Background(), state, eval(domain.CategoryOther, domain.LevelLow, domain.LevelLow))
	if reply.Output != ApologyMessage {
		t.Errorf("Output = %q", reply.Output)
	}
	if reply.State != state {
		t.Error("apology must return the original state")
	}
	if !errors.Is(reply.Err, ErrRouting) {
		t.Errorf("Err = %v, want ErrRouting", reply.Err)
	}

	reply = newTestRouter(t).Respond(context.Background(), nil, nil)
	if reply.Output != MissingStateMessage || !errors.Is(reply.Err, ErrRouting) {
		t.Errorf("nil state reply = %+v", reply)
	}
}

func TestRespondRenderFailure(t *testing.T) {
	saved := responseTemplates[domain.DestinationPartsDatabase]
	// contains is called without its substring argument
	responseTemplates[domain.DestinationPartsDatabase] = "{{#contains assignedAgent}}x{{/contains}}"
	t.Cleanup(func() { responseTemplates[domain.DestinationPartsDatabase] = saved })

	r := newTestRouter(t)
	state := domain.NewConversationState("c1", fixedNow)
	before := state.Clone()

	reply := r.Respond(context.Background(), state, eval(domain.CategoryPartsInformation, domain.LevelLow, domain.LevelLow))
	if reply.Output != ApologyMessage {
		t.Errorf("Output = %q", reply.Output)
	}
	if reply.State != state || !reflect.DeepEqual(state, before) {
		t.Error("render failure must return the original state unchanged")
	}
	if reply.Result != nil {
		t.Errorf("Result = %+v, want nil", reply.Result)
	}
	if !errors.Is(reply.Err, ErrRouting) || !strings.Contains(reply.Err.Error(), "failed to render response") {
		t.Errorf("Err = %v", reply.Err)
	}
}

func TestRespondRecoversFromPanic(t *testing.T) {
	r := newTestRouter(t)
	r.templateEngine = nil
	state := domain.NewConversationState("c1", fixedNow)
	before := state.Clone()

	reply := r.Respond(context.Background(), state, eval(domain.CategoryVehicleDiagnostics, domain.LevelHigh, domain.LevelLow))
	if reply.Output != ApologyMessage {
		t.Errorf("Output = %q", reply.Output)
	}
	if reply.State != state || !reflect.DeepEqual(state, before) {
		t.Error("panic must return the original state unchanged")
	}
	if !errors.Is(reply.Err, ErrRouting) {
		t.Errorf("Err = %v, want ErrRouting", reply.Err)
	}
}

func TestNewRouterRejectsBadRules(t *testing.T) {
	tests := map[string]Rule{
		"unknown destination": {Condition: "true", RoutedTo: "moon"},
		"non bool":            {Condition: "1 + 2", RoutedTo: domain.DestinationPartsDatabase},
		"syntax":              {Condition: "evaluation.category ==", RoutedTo: domain.DestinationPartsDatabase},
		"missing condition":   {RoutedTo: domain.DestinationPartsDatabase},
	}
	for name, rule := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := NewRouter(nil, WithRules([]Rule{rule})); err == nil {
				t.Error("expected error")
			}
		})
	}

	_, err := NewRouter(nil, WithRules([]Rule{{Condition: "true", RoutedTo: "moon"}}))
	if !errors.Is(err, ErrUnknownDestination) {
		t.Errorf("err = %v, want ErrUnknownDestination", err)
	}
}

func TestRuleEvaluationErrorSkipsRule(t *testing.T) {
	r := newTestRouter(t, WithRules([]Rule{
		{Name: "broken", Condition: "evaluation.missing == 'x'", RoutedTo: domain.DestinationRepairDocumentation},
		{Name: "parts", Condition: "evaluation.category == 'PARTS_INFORMATION'", RoutedTo: domain.DestinationPartsDatabase},
	}))

	got, err := r.Route(context.Background(), eval(domain.CategoryPartsInformation, domain.LevelLow, domain.LevelLow))
	if err != nil {
		t.Fatal(err)
	}
	if got.RoutedTo != domain.DestinationPartsDatabase {
		t.Errorf("routedTo = %s, want parts_database", got.RoutedTo)
	}
}

var specialCategories = map[domain.Category]bool{
	domain.CategoryVehicleDiagnostics: true,
	domain.CategoryPartsInformation:   true,
	domain.CategoryWarrantyService:    true,
	domain.CategoryRepairGuidance:     true,
	domain.CategoryMaintenanceAdvice:  true,
}

func evaluationGen() *rapid.Generator[*domain.Evaluation] {
	levels := []domain.Level{domain.LevelHigh, domain.LevelMedium, domain.LevelLow}
	routes := []string{"", domain.RouteTechnician, domain.RouteCustomerService, domain.RoutePartsDepartment, domain.RouteServiceAdvisor, "billing"}

	return rapid.Custom(func(t *rapid.T) *domain.Evaluation {
		return &domain.Evaluation{
			Category:         rapid.SampledFrom(domain.Categories()).Draw(t, "category"),
			Urgency:          rapid.SampledFrom(levels).Draw(t, "urgency"),
			Complexity:       rapid.SampledFrom(levels).Draw(t, "complexity"),
			ExplicitRouting:  rapid.SampledFrom(routes).Draw(t, "explicit"),
			SuggestedActions: rapid.SliceOfN(rapid.SampledFrom([]string{"FETCH_VEHICLE_DATA", "GENERAL_ASSISTANCE"}), 0, 3).Draw(t, "actions"),
			Confidence:       rapid.SampledFrom([]float64{0.3, 0.5, 0.7}).Draw(t, "confidence"),
		}
	})
}

func TestRoutingProperties(t *testing.T) {
	r := newTestRouter(t)
	ctx := context.Background()

	rapid.Check(t, func(t *rapid.T) {
		ev := evaluationGen().Draw(t, "evaluation")

		first, err := r.Route(ctx, ev)
		if err != nil {
			t.Fatal(err)
		}

		if ev.ExplicitRouting != "" {
			if first.PriorityLevel != domain.LevelHigh || first.AssignedAgent == "" {
				t.Fatalf("explicit %s: priority %s agent %q", ev.ExplicitRouting, first.PriorityLevel, first.AssignedAgent)
			}
			return
		}

		if !specialCategories[ev.Category] {
			if first.RoutedTo != domain.DestinationGeneralAssistant || first.AssignedAgent != "" {
				t.Fatalf("category %s routed to %s/%q", ev.Category, first.RoutedTo, first.AssignedAgent)
			}
		}

		second, err := r.Route(ctx, ev)
		if err != nil {
			t.Fatal(err)
		}
		if first.RoutedTo != second.RoutedTo || first.AssignedAgent != second.AssignedAgent ||
			first.EstimatedResponseTime != second.EstimatedResponseTime {
			t.Fatalf("routing not idempotent: %+v vs %+v", first, second)
		}
		if first.TrackingID == second.TrackingID {
			t.Fatalf("tracking id reused: %s", first.TrackingID)
		}
	})
}

func TestRespondStateProperties(t *testing.T) {
	r := newTestRouter(t)

	rapid.Check(t, func(t *rapid.T) {
		ev := evaluationGen().Draw(t, "evaluation")
		state := domain.NewConversationState("c1", fixedNow)
		state.ActiveConversationThreads = []domain.ConversationThread{{ID: "INQ-OLD"}}

		reply := r.Respond(context.Background(), state, ev)
		if reply.Err != nil {
			t.Fatal(reply.Err)
		}

		want := 2
		if ev.ExplicitRouting != "" {
			want = 1
		}
		if got := len(reply.State.ActiveConversationThreads); got != want {
			t.Fatalf("threads = %d, want %d", got, want)
		}
		if len(state.ActiveConversationThreads) != 1 {
			t.Fatalf("original state mutated")
		}
		if !strings.HasSuffix(reply.Output, "Your inquiry reference number is: "+reply.Result.TrackingID) {
			t.Fatalf("output missing reference: %q", reply.Output)
		}
	})
}

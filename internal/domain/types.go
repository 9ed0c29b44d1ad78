package domain

import "strings"

// Category is the conversation category picked by the classifier
type Category string

const (
	CategoryGeneralInquiry     Category = "GENERAL_INQUIRY"
	CategoryVehicleDiagnostics Category = "VEHICLE_DIAGNOSTICS"
	CategoryMaintenanceAdvice  Category = "MAINTENANCE_ADVICE"
	CategoryRepairGuidance     Category = "REPAIR_GUIDANCE"
	CategoryPartsInformation   Category = "PARTS_INFORMATION"
	CategoryWarrantyService    Category = "WARRANTY_SERVICE"
	CategoryPricingInformation Category = "PRICING_INFORMATION"
	CategoryOther              Category = "OTHER"
)

// Categories returns every category in declaration order
func Categories() []Category {
	return []Category{
		CategoryGeneralInquiry,
		CategoryVehicleDiagnostics,
		CategoryMaintenanceAdvice,
		CategoryRepairGuidance,
		CategoryPartsInformation,
		CategoryWarrantyService,
		CategoryPricingInformation,
		CategoryOther,
	}
}

// ParseCategory matches a category name case-insensitively
func ParseCategory(s string) (Category, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	for _, c := range Categories() {
		if string(c) == normalized {
			return c, true
		}
	}
	return "", false
}

// Level is an ordered high/medium/low grade used for urgency and complexity
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// Rank orders levels: high > medium > low. Unknown levels rank as medium.
func (l Level) Rank() int {
	switch l {
	case LevelHigh:
		return 3
	case LevelLow:
		return 1
	default:
		return 2
	}
}

// ParseLevel parses a level, defaulting to medium for anything unrecognised
func ParseLevel(s string) Level {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelHigh:
		return LevelHigh
	case LevelLow:
		return LevelLow
	default:
		return LevelMedium
	}
}

// Routing destinations
const (
	DestinationGeneralAssistant       = "general_assistant"
	DestinationDiagnosticSystem       = "diagnostic_system"
	DestinationPartsDatabase          = "parts_database"
	DestinationCustomerService        = "customer_service"
	DestinationRepairDocumentation    = "repair_documentation"
	DestinationTechnicalKnowledgeBase = "technical_knowledge_base"
)

// Explicit routes requested by the customer
const (
	RouteTechnician      = "technician"
	RouteCustomerService = "customer_service"
	RoutePartsDepartment = "parts_department"
	RouteServiceAdvisor  = "service_advisor"
)

// Evaluation is the classifier's routing decision for one inbound message
type Evaluation struct {
	Category   Category `json:"category"`
	Urgency    Level    `json:"urgency"`
	Complexity Level    `json:"complexity"`
	// ExplicitRouting is empty when the customer did not ask for a destination
	ExplicitRouting  string   `json:"explicitRouting,omitempty"`
	SuggestedActions []string `json:"suggestedActions"`
	Confidence       float64  `json:"confidence"`
}

// DefaultEvaluation is used by the router when no evaluation is available
func DefaultEvaluation() *Evaluation {
	return &Evaluation{
		Category:         CategoryGeneralInquiry,
		Urgency:          LevelMedium,
		Complexity:       LevelMedium,
		SuggestedActions: []string{},
	}
}

// Clone returns a deep copy of the evaluation
func (e *Evaluation) Clone() *Evaluation {
	if e == nil {
		return nil
	}
	out := *e
	out.SuggestedActions = append([]string(nil), e.SuggestedActions...)
	return &out
}

// RoutingResult is the router's dispatch decision
type RoutingResult struct {
	RoutedTo              string   `json:"routedTo"`
	AssignedAgent         string   `json:"assignedAgent,omitempty"`
	PriorityLevel         Level    `json:"priorityLevel"`
	EstimatedResponseTime string   `json:"estimatedResponseTime,omitempty"`
	SuggestedActions      []string `json:"suggestedActions"`
	TrackingID            string   `json:"trackingId"`
}

// Clone returns a deep copy of the result
func (r *RoutingResult) Clone() *RoutingResult {
	if r == nil {
		return nil
	}
	out := *r
	out.SuggestedActions = append([]string(nil), r.SuggestedActions...)
	return &out
}

// DTC severities
const (
	SeverityCritical      = "critical"
	SeveritySevere        = "severe"
	SeverityModerate      = "moderate"
	SeverityInformational = "informational"
	SeverityUnknown       = "unknown"
)

// DTCInfo describes one diagnostic trouble code found in a message
type DTCInfo struct {
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	System      string `json:"system,omitempty"`
	Severity    string `json:"severity,omitempty"`
}

// DTCEvaluation is the result of scanning a message for diagnostic trouble codes
type DTCEvaluation struct {
	Codes               []DTCInfo `json:"dtcCodes"`
	NeedsAdditionalInfo bool      `json:"needsAdditionalInfo"`
	SuggestedActions    []string  `json:"suggestedActions"`
	Score               float64   `json:"score"`
}

// CodeList returns the bare codes in detection order
func (d *DTCEvaluation) CodeList() []string {
	if d == nil {
		return nil
	}
	codes := make([]string, 0, len(d.Codes))
	for _, c := range d.Codes {
		codes = append(codes, c.Code)
	}
	return codes
}

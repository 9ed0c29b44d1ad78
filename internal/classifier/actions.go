package classifier

import "github.com/aescanero/dago-inquiry-router/internal/domain"

// Follow-up action identifiers handed to downstream handlers
const (
	ActionFetchVehicleData             = "FETCH_VEHICLE_DATA"
	ActionCheckDiagnosticCodes         = "CHECK_DIAGNOSTIC_CODES"
	ActionRouteToDiagnosticSpecialist  = "ROUTE_TO_DIAGNOSTIC_SPECIALIST"
	ActionSearchPartsInventory         = "SEARCH_PARTS_INVENTORY"
	ActionCheckMultipleSuppliers       = "CHECK_MULTIPLE_SUPPLIERS"
	ActionFetchCustomerData            = "FETCH_CUSTOMER_DATA"
	ActionEscalateToManager            = "ESCALATE_TO_MANAGER"
	ActionSearchRepairDocumentation    = "SEARCH_REPAIR_DOCUMENTATION"
	ActionFindTechnicalDiagrams        = "FIND_TECHNICAL_DIAGRAMS"
	ActionSearchTechnicalDocumentation = "SEARCH_TECHNICAL_DOCUMENTATION"
	ActionRouteToTechnicalSpecialist   = "ROUTE_TO_TECHNICAL_SPECIALIST"
	ActionGeneralAssistance            = "GENERAL_ASSISTANCE"
)

// SuggestedActions returns the follow-up actions for a category. The list is
// never empty.
func SuggestedActions(category domain.Category, urgency, complexity domain.Level) []string {
	var actions []string

	switch category {
	case domain.CategoryVehicleDiagnostics:
		actions = append(actions, ActionFetchVehicleData, ActionCheckDiagnosticCodes)
		if complexity == domain.LevelHigh || urgency == domain.LevelHigh {
			actions = append(actions, ActionRouteToDiagnosticSpecialist)
		}

	case domain.CategoryPartsInformation:
		actions = append(actions, ActionSearchPartsInventory)
		if urgency == domain.LevelHigh {
			actions = append(actions, ActionCheckMultipleSuppliers)
		}

	case domain.CategoryWarrantyService:
		actions = append(actions, ActionFetchCustomerData)
		if urgency == domain.LevelHigh {
			actions = append(actions, ActionEscalateToManager)
		}

	case domain.CategoryRepairGuidance:
		actions = append(actions, ActionSearchRepairDocumentation)
		if complexity == domain.LevelHigh {
			actions = append(actions, ActionFindTechnicalDiagrams)
		}

	case domain.CategoryMaintenanceAdvice:
		actions = append(actions, ActionSearchTechnicalDocumentation)
		if complexity == domain.LevelHigh {
			actions = append(actions, ActionRouteToTechnicalSpecialist)
		}

	default:
		actions = append(actions, ActionGeneralAssistance)
	}

	return actions
}

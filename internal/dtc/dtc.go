package dtc

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aescanero/dago-inquiry-router/internal/domain"
	"go.uber.org/zap"
)

// Follow-up actions suggested when a code needs more information
const (
	ActionFetchDTCDatabase             = "FETCH_DTC_DATABASE"
	ActionSearchTechnicalDocumentation = "SEARCH_TECHNICAL_DOCUMENTATION"
)

const (
	foundScore    = 0.9
	unknownSystem = "Unknown System"
)

// one pattern per code family; detection order follows this slice
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`P[0-9]{4}`), // powertrain
	regexp.MustCompile(`B[0-9]{4}`), // body
	regexp.MustCompile(`C[0-9]{4}`), // chassis
	regexp.MustCompile(`U[0-9]{4}`), // network
}

var severities = map[string]string{
	"P0": domain.SeveritySevere,
	"P1": domain.SeverityModerate,
	"P2": domain.SeveritySevere,
	"P3": domain.SeverityModerate,
	"B0": domain.SeverityModerate,
	"B1": domain.SeverityInformational,
	"B2": domain.SeverityModerate,
	"B3": domain.SeverityInformational,
	"C0": domain.SeverityCritical,
	"C1": domain.SeveritySevere,
	"C2": domain.SeverityCritical,
	"C3": domain.SeveritySevere,
	"U0": domain.SeveritySevere,
	"U1": domain.SeverityModerate,
	"U2": domain.SeveritySevere,
	"U3": domain.SeverityModerate,
}

var systems = map[string]string{
	"P00": "Engine Management",
	"P01": "Fuel and Air Metering",
	"P02": "Fuel and Air Metering",
	"P03": "Ignition System",
	"P04": "Auxiliary Emissions Controls",
	"P05": "Vehicle Speed Control and Idle Control",
	"P06": "Computer Output Circuit",
	"P07": "Transmission",
	"P08": "Transmission",
	"P09": "Transmission",
	"B00": "Body Controls",
	"B01": "Body Controls",
	"B02": "Body Controls",
	"B03": "Body Controls",
	"B04": "Body Controls",
	"B05": "Restraints",
	"B06": "Restraints",
	"B07": "Restraints",
	"C00": "Braking System",
	"C01": "Braking System",
	"C02": "Braking System",
	"C03": "Steering System",
	"C04": "Suspension System",
	"C05": "Steering System",
	"C06": "Suspension System",
	"C07": "Wheels/Tires",
	"U00": "Network Communication",
	"U01": "Network Communication",
	"U02": "Network Communication",
	"U03": "Network Communication",
	"U04": "Network Communication",
}

// Lookup describes diagnostic trouble codes. Codes it does not know are simply
// absent from the returned map.
type Lookup interface {
	Describe(ctx context.Context, codes []string) (map[string]string, error)
}

// Result is the outcome of scanning one message
type Result struct {
	// Evaluation is nil when the message carries no codes
	Evaluation *domain.DTCEvaluation
	// LookupRecord is set when the lookup answered
	LookupRecord *domain.DTCLookupRecord
	Reason       string
}

// Detector finds diagnostic trouble codes and describes them through a Lookup
type Detector struct {
	lookup Lookup
	logger *zap.Logger
	now    func() time.Time
}

// NewDetector creates a detector. A nil lookup describes every code generically.
func NewDetector(lookup Lookup, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{
		lookup: lookup,
		logger: logger,
		now:    time.Now,
	}
}

// Relevant reports whether a message is worth scanning for codes
func Relevant(text string) bool {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "code") || strings.Contains(lower, "dtc") {
		return true
	}
	upper := strings.ToUpper(text)
	for _, p := range patterns {
		if p.MatchString(upper) {
			return true
		}
	}
	return false
}

// Detect returns every distinct code in the message, grouped by family in
// P, B, C, U order
func Detect(text string) []domain.DTCInfo {
	upper := strings.ToUpper(text)
	seen := make(map[string]bool)
	var found []domain.DTCInfo

	for _, p := range patterns {
		for _, code := range p.FindAllString(upper, -1) {
			if seen[code] {
				continue
			}
			seen[code] = true
			found = append(found, domain.DTCInfo{
				Code:     code,
				System:   System(code),
				Severity: Severity(code),
			})
		}
	}

	return found
}

// Severity grades a code by its two-character prefix
func Severity(code string) string {
	if len(code) < 2 {
		return domain.SeverityUnknown
	}
	if s, ok := severities[code[:2]]; ok {
		return s
	}
	return domain.SeverityUnknown
}

// System names the vehicle system a code belongs to by its three-character prefix
func System(code string) string {
	if len(code) < 3 {
		return unknownSystem
	}
	if s, ok := systems[code[:3]]; ok {
		return s
	}
	return unknownSystem
}

// GenericDescription is used for codes the lookup could not describe
func GenericDescription(system string) string {
	return fmt.Sprintf("%s related issue. This code requires further diagnosis.", system)
}

// Evaluate scans a message, describes the codes it finds and decides whether more
// information should be fetched. Lookup failures degrade to generic descriptions.
func (d *Detector) Evaluate(ctx context.Context, text string) Result {
	if !Relevant(text) {
		return Result{Reason: "Not DTC-related content"}
	}

	codes := Detect(text)
	if len(codes) == 0 {
		return Result{Reason: "No DTC codes found in message"}
	}

	list := make([]string, 0, len(codes))
	for _, c := range codes {
		list = append(list, c.Code)
	}

	var (
		descriptions map[string]string
		record       *domain.DTCLookupRecord
	)
	if d.lookup != nil {
		described, err := d.lookup.Describe(ctx, list)
		if err != nil {
			d.logger.Warn("dtc lookup failed, using generic descriptions",
				zap.Strings("codes", list),
				zap.Error(err),
			)
		} else {
			descriptions = described
			record = &domain.DTCLookupRecord{
				Codes:     list,
				Timestamp: d.now().UTC(),
				Result:    described,
			}
		}
	}

	needsMore := false
	for i := range codes {
		if desc, ok := descriptions[codes[i].Code]; ok && desc != "" {
			codes[i].Description = desc
			continue
		}
		codes[i].Description = GenericDescription(codes[i].System)
		needsMore = true
	}

	actions := []string{}
	if needsMore {
		actions = append(actions, ActionFetchDTCDatabase, ActionSearchTechnicalDocumentation)
	}

	d.logger.Debug("dtc codes detected",
		zap.Strings("codes", list),
		zap.Bool("needs_additional_info", needsMore),
	)

	return Result{
		Evaluation: &domain.DTCEvaluation{
			Codes:               codes,
			NeedsAdditionalInfo: needsMore,
			SuggestedActions:    actions,
			Score:               foundScore,
		},
		LookupRecord: record,
		Reason:       fmt.Sprintf("Found %d diagnostic trouble code(s)", len(codes)),
	}
}

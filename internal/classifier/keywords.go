package classifier

import (
	"fmt"
	"os"
	"strings"

	"github.com/aescanero/dago-inquiry-router/internal/domain"
	"gopkg.in/yaml.v3"
)

// CategoryKeywords maps one category to its indicator phrases
type CategoryKeywords struct {
	Category domain.Category `yaml:"category"`
	Keywords []string        `yaml:"keywords"`
}

// RouteKeywords maps an explicit routing request to the phrases that trigger it
type RouteKeywords struct {
	Route    string   `yaml:"route"`
	Keywords []string `yaml:"keywords"`
}

// UrgencyKeywords holds the phrases that move urgency away from medium
type UrgencyKeywords struct {
	High []string `yaml:"high"`
	Low  []string `yaml:"low"`
}

// Tables is the immutable keyword configuration used by the classifier.
// Category order is significant: on equal scores the first category wins.
type Tables struct {
	Categories           []CategoryKeywords `yaml:"categories"`
	Urgency              UrgencyKeywords    `yaml:"urgency"`
	TechnicalTerms       []string           `yaml:"technical_terms"`
	ComplexQuestionTerms []string           `yaml:"complex_question_terms"`
	ExplicitRoutes       []RouteKeywords    `yaml:"explicit_routes"`
	LongMessageThreshold int                `yaml:"long_message_threshold"`
}

// DefaultTables returns the built-in keyword tables
func DefaultTables() *Tables {
	return &Tables{
		Categories: []CategoryKeywords{
			{
				Category: domain.CategoryVehicleDiagnostics,
				Keywords: []string{
					"check engine light", "check light", "engine light", "code", "dtc",
					"diagnostic", "scanner", "scan tool", "trouble code", "obd", "symptoms",
					"warning light", "cel", "malfunction indicator", "misfire", "stalling",
				},
			},
			{
				Category: domain.CategoryPartsInformation,
				Keywords: []string{
					"part", "parts", "replacement", "price", "pricing", "cost", "buy",
					"purchase", "available", "in stock", "order", "aftermarket", "oem",
					"brand", "manufacturer", "warranty", "catalog", "alternative",
				},
			},
			{
				Category: domain.CategoryWarrantyService,
				Keywords: []string{
					"customer", "account", "service history", "last visit", "appointment",
					"schedule", "warranty claim", "invoice", "receipt", "contact", "complaint",
					"satisfaction", "feedback", "loyalty", "discount", "membership",
				},
			},
			{
				Category: domain.CategoryRepairGuidance,
				Keywords: []string{
					"repair", "procedure", "replace", "install", "installation", "remove",
					"torque spec", "specification", "manual", "guide", "step by step",
					"instruction", "diagram", "schematic", "wiring", "disassemble", "assemble",
				},
			},
			{
				Category: domain.CategoryMaintenanceAdvice,
				Keywords: []string{
					"how does", "why does", "what causes", "explain", "understand",
					"technical", "function", "work", "system", "design", "engineering",
					"principle", "theory", "concept", "operation", "mechanism",
				},
			},
		},
		Urgency: UrgencyKeywords{
			High: []string{"urgent", "emergency", "immediately", "asap", "critical", "safety", "dangerous", "stuck", "stranded"},
			Low:  []string{"when possible", "sometime", "no rush", "curious", "interested"},
		},
		TechnicalTerms: []string{
			"diagnostic", "circuit", "sensor", "module", "ecu", "pcm", "tcm", "bcm",
			"voltage", "resistance", "amperage", "pressure", "valve", "actuator",
			"hydraulic", "pneumatic", "electrical", "mechanical", "calibration",
		},
		ComplexQuestionTerms: []string{"why", "how", "explain", "compare"},
		ExplicitRoutes: []RouteKeywords{
			{Route: domain.RouteTechnician, Keywords: []string{"speak", "talk", "connect", "technician", "mechanic"}},
			{Route: domain.RouteCustomerService, Keywords: []string{"customer service", "support team", "representative"}},
			{Route: domain.RoutePartsDepartment, Keywords: []string{"parts department", "parts specialist"}},
			{Route: domain.RouteServiceAdvisor, Keywords: []string{"service advisor", "service manager"}},
		},
		LongMessageThreshold: 200,
	}
}

// LoadTables reads a YAML keyword file. Sections present in the file replace the
// corresponding default section; absent sections keep the defaults.
func LoadTables(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyword file: %w", err)
	}

	var file Tables
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse keyword file: %w", err)
	}

	tables := DefaultTables()
	if len(file.Categories) > 0 {
		tables.Categories = file.Categories
	}
	if len(file.Urgency.High) > 0 {
		tables.Urgency.High = file.Urgency.High
	}
	if len(file.Urgency.Low) > 0 {
		tables.Urgency.Low = file.Urgency.Low
	}
	if len(file.TechnicalTerms) > 0 {
		tables.TechnicalTerms = file.TechnicalTerms
	}
	if len(file.ComplexQuestionTerms) > 0 {
		tables.ComplexQuestionTerms = file.ComplexQuestionTerms
	}
	if len(file.ExplicitRoutes) > 0 {
		tables.ExplicitRoutes = file.ExplicitRoutes
	}
	if file.LongMessageThreshold > 0 {
		tables.LongMessageThreshold = file.LongMessageThreshold
	}

	tables.normalize()
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("invalid keyword file: %w", err)
	}

	return tables, nil
}

// Validate validates the tables
func (t *Tables) Validate() error {
	if t == nil {
		return fmt.Errorf("tables are nil")
	}

	if len(t.Categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}

	seen := make(map[domain.Category]bool, len(t.Categories))
	for i, c := range t.Categories {
		cat, ok := domain.ParseCategory(string(c.Category))
		if !ok {
			return fmt.Errorf("category %d: unknown category %q", i, c.Category)
		}
		if cat == domain.CategoryOther {
			return fmt.Errorf("category %d: OTHER is the no-match fallback and cannot have keywords", i)
		}
		if seen[cat] {
			return fmt.Errorf("category %d: duplicate category %s", i, cat)
		}
		seen[cat] = true
		if len(c.Keywords) == 0 {
			return fmt.Errorf("category %s: keywords are required", cat)
		}
	}

	for i, r := range t.ExplicitRoutes {
		if r.Route == "" {
			return fmt.Errorf("explicit route %d: route is required", i)
		}
		if len(r.Keywords) == 0 {
			return fmt.Errorf("explicit route %s: keywords are required", r.Route)
		}
	}

	if t.LongMessageThreshold <= 0 {
		return fmt.Errorf("long_message_threshold must be positive")
	}

	return nil
}

// normalized returns a normalized copy; t is left untouched
func (t *Tables) normalized() *Tables {
	out := *t
	out.Categories = append([]CategoryKeywords(nil), t.Categories...)
	out.ExplicitRoutes = append([]RouteKeywords(nil), t.ExplicitRoutes...)
	out.normalize()
	return &out
}

// normalize lowercases every phrase and canonicalises category names
func (t *Tables) normalize() {
	for i := range t.Categories {
		if cat, ok := domain.ParseCategory(string(t.Categories[i].Category)); ok {
			t.Categories[i].Category = cat
		}
		t.Categories[i].Keywords = lowerAll(t.Categories[i].Keywords)
	}
	t.Urgency.High = lowerAll(t.Urgency.High)
	t.Urgency.Low = lowerAll(t.Urgency.Low)
	t.TechnicalTerms = lowerAll(t.TechnicalTerms)
	t.ComplexQuestionTerms = lowerAll(t.ComplexQuestionTerms)
	for i := range t.ExplicitRoutes {
		t.ExplicitRoutes[i].Keywords = lowerAll(t.ExplicitRoutes[i].Keywords)
	}
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// containsAny reports whether text contains any of the phrases
func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

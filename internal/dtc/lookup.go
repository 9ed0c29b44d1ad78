package dtc

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// StaticLookup describes codes from a fixed table
type StaticLookup struct {
	descriptions map[string]string
}

// NewStaticLookup creates a lookup over code → description; codes are upper-cased
func NewStaticLookup(descriptions map[string]string) *StaticLookup {
	table := make(map[string]string, len(descriptions))
	for code, desc := range descriptions {
		table[strings.ToUpper(strings.TrimSpace(code))] = desc
	}
	return &StaticLookup{descriptions: table}
}

// DefaultDescriptions returns the built-in descriptions for common codes
func DefaultDescriptions() map[string]string {
	return map[string]string{
		"P0420": "Catalyst System Efficiency Below Threshold (Bank 1)",
		"P0171": "System Too Lean (Bank 1)",
		"P0300": "Random/Multiple Cylinder Misfire Detected",
		"C0035": "Left Front Wheel Speed Sensor Circuit Malfunction",
		"B0100": "Driver's Airbag Circuit Malfunction",
		"U0100": "Lost Communication with ECM/PCM",
	}
}

type lookupFile struct {
	Codes map[string]string `yaml:"codes"`
}

// LoadStaticLookup reads a YAML file of the form
//
//	codes:
//	  P0420: Catalyst System Efficiency Below Threshold (Bank 1)
//
// on top of the default descriptions
func LoadStaticLookup(path string) (*StaticLookup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dtc file: %w", err)
	}

	var file lookupFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse dtc file: %w", err)
	}

	merged := DefaultDescriptions()
	for code, desc := range file.Codes {
		if strings.TrimSpace(desc) == "" {
			return nil, fmt.Errorf("dtc %s: description is required", code)
		}
		merged[strings.ToUpper(strings.TrimSpace(code))] = desc
	}

	return NewStaticLookup(merged), nil
}

// Describe returns descriptions for the known codes
func (l *StaticLookup) Describe(ctx context.Context, codes []string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(codes))
	for _, code := range codes {
		if desc, ok := l.descriptions[code]; ok {
			out[code] = desc
		}
	}
	return out, nil
}

// Len returns the number of described codes
func (l *StaticLookup) Len() int {
	return len(l.descriptions)
}

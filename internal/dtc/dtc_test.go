package dtc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/aescanero/dago-inquiry-router/internal/domain"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"
)

type failingLookup struct{}

func (failingLookup) Describe(ctx context.Context, codes []string) (map[string]string, error) {
	return nil, errors.New("database unavailable")
}

func TestDetectOrderAndDedupe(t *testing.T) {
	got := Detect("u0100 then p0420, b0100, P0420 again and c0035")

	var codes []string
	for _, c := range got {
		codes = append(codes, c.Code)
	}
	want := []string{"P0420", "B0100", "C0035", "U0100"}
	if !reflect.DeepEqual(codes, want) {
		t.Errorf("codes = %v, want %v", codes, want)
	}
}

func TestSeverityAndSystem(t *testing.T) {
	tests := []struct {
		code     string
		severity string
		system   string
	}{
		{"P0420", domain.SeveritySevere, "Auxiliary Emissions Controls"},
		{"P1234", domain.SeverityModerate, "Unknown System"},
		{"B1000", domain.SeverityInformational, "Unknown System"},
		{"B0600", domain.SeverityModerate, "Restraints"},
		{"C0035", domain.SeverityCritical, "Braking System"},
		{"C0710", domain.SeverityCritical, "Wheels/Tires"},
		{"U0100", domain.SeveritySevere, "Network Communication"},
		{"P4000", domain.SeverityUnknown, "Unknown System"},
	}
	for _, tt := range tests {
		if got := Severity(tt.code); got != tt.severity {
			t.Errorf("Severity(%s) = %s, want %s", tt.code, got, tt.severity)
		}
		if got := System(tt.code); got != tt.system {
			t.Errorf("System(%s) = %s, want %s", tt.code, got, tt.system)
		}
	}
}

func TestRelevant(t *testing.T) {
	tests := map[string]bool{
		"what does this code mean": true,
		"my DTC reader beeps":      true,
		"scanner shows p0171":      true,
		"my brakes squeal":         false,
		"":                         false,
	}
	for text, want := range tests {
		if got := Relevant(text); got != want {
			t.Errorf("Relevant(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestEvaluateWithLookup(t *testing.T) {
	d := NewDetector(NewStaticLookup(DefaultDescriptions()), zaptest.NewLogger(t))
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	d.now = func() time.Time { return fixed }

	res := d.Evaluate(context.Background(), "Scanner says P0420 and P0700")
	if res.Evaluation == nil {
		t.Fatalf("expected evaluation, reason %q", res.Reason)
	}
	ev := res.Evaluation
	if ev.Score != 0.9 {
		t.Errorf("score = %v, want 0.9", ev.Score)
	}
	if ev.Codes[0].Description != "Catalyst System Efficiency Below Threshold (Bank 1)" {
		t.Errorf("P0420 description = %q", ev.Codes[0].Description)
	}
	if ev.Codes[1].Description != "Transmission related issue. This code requires further diagnosis." {
		t.Errorf("P0700 description = %q", ev.Codes[1].Description)
	}
	if !ev.NeedsAdditionalInfo {
		t.Error("expected needsAdditionalInfo for unknown code")
	}
	if !reflect.DeepEqual(ev.SuggestedActions, []string{ActionFetchDTCDatabase, ActionSearchTechnicalDocumentation}) {
		t.Errorf("actions = %v", ev.SuggestedActions)
	}
	if res.LookupRecord == nil || !res.LookupRecord.Timestamp.Equal(fixed) {
		t.Fatalf("lookup record = %+v", res.LookupRecord)
	}
	if !reflect.DeepEqual(res.LookupRecord.Codes, []string{"P0420", "P0700"}) {
		t.Errorf("lookup codes = %v", res.LookupRecord.Codes)
	}
	if res.Reason != "Found 2 diagnostic trouble code(s)" {
		t.Errorf("reason = %q", res.Reason)
	}
}

func TestEvaluateAllKnown(t *testing.T) {
	d := NewDetector(NewStaticLookup(DefaultDescriptions()), nil)
	res := d.Evaluate(context.Background(), "code p0300")
	if res.Evaluation.NeedsAdditionalInfo {
		t.Error("known code should not need more info")
	}
	if len(res.Evaluation.SuggestedActions) != 0 {
		t.Errorf("actions = %v, want none", res.Evaluation.SuggestedActions)
	}
}

func TestEvaluateLookupFailure(t *testing.T) {
	d := NewDetector(failingLookup{}, nil)
	res := d.Evaluate(context.Background(), "P0420")
	if res.LookupRecord != nil {
		t.Error("failed lookup must not be recorded")
	}
	if !res.Evaluation.NeedsAdditionalInfo {
		t.Error("expected generic descriptions after lookup failure")
	}
}

func TestEvaluateNoCodes(t *testing.T) {
	d := NewDetector(nil, nil)

	if res := d.Evaluate(context.Background(), "my brakes squeal"); res.Evaluation != nil || res.Reason != "Not DTC-related content" {
		t.Errorf("unexpected result %+v", res)
	}
	if res := d.Evaluate(context.Background(), "what does that code mean"); res.Evaluation != nil || res.Reason != "No DTC codes found in message" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestLoadStaticLookup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dtc.yaml")
	content := "codes:\n  p0700: Transmission Control System Malfunction\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	l, err := LoadStaticLookup(path)
	if err != nil {
		t.Fatalf("LoadStaticLookup() error = %v", err)
	}
	got, err := l.Describe(context.Background(), []string{"P0700", "P0420", "P9999"})
	if err != nil {
		t.Fatal(err)
	}
	if got["P0700"] != "Transmission Control System Malfunction" || got["P0420"] == "" {
		t.Errorf("Describe() = %v", got)
	}
	if _, ok := got["P9999"]; ok {
		t.Error("unknown code should be absent")
	}
	if l.Len() != len(DefaultDescriptions())+1 {
		t.Errorf("Len() = %d", l.Len())
	}
}

func TestDetectedCodesAppearInText(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		family := rapid.SampledFrom([]string{"P", "B", "C", "U"}).Draw(t, "family")
		digits := rapid.StringMatching(`[0-9]{4}`).Draw(t, "digits")
		prefix := rapid.StringMatching(`[a-z ]{0,10}`).Draw(t, "prefix")
		code := family + digits

		found := Detect(prefix + " " + code)
		if len(found) == 0 || found[len(found)-1].Code != code {
			t.Fatalf("Detect did not find %s in %+v", code, found)
		}
		if found[len(found)-1].Severity == "" || found[len(found)-1].System == "" {
			t.Fatalf("missing severity or system for %s", code)
		}
	})
}

package conversation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/aescanero/dago-inquiry-router/internal/domain"
)

// Report texts
const (
	NoThreadsMessage      = "There are no active conversation threads at the moment."
	NoMatchingThreads     = "No conversation threads match your criteria."
	threadTimeLayout      = "2006-01-02 15:04 MST"
	threadListFooterLabel = "For more details on a specific thread, ask about it by ID."
)

var threadQuery = regexp.MustCompile(`(?i)thread\s+([a-z0-9-]+)`)

// categoryFilters map query words to the category they select; the first
// matching entry wins
var categoryFilters = []struct {
	words    []string
	category domain.Category
}{
	{[]string{"diagnostic", "dtc", "code"}, domain.CategoryVehicleDiagnostics},
	{[]string{"parts", "pricing"}, domain.CategoryPartsInformation},
	{[]string{"customer", "support"}, domain.CategoryWarrantyService},
	{[]string{"repair", "procedure"}, domain.CategoryRepairGuidance},
	{[]string{"technical", "question"}, domain.CategoryMaintenanceAdvice},
}

// ThreadReport answers an operator query about active threads: a single thread
// by id ("thread INQ-..."), a summary ("summary", "overview"), or a list, each
// optionally filtered by urgency or category words in the query
func ThreadReport(query string, threads []domain.ConversationThread, now time.Time) string {
	if len(threads) == 0 {
		return NoThreadsMessage
	}

	if m := threadQuery.FindStringSubmatch(query); m != nil {
		id := strings.ToUpper(m[1])
		for _, t := range threads {
			if t.ID == id {
				return formatThreadDetails(t, now)
			}
		}
		return fmt.Sprintf("Conversation thread with ID %s not found. Please check the ID and try again.", id)
	}

	q := strings.ToLower(query)
	filtered := FilterThreads(q, threads)

	if strings.Contains(q, "summary") || strings.Contains(q, "overview") {
		return formatThreadsSummary(filtered)
	}
	return formatThreadsList(filtered)
}

// FilterThreads narrows threads by the urgency or category words in a lowercased query
func FilterThreads(q string, threads []domain.ConversationThread) []domain.ConversationThread {
	keep := func(domain.ConversationThread) bool { return true }

	if strings.Contains(q, "high urgency") || strings.Contains(q, "urgent") {
		keep = func(t domain.ConversationThread) bool { return t.Urgency == domain.LevelHigh }
	} else {
		for _, f := range categoryFilters {
			if containsAnyWord(q, f.words) {
				category := f.category
				keep = func(t domain.ConversationThread) bool { return t.Category == category }
				break
			}
		}
	}

	out := make([]domain.ConversationThread, 0, len(threads))
	for _, t := range threads {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func containsAnyWord(q string, words []string) bool {
	for _, w := range words {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}

func humanize(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "_", " ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int(d / time.Minute)
	hours := minutes / 60
	if hours > 0 {
		return plural(hours, "hour") + " " + plural(minutes%60, "minute")
	}
	return plural(minutes, "minute")
}

func formatThreadDetails(t domain.ConversationThread, now time.Time) string {
	urgency := t.Urgency
	if urgency == "" {
		urgency = domain.LevelMedium
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Conversation Thread: %s\n\n", t.ID)
	fmt.Fprintf(&b, "**Category:** %s\n", humanize(string(t.Category)))
	b.WriteString("**Status:** active\n")
	fmt.Fprintf(&b, "**Urgency:** %s\n", urgency)
	fmt.Fprintf(&b, "**Assigned To:** %s\n", humanize(t.AssignedTo))
	fmt.Fprintf(&b, "**Started:** %s\n", t.StartTime.UTC().Format(threadTimeLayout))
	fmt.Fprintf(&b, "**Duration:** %s\n", formatDuration(now.Sub(t.StartTime)))
	return b.String()
}

func formatThreadsSummary(threads []domain.ConversationThread) string {
	byCategory := make(map[domain.Category]int)
	byUrgency := make(map[domain.Level]int)
	for _, t := range threads {
		byCategory[t.Category]++
		urgency := t.Urgency
		if urgency == "" {
			urgency = domain.LevelMedium
		}
		byUrgency[urgency]++
	}

	var b strings.Builder
	b.WriteString("## Conversation Threads Summary\n\n")
	fmt.Fprintf(&b, "**Total Active Threads:** %d\n\n", len(threads))

	b.WriteString("**By Category:**\n")
	for _, c := range domain.Categories() {
		if n := byCategory[c]; n > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", humanize(string(c)), n)
		}
		delete(byCategory, c)
	}
	// categories outside the enum follow, sorted
	extra := make([]string, 0, len(byCategory))
	for c := range byCategory {
		extra = append(extra, string(c))
	}
	sort.Strings(extra)
	for _, c := range extra {
		name := humanize(c)
		if name == "" {
			name = "uncategorized"
		}
		fmt.Fprintf(&b, "- %s: %d\n", name, byCategory[domain.Category(c)])
	}

	b.WriteString("\n**By Urgency:**\n")
	fmt.Fprintf(&b, "- High: %d\n", byUrgency[domain.LevelHigh])
	fmt.Fprintf(&b, "- Medium: %d\n", byUrgency[domain.LevelMedium])
	fmt.Fprintf(&b, "- Low: %d\n", byUrgency[domain.LevelLow])
	return b.String()
}

func formatThreadsList(threads []domain.ConversationThread) string {
	if len(threads) == 0 {
		return NoMatchingThreads
	}

	var b strings.Builder
	b.WriteString("## Active Conversation Threads\n\n")
	for i, t := range threads {
		urgency := t.Urgency
		if urgency == "" {
			urgency = domain.LevelMedium
		}
		fmt.Fprintf(&b, "%d. [%s] **%s** - %s\n", i+1, strings.ToUpper(string(urgency)), t.ID, humanize(string(t.Category)))
		fmt.Fprintf(&b, "   Assigned to: %s\n", humanize(t.AssignedTo))
		fmt.Fprintf(&b, "   Started: %s\n\n", t.StartTime.UTC().Format(threadTimeLayout))
	}
	b.WriteString("\n" + threadListFooterLabel)
	return b.String()
}

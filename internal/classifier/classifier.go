package classifier

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aescanero/dago-inquiry-router/internal/domain"
	"go.uber.org/zap"
)

// ErrClassification is returned when a message cannot be classified
var ErrClassification = errors.New("classification failed")

// Classification paths, mirroring how the category was decided
const (
	// PathFast means a keyword table matched
	PathFast = "fast"
	// PathSlow means the LLM fallback picked the category
	PathSlow = "slow"
	// PathFallback means nothing matched and the no-match category was used
	PathFallback = "fallback"
)

const (
	matchedScore   = 0.7
	unmatchedScore = 0.3
	scoreEpsilon   = 1e-9
)

// Outcome is the classifier's answer for one message. Evaluation is nil when
// classification failed; Score is then 0.
type Outcome struct {
	Evaluation *domain.Evaluation          `json:"evaluation,omitempty"`
	Scores     map[domain.Category]float64 `json:"scores,omitempty"`
	Score      float64                     `json:"score"`
	Reason     string                      `json:"reason"`
	Path       string                      `json:"path"`
	Err        error                       `json:"-"`
}

// Classifier scores conversation text against keyword tables
type Classifier struct {
	tables *Tables
	logger *zap.Logger
}

// NewClassifier creates a classifier from a normalized copy of tables.
// Nil tables use DefaultTables.
func NewClassifier(tables *Tables, logger *zap.Logger) (*Classifier, error) {
	if tables == nil {
		tables = DefaultTables()
	}
	tables = tables.normalized()
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("invalid keyword tables: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Classifier{
		tables: tables,
		logger: logger,
	}, nil
}

// Evaluate classifies a message and never fails: any classification error is
// converted into a zero-score outcome without an evaluation.
func (c *Classifier) Evaluate(text string, history []string) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = c.degraded(fmt.Errorf("%w: %v", ErrClassification, r))
		}
	}()

	out, err := c.Classify(text, history)
	if err != nil {
		return c.degraded(err)
	}
	return out
}

// Classify scores the current message and its history (oldest first)
func (c *Classifier) Classify(text string, history []string) (Outcome, error) {
	if c == nil || c.tables == nil {
		return Outcome{}, fmt.Errorf("%w: classifier not configured", ErrClassification)
	}

	current := strings.ToLower(text)
	thread := make([]string, 0, len(history)+1)
	for _, h := range history {
		thread = append(thread, strings.ToLower(h))
	}
	thread = append(thread, current)

	scores, category, best := c.scoreCategories(thread)
	urgency := c.urgency(current)
	complexity := c.complexity(current)
	explicit := c.explicitRouting(current)

	score := unmatchedScore
	path := PathFallback
	if best > 0 {
		score = matchedScore
		path = PathFast
	}

	evaluation := &domain.Evaluation{
		Category:         category,
		Urgency:          urgency,
		Complexity:       complexity,
		ExplicitRouting:  explicit,
		SuggestedActions: SuggestedActions(category, urgency, complexity),
		Confidence:       score,
	}

	c.logger.Debug("message classified",
		zap.String("category", string(category)),
		zap.String("urgency", string(urgency)),
		zap.String("complexity", string(complexity)),
		zap.String("explicit_routing", explicit),
		zap.Float64("category_score", best),
		zap.Int("thread_length", len(thread)),
	)

	return Outcome{
		Evaluation: evaluation,
		Scores:     scores,
		Score:      score,
		Reason:     fmt.Sprintf("Conversation categorized as %s with %s urgency", category, urgency),
		Path:       path,
	}, nil
}

func (c *Classifier) degraded(err error) Outcome {
	if c != nil && c.logger != nil {
		c.logger.Error("error evaluating conversation for routing", zap.Error(err))
	}
	return Outcome{
		Score:  0,
		Reason: "Error evaluating conversation for routing",
		Path:   PathFallback,
		Err:    err,
	}
}

// RecencyWeight weighs the message at index in a thread of the given length:
// linear from 0.5 for the oldest to 1.0 for the most recent. A single-message
// thread weighs 1.0.
func RecencyWeight(index, length int) float64 {
	if length <= 1 {
		return 1.0
	}
	return 0.5 + 0.5*float64(index)/float64(length-1)
}

// scoreCategories returns every category's recency-weighted keyword score and the
// winner. The first category in table order wins ties; no match yields OTHER.
func (c *Classifier) scoreCategories(thread []string) (map[domain.Category]float64, domain.Category, float64) {
	scores := make(map[domain.Category]float64, len(c.tables.Categories))
	category := domain.CategoryOther
	best := 0.0

	for _, entry := range c.tables.Categories {
		total := 0.0
		for _, keyword := range entry.Keywords {
			for i, msg := range thread {
				if strings.Contains(msg, keyword) {
					total += RecencyWeight(i, len(thread))
				}
			}
		}
		scores[entry.Category] = total

		if total > best+scoreEpsilon {
			best = total
			category = entry.Category
		}
	}

	return scores, category, best
}

// urgency looks at the current message only; high wins over low
func (c *Classifier) urgency(text string) domain.Level {
	if containsAny(text, c.tables.Urgency.High) {
		return domain.LevelHigh
	}
	if containsAny(text, c.tables.Urgency.Low) {
		return domain.LevelLow
	}
	return domain.LevelMedium
}

// complexity grades the current message by technical density, length and questions
func (c *Classifier) complexity(text string) domain.Level {
	technical := 0
	for _, term := range c.tables.TechnicalTerms {
		if strings.Contains(text, term) {
			technical++
		}
	}

	isLong := utf8.RuneCountInString(text) > c.tables.LongMessageThreshold
	questions := strings.Count(text, "?")
	complexQuestion := containsAny(text, c.tables.ComplexQuestionTerms)

	switch {
	case technical >= 3,
		questions >= 2 && complexQuestion,
		isLong && technical >= 2:
		return domain.LevelHigh
	case technical >= 1, complexQuestion, questions >= 2:
		return domain.LevelMedium
	default:
		return domain.LevelLow
	}
}

// explicitRouting returns the first requested route in table order, or ""
func (c *Classifier) explicitRouting(text string) string {
	for _, r := range c.tables.ExplicitRoutes {
		if containsAny(text, r.Keywords) {
			return r.Route
		}
	}
	return ""
}

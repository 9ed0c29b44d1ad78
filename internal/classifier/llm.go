package classifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aescanero/dago-inquiry-router/internal/domain"
	"github.com/aescanero/dago-inquiry-router/internal/eval/template"
	dagodomain "github.com/aescanero/dago-libs/pkg/domain"
	"github.com/aescanero/dago-libs/pkg/ports"
	"go.uber.org/zap"
)

const llmScore = 0.5

// DefaultPromptTemplate is the Handlebars prompt sent to the LLM when no keyword matched
const DefaultPromptTemplate = `You route customer inquiries for an automotive service shop.
Classify the latest customer message into exactly one of these categories: {{join categories ", "}}.
{{#if history}}Earlier messages in the conversation, oldest first:
{{#each history}}- {{{this}}}
{{/each}}{{/if}}Latest message: {{{message}}}
Answer with the category name only.`

// Completer returns the model's completion for a prompt
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// dagoCompleter adapts a dago LLM client to Completer
type dagoCompleter struct {
	client    ports.LLMClient
	model     string
	maxTokens int
}

// NewDagoCompleter wraps a dago-adapters LLM client
func NewDagoCompleter(client ports.LLMClient, model string) Completer {
	return &dagoCompleter{
		client:    client,
		model:     model,
		maxTokens: 64,
	}
}

// Complete calls the LLM with a single user message
func (d *dagoCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	req := &dagodomain.LLMRequest{
		Model: d.model,
		Messages: []dagodomain.Message{
			{
				Role:    "user",
				Content: prompt,
			},
		},
		MaxTokens: d.maxTokens,
	}

	respInterface, err := d.client.GenerateCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("llm completion failed: %w", err)
	}

	resp, ok := respInterface.(*dagodomain.LLMResponse)
	if !ok {
		return "", fmt.Errorf("unexpected response type from LLM")
	}

	return resp.Content, nil
}

// LLMFallback asks an LLM for a category when the keyword tables found nothing
type LLMFallback struct {
	completer      Completer
	templateEngine *template.Engine
	prompt         string
	timeout        time.Duration
	logger         *zap.Logger
}

// NewLLMFallback creates an LLM fallback classifier
func NewLLMFallback(completer Completer, engine *template.Engine, timeout time.Duration, logger *zap.Logger) *LLMFallback {
	if engine == nil {
		engine = template.NewEngine()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMFallback{
		completer:      completer,
		templateEngine: engine,
		prompt:         DefaultPromptTemplate,
		timeout:        timeout,
		logger:         logger,
	}
}

// Reclassify replaces the category of a no-match outcome when the LLM names one.
// Any other outcome, and any LLM failure, leaves the outcome unchanged.
func (f *LLMFallback) Reclassify(ctx context.Context, text string, history []string, out Outcome) Outcome {
	if f == nil || f.completer == nil || out.Evaluation == nil || out.Path != PathFallback {
		return out
	}

	prompt, err := f.renderPrompt(text, history)
	if err != nil {
		f.logger.Error("failed to render llm prompt", zap.Error(err))
		return out
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	f.logger.Debug("calling llm for classification", zap.String("prompt", prompt))

	response, err := f.completer.Complete(ctx, prompt)
	if err != nil {
		f.logger.Warn("llm call failed, keeping fallback category", zap.Error(err))
		return out
	}

	category, matched := matchCategory(response)
	if !matched || category == domain.CategoryOther {
		f.logger.Warn("llm response did not match any category",
			zap.String("response", response),
		)
		return out
	}

	evaluation := out.Evaluation.Clone()
	evaluation.Category = category
	evaluation.SuggestedActions = SuggestedActions(category, evaluation.Urgency, evaluation.Complexity)
	evaluation.Confidence = llmScore

	return Outcome{
		Evaluation: evaluation,
		Scores:     out.Scores,
		Score:      llmScore,
		Reason:     fmt.Sprintf("LLM categorized conversation as %s with %s urgency", category, evaluation.Urgency),
		Path:       PathSlow,
	}
}

// renderPrompt renders the Handlebars prompt with the message and its history
func (f *LLMFallback) renderPrompt(text string, history []string) (string, error) {
	names := make([]string, 0, len(domain.Categories()))
	for _, c := range domain.Categories() {
		names = append(names, string(c))
	}

	data := map[string]interface{}{
		"categories": names,
		"history":    history,
		"message":    text,
	}

	return f.templateEngine.Render(f.prompt, data)
}

// matchCategory maps an LLM answer to a category: exact, then case-insensitive
// with spaces as underscores, then partial
func matchCategory(response string) (domain.Category, bool) {
	normalized := strings.TrimSpace(strings.ToLower(response))
	normalized = strings.Trim(normalized, ".\"'`")

	if c, ok := domain.ParseCategory(normalized); ok {
		return c, true
	}

	underscored := strings.ReplaceAll(normalized, " ", "_")
	if c, ok := domain.ParseCategory(underscored); ok {
		return c, true
	}

	for _, c := range domain.Categories() {
		name := strings.ToLower(string(c))
		if strings.Contains(underscored, name) || strings.Contains(normalized, strings.ReplaceAll(name, "_", " ")) {
			return c, true
		}
	}

	return "", false
}

package precheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	aicore "github.com/stake-plus/raiinmaker-verify/src/ai/core"
	"go.uber.org/zap"
)

const systemPrompt = `You are a content policy reviewer for an AI agent that posts publicly.
Evaluate the content against every checklist statement. A statement fails when the content violates it.
Reply with a JSON object: {"passes": boolean, "failedChecks": [string], "suggestedFix": string}.
"passes" is true only when every statement holds. "failedChecks" repeats the failing statements verbatim.`

// AIChecker asks a language model to evaluate the checklist.
type AIChecker struct {
	client aicore.Client
	logger *zap.Logger
}

// NewAIChecker builds a checker on top of the configured AI provider. A
// missing provider key is reported as ErrNotConfigured.
func NewAIChecker(cfg aicore.FactoryConfig, logger *zap.Logger) (*AIChecker, error) {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = systemPrompt
	}
	client, err := aicore.NewClient(cfg)
	if err != nil {
		if errors.Is(err, aicore.ErrMissingKey) {
			return nil, fmt.Errorf("%w: %v", ErrNotConfigured, err)
		}
		return nil, err
	}
	return NewAIClientChecker(client, logger), nil
}

// NewAIClientChecker wraps an existing AI client.
func NewAIClientChecker(client aicore.Client, logger *zap.Logger) *AIChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AIChecker{client: client, logger: logger.Named("precheck")}
}

func (c *AIChecker) Check(ctx context.Context, content string, checklist []string) (Result, error) {
	if c == nil || c.client == nil {
		return Result{}, ErrNotConfigured
	}
	if len(checklist) == 0 {
		checklist = DefaultChecklist
	}

	completion, err := c.client.Respond(ctx, buildPrompt(content, checklist), aicore.Options{JSONOutput: true})
	if err != nil {
		return Result{}, fmt.Errorf("precheck: completion: %w", err)
	}
	res, err := ParseCompletion(completion)
	if err != nil {
		c.logger.Warn("malformed completion", zap.Error(err))
		return Result{}, err
	}
	c.logger.Debug("checklist evaluated",
		zap.Bool("passes", res.Passes),
		zap.Int("failed", len(res.FailedChecks)))
	return res, nil
}

func buildPrompt(content string, checklist []string) string {
	var b strings.Builder
	b.WriteString("Checklist:\n")
	for i, item := range checklist {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item)
	}
	b.WriteString("\nContent:\n\"\"\"\n")
	b.WriteString(content)
	b.WriteString("\n\"\"\"")
	return b.String()
}

// ParseCompletion extracts the JSON verdict from a completion. Code fences
// and surrounding prose are tolerated; a missing "passes" field is an error.
func ParseCompletion(completion string) (Result, error) {
	start := strings.Index(completion, "{")
	end := strings.LastIndex(completion, "}")
	if start < 0 || end <= start {
		return Result{}, fmt.Errorf("precheck: no JSON object in completion")
	}

	var raw struct {
		Passes       *bool    `json:"passes"`
		FailedChecks []string `json:"failedChecks"`
		SuggestedFix string   `json:"suggestedFix"`
	}
	if err := json.Unmarshal([]byte(completion[start:end+1]), &raw); err != nil {
		return Result{}, fmt.Errorf("precheck: decode completion: %w", err)
	}
	if raw.Passes == nil {
		return Result{}, fmt.Errorf("precheck: completion missing passes")
	}
	if raw.FailedChecks == nil {
		raw.FailedChecks = []string{}
	}
	return Result{
		Passes:       *raw.Passes,
		FailedChecks: raw.FailedChecks,
		SuggestedFix: strings.TrimSpace(raw.SuggestedFix),
	}, nil
}

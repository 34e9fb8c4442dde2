package config

import (
	"strings"

	aicore "github.com/stake-plus/raiinmaker-verify/src/ai/core"
)

// AI holds the pre-check model settings.
type AI struct {
	Provider  string
	Model     string
	OpenAIKey string
	ClaudeKey string
}

// LoadAI resolves the AI provider settings.
func LoadAI(s *Settings) AI {
	provider := strings.ToLower(s.GetSetting("ai_provider", "AI_PROVIDER", "openai"))
	return AI{
		Provider:  provider,
		Model:     aicore.ResolveModelName(provider, s.GetSetting("ai_model", "AI_MODEL", "")),
		OpenAIKey: s.GetSetting("openai_api_key", "OPENAI_API_KEY", ""),
		ClaudeKey: s.GetSetting("claude_api_key", "CLAUDE_API_KEY", ""),
	}
}

// FactoryConfig converts the settings into provider factory input.
func (a AI) FactoryConfig() aicore.FactoryConfig {
	return aicore.FactoryConfig{
		Provider:  a.Provider,
		Model:     a.Model,
		OpenAIKey: a.OpenAIKey,
		ClaudeKey: a.ClaudeKey,
	}
}

// HasKey reports whether the selected provider has a credential.
func (a AI) HasKey() bool {
	switch a.Provider {
	case "claude", "anthropic":
		return a.ClaudeKey != ""
	default:
		return a.OpenAIKey != ""
	}
}

package config

import (
	"strings"
	"time"

	"github.com/stake-plus/raiinmaker-verify/src/precheck"
	"github.com/stake-plus/raiinmaker-verify/src/raiinmaker"
)

// Verify is the resolved configuration for one verification request.
type Verify struct {
	AppID       string
	AppSecret   string
	BaseURL     string
	Environment string

	PreCheckEnabled bool
	PreCheckPolicy  precheck.Policy
	AI              AI

	ConsensusVotes int
	Reputation     string

	DedupeEnabled bool
	DedupeTTL     time.Duration
	RedisURL      string
}

// LoadVerify resolves the verification settings.
func LoadVerify(s *Settings) Verify {
	ttl := s.getIntSetting("dedupe_ttl_seconds", "DEDUPE_TTL_SECONDS", 600)
	if ttl <= 0 {
		ttl = 600
	}
	votes := s.getIntSetting("consensus_votes", "CONSENSUS_VOTES", raiinmaker.DefaultConsensusVotes)
	if votes <= 0 {
		votes = raiinmaker.DefaultConsensusVotes
	}

	return Verify{
		AppID:           s.GetSetting("raiinmaker_app_id", "RAIINMAKER_APP_ID", ""),
		AppSecret:       s.GetSetting("raiinmaker_api_key", "RAIINMAKER_API_KEY", ""),
		BaseURL:         s.GetSetting("raiinmaker_base_url", "RAIINMAKER_BASE_URL", raiinmaker.DefaultBaseURL),
		Environment:     s.GetSetting("raiinmaker_environment", "RAIINMAKER_ENVIRONMENT", "development"),
		PreCheckEnabled: s.getBoolSetting("precheck_enabled", "PRECHECK_ENABLED", true),
		PreCheckPolicy:  precheck.ParsePolicy(s.GetSetting("precheck_policy", "PRECHECK_POLICY", string(precheck.FailOpen))),
		AI:              LoadAI(s),
		ConsensusVotes:  votes,
		Reputation:      s.GetSetting("reputation", "RAIINMAKER_REPUTATION", raiinmaker.DefaultReputation),
		DedupeEnabled:   s.getBoolSetting("dedupe_enabled", "DEDUPE_ENABLED", false),
		DedupeTTL:       time.Duration(ttl) * time.Second,
		RedisURL:        s.GetSetting("redis_url", "REDIS_URL", ""),
	}
}

// Validate checks the credentials needed to reach the remote service.
func (v Verify) Validate() error {
	if v.AppID == "" {
		return &raiinmaker.ValidationError{Field: "raiinmaker_app_id", Message: "app id is not configured"}
	}
	if v.AppSecret == "" {
		return &raiinmaker.ValidationError{Field: "raiinmaker_api_key", Message: "api key is not configured"}
	}
	return nil
}

// PreCheckConfigured reports whether the pre-check should run at all.
func (v Verify) PreCheckConfigured() bool {
	return v.PreCheckEnabled && v.AI.HasKey()
}

// Service holds settings for the outer surfaces.
type Service struct {
	ListenAddr   string
	JWTSecret    string
	DiscordToken string
	GuildID      string
	RoleID       string
	RateLimit    int
	AllowOrigins []string
}

// LoadService resolves the HTTP API and Discord settings.
func LoadService(s *Settings) Service {
	return Service{
		ListenAddr:   s.GetSetting("api_listen_addr", "API_LISTEN_ADDR", ":8080"),
		JWTSecret:    s.GetSetting("jwt_secret", "JWT_SECRET", ""),
		DiscordToken: s.GetSetting("discord_token", "DISCORD_TOKEN", ""),
		GuildID:      s.GetSetting("guild_id", "GUILD_ID", ""),
		RoleID:       s.GetSetting("verify_role_id", "VERIFY_ROLE_ID", ""),
		RateLimit:    s.getIntSetting("api_rate_limit", "API_RATE_LIMIT", 30),
		AllowOrigins: splitList(s.GetSetting("api_allow_origins", "API_ALLOW_ORIGINS", "")),
	}
}

// APIEnabled reports whether the HTTP API can authenticate callers.
func (s Service) APIEnabled() bool { return s.JWTSecret != "" }

// DiscordEnabled reports whether a bot token is configured.
func (s Service) DiscordEnabled() bool { return s.DiscordToken != "" }

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

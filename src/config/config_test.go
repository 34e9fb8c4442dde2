package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stake-plus/raiinmaker-verify/src/data"
	"github.com/stake-plus/raiinmaker-verify/src/precheck"
	"github.com/stake-plus/raiinmaker-verify/src/raiinmaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"RAIINMAKER_APP_ID", "RAIINMAKER_API_KEY", "RAIINMAKER_BASE_URL", "RAIINMAKER_ENVIRONMENT",
		"PRECHECK_ENABLED", "PRECHECK_POLICY", "AI_PROVIDER", "AI_MODEL", "OPENAI_API_KEY",
		"CLAUDE_API_KEY", "DEDUPE_ENABLED", "DEDUPE_TTL_SECONDS", "REDIS_URL", "API_LISTEN_ADDR",
		"JWT_SECRET", "DISCORD_TOKEN", "GUILD_ID", "CONSENSUS_VOTES", "RAIINMAKER_REPUTATION",
		"API_RATE_LIMIT", "VERIFY_ROLE_ID", "API_ALLOW_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestSettingsLayering(t *testing.T) {
	clearEnv(t)
	db := data.NewSettingsStore(map[string]string{"raiinmaker_app_id": "from-db", "raiinmaker_api_key": ""})
	file := FileSource{"raiinmaker_app_id": "from-file", "raiinmaker_api_key": "file-key"}
	s := NewSettings(db, file)

	t.Setenv("RAIINMAKER_APP_ID", "from-env")
	t.Setenv("RAIINMAKER_API_KEY", "env-key")

	assert.Equal(t, "from-db", s.GetSetting("raiinmaker_app_id", "RAIINMAKER_APP_ID", ""))
	assert.Equal(t, "file-key", s.GetSetting("raiinmaker_api_key", "RAIINMAKER_API_KEY", ""))

	t.Setenv("RAIINMAKER_ENVIRONMENT", "production")
	assert.Equal(t, "production", s.GetSetting("raiinmaker_environment", "RAIINMAKER_ENVIRONMENT", "development"))
	assert.Equal(t, "fallback", s.GetSetting("missing", "", "fallback"))
}

func TestLoadVerifyDefaults(t *testing.T) {
	clearEnv(t)
	v := LoadVerify(NewSettings())

	assert.Equal(t, raiinmaker.DefaultBaseURL, v.BaseURL)
	assert.Equal(t, "development", v.Environment)
	assert.True(t, v.PreCheckEnabled)
	assert.Equal(t, precheck.FailOpen, v.PreCheckPolicy)
	assert.Equal(t, "openai", v.AI.Provider)
	assert.Equal(t, "gpt-4o-mini", v.AI.Model)
	assert.Equal(t, 3, v.ConsensusVotes)
	assert.Equal(t, "ANY", v.Reputation)
	assert.False(t, v.DedupeEnabled)
	assert.Equal(t, 600*time.Second, v.DedupeTTL)
	assert.False(t, v.PreCheckConfigured())

	err := v.Validate()
	require.Error(t, err)
	assert.True(t, raiinmaker.IsValidationError(err))
}

func TestLoadVerifyFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("RAIINMAKER_APP_ID", "app")
	t.Setenv("RAIINMAKER_API_KEY", "secret")
	t.Setenv("PRECHECK_ENABLED", "off")
	t.Setenv("PRECHECK_POLICY", "fail-closed")
	t.Setenv("AI_PROVIDER", "Claude")
	t.Setenv("CLAUDE_API_KEY", "ck")
	t.Setenv("DEDUPE_ENABLED", "yes")
	t.Setenv("DEDUPE_TTL_SECONDS", "bogus")
	t.Setenv("CONSENSUS_VOTES", "5")

	v := LoadVerify(NewSettings())
	require.NoError(t, v.Validate())
	assert.False(t, v.PreCheckEnabled)
	assert.Equal(t, precheck.FailClosed, v.PreCheckPolicy)
	assert.Equal(t, "claude", v.AI.Provider)
	assert.Equal(t, "claude-3-5-haiku-latest", v.AI.Model)
	assert.True(t, v.AI.HasKey())
	assert.False(t, v.PreCheckConfigured())
	assert.True(t, v.DedupeEnabled)
	assert.Equal(t, 600*time.Second, v.DedupeTTL)
	assert.Equal(t, 5, v.ConsensusVotes)
}

func TestParseBoolDefault(t *testing.T) {
	assert.True(t, parseBoolDefault("ON", false))
	assert.False(t, parseBoolDefault("0", true))
	assert.True(t, parseBoolDefault("maybe", true))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("raiinmaker_app_id: abc\nconsensus_votes: 7\nprecheck_enabled: false\nempty:\n"), 0o600))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, FileSource{"raiinmaker_app_id": "abc", "consensus_votes": "7", "precheck_enabled": "false"}, f)

	_, err = ParseFile([]byte("nested:\n  a: b\n"))
	assert.Error(t, err)
}

func TestLoadService(t *testing.T) {
	clearEnv(t)
	svc := LoadService(NewSettings(FileSource{"jwt_secret": "s3cret", "api_allow_origins": "https://a.example, ,https://b.example"}))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, svc.AllowOrigins)
	assert.Equal(t, ":8080", svc.ListenAddr)
	assert.True(t, svc.APIEnabled())
	assert.False(t, svc.DiscordEnabled())
	assert.Equal(t, 30, svc.RateLimit)
}

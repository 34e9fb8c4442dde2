// Package providers registers every AI provider with the core factory.
package providers

import (
	_ "github.com/stake-plus/raiinmaker-verify/src/ai/anthropic"
	_ "github.com/stake-plus/raiinmaker-verify/src/ai/openai"
)

package provider

import "sort"

// Provider families a model key routes to.
const (
	FamilyAnthropic    = "anthropic"
	FamilyOpenAI       = "openai"
	FamilyXAI          = "xai"
	FamilyOpenAIHybrid = "openai-hybrid"
	FamilyClaudeHybrid = "claude-hybrid"
	FamilyManualHybrid = "manual-hybrid"
)

// API conventions a model is called through.
const (
	ConventionMessages  = "messages"  // Anthropic messages API
	ConventionChat      = "chat"      // OpenAI-compatible chat completions
	ConventionResponses = "responses" // OpenAI responses API
)

// ModelConfig is one entry in the static model registry.
type ModelConfig struct {
	// Key is the public model name clients select.
	Key string

	// Provider is the family the key routes to.
	Provider string

	// ModelID is the backend identifier for single-model strategies.
	ModelID string

	// Hybrid strategies name their per-stage models instead.
	ExtractModelID  string
	RefineModelID   string
	GenerateModelID string

	// MaxOutputTokens caps the final generation call.
	MaxOutputTokens int

	// Convention selects the API call shape.
	Convention string
}

// IsHybrid reports whether the entry is a multi-stage pipeline.
func (m ModelConfig) IsHybrid() bool {
	switch m.Provider {
	case FamilyOpenAIHybrid, FamilyClaudeHybrid, FamilyManualHybrid:
		return true
	}
	return false
}

// defaultModelKey is the registry fallback for unknown keys.
const defaultModelKey = "claude-opus-4-5"

// registry is the immutable model table. Keys are stable public names;
// Anthropic ModelIDs pin dated snapshots.
var registry = map[string]ModelConfig{
	"claude-opus-4-5": {
		Key:             "claude-opus-4-5",
		Provider:        FamilyAnthropic,
		ModelID:         "claude-opus-4-5-20251101",
		MaxOutputTokens: 16000,
		Convention:      ConventionMessages,
	},
	"claude-opus-4-6": {
		Key:             "claude-opus-4-6",
		Provider:        FamilyAnthropic,
		ModelID:         "claude-opus-4-6",
		MaxOutputTokens: 16000,
		Convention:      ConventionMessages,
	},
	"claude-sonnet-4-5": {
		Key:             "claude-sonnet-4-5",
		Provider:        FamilyAnthropic,
		ModelID:         "claude-sonnet-4-5-20250929",
		MaxOutputTokens: 16000,
		Convention:      ConventionMessages,
	},
	"claude-haiku-4-5": {
		Key:             "claude-haiku-4-5",
		Provider:        FamilyAnthropic,
		ModelID:         "claude-haiku-4-5-20251001",
		MaxOutputTokens: 16000,
		Convention:      ConventionMessages,
	},
	"gpt-4o": {
		Key:             "gpt-4o",
		Provider:        FamilyOpenAI,
		ModelID:         "gpt-4o",
		MaxOutputTokens: 16000,
		Convention:      ConventionChat,
	},
	"gpt-4o-mini": {
		Key:             "gpt-4o-mini",
		Provider:        FamilyOpenAI,
		ModelID:         "gpt-4o-mini",
		MaxOutputTokens: 16000,
		Convention:      ConventionChat,
	},
	"gpt-4o-extract-mini-generate": {
		Key:             "gpt-4o-extract-mini-generate",
		Provider:        FamilyOpenAIHybrid,
		ExtractModelID:  "gpt-4o",
		GenerateModelID: "gpt-4o-mini",
		MaxOutputTokens: 16000,
		Convention:      ConventionChat,
	},
	"claude-sonnet-extract-mini-generate": {
		Key:             "claude-sonnet-extract-mini-generate",
		Provider:        FamilyClaudeHybrid,
		ExtractModelID:  "claude-sonnet-4-5-20250929",
		GenerateModelID: "gpt-4o-mini",
		MaxOutputTokens: 16000,
		Convention:      ConventionMessages,
	},
	"claude-haiku-extract-mini-generate": {
		Key:             "claude-haiku-extract-mini-generate",
		Provider:        FamilyClaudeHybrid,
		ExtractModelID:  "claude-haiku-4-5-20251001",
		GenerateModelID: "gpt-4o-mini",
		MaxOutputTokens: 16000,
		Convention:      ConventionMessages,
	},
	"manual-extract-mini-refine-generate": {
		Key:             "manual-extract-mini-refine-generate",
		Provider:        FamilyManualHybrid,
		RefineModelID:   "gpt-4o-mini",
		GenerateModelID: "gpt-4o-mini",
		MaxOutputTokens: 16000,
		Convention:      ConventionChat,
	},

	// Text-email models.
	"gpt-5.2": {
		Key:             "gpt-5.2",
		Provider:        FamilyOpenAI,
		ModelID:         "gpt-5.2",
		MaxOutputTokens: 4000,
		Convention:      ConventionResponses,
	},
	"gpt-5.2-pro": {
		Key:             "gpt-5.2-pro",
		Provider:        FamilyOpenAI,
		ModelID:         "gpt-5.2-pro",
		MaxOutputTokens: 4000,
		Convention:      ConventionResponses,
	},
	"grok-4-1-fast": {
		Key:             "grok-4-1-fast",
		Provider:        FamilyXAI,
		ModelID:         "grok-4-1-fast",
		MaxOutputTokens: 4000,
		Convention:      ConventionChat,
	},
}

// Lookup returns the entry for key, falling back to the default entry for
// unknown keys.
func Lookup(key string) ModelConfig {
	if cfg, ok := registry[key]; ok {
		return cfg
	}
	return registry[defaultModelKey]
}

// IsKnown reports whether key names a registry entry.
func IsKnown(key string) bool {
	_, ok := registry[key]
	return ok
}

// KnownModels returns all registry keys, sorted, for validation messages.
func KnownModels() []string {
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package provider

import "testing"

func TestLookupKnownModels(t *testing.T) {
	tests := []struct {
		key          string
		wantProvider string
		wantModelID  string
	}{
		{"claude-opus-4-5", FamilyAnthropic, "claude-opus-4-5-20251101"},
		{"claude-opus-4-6", FamilyAnthropic, "claude-opus-4-6"},
		{"claude-sonnet-4-5", FamilyAnthropic, "claude-sonnet-4-5-20250929"},
		{"claude-haiku-4-5", FamilyAnthropic, "claude-haiku-4-5-20251001"},
		{"gpt-4o", FamilyOpenAI, "gpt-4o"},
		{"gpt-5.2", FamilyOpenAI, "gpt-5.2"},
		{"grok-4-1-fast", FamilyXAI, "grok-4-1-fast"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			mc := Lookup(tt.key)
			if mc.Provider != tt.wantProvider {
				t.Errorf("Provider = %q, want %q", mc.Provider, tt.wantProvider)
			}
			if mc.ModelID != tt.wantModelID {
				t.Errorf("ModelID = %q, want %q", mc.ModelID, tt.wantModelID)
			}
		})
	}
}

func TestLookupUnknownFallsBack(t *testing.T) {
	mc := Lookup("no-such-model")
	if mc.Key != defaultModelKey {
		t.Errorf("fallback Key = %q, want %q", mc.Key, defaultModelKey)
	}
	if mc.Provider != FamilyAnthropic {
		t.Errorf("fallback Provider = %q, want %q", mc.Provider, FamilyAnthropic)
	}
}

func TestHybridEntries(t *testing.T) {
	tests := []struct {
		key          string
		wantExtract  string
		wantGenerate string
		wantRefine   string
	}{
		{"gpt-4o-extract-mini-generate", "gpt-4o", "gpt-4o-mini", ""},
		{"claude-sonnet-extract-mini-generate", "claude-sonnet-4-5-20250929", "gpt-4o-mini", ""},
		{"claude-haiku-extract-mini-generate", "claude-haiku-4-5-20251001", "gpt-4o-mini", ""},
		{"manual-extract-mini-refine-generate", "", "gpt-4o-mini", "gpt-4o-mini"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			mc := Lookup(tt.key)
			if !mc.IsHybrid() {
				t.Fatal("IsHybrid() = false, want true")
			}
			if mc.ExtractModelID != tt.wantExtract {
				t.Errorf("ExtractModelID = %q, want %q", mc.ExtractModelID, tt.wantExtract)
			}
			if mc.GenerateModelID != tt.wantGenerate {
				t.Errorf("GenerateModelID = %q, want %q", mc.GenerateModelID, tt.wantGenerate)
			}
			if mc.RefineModelID != tt.wantRefine {
				t.Errorf("RefineModelID = %q, want %q", mc.RefineModelID, tt.wantRefine)
			}
		})
	}
}

func TestIsKnown(t *testing.T) {
	if !IsKnown("gpt-4o-mini") {
		t.Error("gpt-4o-mini should be known")
	}
	if IsKnown("gpt-3") {
		t.Error("gpt-3 should not be known")
	}
}

func TestKnownModelsSorted(t *testing.T) {
	keys := KnownModels()
	if len(keys) != 13 {
		t.Fatalf("len = %d, want 13", len(keys))
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			t.Fatalf("keys not sorted: %q before %q", keys[i-1], keys[i])
		}
	}
}

package models

import "math"

// Usage tracks token consumption and estimated cost for one or more
// provider calls. A composed pipeline's Usage is the sum of its stage
// usages, with per-stage detail preserved in Breakdown.
type Usage struct {
	InputTokens      int               `json:"input_tokens"`
	OutputTokens     int               `json:"output_tokens"`
	TotalTokens      int               `json:"total_tokens"`
	EstimatedCostUSD float64           `json:"estimated_cost_usd"`
	GenerationTimeMs int64             `json:"generation_time_ms,omitempty"`
	Breakdown        map[string]*Usage `json:"breakdown,omitempty"`
}

// Add returns the element-wise sum of u and other. Breakdown maps are not
// combined; callers composing pipelines attach their own breakdown.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:      u.InputTokens + other.InputTokens,
		OutputTokens:     u.OutputTokens + other.OutputTokens,
		TotalTokens:      u.TotalTokens + other.TotalTokens,
		EstimatedCostUSD: u.EstimatedCostUSD + other.EstimatedCostUSD,
		GenerationTimeMs: u.GenerationTimeMs + other.GenerationTimeMs,
	}
}

// Rounded returns a copy with EstimatedCostUSD rounded to 6 decimal places
// for display. The internal value stays a full-precision float until the
// response boundary.
func (u Usage) Rounded() Usage {
	out := u
	out.EstimatedCostUSD = math.Round(u.EstimatedCostUSD*1e6) / 1e6
	if out.Breakdown != nil {
		rounded := make(map[string]*Usage, len(out.Breakdown))
		for stage, su := range out.Breakdown {
			r := su.Rounded()
			rounded[stage] = &r
		}
		out.Breakdown = rounded
	}
	return out
}

// NewUsage builds a Usage from raw token counts, enforcing the
// total == input + output invariant.
func NewUsage(inputTokens, outputTokens int, costUSD float64) Usage {
	return Usage{
		InputTokens:      inputTokens,
		OutputTokens:     outputTokens,
		TotalTokens:      inputTokens + outputTokens,
		EstimatedCostUSD: costUSD,
	}
}

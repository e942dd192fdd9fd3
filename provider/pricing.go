package provider

// rateCard holds per-1K-token USD prices for one model.
type rateCard struct {
	input  float64
	output float64
}

// pricing keys both public model names and dated backend IDs so cost
// attribution works whichever identifier a call site reports.
var pricing = map[string]rateCard{
	"gpt-4o":      {input: 0.0025, output: 0.010},
	"gpt-4o-mini": {input: 0.00015, output: 0.0006},

	"claude-haiku-4-5":          {input: 0.001, output: 0.005},
	"claude-haiku-4-5-20251001": {input: 0.001, output: 0.005},

	"claude-sonnet-4-5":          {input: 0.003, output: 0.015},
	"claude-sonnet-4-5-20250929": {input: 0.003, output: 0.015},

	"claude-opus-4-5":          {input: 0.005, output: 0.025},
	"claude-opus-4-5-20251101": {input: 0.005, output: 0.025},
	"claude-opus-4-6":          {input: 0.005, output: 0.025},

	"gpt-5.2":       {input: 0.002, output: 0.008},
	"gpt-5.2-pro":   {input: 0.010, output: 0.040},
	"grok-4-1-fast": {input: 0.003, output: 0.015},
}

// fallbackRate prices unknown models at the cheapest tier rather than
// reporting a zero cost.
var fallbackRate = rateCard{input: 0.00015, output: 0.0006}

// Cost estimates the USD cost of a call from its token counts.
func Cost(model string, inputTokens, outputTokens int) float64 {
	rate, ok := pricing[model]
	if !ok {
		rate = fallbackRate
	}
	return float64(inputTokens)/1000*rate.input + float64(outputTokens)/1000*rate.output
}

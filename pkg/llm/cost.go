package llm

import "strings"

// Token pricing per 1M tokens (USD). Experimental Gemini models are free.
var pricing = map[string]modelPrice{
	"gemini-2.0-flash-exp":  {Input: 0, Output: 0},
	"gemini-2.0-flash":      {Input: 0.10, Output: 0.40},
	"gemini-2.0-flash-lite": {Input: 0.075, Output: 0.30},
	"gemini-2.5-flash":      {Input: 0.30, Output: 2.50},
	"gemini-2.5-pro":        {Input: 1.25, Output: 10.00},
	"gemini-1.5-pro":        {Input: 1.25, Output: 5.00},
	"gemini-1.5-flash":      {Input: 0.075, Output: 0.30},

	"deepseek-chat":     {Input: 0.27, Output: 1.10},
	"deepseek-reasoner": {Input: 0.55, Output: 2.19},

	"gpt-4o":      {Input: 2.50, Output: 10.00},
	"gpt-4o-mini": {Input: 0.15, Output: 0.60},
}

type modelPrice struct {
	Input  float64 // per 1M input tokens
	Output float64 // per 1M output tokens
}

// EstimateCost returns the estimated cost in USD for the given model and
// token counts. Dated snapshots such as "gpt-4o-mini-2024-07-18" are priced
// as their base model; unknown models cost 0.
func EstimateCost(model string, tokensIn, tokensOut int) float64 {
	p, ok := lookupPrice(model)
	if !ok {
		return 0
	}
	return (float64(tokensIn) * p.Input / 1_000_000) + (float64(tokensOut) * p.Output / 1_000_000)
}

func lookupPrice(model string) (modelPrice, bool) {
	if p, ok := pricing[model]; ok {
		return p, true
	}
	best := ""
	for name := range pricing {
		if strings.HasPrefix(model, name+"-") && len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return modelPrice{}, false
	}
	return pricing[best], true
}

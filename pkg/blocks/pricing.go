package blocks

import (
	"strings"

	"github.com/0xmhha/usage-meter/pkg/parser"
)

// ModelPricing contains per-token pricing for one model family.
type ModelPricing struct {
	InputCostPerToken         float64
	OutputCostPerToken        float64
	CacheCreationCostPerToken float64
	CacheReadCostPerToken     float64
}

// embeddedPricing maps model families to their per-token rates.
// Rates are USD per token (not per million).
var embeddedPricing = map[string]ModelPricing{
	"opus": {
		InputCostPerToken:         1.5e-05,
		OutputCostPerToken:        7.5e-05,
		CacheCreationCostPerToken: 1.875e-05,
		CacheReadCostPerToken:     1.5e-06,
	},
	"sonnet": {
		InputCostPerToken:         3e-06,
		OutputCostPerToken:        1.5e-05,
		CacheCreationCostPerToken: 3.75e-06,
		CacheReadCostPerToken:     3e-07,
	},
	"haiku": {
		InputCostPerToken:         8e-07,
		OutputCostPerToken:        4e-06,
		CacheCreationCostPerToken: 1e-06,
		CacheReadCostPerToken:     8e-08,
	},
}

// defaultPricing is used for unrecognized models (Sonnet rates, a
// reasonable middle ground).
var defaultPricing = embeddedPricing["sonnet"]

// PricingFor returns the pricing for a model identifier, matching by
// family substring (opus, sonnet, haiku).
func PricingFor(model string) ModelPricing {
	lower := strings.ToLower(model)
	for family, p := range embeddedPricing {
		if strings.Contains(lower, family) {
			return p
		}
	}
	return defaultPricing
}

// EntryCost determines the cost of a usage entry under the given cost
// mode.
func EntryCost(entry parser.UsageEntry, mode CostMode) float64 {
	switch mode {
	case CostModeCalculate:
		return computeCost(entry)
	case CostModeDisplay:
		if entry.CostUSD != nil {
			return *entry.CostUSD
		}
		return 0
	default: // CostModeAuto
		if entry.CostUSD != nil {
			return *entry.CostUSD
		}
		return computeCost(entry)
	}
}

// computeCost prices an entry from the embedded table.
func computeCost(entry parser.UsageEntry) float64 {
	p := PricingFor(entry.Message.Model)
	u := entry.Message.Usage

	cost := float64(u.InputTokens) * p.InputCostPerToken
	cost += float64(u.OutputTokens) * p.OutputCostPerToken
	cost += float64(u.CacheCreationInputTokens) * p.CacheCreationCostPerToken
	cost += float64(u.CacheReadInputTokens) * p.CacheReadCostPerToken
	return cost
}

// Package plan provides the catalog of Claude subscription tiers.
//
// Each tier maps to a fixed token-limit threshold for a 5-hour usage
// window, plus display metadata. The custom tier is open-ended and is
// used both when the user overrides the limit explicitly and when
// observed usage exceeds every fixed tier.
//
// Example usage:
//
//	info, err := plan.Lookup(plan.Pro)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%s: %d tokens per window\n", info.DisplayName, info.TokenLimit)
package plan

// Plan identifies a subscription tier.
type Plan string

const (
	// Pro is the base subscription tier.
	Pro Plan = "pro"

	// Max5 is the 5x Pro subscription tier.
	Max5 Plan = "max5"

	// Max20 is the 20x Pro subscription tier.
	Max20 Plan = "max20"

	// Custom is the open-ended tier used for auto-detected or
	// user-overridden limits.
	Custom Plan = "custom"
)

// DefaultCustomLimit is the token limit assumed for the custom tier when
// no historical usage is available to detect a better one.
const DefaultCustomLimit = 500000

// Info describes a subscription tier.
type Info struct {
	// DisplayName is the human-readable tier name.
	DisplayName string

	// MonthlyPrice is the subscription price in USD per month.
	MonthlyPrice float64

	// MessagesPerWindow is the approximate message budget per 5-hour window.
	MessagesPerWindow int

	// TokensPerMessage is the average token cost of one message.
	TokensPerMessage int

	// TokenLimit is the token-limit threshold per 5-hour window.
	TokenLimit int

	// Description summarizes the tier.
	Description string
}

// catalog maps each tier to its metadata.
var catalog = map[Plan]Info{
	Pro: {
		DisplayName:       "Claude Pro",
		MonthlyPrice:      20,
		MessagesPerWindow: 45,
		TokensPerMessage:  155,
		TokenLimit:        7000,
		Description:       "Base subscription, ~45 messages per 5-hour window",
	},
	Max5: {
		DisplayName:       "Claude Max 5x",
		MonthlyPrice:      100,
		MessagesPerWindow: 225,
		TokensPerMessage:  155,
		TokenLimit:        35000,
		Description:       "5x Pro usage, ~225 messages per 5-hour window",
	},
	Max20: {
		DisplayName:       "Claude Max 20x",
		MonthlyPrice:      200,
		MessagesPerWindow: 900,
		TokensPerMessage:  155,
		TokenLimit:        140000,
		Description:       "20x Pro usage, ~900 messages per 5-hour window",
	},
	Custom: {
		DisplayName:       "Custom",
		MonthlyPrice:      0,
		MessagesPerWindow: 0,
		TokensPerMessage:  0,
		TokenLimit:        DefaultCustomLimit,
		Description:       "Auto-detected or user-defined token limit",
	},
}

// fixedTiers lists the fixed-limit tiers in ascending limit order.
var fixedTiers = []Plan{Pro, Max5, Max20}

// Lookup returns the catalog entry for the given plan.
//
// Returns ErrUnknownPlan for plans not in the catalog.
func Lookup(p Plan) (Info, error) {
	info, ok := catalog[p]
	if !ok {
		return Info{}, ErrUnknownPlan
	}
	return info, nil
}

// TokenLimit returns the token-limit threshold for the plan.
//
// Unknown plans report the custom default so callers never divide by zero.
func (p Plan) TokenLimit() int {
	info, ok := catalog[p]
	if !ok {
		return DefaultCustomLimit
	}
	return info.TokenLimit
}

// Valid reports whether p names a catalog tier.
func (p Plan) Valid() bool {
	_, ok := catalog[p]
	return ok
}

// All returns every catalog tier, fixed tiers first in ascending limit
// order, then the custom tier.
func All() []Plan {
	out := make([]Plan, 0, len(catalog))
	out = append(out, fixedTiers...)
	out = append(out, Custom)
	return out
}

// ClassifyByTokens classifies a token count into the smallest fixed tier
// whose limit is not exceeded, defaulting to the custom tier when the
// count exceeds every fixed limit.
func ClassifyByTokens(tokens int) Plan {
	for _, p := range fixedTiers {
		if tokens <= catalog[p].TokenLimit {
			return p
		}
	}
	return Custom
}

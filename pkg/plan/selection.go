package plan

import "fmt"

// Selection expresses the user's plan choice: either a fixed tier, or
// automatic detection from observed usage.
//
// Modeling auto-detection as its own variant keeps "user explicitly chose
// custom" distinguishable from "user asked for auto-detection".
type Selection struct {
	auto bool
	tier Plan
}

// Fixed returns a selection pinned to the given tier.
func Fixed(p Plan) Selection {
	return Selection{tier: p}
}

// Auto returns the auto-detection selection.
func Auto() Selection {
	return Selection{auto: true}
}

// IsAuto reports whether the selection asks for auto-detection.
func (s Selection) IsAuto() bool {
	return s.auto
}

// Tier returns the selected tier. For auto-detection it returns the
// custom tier, which is the tier auto-detection resolves into.
func (s Selection) Tier() Plan {
	if s.auto {
		return Custom
	}
	return s.tier
}

// String implements fmt.Stringer.
func (s Selection) String() string {
	if s.auto {
		return "auto"
	}
	return string(s.tier)
}

// ParseSelection parses a configuration value into a Selection.
//
// Accepts "auto" plus every catalog tier name.
func ParseSelection(value string) (Selection, error) {
	if value == "auto" || value == "" {
		return Auto(), nil
	}

	p := Plan(value)
	if !p.Valid() {
		return Selection{}, fmt.Errorf("%w: %q", ErrUnknownPlan, value)
	}

	return Fixed(p), nil
}

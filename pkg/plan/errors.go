package plan

import "errors"

var (
	// ErrUnknownPlan is returned when a plan name is not in the catalog.
	ErrUnknownPlan = errors.New("unknown plan")
)

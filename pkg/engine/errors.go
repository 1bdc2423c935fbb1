package engine

import "errors"

var (
	// ErrNoLoader indicates the configuration is missing a data loader.
	ErrNoLoader = errors.New("data loader is required")

	// ErrNoResetCalculator indicates the configuration is missing a
	// reset-time calculator.
	ErrNoResetCalculator = errors.New("reset-time calculator is required")

	// ErrInvalidTimezone indicates the timezone name cannot be loaded.
	ErrInvalidTimezone = errors.New("invalid timezone")

	// ErrInvalidCustomLimit indicates a negative custom token limit.
	ErrInvalidCustomLimit = errors.New("custom token limit must not be negative")
)

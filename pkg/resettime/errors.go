package resettime

import "errors"

var (
	// ErrInvalidTimezone indicates the timezone name cannot be loaded.
	ErrInvalidTimezone = errors.New("invalid timezone")

	// ErrInvalidResetHour indicates the reset hour is outside 0-23.
	ErrInvalidResetHour = errors.New("reset hour must be between 0 and 23")
)

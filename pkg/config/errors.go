package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrNoClaudeDirs is returned when no Claude data directories are specified.
	ErrNoClaudeDirs = errors.New("no Claude config directories specified")

	// ErrInvalidTimezone is returned when the timezone cannot be loaded.
	ErrInvalidTimezone = errors.New("invalid timezone: must be a loadable IANA name")

	// ErrInvalidResetHour is returned when the reset hour is outside [0, 23].
	ErrInvalidResetHour = errors.New("invalid reset hour: must be between 0 and 23")

	// ErrInvalidPlan is returned when the plan is not auto or a catalog tier.
	ErrInvalidPlan = errors.New("invalid plan: must be auto, pro, max5, max20, or custom")

	// ErrInvalidCustomLimit is returned when the custom token limit is negative.
	ErrInvalidCustomLimit = errors.New("invalid custom token limit: must be >= 0")

	// ErrInvalidCacheTTL is returned when the cache TTL is <= 0.
	ErrInvalidCacheTTL = errors.New("invalid cache TTL: must be > 0")

	// ErrInvalidPollInterval is returned when the poll interval is <= 0.
	ErrInvalidPollInterval = errors.New("invalid poll interval: must be > 0")

	// ErrInvalidLogLevel is returned when the log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level: must be debug, info, warn, or error")

	// ErrInvalidLogFormat is returned when the log format is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrConfigNotFound is returned when the config file is not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when the config file has invalid YAML syntax.
	ErrInvalidYAML = errors.New("invalid YAML syntax in config file")
)

package parser

import "errors"

var (
	// ErrMalformedJSON is returned when a line is not valid JSON.
	ErrMalformedJSON = errors.New("malformed JSON line")

	// ErrInvalidTimestamp is returned when an entry has a zero timestamp.
	ErrInvalidTimestamp = errors.New("invalid timestamp: must not be zero")

	// ErrInvalidSessionID is returned when an entry has an empty session ID.
	ErrInvalidSessionID = errors.New("invalid session ID: must not be empty")

	// ErrInvalidModel is returned when an entry has an empty model name.
	ErrInvalidModel = errors.New("invalid model: must not be empty")

	// ErrNegativeTokenCount is returned when any token count is negative.
	ErrNegativeTokenCount = errors.New("invalid token count: must be >= 0")

	// ErrFileTooLarge is returned when a JSONL file exceeds MaxFileSize.
	ErrFileTooLarge = errors.New("file too large")
)

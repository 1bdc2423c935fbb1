// Package parser provides JSONL parsing for Claude Code usage logs.
//
// It extracts per-invocation token usage from session JSONL files and
// validates entries for correctness. Malformed lines are logged and
// skipped rather than failing the whole file, and parsing can resume
// from a byte offset for incremental reads.
//
// Example usage:
//
//	p := parser.New(logger.Default())
//	entries, offset, err := p.ParseFile("/path/to/session.jsonl", 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, entry := range entries {
//	    fmt.Printf("%s: %d tokens\n", entry.Message.Model, entry.Message.Usage.TotalTokens())
//	}
package parser

import (
	"strings"
	"time"
)

// SyntheticModel is the placeholder model name Claude Code writes for
// internal bookkeeping entries. Entries carrying it must be excluded
// from per-model aggregates.
const SyntheticModel = "<synthetic>"

// UsageEntry represents a single entry from a Claude Code JSONL log.
// Each entry corresponds to one recorded model invocation.
//
// Invariant: Timestamp must not be the zero value.
// Invariant: SessionID must be non-empty.
// Invariant: token counts must be non-negative.
type UsageEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	SessionID  string    `json:"sessionId"`
	Version    string    `json:"version"`
	CurrentDir string    `json:"cwd"`
	Message    Message   `json:"message"`
	CostUSD    *float64  `json:"costUSD,omitempty"`
	RequestID  *string   `json:"requestId,omitempty"`
}

// Message contains the API response details including token usage.
type Message struct {
	ID    string `json:"id"`
	Model string `json:"model"`
	Usage Usage  `json:"usage"`
}

// Usage contains token consumption for a single invocation.
//
// Token kinds:
//   - InputTokens: regular input tokens
//   - OutputTokens: generated output tokens
//   - CacheCreationInputTokens: tokens written to the prompt cache
//   - CacheReadInputTokens: tokens read from the prompt cache
type Usage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
}

// TotalTokens returns the sum of all four token kinds.
func (u Usage) TotalTokens() int {
	return u.InputTokens + u.OutputTokens +
		u.CacheCreationInputTokens + u.CacheReadInputTokens
}

// Validate checks that all token counts are non-negative.
func (u Usage) Validate() error {
	if u.InputTokens < 0 || u.OutputTokens < 0 ||
		u.CacheCreationInputTokens < 0 || u.CacheReadInputTokens < 0 {
		return ErrNegativeTokenCount
	}
	return nil
}

// IsSynthetic reports whether the entry's model is a synthetic
// placeholder rather than a real model identifier.
func (e *UsageEntry) IsSynthetic() bool {
	model := strings.TrimSpace(e.Message.Model)
	return model == "" || model == SyntheticModel
}

// Validate checks if the usage entry satisfies all invariants.
//
// Returns an error if:
//   - Timestamp is the zero value
//   - SessionID is empty
//   - Model is empty
//   - any token count is negative
func (e *UsageEntry) Validate() error {
	if e.Timestamp.IsZero() {
		return ErrInvalidTimestamp
	}

	if e.SessionID == "" {
		return ErrInvalidSessionID
	}

	if e.Message.Model == "" {
		return ErrInvalidModel
	}

	return e.Message.Usage.Validate()
}

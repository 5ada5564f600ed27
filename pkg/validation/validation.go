// Package validation provides input validation and sanitization for
// client-supplied names and turn orders.
package validation

import (
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Message size and content limits
const (
	MaxMessageSize    = 64 * 1024 // 64KB max message
	MaxEmpireNameLen  = 32
	MaxGameNameLen    = 64
	MaxMessagesPerMin = 100

	// Per-turn order limits. A colony cannot queue more than this many
	// build items, and a fleet cannot be given more than one order.
	MaxBuildQueueLen   = 16
	MaxResearchPercent = 100
)

var (
	// Allow alphanumeric, spaces, hyphens, underscores, apostrophes and
	// basic punctuation for player-facing names.
	validNameChars = regexp.MustCompile(`^[a-zA-Z0-9\s\-_.'()]+$`)
)

// MessageValidator provides validation for raw client messages with
// per-client rate limiting.
type MessageValidator struct {
	rateLimiter *RateLimiter
}

// NewMessageValidator creates a new message validator with rate limiting
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{
		rateLimiter: NewRateLimiter(float64(MaxMessagesPerMin)/60.0, MaxMessagesPerMin/10),
	}
}

// Close releases resources used by the message validator
func (v *MessageValidator) Close() {
	if v.rateLimiter != nil {
		v.rateLimiter.Close()
	}
}

// ValidateMessage validates a raw message against size and format constraints
func (v *MessageValidator) ValidateMessage(data []byte, clientID string) error {
	if len(data) > MaxMessageSize {
		return fmt.Errorf("message too large: %d bytes (max %d)", len(data), MaxMessageSize)
	}

	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON format")
	}

	if !v.rateLimiter.Allow(clientID) {
		return fmt.Errorf("rate limit exceeded: max %d messages per minute", MaxMessagesPerMin)
	}

	return nil
}

// ValidateEmpireName validates and sanitizes an empire name
func ValidateEmpireName(name string) (string, error) {
	return validateName(name, "empire name", MaxEmpireNameLen)
}

// ValidateGameName validates and sanitizes a game name
func ValidateGameName(name string) (string, error) {
	return validateName(name, "game name", MaxGameNameLen)
}

func validateName(name, what string, maxLen int) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%s cannot be empty", what)
	}

	if len(name) > maxLen {
		return "", fmt.Errorf("%s too long: %d characters (max %d)", what, len(name), maxLen)
	}

	if !utf8.ValidString(name) {
		return "", fmt.Errorf("%s contains invalid UTF-8 characters", what)
	}

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("%s cannot be only whitespace", what)
	}

	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("%s contains control characters", what)
		}
	}

	if !validNameChars.MatchString(trimmed) {
		return "", fmt.Errorf("%s contains invalid characters", what)
	}

	// Escape HTML to prevent XSS when names are echoed back to clients
	return html.EscapeString(trimmed), nil
}

// ValidateResearchAllocation checks that a research allocation map is
// limited to known fields and that the percentages do not exceed 100 in
// total.
func ValidateResearchAllocation(allocation map[string]uint32, knownFields []string) error {
	total := uint32(0)
	for field, percent := range allocation {
		found := false
		for _, known := range knownFields {
			if field == known {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown research field: %q", field)
		}
		total += percent
	}
	if total > MaxResearchPercent {
		return fmt.Errorf("research allocation exceeds 100%%: %d", total)
	}
	return nil
}

// ValidateBuildQueueLen checks a colony build queue length
func ValidateBuildQueueLen(n int) error {
	if n > MaxBuildQueueLen {
		return fmt.Errorf("build queue too long: %d items (max %d)", n, MaxBuildQueueLen)
	}
	return nil
}

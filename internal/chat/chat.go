// Package chat produces the synthetic assistant replies served by the chat
// endpoint, either as one completion or as a stream of OpenAI-compatible
// chunks.
package chat

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// Model is reported in every chunk and completion.
	Model = "claims-chat"

	// MaxMessageLength is the longest accepted message, in characters.
	MaxMessageLength = 2000
)

// ErrInvalidMessage is wrapped by every Validate failure.
var ErrInvalidMessage = errors.New("invalid chat message")

// Validate checks that message holds 1 to MaxMessageLength characters.
func Validate(message string) error {
	n := utf8.RuneCountInString(message)
	switch {
	case n == 0:
		return fmt.Errorf("%w: message is empty", ErrInvalidMessage)
	case n > MaxMessageLength:
		return fmt.Errorf("%w: %d characters, at most %d allowed", ErrInvalidMessage, n, MaxMessageLength)
	}
	return nil
}

// Reply picks a canned answer by keyword. The first of hello, weather and
// time found in the message wins; anything else is echoed back.
func Reply(message string, now time.Time) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "hello"):
		return "Hello! How can I help you today? I'm a claims assistant ready to answer any questions you might have."
	case strings.Contains(lower, "weather"):
		return "I'm sorry, I don't have access to real-time weather data. You might want to check a weather service for current conditions."
	case strings.Contains(lower, "time"):
		return fmt.Sprintf("The current time is %s. Is there anything else I can help you with?", now.Format("15:04:05"))
	default:
		return fmt.Sprintf("You said: '%s'. That's interesting! I'm a simple chat bot, so I can only provide basic responses right now. How else can I assist you?", message)
	}
}

// Info describes the chat endpoint for GET /chat/info.
type Info struct {
	Service           string   `json:"service"`
	Version           string   `json:"version"`
	Model             string   `json:"model"`
	Description       string   `json:"description"`
	SupportedFeatures []string `json:"supported_features"`
	Usage             Usage    `json:"usage"`
}

// Usage shows how to call the endpoint.
type Usage struct {
	Endpoint       string         `json:"endpoint"`
	Method         string         `json:"method"`
	ContentType    string         `json:"content_type"`
	ExampleRequest map[string]any `json:"example_request"`
}

// NewInfo returns the endpoint description for the given service version.
func NewInfo(version string) Info {
	return Info{
		Service:     "claims-chat",
		Version:     version,
		Model:       Model,
		Description: "Streaming chat endpoint with OpenAI-compatible format",
		SupportedFeatures: []string{
			"streaming_responses",
			"server_sent_events",
			"openai_compatible_format",
		},
		Usage: Usage{
			Endpoint:    "/api/v1/chat",
			Method:      "POST",
			ContentType: "application/json",
			ExampleRequest: map[string]any{
				"message": "Hello, how are you?",
				"stream":  true,
			},
		},
	}
}

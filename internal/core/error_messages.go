package core

// error_messages.go maps technical errors to user-facing messages with a
// support code. Users quote the code; support looks it up here.
//
// # Claim Errors (CLM001-CLM099)
//
//	CLM001 - Claim not found (ErrNotFound)
//	CLM002 - Claim ID already exists (ErrConflict)
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - A field is out of bounds or malformed (*ValidationError)
//
// # CSV Errors (CSV001-CSV099)
//
//	CSV001 - A CSV row could not be parsed (*ParseError)
//	CSV002 - The upload is larger than IMPORT_MAX_FILE_SIZE
//
// # Store Errors (DB001-DB099)
//
//	DB001 - Connection refused
//	DB002 - Connection reset
//	DB003 - Timeout or deadline exceeded
//	DB004 - Deadlock or serialization failure
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Another import holds the only slot (ErrImportInProgress)
//
// # Chat Errors (CHAT001-CHAT099)
//
//	CHAT001 - Message is empty or too long
//
// # Default Error (ERR000)
//
//	ERR000 - Anything else; check the logs for the technical error.
//
// Typed and sentinel errors are matched with errors.Is/As first. Store
// failures only carry driver text, so they fall through to case-insensitive
// substring patterns; the first matching pattern wins.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

var (
	msgNotFound = UserMessage{
		Message: "Claim not found",
		Action:  "Check the claim ID and try again",
		Code:    "CLM001",
	}
	msgConflict = UserMessage{
		Message: "Claim ID already exists",
		Action:  "Use a different claim ID or update the existing claim",
		Code:    "CLM002",
	}
	msgImportBusy = UserMessage{
		Message: "Another import is already running",
		Action:  "Wait for the current import to finish and try again",
		Code:    "IMP001",
	}
)

// ErrFileTooLarge is returned when an uploaded CSV exceeds the size limit.
var ErrFileTooLarge = errors.New("file too large")

// errorPattern pairs a lowercase substring with its user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller parts",
			Code:    "CSV002",
		},
	},
	{
		pattern: "chat message",
		msg: UserMessage{
			Message: "Chat message must be between 1 and 2000 characters",
			Action:  "Shorten or fill in the message and send it again",
			Code:    "CHAT001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the database",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try again, or import a smaller file",
			Code:    "DB003",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try again, or import a smaller file",
			Code:    "DB003",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB004",
		},
	},
	{
		pattern: "could not serialize",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB004",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. A nil error
// maps to the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var pe *ParseError
	var ve *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		return msgNotFound
	case errors.Is(err, ErrConflict):
		return msgConflict
	case errors.Is(err, ErrImportInProgress):
		return msgImportBusy
	case errors.As(err, &pe):
		return UserMessage{
			Message: pe.Error(),
			Action:  "Fix the row and import the file again; nothing was written",
			Code:    "CSV001",
		}
	case errors.As(err, &ve):
		return UserMessage{
			Message: fmt.Sprintf("Invalid %s: %s", ve.Field, ve.Message),
			Action:  "Correct the value and resubmit",
			Code:    "VAL001",
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders MapError as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

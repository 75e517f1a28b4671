package core

// error_messages.go maps technical errors to user-friendly messages with
// codes for support reference.
//
// Error codes:
//
//	EXP001 - Invalid input: data is not valid JSON or has the wrong shape
//	         Action: Supply an object or an array of objects
//	EXP002 - Empty document: conversion produced no output
//	         Action: Check the export options and input data
//	EXP003 - Too many concurrent exports
//	         Action: Retry after a short delay
//	HIST001 - History disabled: no database is configured
//	          Action: Set DATABASE_URL to enable export history
//	DB001 - Connection refused: unable to reach the database
//	        Action: Please try again in a few moments
//	REQ001 - Request cancelled or timed out
//	         Action: Please try again
//	ERR000 - Unknown error (fallback)
//	         Action: Please try again or contact support
//
// Sentinel errors are matched with errors.Is first; string patterns are a
// fallback for errors that cross the pgx boundary without a sentinel.

import (
	"errors"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive, Contains) to
// user messages. First match wins, so specific patterns come first.
var errorPatterns = []errorPattern{
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the database",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The request timed out",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
}

// MapError converts a technical error into a UserMessage.
func MapError(err error) UserMessage {
	switch {
	case err == nil:
		return UserMessage{}
	case errors.Is(err, ErrInvalidInput):
		return UserMessage{
			Message: "The supplied data is not a valid record collection",
			Action:  "Supply a JSON object or an array of objects",
			Code:    "EXP001",
		}
	case errors.Is(err, ErrEmptyDocument):
		return UserMessage{
			Message: "The conversion produced an empty document",
			Action:  "Check the export options and input data",
			Code:    "EXP002",
		}
	case errors.Is(err, ErrHistoryDisabled):
		return UserMessage{
			Message: "Export history is not enabled on this server",
			Action:  "Set DATABASE_URL to enable export history",
			Code:    "HIST001",
		}
	case errors.Is(err, ErrTooManyExports):
		return UserMessage{
			Message: "The server is processing too many exports right now",
			Action:  "Please try again in a few moments",
			Code:    "EXP003",
		}
	}

	text := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(text, p.pattern) {
			return p.msg
		}
	}

	return UserMessage{
		Message: "An unexpected error occurred",
		Action:  "Please try again or contact support",
		Code:    "ERR000",
	}
}

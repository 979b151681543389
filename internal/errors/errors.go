/*
 * Copyright (c) 2026 Sharknado Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package errors provides structured error handling for Sharknado.

The errors package implements a structured error system with:
  - Error categories (Auth, Execution, Syntax, Storage, Validation)
  - Error codes for programmatic handling
  - User-friendly single-line messages for the wire protocol
  - Error wrapping for root cause analysis

Every error that can reach a client has a constructor here, so the
session layer can render any failure as one "ERROR: ..." line without
string matching.
*/
package errors

import (
	"fmt"
)

// Code identifies a specific error condition.
type Code int

const (
	// Auth errors (1000-1999)
	CodeAuthRequired       Code = 1000
	CodeInvalidCredentials Code = 1001
	CodePermissionDenied   Code = 1002

	// Execution errors (2000-2999)
	CodeNotFound Code = 2000
	CodeConflict Code = 2001
	CodeBadField Code = 2002

	// Syntax errors (3000-3999)
	CodeMalformedQuery Code = 3000
	CodeBadJSON        Code = 3001
	CodeBadArguments   Code = 3002
	CodeUnknownCommand Code = 3003

	// Storage errors (4000-4999)
	CodeIOFailure Code = 4000

	// Validation errors (5000-5999)
	CodeInvalidValue Code = 5000
)

// Category groups related error codes.
type Category string

const (
	CategoryAuth       Category = "AUTH"
	CategoryExecution  Category = "EXECUTION"
	CategorySyntax     Category = "SYNTAX"
	CategoryStorage    Category = "STORAGE"
	CategoryValidation Category = "VALIDATION"
)

// Error is the structured error type used throughout Sharknado.
type Error struct {
	Code     Code
	Category Category
	Message  string
	Detail   string
	Hint     string
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("ERROR %d (%s): %s - %s", e.Code, e.Category, e.Message, e.Detail)
	}
	return fmt.Sprintf("ERROR %d (%s): %s", e.Code, e.Category, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// UserMessage returns the single-line wire form of the error.
// The session layer adds the "ERROR: " status prefix itself, so this
// returns only the message text.
func (e *Error) UserMessage() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Detail)
	}
	return e.Message
}

// WithDetail adds detail to the error.
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

// WithHint adds a hint to the error.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// AuthRequired reports an operation attempted before LOGIN.
func AuthRequired() *Error {
	return &Error{
		Code:     CodeAuthRequired,
		Category: CategoryAuth,
		Message:  "Authentication required",
		Hint:     "Use LOGIN <username> <password> first",
	}
}

// InvalidCredentials reports a failed LOGIN.
// The message is identical for unknown users and wrong passwords,
// so the protocol does not leak which usernames exist.
func InvalidCredentials() *Error {
	return &Error{
		Code:     CodeInvalidCredentials,
		Category: CategoryAuth,
		Message:  "Invalid credentials",
	}
}

// PermissionDenied reports an admin-only operation by a non-admin.
func PermissionDenied(operation string) *Error {
	return &Error{
		Code:     CodePermissionDenied,
		Category: CategoryAuth,
		Message:  "Insufficient permissions",
		Detail:   operation,
	}
}

// NotFound reports a missing table, key, or user.
func NotFound(what string) *Error {
	return &Error{
		Code:     CodeNotFound,
		Category: CategoryExecution,
		Message:  fmt.Sprintf("%s not found", what),
	}
}

// Conflict reports a create that collides with an existing record.
func Conflict(what string) *Error {
	return &Error{
		Code:     CodeConflict,
		Category: CategoryExecution,
		Message:  fmt.Sprintf("%s already exists", what),
	}
}

// BadField reports an unknown field name in a user update.
func BadField(field string) *Error {
	return &Error{
		Code:     CodeBadField,
		Category: CategoryExecution,
		Message:  fmt.Sprintf("invalid field '%s'", field),
		Hint:     "Valid fields: password, role",
	}
}

// MalformedQuery reports a QUERY string that could not be parsed.
func MalformedQuery(detail string) *Error {
	return &Error{
		Code:     CodeMalformedQuery,
		Category: CategorySyntax,
		Message:  "malformed query",
		Detail:   detail,
	}
}

// BadJSON reports a SET/UPDATE payload that failed to parse.
func BadJSON() *Error {
	return &Error{
		Code:     CodeBadJSON,
		Category: CategorySyntax,
		Message:  "Invalid JSON value",
	}
}

// BadArguments reports a command with the wrong number of arguments.
func BadArguments(usage string) *Error {
	return &Error{
		Code:     CodeBadArguments,
		Category: CategorySyntax,
		Message:  "invalid arguments",
		Detail:   "usage: " + usage,
	}
}

// UnknownCommand reports an unrecognized command verb.
func UnknownCommand(verb string) *Error {
	return &Error{
		Code:     CodeUnknownCommand,
		Category: CategorySyntax,
		Message:  fmt.Sprintf("unknown command '%s'", verb),
		Hint:     "Type HELP for available commands",
	}
}

// IOFailure reports a failed log or file operation.
func IOFailure(operation string, cause error) *Error {
	return &Error{
		Code:     CodeIOFailure,
		Category: CategoryStorage,
		Message:  fmt.Sprintf("%s failed", operation),
		Cause:    cause,
	}
}

// InvalidValue reports a value that failed validation.
func InvalidValue(field, reason string) *Error {
	return &Error{
		Code:     CodeInvalidValue,
		Category: CategoryValidation,
		Message:  fmt.Sprintf("invalid value for '%s'", field),
		Detail:   reason,
	}
}

// IsCode checks whether err is a structured error with the given code.
func IsCode(err error, code Code) bool {
	if e, ok := err.(*Error); ok {
		return e.Code == code
	}
	return false
}

// GetCode returns the error code if err is a structured error, or 0 otherwise.
func GetCode(err error) Code {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return 0
}

// FormatError formats any error for user display.
func FormatError(err error) string {
	if e, ok := err.(*Error); ok {
		return e.UserMessage()
	}
	return err.Error()
}

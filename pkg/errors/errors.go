// Copyright 2026 © The Varlog Authors
// SPDX-License-Identifier: Apache-2.0

// Package errors provides typed error handling for the varlog dispatch path.
// Every failure that can surface to a caller carries one of the codes below so
// the dispatcher boundary can render it deterministically.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// ErrorCode classifies varlog errors for rendering and monitoring.
type ErrorCode string

const (
	// CodeValidation indicates the argument bag failed schema validation.
	// The operation was not attempted.
	CodeValidation ErrorCode = "VALIDATION_ERROR"

	// CodePolicyRejected indicates the statement class violated the
	// operation's safety policy. The operation was not attempted.
	CodePolicyRejected ErrorCode = "POLICY_REJECTED"

	// CodeStoreFailure indicates the underlying store execution failed.
	CodeStoreFailure ErrorCode = "STORE_FAILURE"

	// CodeUnknownOperation indicates the operation name is not registered.
	CodeUnknownOperation ErrorCode = "UNKNOWN_OPERATION"

	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"
)

// VarlogError is a typed error with enough context to render a caller-facing
// result. It implements the error interface and supports errors.As.
type VarlogError struct {
	Code      ErrorCode
	Message   string
	Err       error
	Field     string // offending argument, for validation errors
	Operation string // operation being dispatched, when known
}

// Error implements the error interface.
func (e *VarlogError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *VarlogError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *VarlogError) MarshalJSON() ([]byte, error) {
	out := struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		Err       string `json:"error,omitempty"`
		Field     string `json:"field,omitempty"`
		Operation string `json:"operation,omitempty"`
	}{
		Code:      string(e.Code),
		Message:   e.Message,
		Field:     e.Field,
		Operation: e.Operation,
	}
	if e.Err != nil {
		out.Err = e.Err.Error()
	}
	return json.Marshal(out)
}

// New creates a VarlogError with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *VarlogError {
	return &VarlogError{
		Code:    code,
		Message: msg,
		Err:     cause,
	}
}

// Validation creates a validation error for a specific field.
func Validation(field, msg string) *VarlogError {
	return &VarlogError{
		Code:    CodeValidation,
		Message: msg,
		Field:   field,
	}
}

// PolicyRejected creates a policy rejection with the given reason.
func PolicyRejected(reason string) *VarlogError {
	return &VarlogError{
		Code:    CodePolicyRejected,
		Message: reason,
	}
}

// WithOperation tags the error with the operation being dispatched.
// Returns the error for method chaining.
func (e *VarlogError) WithOperation(op string) *VarlogError {
	e.Operation = op
	return e
}

// AsVarlogError converts err to a VarlogError, wrapping unknown errors
// under CodeInternal. Returns nil for a nil error.
func AsVarlogError(err error) *VarlogError {
	if err == nil {
		return nil
	}
	var ve *VarlogError
	if stderrors.As(err, &ve) {
		return ve
	}
	return New(CodeInternal, "wrapped error", err)
}

// Copyright 2026 © The Varlog Authors
// SPDX-License-Identifier: Apache-2.0

// Package dispatcher routes named operations to their handlers. Each
// invocation runs the same pipeline: lookup, schema validation, statement
// policy, execution, formatting. Failures at any stage are converted into a
// well-formed text result at the boundary; nothing escapes to the transport
// layer.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jllopis/varlog/pkg/errors"
	"github.com/jllopis/varlog/pkg/policy"
	"github.com/jllopis/varlog/pkg/schema"
	"github.com/jllopis/varlog/pkg/telemetry"
)

// Handler executes one operation after its arguments passed validation and
// policy. Implementations own their descriptor; registration order is
// advertisement order.
type Handler interface {
	Descriptor() *schema.Descriptor
	Kind() policy.StatementKind
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// Dispatcher owns the operation registry and runs the dispatch pipeline.
type Dispatcher struct {
	registry *schema.Registry
	handlers map[string]Handler
	logger   *slog.Logger
	metrics  *telemetry.DispatchMetrics
}

// Option configures the dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMetrics attaches invocation metrics.
func WithMetrics(metrics *telemetry.DispatchMetrics) Option {
	return func(d *Dispatcher) {
		d.metrics = metrics
	}
}

// New creates an empty dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: schema.NewRegistry(),
		handlers: make(map[string]Handler),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds a handler. The handler's descriptor joins the registry, so
// duplicate names and malformed patterns fail here, at startup.
func (d *Dispatcher) Register(h Handler) error {
	desc := h.Descriptor()
	if err := d.registry.Register(desc); err != nil {
		return err
	}
	d.handlers[desc.Name] = h
	return nil
}

// Operations returns the registered descriptors in registration order.
func (d *Dispatcher) Operations() []*schema.Descriptor {
	return d.registry.List()
}

// Tools renders the registered operations as MCP tool definitions, in
// registration order.
func (d *Dispatcher) Tools() []mcp.Tool {
	descriptors := d.registry.List()
	tools := make([]mcp.Tool, 0, len(descriptors))
	for _, desc := range descriptors {
		tools = append(tools, desc.MCPTool())
	}
	return tools
}

// Dispatch runs one invocation through the pipeline and returns the shaped
// result text, or a typed error.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]any) (string, error) {
	invocationID := uuid.NewString()
	logger := d.logger.With("invocation_id", invocationID, "operation", name)
	d.metrics.RecordInvocation(ctx, name)

	desc, err := d.registry.Describe(name)
	if err != nil {
		logger.WarnContext(ctx, "unknown operation requested")
		d.metrics.RecordFailure(ctx, name, err)
		return "", err
	}
	handler := d.handlers[name]

	normalized, err := desc.Validate(args)
	if err != nil {
		ve := errors.AsVarlogError(err).WithOperation(name)
		logger.WarnContext(ctx, "argument validation failed", "field", ve.Field, "error", ve.Message)
		d.metrics.RecordFailure(ctx, name, ve)
		return "", ve
	}

	if kind := handler.Kind(); kind != policy.KindNone {
		sqlText, _ := normalized["query"].(string)
		if err := policy.Authorize(kind, sqlText); err != nil {
			ve := errors.AsVarlogError(err).WithOperation(name)
			logger.WarnContext(ctx, "statement rejected by policy", "kind", string(kind), "error", ve.Message)
			d.metrics.RecordFailure(ctx, name, ve)
			return "", ve
		}
	}

	result, err := handler.Execute(ctx, normalized)
	if err != nil {
		ve := errors.AsVarlogError(err).WithOperation(name)
		logger.ErrorContext(ctx, "operation failed", "error", ve)
		d.metrics.RecordFailure(ctx, name, ve)
		return "", ve
	}

	logger.DebugContext(ctx, "operation completed")
	return result, nil
}

// DispatchText is the transport-facing boundary: it always produces result
// text, rendering failures (including panics in handler code) instead of
// propagating them.
func (d *Dispatcher) DispatchText(ctx context.Context, name string, args map[string]any) (text string, isError bool) {
	defer func() {
		if r := recover(); r != nil {
			ve := errors.New(errors.CodeInternal, fmt.Sprintf("panic in operation %q: %v", name, r), nil)
			d.logger.ErrorContext(ctx, "recovered from panic", "operation", name, "panic", r)
			text, isError = renderError(ve), true
		}
	}()

	result, err := d.Dispatch(ctx, name, args)
	if err != nil {
		return renderError(err), true
	}
	return result, false
}

// renderError shapes any failure into caller-facing text.
func renderError(err error) string {
	ve := errors.AsVarlogError(err)
	switch ve.Code {
	case errors.CodeValidation:
		return fmt.Sprintf("Error: %s", ve.Message)
	case errors.CodePolicyRejected:
		return fmt.Sprintf("Error: %s", ve.Message)
	case errors.CodeUnknownOperation:
		return fmt.Sprintf("Error: %s", ve.Message)
	default:
		return fmt.Sprintf("Error: %s", ve.Error())
	}
}

// Copyright 2026 © The Varlog Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema declares operation descriptors and validates argument bags
// against them. Descriptors are static data fixed at process start; the same
// declaration drives validation and MCP tool advertisement.
package schema

import (
	"fmt"
	"math"
	"regexp"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jllopis/varlog/pkg/errors"
)

// ParamType is the declared type of an operation parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeBoolean ParamType = "boolean"
)

// Param declares a single parameter of an operation.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Default     any
	Enum        []string
	Pattern     string
	Min         *int
	Max         *int
	// Clamp forces out-of-range integers into [Min, Max] instead of
	// rejecting them. Used for limit-style parameters.
	Clamp bool

	pattern *regexp.Regexp
}

// Descriptor declares a named operation: its description and parameter
// schema. Immutable after registration.
type Descriptor struct {
	Name        string
	Description string
	Params      []Param
}

// compile prepares the descriptor's pattern matchers. Called on registration
// so malformed patterns surface at startup, not at dispatch time.
func (d *Descriptor) compile() error {
	for i := range d.Params {
		p := &d.Params[i]
		if p.Pattern == "" {
			continue
		}
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return fmt.Errorf("param %q: invalid pattern %q: %w", p.Name, p.Pattern, err)
		}
		p.pattern = re
	}
	return nil
}

// Validate checks args against the descriptor and returns a normalized bag:
// defaults applied for absent optional parameters, limit-style integers
// clamped into range. Fields absent from the schema are ignored. The first
// violation, in declaration order, is returned as a VALIDATION_ERROR naming
// the field.
func (d *Descriptor) Validate(args map[string]any) (map[string]any, error) {
	if args == nil {
		args = map[string]any{}
	}
	normalized := make(map[string]any, len(d.Params))

	for i := range d.Params {
		p := &d.Params[i]
		raw, present := args[p.Name]
		if !present || raw == nil {
			if p.Required {
				return nil, errors.Validation(p.Name, fmt.Sprintf("missing required field %q", p.Name))
			}
			if p.Default != nil {
				normalized[p.Name] = p.Default
			}
			continue
		}

		value, err := p.check(raw)
		if err != nil {
			return nil, err
		}
		normalized[p.Name] = value
	}

	return normalized, nil
}

func (p *Param) check(raw any) (any, error) {
	switch p.Type {
	case TypeString:
		s, ok := raw.(string)
		if !ok {
			return nil, errors.Validation(p.Name, fmt.Sprintf("field %q: expected string, got %T", p.Name, raw))
		}
		if len(p.Enum) > 0 && !contains(p.Enum, s) {
			return nil, errors.Validation(p.Name, fmt.Sprintf("field %q: value %q not in %v", p.Name, s, p.Enum))
		}
		if p.pattern != nil && !p.pattern.MatchString(s) {
			return nil, errors.Validation(p.Name, fmt.Sprintf("field %q: value %q does not match pattern %s", p.Name, s, p.Pattern))
		}
		return s, nil

	case TypeInteger:
		n, ok := toInt(raw)
		if !ok {
			return nil, errors.Validation(p.Name, fmt.Sprintf("field %q: expected integer, got %T", p.Name, raw))
		}
		if p.Clamp {
			if p.Min != nil && n < *p.Min {
				n = *p.Min
			}
			if p.Max != nil && n > *p.Max {
				n = *p.Max
			}
			return n, nil
		}
		if p.Min != nil && n < *p.Min {
			return nil, errors.Validation(p.Name, fmt.Sprintf("field %q: %d below minimum %d", p.Name, n, *p.Min))
		}
		if p.Max != nil && n > *p.Max {
			return nil, errors.Validation(p.Name, fmt.Sprintf("field %q: %d above maximum %d", p.Name, n, *p.Max))
		}
		return n, nil

	case TypeBoolean:
		b, ok := raw.(bool)
		if !ok {
			return nil, errors.Validation(p.Name, fmt.Sprintf("field %q: expected boolean, got %T", p.Name, raw))
		}
		return b, nil

	default:
		return nil, errors.New(errors.CodeInternal, fmt.Sprintf("param %q: unknown type %q", p.Name, p.Type), nil)
	}
}

// toInt accepts the integer encodings seen on the wire. JSON numbers decode
// as float64 and must be integral.
func toInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	default:
		return 0, false
	}
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

// MCPTool renders the descriptor as an MCP tool definition for capability
// advertisement.
func (d *Descriptor) MCPTool() mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(d.Description)}

	for i := range d.Params {
		p := &d.Params[i]
		var popts []mcp.PropertyOption
		if p.Description != "" {
			popts = append(popts, mcp.Description(p.Description))
		}
		if p.Required {
			popts = append(popts, mcp.Required())
		}

		switch p.Type {
		case TypeString:
			if len(p.Enum) > 0 {
				popts = append(popts, mcp.Enum(p.Enum...))
			}
			if p.Pattern != "" {
				popts = append(popts, mcp.Pattern(p.Pattern))
			}
			if s, ok := p.Default.(string); ok {
				popts = append(popts, mcp.DefaultString(s))
			}
			opts = append(opts, mcp.WithString(p.Name, popts...))
		case TypeInteger:
			if p.Min != nil {
				popts = append(popts, mcp.Min(float64(*p.Min)))
			}
			if p.Max != nil {
				popts = append(popts, mcp.Max(float64(*p.Max)))
			}
			if n, ok := p.Default.(int); ok {
				popts = append(popts, mcp.DefaultNumber(float64(n)))
			}
			opts = append(opts, mcp.WithNumber(p.Name, popts...))
		case TypeBoolean:
			if b, ok := p.Default.(bool); ok {
				popts = append(popts, mcp.DefaultBool(b))
			}
			opts = append(opts, mcp.WithBoolean(p.Name, popts...))
		}
	}

	return mcp.NewTool(d.Name, opts...)
}

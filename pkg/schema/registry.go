// Copyright 2026 © The Varlog Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"

	"github.com/jllopis/varlog/pkg/errors"
)

// Registry holds the operation descriptors known to the process. Listing
// order is registration order, which is what gets advertised to callers.
type Registry struct {
	order  []string
	byName map[string]*Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Descriptor)}
}

// Register adds a descriptor. Duplicate names and malformed patterns are
// startup errors, not dispatch-time errors.
func (r *Registry) Register(d *Descriptor) error {
	if d == nil || d.Name == "" {
		return fmt.Errorf("descriptor requires a name")
	}
	if _, exists := r.byName[d.Name]; exists {
		return fmt.Errorf("operation %q already registered", d.Name)
	}
	if err := d.compile(); err != nil {
		return fmt.Errorf("operation %q: %w", d.Name, err)
	}
	r.byName[d.Name] = d
	r.order = append(r.order, d.Name)
	return nil
}

// Describe returns the descriptor for opName, or UNKNOWN_OPERATION.
func (r *Registry) Describe(opName string) (*Descriptor, error) {
	d, ok := r.byName[opName]
	if !ok {
		return nil, errors.New(errors.CodeUnknownOperation, fmt.Sprintf("unknown operation %q", opName), nil).WithOperation(opName)
	}
	return d, nil
}

// List returns all descriptors in registration order.
func (r *Registry) List() []*Descriptor {
	out := make([]*Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

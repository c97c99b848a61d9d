// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package formatters renders batch results for the terminal or for
// programmatic consumption. Formatters register themselves into the default
// registry from their package init, and the CLI selects one by name.
package formatters

import (
	"fmt"
	"strings"

	"triage-scan/internal/engine"
	"triage-scan/internal/record"
)

// Options defines configuration options for formatters.
type Options struct {
	Decisions      map[record.Decision]bool // which decisions to display; empty means all
	Verbose        bool                     // include reason detail and hazards
	NoColor        bool                     // disable colored output
	ShowHighlights bool                     // include highlight segments
}

// Wants reports whether a decision passes the configured filter.
func (o Options) Wants(d record.Decision) bool {
	if len(o.Decisions) == 0 {
		return true
	}
	return o.Decisions[d]
}

// ParseDecisions converts a comma-separated decision list ("include,review")
// into a filter map. "all" or empty enables everything.
func ParseDecisions(s string) (map[record.Decision]bool, error) {
	out := map[record.Decision]bool{}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return out, nil
	}
	for _, part := range strings.Split(s, ",") {
		d := record.Decision(strings.ToUpper(strings.TrimSpace(part)))
		if !record.ValidDecision(string(d)) {
			return nil, fmt.Errorf("unknown decision %q", part)
		}
		out[d] = true
	}
	return out, nil
}

// FilterResults returns the results whose decision passes the filter,
// preserving order.
func FilterResults(results []record.Result, opts Options) []record.Result {
	if len(opts.Decisions) == 0 {
		return results
	}
	var out []record.Result
	for _, res := range results {
		if opts.Wants(res.Decision) {
			out = append(out, res)
		}
	}
	return out
}

// Formatter is one output renderer.
type Formatter interface {
	Format(batch *engine.BatchResult, options Options) (string, error)
	Name() string
	Description() string
	FileExtension() string
}

// Registry holds the available formatters by name.
type Registry struct {
	formatters map[string]Formatter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{formatters: make(map[string]Formatter)}
}

// Register adds a formatter to the registry.
func (r *Registry) Register(f Formatter) {
	r.formatters[f.Name()] = f
}

// Get retrieves a formatter by name.
func (r *Registry) Get(name string) (Formatter, bool) {
	f, ok := r.formatters[name]
	return f, ok
}

// List returns the registered formatter names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter to the default registry.
func Register(f Formatter) {
	DefaultRegistry.Register(f)
}

// Get retrieves a formatter from the default registry.
func Get(name string) (Formatter, bool) {
	return DefaultRegistry.Get(name)
}

// List returns the names registered in the default registry.
func List() []string {
	return DefaultRegistry.List()
}

// Export formats a batch with the named formatter from the default
// registry.
func Export(format string, batch *engine.BatchResult, options Options) (string, error) {
	f, ok := Get(format)
	if !ok {
		return "", fmt.Errorf("unsupported format %q, available: %s", format, strings.Join(List(), ", "))
	}
	return f.Format(batch, options)
}

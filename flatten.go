// SPDX-License-Identifier: Apache-2.0

package keycompare

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// DefaultSeparator joins flat key segments when [FlattenOptions.Separator] is empty.
const DefaultSeparator = "."

// Entry is one flattened path and its scalar value.
type Entry struct {
	Key   string
	Value Value
}

// Flat is a flattened record: flat key → value.
type Flat map[string]Value

// Keys returns the record's keys in sorted order.
func (f Flat) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// FlattenPlugin turns one node into zero or more flat entries.
//
// Plugins are tried in registration order and the first one whose CanHandle returns
// true flattens the node; later plugins are not consulted for that node. A plugin
// recurses into sub-nodes it does not own by calling [Flattener.Flatten].
type FlattenPlugin interface {
	CanHandle(prefix string, n Node) bool
	Flatten(f *Flattener, prefix string, n Node) ([]Entry, error)
}

// FlattenOptions configures a [Flattener].
//
// The zero value is valid:
//   - "." joins key segments
//   - [UnflattenableFail] (nodes no plugin claims abort flattening)
//   - no logging
type FlattenOptions struct {
	// Separator joins key segments. Defaults to [DefaultSeparator].
	Separator string

	// Unflattenable specifies what happens to nodes no plugin claims.
	Unflattenable UnflattenablePolicy

	// Logger receives warnings for skipped nodes. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Flattener is the flattening plugin registry.
//
// The plugin list is fixed at construction. A Flattener is safe for concurrent use
// as long as its plugins are.
type Flattener struct {
	opts    FlattenOptions
	plugins []FlattenPlugin
	logger  *zap.Logger
}

// NewFlattener creates a [Flattener] that dispatches to plugins in the given order.
// Returns an error if no plugins are given or any plugin is nil.
func NewFlattener(opts FlattenOptions, plugins ...FlattenPlugin) (*Flattener, error) {
	if len(plugins) == 0 {
		return nil, fmt.Errorf("%w: no flattening plugins", ErrInvalidOptions)
	}
	for i, p := range plugins {
		if p == nil {
			return nil, fmt.Errorf("%w: flattening plugin %d is nil", ErrInvalidOptions, i)
		}
	}
	if opts.Separator == "" {
		opts.Separator = DefaultSeparator
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flattener{
		opts:    opts,
		plugins: slices.Clone(plugins),
		logger:  logger,
	}, nil
}

// Options returns the options configured for this [Flattener].
func (f *Flattener) Options() FlattenOptions {
	return f.opts
}

// Join appends segment to prefix using the configured separator.
func (f *Flattener) Join(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + f.opts.Separator + segment
}

// Flatten flattens n under prefix using the first plugin that claims it.
func (f *Flattener) Flatten(prefix string, n Node) ([]Entry, error) {
	for _, p := range f.plugins {
		if p.CanHandle(prefix, n) {
			return p.Flatten(f, prefix, n)
		}
	}

	if f.opts.Unflattenable == UnflattenableSkip {
		f.logger.Warn("skipping node no plugin can flatten",
			zap.String("prefix", prefix),
			zap.String("name", n.Name()),
			zap.String("tag", n.Tag()))
		return nil, nil
	}
	return nil, &UnflattenableNodeError{Prefix: prefix, Name: n.Name(), Tag: n.Tag()}
}

// FlattenRecord flattens a whole record from an empty prefix.
// Returns a [DuplicateFlatKeyError] if any key is emitted twice.
func (f *Flattener) FlattenRecord(n Node) (Flat, error) {
	entries, err := f.Flatten("", n)
	if err != nil {
		return nil, err
	}
	flat := make(Flat, len(entries))
	for _, e := range entries {
		if _, exists := flat[e.Key]; exists {
			return nil, &DuplicateFlatKeyError{Key: e.Key}
		}
		flat[e.Key] = e.Value
	}
	return flat, nil
}

// SPDX-License-Identifier: Apache-2.0

package keycompare

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// ValueComparison is the outcome of comparing one pair of values.
type ValueComparison struct {
	// Equal reports whether the plugin considers the values equal.
	Equal bool
	// Payload is optional plugin-specific detail, such as a numeric delta. [Absent] when unused.
	Payload Value
}

// ComparePlugin decides equality for the pairs of values it claims.
//
// Plugins are tried in registration order and the first one whose CanHandle
// returns true compares the pair.
type ComparePlugin interface {
	CanHandle(expected, actual Value) bool
	Compare(expected, actual Value) ValueComparison
}

// CompareOptions configures a [Comparer].
//
// The zero value is valid:
//   - [NoComparerFail] (unclaimed pairs abort the comparison)
//   - [MismatchedPathReport] (paths on one side only are differences)
//   - no logging
type CompareOptions struct {
	// NoComparer specifies what happens to pairs no plugin claims.
	NoComparer NoComparerPolicy

	// MismatchedPaths specifies how paths present on only one side are treated.
	MismatchedPaths MismatchedPathPolicy

	// Logger receives warnings for pairs reported under [NoComparerDifference].
	// Defaults to a no-op logger.
	Logger *zap.Logger
}

// Comparer is the value comparer registry and the diff engine for flattened records.
//
// The plugin list is fixed at construction. A Comparer is safe for concurrent use
// as long as its plugins are.
type Comparer struct {
	opts    CompareOptions
	plugins []ComparePlugin
	logger  *zap.Logger
}

// NewComparer creates a [Comparer] that dispatches to plugins in the given order.
// Returns an error if no plugins are given or any plugin is nil.
func NewComparer(opts CompareOptions, plugins ...ComparePlugin) (*Comparer, error) {
	if len(plugins) == 0 {
		return nil, fmt.Errorf("%w: no comparison plugins", ErrInvalidOptions)
	}
	for i, p := range plugins {
		if p == nil {
			return nil, fmt.Errorf("%w: comparison plugin %d is nil", ErrInvalidOptions, i)
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Comparer{
		opts:    opts,
		plugins: slices.Clone(plugins),
		logger:  logger,
	}, nil
}

// DefaultPlugins returns the built-in plugins in their default order:
// strings, exact decimals, floats, bools and nulls.
func DefaultPlugins() []ComparePlugin {
	return []ComparePlugin{
		StringPlugin{},
		DecimalPlugin{},
		FloatPlugin{},
		BoolPlugin{},
		NullPlugin{},
	}
}

// DefaultComparer returns a [Comparer] with [DefaultPlugins] and zero options.
func DefaultComparer() *Comparer {
	c, err := NewComparer(CompareOptions{}, DefaultPlugins()...)
	if err != nil {
		panic(err) // unreachable: the default plugin list is non-empty
	}
	return c
}

// Options returns the options configured for this [Comparer].
func (c *Comparer) Options() CompareOptions {
	return c.opts
}

// CompareValues compares the values at path. It returns the difference and true when
// the values differ. Either value may be [Absent].
func (c *Comparer) CompareValues(path string, expected, actual Value) (Difference, bool, error) {
	if expected.IsAbsent() || actual.IsAbsent() {
		if expected.IsAbsent() && actual.IsAbsent() {
			return Difference{}, false, nil
		}
		if c.opts.MismatchedPaths == MismatchedPathIgnore {
			return Difference{}, false, nil
		}
		return Difference{Path: path, Expected: expected, Actual: actual}, true, nil
	}

	for _, p := range c.plugins {
		if !p.CanHandle(expected, actual) {
			continue
		}
		res := p.Compare(expected, actual)
		if res.Equal {
			return Difference{}, false, nil
		}
		return Difference{Path: path, Expected: expected, Actual: actual, Payload: res.Payload}, true, nil
	}

	if c.opts.NoComparer == NoComparerDifference {
		c.logger.Warn("no comparer for values, reporting as difference",
			zap.String("path", path),
			zap.Stringer("expectedType", expected.Type()),
			zap.Stringer("actualType", actual.Type()))
		return Difference{Path: path, Expected: expected, Actual: actual}, true, nil
	}
	return Difference{}, false, &NoComparerError{Path: path, Expected: expected, Actual: actual}
}

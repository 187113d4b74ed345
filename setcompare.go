// SPDX-License-Identifier: Apache-2.0

package keycompare

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SetOptions configures a [SetComparer].
//
// The zero value is valid: records are processed sequentially without logging.
type SetOptions struct {
	// Parallelism bounds how many records are flattened, and how many pairs are
	// diffed, at once. Values of 0 or 1 process sequentially. The result does not
	// depend on this setting.
	Parallelism int

	// Logger receives a debug summary of each comparison. Defaults to a no-op logger.
	Logger *zap.Logger
}

// SetComparer matches records of two collections by business key and diffs matched pairs.
//
// The registries it borrows must not change during a comparison. A SetComparer can be
// reused and is safe for concurrent use as long as its plugins are.
type SetComparer struct {
	flattener *Flattener
	comparer  *Comparer
	opts      SetOptions
	logger    *zap.Logger
}

// NewSetComparer creates a [SetComparer] from a flattening and a comparison registry.
func NewSetComparer(f *Flattener, c *Comparer, opts SetOptions) (*SetComparer, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil flattener", ErrInvalidOptions)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: nil comparer", ErrInvalidOptions)
	}
	if opts.Parallelism < 0 {
		return nil, fmt.Errorf("%w: negative parallelism %d", ErrInvalidOptions, opts.Parallelism)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SetComparer{flattener: f, comparer: c, opts: opts, logger: logger}, nil
}

// Flattener returns the flattening registry.
func (s *SetComparer) Flattener() *Flattener { return s.flattener }

// Comparer returns the comparison registry.
func (s *SetComparer) Comparer() *Comparer { return s.comparer }

type record struct {
	node Node
	key  BusinessKey
	flat Flat
}

// keyGroup collects the records of both sides sharing one business key.
type keyGroup struct {
	key      BusinessKey
	expected []*record
	actual   []*record
}

// Compare classifies every business key of expected and actual and diffs the records of
// keys present exactly once on both sides.
//
// A key occurring more than once on either side is incomparable: it is reported with all
// records of both sides and never diffed. Any error while keying or flattening a record,
// or an unclaimed value pair under [NoComparerFail], aborts the comparison; no partial
// result is returned.
func (s *SetComparer) Compare(key KeyFunc, expected, actual []Node) (*Result, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: nil key function", ErrInvalidOptions)
	}

	expRecords, err := s.prepare(Expected, key, expected)
	if err != nil {
		return nil, err
	}
	actRecords, err := s.prepare(Actual, key, actual)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]*keyGroup, len(expRecords))
	var order []string
	group := func(r *record) *keyGroup {
		canon := r.key.Canonical()
		g, ok := groups[canon]
		if !ok {
			g = &keyGroup{key: r.key}
			groups[canon] = g
			order = append(order, canon)
		}
		return g
	}
	for _, r := range expRecords {
		g := group(r)
		g.expected = append(g.expected, r)
	}
	for _, r := range actRecords {
		g := group(r)
		g.actual = append(g.actual, r)
	}

	result := &Result{}
	var pairs []*keyGroup
	for _, canon := range order {
		g := groups[canon]
		switch {
		case len(g.expected) > 1 || len(g.actual) > 1:
			result.Incomparable = append(result.Incomparable, Incomparable{
				Key:      g.key,
				Expected: nodes(g.expected),
				Actual:   nodes(g.actual),
			})
		case len(g.actual) == 0:
			result.Missing = append(result.Missing, Keyed{Key: g.key, Record: g.expected[0].node})
		case len(g.expected) == 0:
			result.Additional = append(result.Additional, Keyed{Key: g.key, Record: g.actual[0].node})
		default:
			pairs = append(pairs, g)
		}
	}

	outcomes := make([]Outcome, len(pairs))
	err = s.run(len(pairs), func(i int) error {
		e, a := pairs[i].expected[0], pairs[i].actual[0]
		out, err := s.comparer.Diff(e.flat, a.flat, e.node, a.node)
		if err != nil {
			return fmt.Errorf("key %s: %w", pairs[i].key, err)
		}
		outcomes[i] = out
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, g := range pairs {
		if outcomes[i].Equal() {
			result.Matching = append(result.Matching, Match{Key: g.key, Expected: outcomes[i].Expected, Actual: outcomes[i].Actual})
		} else {
			result.Differences = append(result.Differences, Mismatch{Key: g.key, Outcome: outcomes[i]})
		}
	}

	sum := result.Summary()
	s.logger.Debug("compared record sets",
		zap.Int("expected", len(expected)),
		zap.Int("actual", len(actual)),
		zap.Int("matching", sum.Matching),
		zap.Int("differences", sum.Differences),
		zap.Int("missing", sum.Missing),
		zap.Int("additional", sum.Additional),
		zap.Int("incomparable", sum.Incomparable))

	return result, nil
}

// prepare keys and flattens every record of one side.
func (s *SetComparer) prepare(side Side, key KeyFunc, in []Node) ([]*record, error) {
	records := make([]*record, len(in))
	err := s.run(len(in), func(i int) error {
		n := in[i]
		k, err := key(i, n)
		if err != nil {
			return &RecordError{Side: side, Index: i, Err: err}
		}
		flat, err := s.flattener.FlattenRecord(n)
		if err != nil {
			return &RecordError{Side: side, Index: i, Err: err}
		}
		records[i] = &record{node: n, key: k, flat: flat}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// run calls fn for 0..n-1, concurrently when Parallelism allows it.
// The error returned is always the one of the lowest failing index.
func (s *SetComparer) run(n int, fn func(i int) error) error {
	if s.opts.Parallelism <= 1 || n <= 1 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	errs := make([]error, n)
	var g errgroup.Group
	g.SetLimit(s.opts.Parallelism)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			errs[i] = fn(i)
			return nil
		})
	}
	_ = g.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func nodes(records []*record) []Node {
	out := make([]Node, len(records))
	for i, r := range records {
		out[i] = r.node
	}
	return out
}

// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// WriteText writes a human-readable report: a verdict line, a summary table and one
// section per non-empty bucket, with a table of changed paths for each difference.
func WriteText(w io.Writer, doc *Document, colored bool) error {
	paint := func(attrs ...color.Attribute) func(a ...any) string {
		c := color.New(attrs...)
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	passColor := paint(color.FgGreen, color.Bold)
	failColor := paint(color.FgRed, color.Bold)
	headingColor := paint(color.FgHiBlue)
	keyColor := paint(color.FgYellow)

	tw := &textWriter{w: w}
	if doc.Passed {
		tw.printf("%s\n", passColor("PASSED"))
	} else {
		tw.printf("%s\n", failColor("FAILED"))
	}
	if tw.err != nil {
		return tw.err
	}

	table := tablewriter.NewWriter(w)
	table.Header("Bucket", "Keys")
	rows := [][]string{
		{"matching", strconv.Itoa(doc.Summary.Matching)},
		{"differences", strconv.Itoa(doc.Summary.Differences)},
		{"additional", strconv.Itoa(doc.Summary.Additional)},
		{"missing", strconv.Itoa(doc.Summary.Missing)},
		{"incomparable", strconv.Itoa(doc.Summary.Incomparable)},
	}
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	if len(doc.Additional) > 0 {
		tw.printf("\n%s\n", headingColor(fmt.Sprintf("Additional keys (%d)", len(doc.Additional))))
		for _, it := range doc.Additional {
			tw.printf("  - %s\n", keyColor(keyString(it.Key)))
		}
	}
	if len(doc.Missing) > 0 {
		tw.printf("\n%s\n", headingColor(fmt.Sprintf("Missing keys (%d)", len(doc.Missing))))
		for _, it := range doc.Missing {
			tw.printf("  - %s\n", keyColor(keyString(it.Key)))
		}
	}
	if len(doc.Incomparable) > 0 {
		tw.printf("\n%s\n", headingColor(fmt.Sprintf("Incomparable keys (%d)", len(doc.Incomparable))))
		for _, g := range doc.Incomparable {
			tw.printf("  - %s (%d expected, %d actual)\n", keyColor(keyString(g.Key)), g.ExpectedCount, g.ActualCount)
		}
	}
	if tw.err != nil {
		return tw.err
	}

	if len(doc.Differences) > 0 {
		tw.printf("\n%s\n", headingColor(fmt.Sprintf("Differences (%d)", len(doc.Differences))))
		for _, e := range doc.Differences {
			tw.printf("  - %s\n", keyColor(keyString(e.Key)))
			if tw.err != nil {
				return tw.err
			}

			changes := tablewriter.NewWriter(w)
			changes.Header("Path", "Expected", "Actual", "Delta")
			for _, c := range e.Changes {
				row := []string{c.Path, orAbsent(c.Expected), orAbsent(c.Actual), orEmpty(c.Delta)}
				if err := changes.Append(row); err != nil {
					return err
				}
			}
			if err := changes.Render(); err != nil {
				return err
			}
		}
	}
	return tw.err
}

// textWriter remembers the first write error.
type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func keyString(fields []KeyField) string {
	if len(fields) == 0 {
		return "{}"
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Name + "=" + f.Value
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func orAbsent(s *string) string {
	if s == nil {
		return "(absent)"
	}
	return *s
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// SPDX-License-Identifier: Apache-2.0

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format is an output format for a [Document].
type Format int

const (
	// FormatText is a human-readable summary (default).
	FormatText Format = iota
	// FormatJSON is indented JSON.
	FormatJSON
	// FormatYAML is YAML.
	FormatYAML
	// FormatXML is an XML comparison document.
	FormatXML
)

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatXML:
		return "xml"
	default:
		return fmt.Sprintf("Format(%d)", f)
	}
}

// ParseFormat parses a format name. The empty string is [FormatText].
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "xml":
		return FormatXML, nil
	}
	return FormatText, fmt.Errorf("output format %q is invalid", s)
}

// Write writes doc to w in format f. Color only applies to [FormatText].
func Write(w io.Writer, doc *Document, f Format, color bool) error {
	switch f {
	case FormatText:
		return WriteText(w, doc, color)
	case FormatJSON:
		return WriteJSON(w, doc)
	case FormatYAML:
		return WriteYAML(w, doc)
	case FormatXML:
		return WriteXML(w, doc)
	}
	return fmt.Errorf("unsupported output format: %s", f)
}

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteYAML writes doc as YAML.
func WriteYAML(w io.Writer, doc *Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

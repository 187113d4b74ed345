// SPDX-License-Identifier: Apache-2.0

package report

import (
	"encoding/xml"
	"io"
	"strconv"
	"unicode"

	"github.com/sam-fredrickson/keycompare"
	"github.com/sam-fredrickson/keycompare/xmlnode"
)

// WriteXML writes doc as an XML comparison document:
//
//	<comparison passed="false">
//	  <summary matching="1" differences="1" additionalKeys="0" missingKeys="0" incomparable="0"/>
//	  <differences>
//	    <difference>
//	      <key name="id" value="1M"/>
//	      <differences>
//	        <difference key="risks.value-GBP" expected="12.5" actual="13" dif="0.5"/>
//	      </differences>
//	      <expected>...</expected>
//	      <actual>...</actual>
//	    </difference>
//	  </differences>
//	</comparison>
//
// Records are only written when the document was built with [Options.IncludeRecords].
func WriteXML(w io.Writer, doc *Document) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	x := &xmlWriter{enc: xml.NewEncoder(w)}
	x.enc.Indent("", "\t")

	x.start("comparison", attr("passed", strconv.FormatBool(doc.Passed)))
	x.start("summary",
		attr("matching", strconv.Itoa(doc.Summary.Matching)),
		attr("differences", strconv.Itoa(doc.Summary.Differences)),
		attr("additionalKeys", strconv.Itoa(doc.Summary.Additional)),
		attr("missingKeys", strconv.Itoa(doc.Summary.Missing)),
		attr("incomparable", strconv.Itoa(doc.Summary.Incomparable)))
	x.end("summary")

	x.items("additional", doc.Additional)
	x.items("missing", doc.Missing)

	if len(doc.Incomparable) > 0 {
		x.start("incomparable")
		for _, g := range doc.Incomparable {
			x.start("entry",
				attr("expected", strconv.Itoa(g.ExpectedCount)),
				attr("actual", strconv.Itoa(g.ActualCount)))
			x.key(g.Key)
			x.records("expectedObjects", g.expected)
			x.records("actualObjects", g.actual)
			x.end("entry")
		}
		x.end("incomparable")
	}

	if len(doc.Differences) > 0 {
		x.start("differences")
		for _, e := range doc.Differences {
			x.start("difference")
			x.key(e.Key)
			x.start("differences")
			for _, c := range e.Changes {
				attrs := []xml.Attr{attr("key", c.Path)}
				if c.Expected != nil {
					attrs = append(attrs, attr("expected", *c.Expected))
				}
				if c.Actual != nil {
					attrs = append(attrs, attr("actual", *c.Actual))
				}
				if c.Delta != nil {
					attrs = append(attrs, attr("dif", *c.Delta))
				}
				x.start("difference", attrs...)
				x.end("difference")
			}
			x.end("differences")
			if e.expected != nil {
				x.start("expected")
				x.node(e.expected)
				x.end("expected")
			}
			if e.actual != nil {
				x.start("actual")
				x.node(e.actual)
				x.end("actual")
			}
			x.end("difference")
		}
		x.end("differences")
	}

	x.end("comparison")
	if x.err != nil {
		return x.err
	}
	if err := x.enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// xmlWriter wraps an encoder and remembers the first error.
type xmlWriter struct {
	enc *xml.Encoder
	err error
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

func (x *xmlWriter) token(t xml.Token) {
	if x.err == nil {
		x.err = x.enc.EncodeToken(t)
	}
}

func (x *xmlWriter) start(name string, attrs ...xml.Attr) {
	x.token(xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs})
}

func (x *xmlWriter) end(name string) {
	x.token(xml.EndElement{Name: xml.Name{Local: name}})
}

func (x *xmlWriter) key(fields []KeyField) {
	for _, f := range fields {
		x.start("key", attr("name", f.Name), attr("value", f.Value))
		x.end("key")
	}
}

func (x *xmlWriter) items(section string, items []Item) {
	if len(items) == 0 {
		return
	}
	x.start(section)
	for _, it := range items {
		x.start("entry")
		x.key(it.Key)
		if it.node != nil {
			x.node(it.node)
		}
		x.end("entry")
	}
	x.end(section)
}

func (x *xmlWriter) records(section string, nodes []keycompare.Node) {
	if len(nodes) == 0 {
		return
	}
	x.start(section)
	for _, n := range nodes {
		x.node(n)
	}
	x.end(section)
}

// node writes a record back out as XML. Attribute children become attributes and
// text children become character data; names that are not valid XML names are
// written as <field name="..."> elements.
func (x *xmlWriter) node(n keycompare.Node) {
	if n.Tag() == xmlnode.TagDocument {
		for _, ch := range n.Children() {
			x.node(ch)
		}
		return
	}

	name, attrs := elementName(n.Name())
	if n.Kind() == keycompare.KindScalar {
		x.start(name, attrs...)
		if s := n.Value().Text(); !n.Value().IsAbsent() && n.Value().Type() != keycompare.TypeNull {
			x.token(xml.CharData(s))
		}
		x.end(name)
		return
	}

	var elements []keycompare.Node
	for _, ch := range n.Children() {
		if ch.Tag() == keycompare.TagAttribute && ch.Kind() == keycompare.KindScalar && isXMLName(ch.Name()) {
			attrs = append(attrs, attr(ch.Name(), ch.Value().Text()))
			continue
		}
		elements = append(elements, ch)
	}
	x.start(name, attrs...)
	for _, ch := range elements {
		if ch.Tag() == xmlnode.TagText {
			x.token(xml.CharData(ch.Value().Text()))
			continue
		}
		x.node(ch)
	}
	x.end(name)
}

func elementName(name string) (string, []xml.Attr) {
	switch {
	case name == "":
		return "item", nil
	case isXMLName(name):
		return name, nil
	default:
		return "field", []xml.Attr{attr("name", name)}
	}
}

func isXMLName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (r == '-' || r == '.' || unicode.IsDigit(r)):
		default:
			return false
		}
	}
	return true
}

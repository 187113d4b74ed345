// SPDX-License-Identifier: Apache-2.0

package xmlnode_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sam-fredrickson/keycompare"
	"github.com/sam-fredrickson/keycompare/xmlnode"
)

func TestParse_Structure(t *testing.T) {
	doc := `<?xml version="1.0"?>
<requests xmlns="urn:pricing" xmlns:p="urn:p">
  <request p:key="R1" desk="fx">
    <trade>
      <book>FX</book>
      <empty/>
    </trade>
    priced
  </request>
</requests>`

	root, err := xmlnode.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, xmlnode.TagDocument, root.Tag())
	require.Len(t, root.Children(), 1)

	requests := root.Children()[0]
	assert.Equal(t, "requests", requests.Name())
	assert.Equal(t, keycompare.KindContainer, requests.Kind())
	// namespace declarations are not attributes
	require.Len(t, requests.Children(), 1)

	request := requests.Children()[0]
	var names, tags []string
	for _, ch := range request.Children() {
		names = append(names, ch.Name())
		tags = append(tags, ch.Tag())
	}
	assert.Equal(t, []string{"key", "desk", "trade", xmlnode.TextName}, names)
	assert.Equal(t, []string{keycompare.TagAttribute, keycompare.TagAttribute, xmlnode.TagElement, xmlnode.TagText}, tags)

	key, ok := keycompare.Attr(request, "key")
	require.True(t, ok)
	assert.Equal(t, "R1", key)
	text, _ := keycompare.Attr(request, xmlnode.TextName)
	assert.Equal(t, "priced", text)

	book, ok := keycompare.Child(request.Children()[2], "book")
	require.True(t, ok)
	assert.Equal(t, keycompare.KindScalar, book.Kind())
	assert.True(t, book.Value().Equal(keycompare.String("FX")))

	empty, ok := keycompare.Child(request.Children()[2], "empty")
	require.True(t, ok)
	assert.True(t, empty.Value().Equal(keycompare.String("")))
}

func TestParse_Select(t *testing.T) {
	root, err := xmlnode.ParseBytes([]byte(`<r><item id="1"/><other/><item id="2"/></r>`))
	require.NoError(t, err)

	items := keycompare.Select(root, "r/item")
	require.Len(t, items, 2)
	id, _ := keycompare.Attr(items[1], "id")
	assert.Equal(t, "2", id)
	assert.Len(t, keycompare.Select(root, "*/*"), 3)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", ``, "no root element"},
		{"whitespace only", "  \n", "no root element"},
		{"unclosed", `<a><b></a>`, ""},
		{"multiple roots", `<a/><b/>`, "multiple root elements"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := xmlnode.ParseBytes([]byte(tt.doc))
			require.ErrorIs(t, err, keycompare.ErrParse)
			if tt.want != "" {
				assert.Contains(t, err.Error(), tt.want)
			}
		})
	}
}

func TestParse_Flatten(t *testing.T) {
	root, err := xmlnode.ParseBytes([]byte(`<request key="R1"><leg ccy="EUR">100</leg><leg ccy="USD">-110</leg></request>`))
	require.NoError(t, err)

	f, err := keycompare.NewFlattener(keycompare.FlattenOptions{}, keycompare.StructurePlugin{
		DuplicateNames: keycompare.DuplicateNamesAttribute,
		Disambiguator:  "ccy",
		ParseNumbers:   true,
	})
	require.NoError(t, err)
	flat, err := f.FlattenRecord(root.Children()[0])
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"key", "leg[EUR].ccy", "leg[EUR].#text", "leg[USD].ccy", "leg[USD].#text"}, flat.Keys())
	assert.True(t, flat["leg[USD].#text"].Equal(keycompare.Int(-110)))
}

// SPDX-License-Identifier: Apache-2.0

package jsonnode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sam-fredrickson/keycompare"
	"github.com/sam-fredrickson/keycompare/jsonnode"
)

func TestParse_Tree(t *testing.T) {
	root, err := jsonnode.ParseString(`{"z": [1, "a"], "a": {"ok": true, "none": null}, "a": 2}`)
	require.NoError(t, err)
	assert.Equal(t, jsonnode.TagObject, root.Tag())
	assert.Equal(t, "", root.Name())

	var names []string
	for _, ch := range root.Children() {
		names = append(names, ch.Name())
	}
	// document order, repeated names kept
	assert.Equal(t, []string{"z", "a", "a"}, names)

	list := root.Children()[0]
	assert.Equal(t, jsonnode.TagArray, list.Tag())
	require.Len(t, list.Children(), 2)
	assert.Equal(t, "", list.Children()[0].Name())
	assert.Equal(t, jsonnode.TagString, list.Children()[1].Tag())

	obj := root.Children()[1]
	ok, found := keycompare.Child(obj, "ok")
	require.True(t, found)
	assert.Equal(t, jsonnode.TagBool, ok.Tag())
	assert.True(t, ok.Value().Equal(keycompare.Bool(true)))
	none, _ := keycompare.Child(obj, "none")
	assert.Equal(t, jsonnode.TagNull, none.Tag())
	assert.True(t, none.Value().Equal(keycompare.Null()))

	assert.Nil(t, ok.Children())
}

func TestParse_Numbers(t *testing.T) {
	tests := []struct {
		raw  string
		want keycompare.Type
		text string
	}{
		{`12`, keycompare.TypeInt, "12"},
		{`-7`, keycompare.TypeInt, "-7"},
		{`1.50`, keycompare.TypeDecimal, "1.5"},
		{`0.1`, keycompare.TypeDecimal, "0.1"},
		{`1e3`, keycompare.TypeDecimal, "1000"},
		{`123456789012345678901234567890`, keycompare.TypeDecimal, "123456789012345678901234567890"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			n, err := jsonnode.ParseString(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, jsonnode.TagNumber, n.Tag())
			assert.Equal(t, keycompare.KindScalar, n.Kind())
			assert.Equal(t, tt.want, n.Value().Type())
			assert.Equal(t, tt.text, n.Value().String())
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, doc := range []string{``, `{`, `[1,]`, `{"a" 1}`, `nope`} {
		_, err := jsonnode.Parse([]byte(doc))
		assert.ErrorIs(t, err, keycompare.ErrParse, "document %q", doc)
		_, err = jsonnode.ParseString(doc)
		assert.ErrorIs(t, err, keycompare.ErrParse, "document %q", doc)
	}
}

func TestParse_SelectAndFlatten(t *testing.T) {
	root, err := jsonnode.ParseString(`{"trades": [{"id": "T1", "pv": 10.50, "legs": [{"ccy": "EUR"}]}]}`)
	require.NoError(t, err)

	records := keycompare.Select(root, "trades/*")
	require.Len(t, records, 1)

	f, err := keycompare.NewFlattener(keycompare.FlattenOptions{}, keycompare.StructurePlugin{})
	require.NoError(t, err)
	flat, err := f.FlattenRecord(records[0])
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "legs.0.ccy", "pv"}, flat.Keys())
	assert.True(t, flat["pv"].Equal(keycompare.ParseScalar("10.5")))
}

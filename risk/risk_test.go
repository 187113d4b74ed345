// SPDX-License-Identifier: Apache-2.0

package risk_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sam-fredrickson/keycompare"
	"github.com/sam-fredrickson/keycompare/risk"
	"github.com/sam-fredrickson/keycompare/xmlnode"
)

func flatten(t *testing.T, doc string, p keycompare.FlattenPlugin) (keycompare.Flat, error) {
	t.Helper()
	root, err := xmlnode.ParseBytes([]byte(doc))
	require.NoError(t, err)
	f, err := keycompare.NewFlattener(keycompare.FlattenOptions{}, p, keycompare.StructurePlugin{})
	require.NoError(t, err)
	return f.FlattenRecord(keycompare.Select(root, "request")[0])
}

func number(t *testing.T, text string) keycompare.Value {
	t.Helper()
	v, err := keycompare.ParseNumber(text)
	require.NoError(t, err)
	return v
}

func TestPlugin_Atoms(t *testing.T) {
	doc := `<request key="R1">
  <risks>
    <value ccy="GBP" value="12.50"/>
    <FXVega ccyPair="EURGBP" expiry="1M" ccy="GBP" value="0.03"/>
    <fxvega ccyPair="EURGBP" ccy="EUR" value="n/a"/>
    <fxdelta ccy="USD"/>
  </risks>
</request>`

	flat, err := flatten(t, doc, risk.Plugin{})
	require.NoError(t, err)

	want := map[string]keycompare.Value{
		"key":                             keycompare.String("R1"),
		"risks.value-GBP":                 number(t, "12.5"),
		"risks.fxvega-EURGBP-1M-GBP":      number(t, "0.03"),
		"risks.fxvega-EURGBP-missing-EUR": keycompare.String("n/a"),
		"risks.fxdelta-USD":               keycompare.String(risk.Unknown),
	}
	require.Len(t, flat, len(want))
	for k, v := range want {
		got, ok := flat[k]
		require.True(t, ok, "missing key %s in %v", k, flat)
		assert.True(t, got.Equal(v), "%s = %#v, want %#v", k, got, v)
	}
}

func TestPlugin_ReorderedAtomsMatch(t *testing.T) {
	p, err := risk.NewPlugin(risk.DefaultKinds)
	require.NoError(t, err)

	a, err := flatten(t, `<request><risks><value ccy="GBP" value="1"/><value ccy="EUR" value="2"/></risks></request>`, p)
	require.NoError(t, err)
	b, err := flatten(t, `<request><risks><value ccy="EUR" value="2.0"/><value ccy="GBP" value="1"/></risks></request>`, p)
	require.NoError(t, err)

	out, err := keycompare.DefaultComparer().Diff(a, b, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, out.Differences)
}

func TestPlugin_UnknownKind(t *testing.T) {
	_, err := flatten(t, `<request><risks><gamma ccy="GBP" value="1"/></risks></request>`, risk.Plugin{})

	var kindErr *risk.UnknownKindError
	require.True(t, errors.As(err, &kindErr), "got %v", err)
	assert.Equal(t, "gamma", kindErr.Kind)
	assert.Equal(t, "risks", kindErr.Prefix)
	assert.ErrorIs(t, err, keycompare.ErrMalformedInput)
}

func TestPlugin_CustomKinds(t *testing.T) {
	p, err := risk.NewPlugin(map[string][]string{"Gamma": {"ccy", "tenor"}})
	require.NoError(t, err)

	flat, err := flatten(t, `<request><risks><gamma ccy="GBP" tenor="2Y" value="7"/></risks></request>`, p)
	require.NoError(t, err)
	assert.True(t, flat["risks.gamma-GBP-2Y"].Equal(keycompare.Int(7)))

	_, err = flatten(t, `<request><risks><value ccy="GBP" value="1"/></risks></request>`, p)
	assert.ErrorIs(t, err, keycompare.ErrMalformedInput)
}

func TestPlugin_OnlyClaimsRisks(t *testing.T) {
	flat, err := flatten(t, `<request><trade><gamma>1</gamma></trade></request>`, risk.Plugin{})
	require.NoError(t, err)
	assert.True(t, flat["trade.gamma"].Equal(keycompare.String("1")))

	_, err = flatten(t, `<request><trade><risks>scalar</risks></trade></request>`, risk.Plugin{})
	var malformed *keycompare.MalformedInputError
	require.True(t, errors.As(err, &malformed), "got %v", err)
	assert.Equal(t, "trade.risks", malformed.Prefix)
	assert.ErrorIs(t, err, keycompare.ErrMalformedInput)
}

func TestPlugin_EmptyRisks(t *testing.T) {
	for _, doc := range []string{
		`<request key="R1"><risks/></request>`,
		`<request key="R1"><risks>  </risks></request>`,
	} {
		flat, err := flatten(t, doc, risk.Plugin{})
		require.NoError(t, err, doc)
		assert.Equal(t, []string{"key"}, flat.Keys(), doc)
	}

	// a request priced without risks only differs by the missing measures
	expected, err := flatten(t, `<request key="R1"><risks><value ccy="GBP" value="1"/></risks></request>`, risk.Plugin{})
	require.NoError(t, err)
	actual, err := flatten(t, `<request key="R1"><risks/></request>`, risk.Plugin{})
	require.NoError(t, err)

	out, err := keycompare.DefaultComparer().Diff(expected, actual, nil, nil)
	require.NoError(t, err)
	require.Len(t, out.Differences, 1)
	assert.Equal(t, "risks.value-GBP", out.Differences[0].Path)
	assert.True(t, out.Differences[0].Actual.IsAbsent())
}

func TestNewPlugin_Invalid(t *testing.T) {
	_, err := risk.NewPlugin(map[string][]string{" ": {"ccy"}})
	assert.ErrorIs(t, err, keycompare.ErrInvalidOptions)

	_, err = risk.NewPlugin(map[string][]string{"value": {""}})
	assert.ErrorIs(t, err, keycompare.ErrInvalidOptions)
}

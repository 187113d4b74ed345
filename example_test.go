// SPDX-License-Identifier: Apache-2.0

package keycompare_test

import (
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/sam-fredrickson/keycompare"
)

// Example comparing two collections of trades with a composite business key.
func ExampleTypedComparer() {
	type Trade struct {
		Book string          `json:"book" compare:"key"`
		ID   string          `json:"id" compare:"key"`
		PV   decimal.Decimal `json:"pv"`
	}

	flattener, err := keycompare.NewFlattener(keycompare.FlattenOptions{}, keycompare.StructurePlugin{})
	if err != nil {
		log.Fatal(err)
	}
	setComparer, err := keycompare.NewSetComparer(flattener, keycompare.DefaultComparer(), keycompare.SetOptions{})
	if err != nil {
		log.Fatal(err)
	}
	comparer, err := keycompare.NewTypedComparer[Trade](setComparer)
	if err != nil {
		log.Fatal(err)
	}

	expected := []Trade{
		{Book: "FX", ID: "T1", PV: decimal.RequireFromString("1250.25")},
		{Book: "FX", ID: "T2", PV: decimal.RequireFromString("99.50")},
		{Book: "IR", ID: "T1", PV: decimal.RequireFromString("10")},
	}
	actual := []Trade{
		{Book: "IR", ID: "T1", PV: decimal.RequireFromString("10.00")},
		{Book: "FX", ID: "T1", PV: decimal.RequireFromString("1251")},
		{Book: "FX", ID: "T3", PV: decimal.RequireFromString("5")},
	}

	result, err := comparer.Compare(expected, actual)
	if err != nil {
		log.Fatal(err)
	}

	for _, m := range result.Differences {
		for _, d := range m.Differences {
			fmt.Printf("%s %s: %s -> %s (%s)\n", m.Key, d.Path, d.Expected, d.Actual, d.Payload)
		}
	}
	for _, k := range result.Missing {
		fmt.Println("missing", k.Key)
	}
	for _, k := range result.Additional {
		fmt.Println("additional", k.Key)
	}
	fmt.Printf("%+v\n", result.Summary())

	// Output:
	// {book=FX, id=T1} pv: 1250.25 -> 1251 (0.75)
	// missing {book=FX, id=T2}
	// additional {book=FX, id=T3}
	// {Matching:1 Differences:1 Additional:1 Missing:1 Incomparable:0}
}

// Example of records sharing a business key: they are never diffed.
func ExampleSetComparer_Compare() {
	parse := func(pairs ...any) keycompare.Node {
		m := make(map[string]any)
		for i := 0; i < len(pairs); i += 2 {
			m[pairs[i].(string)] = pairs[i+1]
		}
		n, err := keycompare.FromValue("", m)
		if err != nil {
			log.Fatal(err)
		}
		return n
	}

	flattener, err := keycompare.NewFlattener(keycompare.FlattenOptions{}, keycompare.StructurePlugin{})
	if err != nil {
		log.Fatal(err)
	}
	setComparer, err := keycompare.NewSetComparer(flattener, keycompare.DefaultComparer(), keycompare.SetOptions{})
	if err != nil {
		log.Fatal(err)
	}

	expected := []keycompare.Node{parse("key", "a", "v", 1), parse("key", "a", "v", 2)}
	actual := []keycompare.Node{parse("key", "a", "v", 1)}

	result, err := setComparer.Compare(keycompare.KeyByFields("key"), expected, actual)
	if err != nil {
		log.Fatal(err)
	}
	for _, inc := range result.Incomparable {
		fmt.Printf("%s: %d expected, %d actual\n", inc.Key, len(inc.Expected), len(inc.Actual))
	}
	fmt.Println("passed:", result.Passed())

	// Output:
	// {key=a}: 2 expected, 1 actual
	// passed: false
}

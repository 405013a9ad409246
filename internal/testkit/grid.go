// Package testkit provides deterministic synthetic fixtures for suite
// tests, mirroring the structure of the real systematic grid at a size
// small enough to reason about by hand.
package testkit

import (
	"concord/domain/anchors"
)

// canonical per-group scatter pattern, mean zero. Paired variants give the
// "PW" and "PL" relation sub-variants distinct demeaned means (+8/15 and
// -8/15), so the half-span relation correction is exercised.
var canonicalOffsets = []struct {
	offset  float64
	variant string
}{
	{+2.4, "PW"},
	{-0.8, "PL"},
	{+0.8, "PL"},
	{-2.4, "PW"},
	{+1.6, "PW"},
	{-1.6, "PL"},
}

var canonicalGroupMeans = map[anchors.Group]float64{
	anchors.GroupMW:    75.5,
	anchors.GroupLMC:   72.7,
	anchors.GroupN4258: 72.3,
}

// CanonicalTable builds the reference synthetic grid: 18 rows, six per
// anchor group, with the dominant MW group offset high the way the real
// dataset is. Identical on every call.
func CanonicalTable() anchors.Table {
	var rows []anchors.Row
	for _, g := range anchors.RequiredGroups() {
		mean := canonicalGroupMeans[g]
		for _, o := range canonicalOffsets {
			rows = append(rows, anchors.Row{
				Group:   g,
				Variant: o.variant,
				Value:   mean + o.offset,
			})
		}
	}
	return anchors.Table{Rows: rows}
}

// CanonicalTableNoVariants is CanonicalTable with variant labels stripped,
// for exercising the quantile-span fallback.
func CanonicalTableNoVariants() anchors.Table {
	t := CanonicalTable()
	for i := range t.Rows {
		t.Rows[i].Variant = ""
	}
	return t
}

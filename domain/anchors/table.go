package anchors

import (
	"fmt"
	"math/rand"

	"concord/internal/errors"
)

// Group labels one of the three calibration anchor subgroups. MW is the
// distinguished dominant anchor; LMC and N4258 are the external anchors.
type Group string

const (
	GroupMW    Group = "MW"
	GroupLMC   Group = "LMC"
	GroupN4258 Group = "N4258"
)

// RequiredGroups lists every group a baseline table must carry
func RequiredGroups() []Group {
	return []Group{GroupMW, GroupLMC, GroupN4258}
}

// ParseGroup maps a raw label from an input file onto a known group
func ParseGroup(label string) (Group, error) {
	switch Group(label) {
	case GroupMW, GroupLMC, GroupN4258:
		return Group(label), nil
	}
	return "", errors.DataIntegrityf("unknown anchor group label %q", label)
}

// Row is one systematic-variant configuration: its anchor group, an
// optional relation-variant label, and the measured value.
type Row struct {
	Group   Group   `json:"group"`
	Variant string  `json:"variant,omitempty"`
	Value   float64 `json:"value"`
}

// Table is the raw per-configuration systematic grid. Loaded once and
// treated as read-only; scenario filtering and resampling return copies.
type Table struct {
	Rows []Row
}

// Len returns the row count
func (t Table) Len() int { return len(t.Rows) }

// Validate checks the integrity invariants for a baseline table: every
// required group present with at least two rows, so a dispersion estimate
// is meaningful.
func (t Table) Validate() error {
	return t.validateGroups(RequiredGroups())
}

func (t Table) validateGroups(groups []Group) error {
	counts := make(map[Group]int, len(groups))
	for _, row := range t.Rows {
		counts[row.Group]++
	}
	for _, g := range groups {
		if counts[g] < 2 {
			return errors.DataIntegrityf("anchor group %s has %d rows, need at least 2", g, counts[g])
		}
	}
	return nil
}

// WithoutGroup returns a copy of the table with every row of g removed
func (t Table) WithoutGroup(g Group) Table {
	kept := make([]Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		if row.Group != g {
			kept = append(kept, row)
		}
	}
	return Table{Rows: kept}
}

// GroupValues returns the values belonging to one group, in table order
func (t Table) GroupValues(g Group) []float64 {
	var vals []float64
	for _, row := range t.Rows {
		if row.Group == g {
			vals = append(vals, row.Value)
		}
	}
	return vals
}

// Values returns every value in table order
func (t Table) Values() []float64 {
	vals := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		vals[i] = row.Value
	}
	return vals
}

// Resample draws len(rows) rows with replacement from the full row list.
// Plain per-row resampling: group membership proportions are preserved
// only implicitly, not stratified.
func (t Table) Resample(r *rand.Rand) Table {
	n := len(t.Rows)
	rows := make([]Row, n)
	for i := 0; i < n; i++ {
		rows[i] = t.Rows[r.Intn(n)]
	}
	return Table{Rows: rows}
}

// Exclusion is the closed set of leave-one-group-out scenarios. The switch
// in EstimateCorrections handles every case exhaustively.
type Exclusion int

const (
	ExcludeNone Exclusion = iota
	ExcludeMW
	ExcludeLMC
	ExcludeN4258
)

// AllExclusions returns the four scenarios in canonical order
func AllExclusions() []Exclusion {
	return []Exclusion{ExcludeNone, ExcludeMW, ExcludeLMC, ExcludeN4258}
}

// Excluded reports which group the scenario removes, if any
func (e Exclusion) Excluded() (Group, bool) {
	switch e {
	case ExcludeMW:
		return GroupMW, true
	case ExcludeLMC:
		return GroupLMC, true
	case ExcludeN4258:
		return GroupN4258, true
	}
	return "", false
}

// Kept returns the groups that remain in the scenario
func (e Exclusion) Kept() []Group {
	excluded, ok := e.Excluded()
	if !ok {
		return RequiredGroups()
	}
	kept := make([]Group, 0, 2)
	for _, g := range RequiredGroups() {
		if g != excluded {
			kept = append(kept, g)
		}
	}
	return kept
}

// Label returns the scenario name used in reports
func (e Exclusion) Label() string {
	switch e {
	case ExcludeNone:
		return "baseline"
	case ExcludeMW:
		return "drop_MW"
	case ExcludeLMC:
		return "drop_LMC"
	case ExcludeN4258:
		return "drop_N4258"
	}
	return fmt.Sprintf("exclusion(%d)", int(e))
}

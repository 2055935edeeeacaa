// internal/core/aggregate/aggregate.go
package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Totals accumulates named decimal sums plus a row count. Sums stay at full
// precision; rounding belongs to the presentation layer.
type Totals struct {
	Count int
	cols  []string
	sums  map[string]decimal.Decimal
}

func NewTotals(cols ...string) *Totals {
	t := &Totals{cols: cols, sums: make(map[string]decimal.Decimal, len(cols))}
	for _, c := range cols {
		t.sums[c] = decimal.Zero
	}
	return t
}

// Observe adds one record's values and bumps the count. Columns not
// declared at construction are ignored.
func (t *Totals) Observe(vals map[string]decimal.Decimal) {
	t.Count++
	for _, c := range t.cols {
		if v, ok := vals[c]; ok {
			t.sums[c] = t.sums[c].Add(v)
		}
	}
}

// MergeFrom adds another Totals column-wise.
func (t *Totals) MergeFrom(o *Totals) {
	t.Count += o.Count
	for _, c := range t.cols {
		t.sums[c] = t.sums[c].Add(o.Get(c))
	}
}

func (t *Totals) Get(col string) decimal.Decimal {
	if v, ok := t.sums[col]; ok {
		return v
	}
	return decimal.Zero
}

func (t *Totals) Columns() []string { return append([]string(nil), t.cols...) }

// SubGroup is one bucket or risk tier inside an officer group.
type SubGroup struct {
	Name   string
	Totals *Totals
}

// Group is one officer's rollup, optionally broken down into sub-groups.
type Group struct {
	Name   string
	Totals *Totals
	Subs   []SubGroup
}

// Sub returns the named sub-group's totals, or empty totals when the
// officer has nothing in that bucket.
func (g Group) Sub(name string) *Totals {
	for _, s := range g.Subs {
		if s.Name == name {
			return s.Totals
		}
	}
	return NewTotals(g.Totals.Columns()...)
}

// Grouper groups records by officer and an optional sub-key. Presentation
// order is officer ascending, sub-keys in the caller's canonical severity
// order. Officers registered via EnsureGroup appear with all-zero rows even
// when no record touched them.
type Grouper struct {
	cols   []string
	groups map[string]*Group
	subs   map[string]map[string]*Totals
}

func NewGrouper(cols ...string) *Grouper {
	return &Grouper{
		cols:   cols,
		groups: make(map[string]*Group),
		subs:   make(map[string]map[string]*Totals),
	}
}

// EnsureGroup registers an officer so the rollup carries a zero row for
// them. No officer silently disappears because they collected nothing.
func (g *Grouper) EnsureGroup(name string) {
	if _, ok := g.groups[name]; !ok {
		g.groups[name] = &Group{Name: name, Totals: NewTotals(g.cols...)}
		g.subs[name] = make(map[string]*Totals)
	}
}

// Observe folds one record into its officer group and, when sub is
// non-empty, into the (officer, sub) breakdown.
func (g *Grouper) Observe(group, sub string, vals map[string]decimal.Decimal) {
	g.EnsureGroup(group)
	g.groups[group].Totals.Observe(vals)
	if sub == "" {
		return
	}
	st, ok := g.subs[group][sub]
	if !ok {
		st = NewTotals(g.cols...)
		g.subs[group][sub] = st
	}
	st.Observe(vals)
}

// Groups returns the officer rollups sorted by name, each with its
// sub-groups arranged in subOrder. Sub-keys outside subOrder are dropped
// from the breakdown (their values still count toward the group totals).
func (g *Grouper) Groups(subOrder []string) []Group {
	names := make([]string, 0, len(g.groups))
	for name := range g.groups {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Group, 0, len(names))
	for _, name := range names {
		grp := Group{Name: name, Totals: g.groups[name].Totals}
		for _, sub := range subOrder {
			if st, ok := g.subs[name][sub]; ok {
				grp.Subs = append(grp.Subs, SubGroup{Name: sub, Totals: st})
			}
		}
		out = append(out, grp)
	}
	return out
}

// Grand computes the grand-total row as the column-wise sum over the group
// rows, so detail and total reconcile exactly by construction.
func (g *Grouper) Grand() *Totals {
	grand := NewTotals(g.cols...)
	for _, grp := range g.groups {
		grand.MergeFrom(grp.Totals)
	}
	return grand
}

// Ratio divides numerator by denominator, yielding zero instead of an
// error or NaN when the denominator is zero. Grand-total ratios must be
// recomputed from grand sums, never averaged from per-group ratios.
func Ratio(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den)
}

// Percent is Ratio scaled to a percentage.
func Percent(num, den decimal.Decimal) decimal.Decimal {
	return Ratio(num, den).Mul(decimal.NewFromInt(100))
}

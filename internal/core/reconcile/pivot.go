// internal/core/reconcile/pivot.go
package reconcile

import (
	"sort"

	"github.com/DennisMbugua/collectflow/internal/core/aggregate"
	"github.com/DennisMbugua/collectflow/internal/core/bucket"
	"github.com/DennisMbugua/collectflow/internal/core/ingest"
	"github.com/DennisMbugua/collectflow/internal/domain"
	"github.com/schollz/closestmatch"
	"github.com/shopspring/decimal"
)

const colCollected = "Collected"

// PivotRow is one officer's collections split by aging bucket, with the
// optional target columns when targets were supplied.
type PivotRow struct {
	Officer        string
	Buckets        map[string]decimal.Decimal
	GrandTotal     decimal.Decimal
	Target         decimal.Decimal
	Remaining      decimal.Decimal
	AchievementPct decimal.Decimal
}

// Pivot is the officer × bucket summary table plus its GRAND TOTAL row.
// Row order is grand total descending, ties broken by officer name, which
// is how the summary sheet ranks performers.
type Pivot struct {
	Buckets    []string
	Rows       []PivotRow
	Grand      PivotRow
	HasTargets bool
}

// BuildPivot aggregates collected records per officer per bucket. Every
// officer from the master list appears, zero-valued if they collected
// nothing. The grand row is the column-wise sum of the officer rows; its
// achievement is recomputed from the grand sums, not averaged.
func BuildPivot(collected []domain.ReconciliationRecord, officers []string, targets map[string]decimal.Decimal, policy bucket.Aging) Pivot {
	g := aggregate.NewGrouper(colCollected)
	for _, o := range officers {
		g.EnsureGroup(o)
	}
	for _, rec := range collected {
		g.Observe(rec.Officer, rec.Bucket, map[string]decimal.Decimal{colCollected: rec.Collected})
	}

	labels := policy.Labels()
	p := Pivot{Buckets: labels, HasTargets: len(targets) > 0}

	for _, grp := range g.Groups(labels) {
		row := PivotRow{Officer: grp.Name, Buckets: make(map[string]decimal.Decimal, len(labels))}
		for _, label := range labels {
			v := grp.Sub(label).Get(colCollected)
			row.Buckets[label] = v
			row.GrandTotal = row.GrandTotal.Add(v)
		}
		if p.HasTargets {
			row.Target = targets[grp.Name]
			row.Remaining = row.Target.Sub(row.GrandTotal)
			row.AchievementPct = aggregate.Percent(row.GrandTotal, row.Target)
		}
		p.Rows = append(p.Rows, row)
	}

	sort.SliceStable(p.Rows, func(i, j int) bool {
		if c := p.Rows[i].GrandTotal.Cmp(p.Rows[j].GrandTotal); c != 0 {
			return c > 0
		}
		return p.Rows[i].Officer < p.Rows[j].Officer
	})

	grand := PivotRow{Officer: "GRAND TOTAL", Buckets: make(map[string]decimal.Decimal, len(labels))}
	for _, label := range labels {
		grand.Buckets[label] = decimal.Zero
	}
	for _, row := range p.Rows {
		for _, label := range labels {
			grand.Buckets[label] = grand.Buckets[label].Add(row.Buckets[label])
		}
		grand.GrandTotal = grand.GrandTotal.Add(row.GrandTotal)
		grand.Target = grand.Target.Add(row.Target)
	}
	if p.HasTargets {
		grand.Remaining = grand.Target.Sub(grand.GrandTotal)
		grand.AchievementPct = aggregate.Percent(grand.GrandTotal, grand.Target)
	}
	p.Grand = grand
	return p
}

// ParseTargets turns the externally supplied officer → target mapping into
// decimals. Numeric strings may carry thousands separators; unparseable
// entries become 0, never an error. Keys that match no officer exactly are
// fuzzy-matched against the normalized officer names so hand-typed target
// sheets still land on the right person.
func ParseTargets(raw map[string]string, officers []string) map[string]decimal.Decimal {
	if len(raw) == 0 {
		return nil
	}
	known := make(map[string]bool, len(officers))
	for _, o := range officers {
		known[o] = true
	}

	var cm *closestmatch.ClosestMatch
	if len(officers) > 0 {
		cm = closestmatch.New(officers, []int{2, 3, 4})
	}

	targets := make(map[string]decimal.Decimal, len(raw))
	for officer, amount := range raw {
		v, ok := ingest.ParseAmount(amount)
		if !ok {
			v = decimal.Zero
		}
		name := officer
		if !known[name] && cm != nil {
			if match := cm.Closest(name); match != "" {
				name = match
			}
		}
		targets[name] = targets[name].Add(v.Round(2))
	}
	return targets
}

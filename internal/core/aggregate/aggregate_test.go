package aggregate

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestGrouperGrandEqualsGroupSums(t *testing.T) {
	g := NewGrouper("Collected")
	g.Observe("Alice", "1-15", map[string]decimal.Decimal{"Collected": dec("100.10")})
	g.Observe("Alice", "16-30", map[string]decimal.Decimal{"Collected": dec("50")})
	g.Observe("Bob", "1-15", map[string]decimal.Decimal{"Collected": dec("200.90")})

	var sum decimal.Decimal
	for _, grp := range g.Groups([]string{"1-15", "16-30"}) {
		sum = sum.Add(grp.Totals.Get("Collected"))
	}
	if grand := g.Grand().Get("Collected"); !grand.Equal(sum) {
		t.Errorf("grand %s != sum of groups %s", grand, sum)
	}
	if !g.Grand().Get("Collected").Equal(dec("351")) {
		t.Errorf("grand = %s, want 351", g.Grand().Get("Collected"))
	}
}

func TestGrouperZeroRowOfficer(t *testing.T) {
	g := NewGrouper("Collected")
	g.EnsureGroup("Idle Officer")
	g.Observe("Busy Officer", "", map[string]decimal.Decimal{"Collected": dec("10")})

	groups := g.Groups(nil)
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
	// Sorted by name: Busy before Idle.
	if groups[1].Name != "Idle Officer" || !groups[1].Totals.Get("Collected").IsZero() {
		t.Errorf("idle officer should appear with zero totals, got %+v", groups[1])
	}
	if groups[1].Totals.Count != 0 {
		t.Errorf("idle officer count = %d", groups[1].Totals.Count)
	}
}

func TestGrouperSubOrder(t *testing.T) {
	g := NewGrouper("V")
	g.Observe("A", "late", map[string]decimal.Decimal{"V": dec("1")})
	g.Observe("A", "early", map[string]decimal.Decimal{"V": dec("2")})
	g.Observe("A", "ignored", map[string]decimal.Decimal{"V": dec("4")})

	grp := g.Groups([]string{"early", "late"})[0]
	if len(grp.Subs) != 2 || grp.Subs[0].Name != "early" || grp.Subs[1].Name != "late" {
		t.Fatalf("subs = %+v", grp.Subs)
	}
	// Values outside subOrder still count toward the group total.
	if !grp.Totals.Get("V").Equal(dec("7")) {
		t.Errorf("group total = %s, want 7", grp.Totals.Get("V"))
	}
	if !grp.Sub("missing").Get("V").IsZero() {
		t.Error("absent sub-group should read as zero")
	}
}

func TestRatio(t *testing.T) {
	if !Ratio(dec("1"), decimal.Zero).IsZero() {
		t.Error("division by zero must yield zero")
	}
	if got := Ratio(dec("1"), dec("4")); !got.Equal(dec("0.25")) {
		t.Errorf("Ratio = %s", got)
	}
	if got := Percent(dec("1"), dec("4")); !got.Equal(dec("25")) {
		t.Errorf("Percent = %s", got)
	}
}

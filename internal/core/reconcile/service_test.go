package reconcile

import (
	"errors"
	"strings"
	"testing"

	"github.com/DennisMbugua/collectflow/internal/domain"
	"github.com/shopspring/decimal"
)

const sodCSV = `LoanId,SalesRep,ArrearsAmount,DaysInArrears
L001,john doe,1000,10
L002,mary,500,20
L003,mary,2000,200
L004,peter,300,5
`

const curCSV = `LoanId,ArrearsAmount
L001,200
L002,600
L003,1000
`

func process(t *testing.T, sod, cur string, targets map[string]string) *Result {
	t.Helper()
	svc := NewService()
	res, err := svc.Process(strings.NewReader(sod), "sod.csv", strings.NewReader(cur), "cur.csv", targets)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	return res
}

func TestProcess(t *testing.T) {
	res := process(t, sodCSV, curCSV, nil)

	t.Run("officer names normalized", func(t *testing.T) {
		want := []string{"John Doe", "Mary", "Peter"}
		if len(res.Officers) != len(want) {
			t.Fatalf("officers = %v", res.Officers)
		}
		for i, o := range want {
			if res.Officers[i] != o {
				t.Errorf("officers[%d] = %q, want %q", i, res.Officers[i], o)
			}
		}
	})

	t.Run("collected keeps positive movement in valid buckets", func(t *testing.T) {
		// L001 collected 800 in 1-15; L004 is absent on the current side so
		// its full arrears count as collected. L002 went up, L003 is in the
		// excluded bucket.
		if len(res.Collected) != 2 {
			t.Fatalf("collected = %d records, want 2", len(res.Collected))
		}
		first := res.Collected[0]
		if first.LoanID != "L001" || !first.Collected.Equal(decimal.NewFromInt(800)) || first.Bucket != "1-15" {
			t.Errorf("unexpected first record: %+v", first)
		}
		second := res.Collected[1]
		if second.LoanID != "L004" || !second.Collected.Equal(decimal.NewFromInt(300)) {
			t.Errorf("missing current side should collect full arrears: %+v", second)
		}
	})

	t.Run("merged keeps every start-of-day row", func(t *testing.T) {
		if len(res.Merged) != 4 {
			t.Errorf("merged = %d records, want 4", len(res.Merged))
		}
	})

	t.Run("pivot ranked by grand total with zero-row officers", func(t *testing.T) {
		rows := res.Pivot.Rows
		if len(rows) != 3 {
			t.Fatalf("pivot rows = %d, want 3", len(rows))
		}
		if rows[0].Officer != "John Doe" || rows[1].Officer != "Peter" || rows[2].Officer != "Mary" {
			t.Errorf("ranking = %s, %s, %s", rows[0].Officer, rows[1].Officer, rows[2].Officer)
		}
		if !rows[2].GrandTotal.IsZero() {
			t.Errorf("Mary collected nothing but shows %s", rows[2].GrandTotal)
		}
		if !res.Pivot.Grand.GrandTotal.Equal(decimal.NewFromInt(1100)) {
			t.Errorf("grand total = %s, want 1100", res.Pivot.Grand.GrandTotal)
		}
	})

	t.Run("summary", func(t *testing.T) {
		s := res.Summary
		if s.TotalCollected != 1100 {
			t.Errorf("total_collected = %v", s.TotalCollected)
		}
		if s.TotalLoansCollected != 2 || s.TotalLoansProcessed != 4 {
			t.Errorf("loan counts = %d/%d", s.TotalLoansCollected, s.TotalLoansProcessed)
		}
		if s.BucketDistribution["1-15"] != 1100 {
			t.Errorf("bucket distribution = %v", s.BucketDistribution)
		}
		if s.TotalTarget != nil {
			t.Error("target fields must be absent without targets")
		}
	})
}

func TestProcessDuplicateKey(t *testing.T) {
	dupSOD := "LoanId,SalesRep,ArrearsAmount,DaysInArrears\nL001,a,100,1\nL001,a,100,1\n"
	svc := NewService()
	_, err := svc.Process(strings.NewReader(dupSOD), "sod.csv", strings.NewReader(curCSV), "cur.csv", nil)

	var dupErr *domain.DuplicateKeyError
	if !errors.As(err, &dupErr) {
		t.Fatalf("expected DuplicateKeyError, got %v", err)
	}
	if dupErr.Key != "L001" || dupErr.Side != "start-of-day" {
		t.Errorf("got %+v", dupErr)
	}
}

func TestProcessMissingColumns(t *testing.T) {
	svc := NewService()
	_, err := svc.Process(strings.NewReader("LoanId\nL1\n"), "sod.csv", strings.NewReader(curCSV), "cur.csv", nil)

	var schemaErr *domain.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if schemaErr.File != "Start-of-Day file" {
		t.Errorf("file = %q", schemaErr.File)
	}
}

func TestProcessNoCollections(t *testing.T) {
	sod := "LoanId,SalesRep,ArrearsAmount,DaysInArrears\nL001,a,100,10\n"
	cur := "LoanId,ArrearsAmount\nL001,100\n"
	res := process(t, sod, cur, nil)
	if !res.NoCollections {
		t.Error("unchanged arrears must flag NoCollections")
	}
	if len(res.Merged) != 1 {
		t.Errorf("merged = %d", len(res.Merged))
	}
}

func TestProcessWithTargets(t *testing.T) {
	targets := map[string]string{
		"John Doe": "1,000",
		"Petr":     "600", // close match for Peter
	}
	res := process(t, sodCSV, curCSV, targets)

	if !res.Pivot.HasTargets {
		t.Fatal("expected targets on pivot")
	}
	var john, peter PivotRow
	for _, row := range res.Pivot.Rows {
		switch row.Officer {
		case "John Doe":
			john = row
		case "Peter":
			peter = row
		}
	}
	if !john.Target.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("john target = %s", john.Target)
	}
	if !john.AchievementPct.Equal(decimal.NewFromInt(80)) {
		t.Errorf("john achievement = %s, want 80", john.AchievementPct)
	}
	if !peter.Target.Equal(decimal.NewFromInt(600)) {
		t.Errorf("fuzzy-matched target should land on Peter, got %s", peter.Target)
	}
	if res.Summary.TotalTarget == nil || *res.Summary.TotalTarget != 1600 {
		t.Errorf("total target = %v", res.Summary.TotalTarget)
	}
}

func TestParseTargetsZeroOfficers(t *testing.T) {
	got := ParseTargets(map[string]string{"anyone": "100"}, nil)
	if len(got) != 1 {
		t.Fatalf("targets = %v", got)
	}
	if !got["anyone"].Equal(decimal.NewFromInt(100)) {
		t.Errorf("unmatched key should keep its name, got %v", got)
	}
}

func TestAchievementDivisionByZero(t *testing.T) {
	targets := map[string]string{"John Doe": "0"}
	res := process(t, sodCSV, curCSV, targets)
	for _, row := range res.Pivot.Rows {
		if row.Officer == "Mary" && !row.AchievementPct.IsZero() {
			t.Errorf("zero target must give zero achievement, got %s", row.AchievementPct)
		}
	}
}

package risk

import (
	"strings"
	"testing"

	"github.com/DennisMbugua/collectflow/internal/domain"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func account(key string, installment int, arrears, balance string) domain.AccountRecord {
	return domain.AccountRecord{
		AccountKey:    key,
		Phone:         key,
		Officer:       "Officer A",
		Arrears:       dec(arrears),
		LoanBalance:   dec(balance),
		InstallmentNo: installment,
	}
}

func TestPercentile(t *testing.T) {
	vals := []decimal.Decimal{dec("10"), dec("20"), dec("30"), dec("40")}

	cases := []struct {
		q    float64
		want string
	}{
		{0, "10"},
		{0.5, "25"},
		{1, "40"},
		{0.75, "32.5"},
	}
	for _, tc := range cases {
		if got := Percentile(vals, tc.q); !got.Equal(dec(tc.want)) {
			t.Errorf("Percentile(q=%v) = %s, want %s", tc.q, got, tc.want)
		}
	}

	t.Run("single value is its own quantile", func(t *testing.T) {
		if got := Percentile([]decimal.Decimal{dec("7")}, 0.95); !got.Equal(dec("7")) {
			t.Errorf("got %s", got)
		}
	})
	t.Run("empty yields zero", func(t *testing.T) {
		if !Percentile(nil, 0.5).IsZero() {
			t.Error("expected zero")
		}
	})
}

func TestScoreEmptyCohort(t *testing.T) {
	if got := Score(nil); got != nil {
		t.Errorf("empty cohort should score to nil, got %v", got)
	}
}

func TestScoreMissedInstallments(t *testing.T) {
	// Three rows for one account, two of them in arrears; latest row wins
	// for the amounts, every row counts toward missed installments.
	cohort := []domain.AccountRecord{
		account("254700000001", 1, "100", "900"),
		account("254700000001", 2, "0", "800"),
		account("254700000001", 3, "250", "700"),
	}
	scored := Score(cohort)
	if len(scored) != 1 {
		t.Fatalf("scored = %d accounts", len(scored))
	}
	r := scored[0]
	if r.MissedInstallments != 2 {
		t.Errorf("missed = %d, want 2", r.MissedInstallments)
	}
	if !r.Arrears.Equal(dec("250")) || r.InstallmentNo != 3 {
		t.Errorf("latest row should win: %+v", r.AccountRecord)
	}
}

func TestScoreHardOverrides(t *testing.T) {
	t.Run("arrears over hard limit", func(t *testing.T) {
		// A single-account cohort scores against itself, so only the hard
		// rule can push it to High Risk.
		scored := Score([]domain.AccountRecord{account("254700000001", 1, "6000", "0")})
		if scored[0].RiskCategory != domain.HighRisk {
			t.Errorf("category = %q, want %q", scored[0].RiskCategory, domain.HighRisk)
		}
	})

	t.Run("missed installments over hard limit", func(t *testing.T) {
		var cohort []domain.AccountRecord
		for i := 1; i <= 4; i++ {
			cohort = append(cohort, account("254700000002", i, "10", "100"))
		}
		scored := Score(cohort)
		if scored[0].MissedInstallments != 4 {
			t.Fatalf("missed = %d", scored[0].MissedInstallments)
		}
		if scored[0].RiskCategory != domain.HighRisk {
			t.Errorf("category = %q, want %q", scored[0].RiskCategory, domain.HighRisk)
		}
	})
}

func TestScoreTiersAndOrdering(t *testing.T) {
	cohort := []domain.AccountRecord{
		account("254700000001", 1, "4000", "9000"),
		account("254700000002", 1, "1500", "5000"),
		account("254700000003", 1, "400", "2000"),
		account("254700000004", 1, "0", "500"),
		account("254700000005", 1, "50", "800"),
	}
	scored := Score(cohort)
	if len(scored) != 5 {
		t.Fatalf("scored = %d", len(scored))
	}

	for i := 1; i < len(scored); i++ {
		if scored[i].RiskScore.GreaterThan(scored[i-1].RiskScore) {
			t.Fatal("scored cohort must be sorted by score descending")
		}
	}

	// The top scorer sits at the 75th percentile or above by construction.
	if scored[0].RiskCategory != domain.HighRisk {
		t.Errorf("top scorer = %q", scored[0].RiskCategory)
	}
	if scored[len(scored)-1].RiskCategory != domain.LowRisk {
		t.Errorf("bottom scorer = %q", scored[len(scored)-1].RiskCategory)
	}
}

func TestAnalyze(t *testing.T) {
	csvData := `Full Names,Phone Number,Installment No,Amount Due,Arrears,Loan Balance,Field Officer
Jane Client,0712345678,1,500,6000,4000,alice officer
Mark Client,0722000000,2,300,100,2500,bob officer
Late Client,0733000000,1,200,900,1000,alice officer
`
	svc := NewService()
	res, err := svc.Analyze(strings.NewReader(csvData), "dues.csv")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	t.Run("cohort keyed by normalized phone", func(t *testing.T) {
		if len(res.Customers) != 3 {
			t.Fatalf("customers = %d", len(res.Customers))
		}
		for _, c := range res.Customers {
			if !strings.HasPrefix(c.AccountKey, "254") {
				t.Errorf("account key %q not normalized", c.AccountKey)
			}
		}
	})

	t.Run("hard arrears rule applied", func(t *testing.T) {
		for _, c := range res.Customers {
			if c.FullName == "Jane Client" && c.RiskCategory != domain.HighRisk {
				t.Errorf("Jane = %q, want High Risk", c.RiskCategory)
			}
		}
	})

	t.Run("matrix total reconciles", func(t *testing.T) {
		var sum decimal.Decimal
		for _, row := range res.Matrix.Rows {
			sum = sum.Add(row.TotalArrears)
		}
		if !res.Matrix.Total.TotalArrears.Equal(sum) {
			t.Errorf("matrix total %s != row sum %s", res.Matrix.Total.TotalArrears, sum)
		}
		if !res.Matrix.Total.TotalArrears.Equal(dec("7000")) {
			t.Errorf("portfolio arrears = %s, want 7000", res.Matrix.Total.TotalArrears)
		}
	})

	t.Run("early arrears ordered by officer then amount", func(t *testing.T) {
		// Jane and Late Client are within their first two installments and
		// in arrears; Mark (installment 2, arrears 100) also qualifies.
		if len(res.EarlyArrears) != 3 {
			t.Fatalf("early = %d", len(res.EarlyArrears))
		}
		first := res.EarlyArrears[0]
		if first.Officer != "Alice Officer" || !first.Arrears.Equal(dec("6000")) {
			t.Errorf("first early record: %s %s", first.Officer, first.Arrears)
		}
	})

	t.Run("portfolio summary", func(t *testing.T) {
		s := res.PortfolioSummary
		if s.TotalCustomers != 3 || s.CustomersInArrears != 3 {
			t.Errorf("counts = %+v", s)
		}
		if s.PortfolioArrears != 7000 {
			t.Errorf("portfolio arrears = %v", s.PortfolioArrears)
		}
		if s.HighRiskCustomers == 0 {
			t.Error("expected at least one high-risk customer")
		}
	})
}

func TestAnalyzeMissingColumns(t *testing.T) {
	svc := NewService()
	_, err := svc.Analyze(strings.NewReader("Full Names\nJane\n"), "dues.csv")
	if err == nil {
		t.Fatal("expected schema error")
	}
}

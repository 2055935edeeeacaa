// internal/core/risk/service.go
package risk

import (
	"fmt"
	"io"
	"sort"

	"github.com/DennisMbugua/collectflow/internal/core/ingest"
	"github.com/DennisMbugua/collectflow/internal/domain"
	"github.com/shopspring/decimal"
)

// riskAliases canonicalizes the unpaid-dues export headers. This feed has
// a real Arrears column next to LoanBalance, so it must not inherit the
// collections table where "Arrears" means the arrears amount column.
var riskAliases = map[string]string{
	"Fullnames":     ingest.ColFullNames,
	"Full_names":    ingest.ColFullNames,
	"Phonenumber":   ingest.ColPhoneNumber,
	"Phone_number":  ingest.ColPhoneNumber,
	"Installmentno": ingest.ColInstallmentNo,
	"Amountdue":     ingest.ColAmountDue,
	"Amount_due":    ingest.ColAmountDue,
	"Loanbalance":   ingest.ColLoanBalance,
	"Fieldofficer":  ingest.ColFieldOfficer,
	"Principal":     ingest.ColFundedAmount,
}

// Weights and hard thresholds of the scoring formula.
var (
	weightArrears = decimal.NewFromFloat(0.50)
	weightMissed  = decimal.NewFromFloat(0.35)
	weightBalance = decimal.NewFromFloat(0.15)

	hardArrearsLimit = decimal.NewFromInt(5000)
)

const (
	hardMissedLimit = 4
	missedCap       = 12
)

// Service scores an arrears cohort and classifies every customer into a
// risk tier.
type Service interface {
	Analyze(file io.Reader, filename string) (*Result, error)
}

type service struct {
	normalizer *ingest.Normalizer
}

func NewService() Service {
	return &service{normalizer: ingest.NewNormalizerWith(riskAliases)}
}

// Result holds the scored cohort (sorted by score descending) and the
// rollups derived from it. An empty upload produces an empty result, not
// an error.
type Result struct {
	Customers        []domain.RiskScoredRecord
	Matrix           Matrix
	PortfolioSummary PortfolioSummary
	EarlyArrears     []domain.RiskScoredRecord
}

func (s *service) Analyze(file io.Reader, filename string) (*Result, error) {
	t, err := ingest.LoadTable(file, filename)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", filename, err)
	}
	t = s.normalizer.CanonicalizeHeaders(t)
	if err := s.normalizer.Require(t, filename, ingest.ColPhoneNumber, ingest.ColArrears); err != nil {
		return nil, err
	}

	cohort := s.buildCohort(t)
	scored := Score(cohort)

	res := &Result{Customers: scored}
	res.Matrix = BuildMatrix(scored)
	res.PortfolioSummary = buildPortfolioSummary(scored)
	res.EarlyArrears = earlyArrears(scored)
	return res, nil
}

func (s *service) buildCohort(t ingest.Table) []domain.AccountRecord {
	recs := make([]domain.AccountRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		phone := ingest.NormalizePhone(row[ingest.ColPhoneNumber])
		if phone == "" {
			// Unnormalizable numbers keep their digits as the account key
			// so the customer still appears in the cohort.
			phone = row[ingest.ColPhoneNumber]
		}
		rec := domain.AccountRecord{
			AccountKey:    phone,
			Phone:         phone,
			FullName:      row[ingest.ColFullNames],
			Officer:       s.normalizer.NormalizeOfficer(row[ingest.ColFieldOfficer], domain.UnassignedOfficer),
			Arrears:       ingest.ParseOptionalAmount(row[ingest.ColArrears]),
			AmountDue:     ingest.ParseOptionalAmount(row[ingest.ColAmountDue]),
			LoanBalance:   ingest.ParseOptionalAmount(row[ingest.ColLoanBalance]),
			InstallmentNo: ingest.ParseIntCell(row[ingest.ColInstallmentNo]),
		}
		if rec.FullName == "" {
			rec.FullName = domain.UnknownClient
		}
		recs = append(recs, rec)
	}
	return recs
}

// Score assigns a risk score and tier to every account in the cohort.
// Thresholds are cohort-relative percentiles, so the whole cohort is
// scored in one pass: compute the statistics first, then classify each
// latest-row against them. Re-running on a cohort subset can legitimately
// change tiers.
func Score(cohort []domain.AccountRecord) []domain.RiskScoredRecord {
	if len(cohort) == 0 {
		return nil
	}

	// Latest installment per account; ties resolved by taking the last
	// row after a stable sort on (key, installment).
	sorted := make([]domain.AccountRecord, len(cohort))
	copy(sorted, cohort)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].AccountKey != sorted[j].AccountKey {
			return sorted[i].AccountKey < sorted[j].AccountKey
		}
		return sorted[i].InstallmentNo < sorted[j].InstallmentNo
	})

	latest := make(map[string]domain.AccountRecord, len(sorted))
	missed := make(map[string]int)
	var order []string
	for _, rec := range sorted {
		if _, ok := latest[rec.AccountKey]; !ok {
			order = append(order, rec.AccountKey)
		}
		latest[rec.AccountKey] = rec
		if rec.Arrears.IsPositive() {
			missed[rec.AccountKey]++
		}
	}

	// Percentile caps dampen outliers before weighting.
	arrearsVals := make([]decimal.Decimal, 0, len(order))
	balanceVals := make([]decimal.Decimal, 0, len(order))
	for _, key := range order {
		arrearsVals = append(arrearsVals, latest[key].Arrears)
		balanceVals = append(balanceVals, latest[key].LoanBalance)
	}
	arrearsCap := Percentile(arrearsVals, 0.95)
	balanceCap := Percentile(balanceVals, 0.95)

	scored := make([]domain.RiskScoredRecord, 0, len(order))
	scores := make([]decimal.Decimal, 0, len(order))
	for _, key := range order {
		rec := latest[key]
		m := missed[key]
		cappedMissed := m
		if cappedMissed > missedCap {
			cappedMissed = missedCap
		}
		score := decimal.Min(rec.Arrears, arrearsCap).Mul(weightArrears).
			Add(decimal.NewFromInt(int64(cappedMissed)).Mul(weightMissed)).
			Add(decimal.Min(rec.LoanBalance, balanceCap).Mul(weightBalance))

		scored = append(scored, domain.RiskScoredRecord{
			AccountRecord:      rec,
			MissedInstallments: m,
			RiskScore:          score,
		})
		scores = append(scores, score)
	}

	q40 := Percentile(scores, 0.40)
	q75 := Percentile(scores, 0.75)
	for i := range scored {
		scored[i].RiskCategory = categorize(scored[i], q40, q75)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RiskScore.GreaterThan(scored[j].RiskScore)
	})
	return scored
}

// categorize applies the tier rules in strict order: the hard overrides on
// missed installments and absolute arrears dominate the percentile rules.
func categorize(r domain.RiskScoredRecord, q40, q75 decimal.Decimal) string {
	switch {
	case r.MissedInstallments >= hardMissedLimit:
		return domain.HighRisk
	case r.Arrears.GreaterThan(hardArrearsLimit):
		return domain.HighRisk
	case r.RiskScore.GreaterThanOrEqual(q75):
		return domain.HighRisk
	case r.RiskScore.GreaterThanOrEqual(q40):
		return domain.MediumRisk
	default:
		return domain.LowRisk
	}
}

// Percentile computes the q-th quantile with linear interpolation. The
// quantile of a single value is that value; an empty slice yields zero.
func Percentile(vals []decimal.Decimal, q float64) decimal.Decimal {
	n := len(vals)
	if n == 0 {
		return decimal.Zero
	}
	sorted := make([]decimal.Decimal, n)
	copy(sorted, vals)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(pos)
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := decimal.NewFromFloat(pos - float64(lo))
	return sorted[lo].Add(sorted[lo+1].Sub(sorted[lo]).Mul(frac))
}

// earlyArrears picks customers already behind within their first two
// installments, ordered for the early-arrears diagnostic sheet.
func earlyArrears(scored []domain.RiskScoredRecord) []domain.RiskScoredRecord {
	var early []domain.RiskScoredRecord
	for _, r := range scored {
		if r.InstallmentNo <= 2 && r.Arrears.IsPositive() {
			early = append(early, r)
		}
	}
	sort.SliceStable(early, func(i, j int) bool {
		if early[i].Officer != early[j].Officer {
			return early[i].Officer < early[j].Officer
		}
		return early[i].Arrears.GreaterThan(early[j].Arrears)
	})
	return early
}

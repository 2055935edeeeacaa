// internal/core/reconcile/service.go
package reconcile

import (
	"fmt"
	"io"
	"sort"

	"github.com/DennisMbugua/collectflow/internal/core/bucket"
	"github.com/DennisMbugua/collectflow/internal/core/ingest"
	"github.com/DennisMbugua/collectflow/internal/domain"
	"github.com/shopspring/decimal"
)

// Required canonical columns per side of the reconciliation.
var (
	requiredSOD = []string{ingest.ColLoanID, ingest.ColSalesRep, ingest.ColArrearsAmount, ingest.ColDaysInArrears}
	requiredCUR = []string{ingest.ColLoanID, ingest.ColArrearsAmount}
)

// Service reconciles a start-of-day arrears snapshot against the current
// snapshot and derives the collections report.
type Service interface {
	Process(sod io.Reader, sodName string, cur io.Reader, curName string, targets map[string]string) (*Result, error)
}

type service struct {
	normalizer *ingest.Normalizer
	policy     bucket.Aging
}

func NewService() Service {
	return &service{normalizer: ingest.NewNormalizer()}
}

// Result carries everything downstream consumers need: the collected
// detail, the full merged join (for total-processed counts), the pivot and
// the JSON summary. NoCollections distinguishes "nothing collected" from a
// pipeline failure; both tables can legitimately be empty.
type Result struct {
	Collected     []domain.ReconciliationRecord
	Merged        []domain.ReconciliationRecord
	Officers      []string
	Pivot         Pivot
	Summary       Summary
	NoCollections bool
}

func (s *service) Process(sod io.Reader, sodName string, cur io.Reader, curName string, targets map[string]string) (*Result, error) {
	sodRecs, officers, err := s.loadSOD(sod, sodName)
	if err != nil {
		return nil, err
	}
	curArrears, err := s.loadCurrent(cur, curName)
	if err != nil {
		return nil, err
	}

	collected, merged := s.reconcile(sodRecs, curArrears)

	res := &Result{
		Collected:     collected,
		Merged:        merged,
		Officers:      officers,
		NoCollections: len(collected) == 0,
	}
	res.Pivot = BuildPivot(collected, officers, ParseTargets(targets, officers), s.policy)
	res.Summary = buildSummary(res)
	return res, nil
}

// sodRow is one usable start-of-day row. Rows whose key or arrears could
// not be resolved are dropped before the join.
type sodRow struct {
	loanID  string
	officer string
	arrears decimal.Decimal
	age     int
}

func (s *service) loadSOD(r io.Reader, filename string) ([]sodRow, []string, error) {
	t, err := ingest.LoadTable(r, filename)
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s: %w", filename, err)
	}
	t = s.normalizer.CanonicalizeHeaders(t)
	if err := s.normalizer.Require(t, "Start-of-Day file", requiredSOD...); err != nil {
		return nil, nil, err
	}

	seen := make(map[string]bool, len(t.Rows))
	officerSet := make(map[string]bool)
	var rows []sodRow
	for _, row := range t.Rows {
		id := row[ingest.ColLoanID]
		if id == "" {
			continue
		}
		arrears, ok := ingest.ParseAmount(row[ingest.ColArrearsAmount])
		if !ok {
			continue
		}
		if seen[id] {
			return nil, nil, &domain.DuplicateKeyError{Key: id, Side: "start-of-day"}
		}
		seen[id] = true

		officer := s.normalizer.NormalizeOfficer(row[ingest.ColSalesRep], domain.UnassignedOfficer)
		officerSet[officer] = true
		age, _ := ingest.ParseCount(row[ingest.ColDaysInArrears])
		rows = append(rows, sodRow{loanID: id, officer: officer, arrears: arrears, age: age})
	}

	officers := make([]string, 0, len(officerSet))
	for o := range officerSet {
		officers = append(officers, o)
	}
	sort.Strings(officers)
	return rows, officers, nil
}

func (s *service) loadCurrent(r io.Reader, filename string) (map[string]decimal.Decimal, error) {
	t, err := ingest.LoadTable(r, filename)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", filename, err)
	}
	t = s.normalizer.CanonicalizeHeaders(t)
	if err := s.normalizer.Require(t, "Current file", requiredCUR...); err != nil {
		return nil, err
	}

	cur := make(map[string]decimal.Decimal, len(t.Rows))
	for _, row := range t.Rows {
		id := row[ingest.ColLoanID]
		if id == "" {
			continue
		}
		arrears, ok := ingest.ParseAmount(row[ingest.ColArrearsAmount])
		if !ok {
			continue
		}
		if _, dup := cur[id]; dup {
			return nil, &domain.DuplicateKeyError{Key: id, Side: "current"}
		}
		cur[id] = arrears
	}
	return cur, nil
}

// reconcile left-joins SOD rows onto the current snapshot. A loan absent
// on the current side has been fully paid off, so its current arrears are
// zero rather than a join miss. Collected keeps only net-positive movement
// inside a valid aging bucket; merged keeps every SOD row exactly once.
func (s *service) reconcile(sodRecs []sodRow, cur map[string]decimal.Decimal) (collected, merged []domain.ReconciliationRecord) {
	for _, r := range sodRecs {
		curArrears := decimal.Zero
		if v, ok := cur[r.loanID]; ok {
			curArrears = v
		}
		rec := domain.ReconciliationRecord{
			LoanID:     r.loanID,
			Officer:    r.officer,
			ArrearsSOD: r.arrears,
			AgeSOD:     r.age,
			ArrearsCUR: curArrears,
			Collected:  r.arrears.Sub(curArrears),
			Bucket:     s.policy.Classify(r.age),
		}
		merged = append(merged, rec)
		if rec.Collected.IsPositive() && s.policy.Valid(rec.Bucket) {
			collected = append(collected, rec)
		}
	}
	return collected, merged
}

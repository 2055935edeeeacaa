// internal/core/dashboard/service.go
package dashboard

import (
	"fmt"
	"io"
	"sort"

	"github.com/DennisMbugua/collectflow/internal/core/aggregate"
	"github.com/DennisMbugua/collectflow/internal/core/bucket"
	"github.com/DennisMbugua/collectflow/internal/core/ingest"
	"github.com/DennisMbugua/collectflow/internal/domain"
	"github.com/shopspring/decimal"
)

var dashboardAliases = map[string]string{
	"Fullnames":      ingest.ColFullNames,
	"Full_names":     ingest.ColFullNames,
	"Phonenumber":    ingest.ColPhoneNumber,
	"Phone_number":   ingest.ColPhoneNumber,
	"Arrearsamount":  ingest.ColArrearsAmount,
	"Arrears_amount": ingest.ColArrearsAmount,
	"Daysinarrears":  ingest.ColDaysInArrears,
	"Loanbalance":    ingest.ColLoanBalance,
	"Salesrep":       ingest.ColSalesRep,
	"Sales_rep":      ingest.ColSalesRep,
}

const (
	colArrears   = "Arrears"
	colPortfolio = "Portfolio"
)

// Service builds the executive dashboard: fine-grained days-late bucketing
// and per-rep exposure rollups. Missing columns are tolerated here; the
// dashboard degrades to zeros and placeholders instead of rejecting the
// upload.
type Service interface {
	Build(file io.Reader, filename string) (*Result, error)
}

type service struct {
	normalizer *ingest.Normalizer
	policy     bucket.DaysLate
}

func NewService() Service {
	return &service{normalizer: ingest.NewNormalizerWith(dashboardAliases)}
}

// Entry is one cleaned dashboard row, already bucketed. Entries are sorted
// by (officer asc, days late asc), which makes same-bucket rows contiguous
// within an officer block.
type Entry struct {
	Officer     string
	FullName    string
	Phone       string
	Arrears     decimal.Decimal
	LoanBalance decimal.Decimal
	DaysLate    int
	Bucket      string
	BucketID    int
}

// RepRow is one line of the executive scorecard.
type RepRow struct {
	Officer      string
	ClientCount  int
	TotalArrears decimal.Decimal
	Portfolio    decimal.Decimal
	RiskPct      decimal.Decimal // arrears / portfolio, 0 when portfolio is 0
}

// BucketRange is a run of consecutive same-bucket rows inside an officer
// block, used by the workbook writer to merge the bucket-total cell.
type BucketRange struct {
	Start  int // index into the officer's entries
	Count  int
	Bucket string
	Total  decimal.Decimal
}

// OfficerBlock is one officer's detail section with its merge ranges and
// block totals.
type OfficerBlock struct {
	Officer      string
	Entries      []Entry
	Ranges       []BucketRange
	TotalArrears decimal.Decimal
	TotalBalance decimal.Decimal
}

// Result is everything the dashboard sheet needs plus the JSON summary.
type Result struct {
	Scorecard         []RepRow           `json:"-"`
	Blocks            []OfficerBlock     `json:"-"`
	BucketArrears     map[string]float64 `json:"bucket_arrears"`
	BucketCounts      map[string]int     `json:"bucket_counts"`
	TotalClients      int                `json:"total_clients"`
	TotalArrears      float64            `json:"total_arrears"`
	TotalPortfolio    float64            `json:"total_portfolio"`
	AvgDaysLate       float64            `json:"avg_days_late"`
	CurrentClients    int                `json:"current_clients"`
	DelinquentClients int                `json:"delinquent_clients"`
	SalesRepCount     int                `json:"sales_rep_count"`
}

func (s *service) Build(file io.Reader, filename string) (*Result, error) {
	t, err := ingest.LoadTable(file, filename)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", filename, err)
	}
	if len(t.Headers) == 0 {
		return nil, &domain.SchemaError{File: filename, Missing: []string{ingest.ColSalesRep}, Readable: []string{"SalesRep or Sales Rep"}}
	}
	t = s.normalizer.CanonicalizeHeaders(t)

	entries := s.buildEntries(t)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Officer != entries[j].Officer {
			return entries[i].Officer < entries[j].Officer
		}
		return entries[i].DaysLate < entries[j].DaysLate
	})
	return s.summarize(entries), nil
}

func (s *service) buildEntries(t ingest.Table) []Entry {
	entries := make([]Entry, 0, len(t.Rows))
	for _, row := range t.Rows {
		e := Entry{
			Officer:     s.normalizer.NormalizeOfficer(row[ingest.ColSalesRep], domain.UnassignedOfficer),
			FullName:    row[ingest.ColFullNames],
			Phone:       row[ingest.ColPhoneNumber],
			Arrears:     ingest.ParseOptionalAmount(row[ingest.ColArrearsAmount]),
			LoanBalance: ingest.ParseOptionalAmount(row[ingest.ColLoanBalance]),
			DaysLate:    ingest.ParseIntCell(row[ingest.ColDaysInArrears]),
		}
		if e.FullName == "" {
			e.FullName = domain.UnknownClient
		}
		e.Bucket = s.policy.Classify(e.DaysLate)
		e.BucketID = s.policy.Ordinal(e.DaysLate)
		entries = append(entries, e)
	}
	return entries
}

func (s *service) summarize(entries []Entry) *Result {
	g := aggregate.NewGrouper(colArrears, colPortfolio)
	byOfficer := make(map[string][]Entry)
	res := &Result{
		BucketArrears: make(map[string]float64),
		BucketCounts:  make(map[string]int),
		TotalClients:  len(entries),
	}

	totalArrears, totalPortfolio := decimal.Zero, decimal.Zero
	bucketSums := make(map[string]decimal.Decimal)
	daysSum := 0
	for _, e := range entries {
		g.Observe(e.Officer, "", map[string]decimal.Decimal{colArrears: e.Arrears, colPortfolio: e.LoanBalance})
		byOfficer[e.Officer] = append(byOfficer[e.Officer], e)

		totalArrears = totalArrears.Add(e.Arrears)
		totalPortfolio = totalPortfolio.Add(e.LoanBalance)
		bucketSums[e.Bucket] = bucketSums[e.Bucket].Add(e.Arrears)
		res.BucketCounts[e.Bucket]++
		daysSum += e.DaysLate
		if e.DaysLate < 1 {
			res.CurrentClients++
		} else {
			res.DelinquentClients++
		}
	}

	groups := g.Groups(nil)
	for _, grp := range groups {
		res.Scorecard = append(res.Scorecard, RepRow{
			Officer:      grp.Name,
			ClientCount:  grp.Totals.Count,
			TotalArrears: grp.Totals.Get(colArrears),
			Portfolio:    grp.Totals.Get(colPortfolio),
			RiskPct:      aggregate.Ratio(grp.Totals.Get(colArrears), grp.Totals.Get(colPortfolio)),
		})
		res.Blocks = append(res.Blocks, buildBlock(grp.Name, byOfficer[grp.Name], grp.Totals))
	}
	sort.SliceStable(res.Scorecard, func(i, j int) bool {
		if c := res.Scorecard[i].TotalArrears.Cmp(res.Scorecard[j].TotalArrears); c != 0 {
			return c > 0
		}
		return res.Scorecard[i].Officer < res.Scorecard[j].Officer
	})

	for b, v := range bucketSums {
		res.BucketArrears[b] = v.InexactFloat64()
	}
	res.TotalArrears = totalArrears.InexactFloat64()
	res.TotalPortfolio = totalPortfolio.InexactFloat64()
	res.SalesRepCount = len(groups)
	if len(entries) > 0 {
		res.AvgDaysLate = float64(daysSum) / float64(len(entries))
	}
	return res
}

// buildBlock scans an officer's (already bucket-contiguous) entries and
// records the merge range plus arrears total for each bucket run.
func buildBlock(officer string, entries []Entry, totals *aggregate.Totals) OfficerBlock {
	block := OfficerBlock{
		Officer:      officer,
		Entries:      entries,
		TotalArrears: totals.Get(colArrears),
		TotalBalance: totals.Get(colPortfolio),
	}
	for i := 0; i < len(entries); {
		j := i
		runTotal := decimal.Zero
		for j < len(entries) && entries[j].BucketID == entries[i].BucketID {
			runTotal = runTotal.Add(entries[j].Arrears)
			j++
		}
		block.Ranges = append(block.Ranges, BucketRange{
			Start:  i,
			Count:  j - i,
			Bucket: entries[i].Bucket,
			Total:  runTotal,
		})
		i = j
	}
	return block
}

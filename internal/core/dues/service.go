// internal/core/dues/service.go
package dues

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/DennisMbugua/collectflow/internal/core/aggregate"
	"github.com/DennisMbugua/collectflow/internal/core/ingest"
	"github.com/DennisMbugua/collectflow/internal/core/report"
	"github.com/DennisMbugua/collectflow/internal/domain"
	"github.com/shopspring/decimal"
)

var duesAliases = map[string]string{
	"Fullnames":     ingest.ColFullNames,
	"Full_names":    ingest.ColFullNames,
	"Phonenumber":   ingest.ColPhoneNumber,
	"Phone_number":  ingest.ColPhoneNumber,
	"Installmentno": ingest.ColInstallmentNo,
	"Amountdue":     ingest.ColAmountDue,
	"Amount_due":    ingest.ColAmountDue,
	"Amountpaid":    ingest.ColAmountPaid,
	"Amount_paid":   ingest.ColAmountPaid,
	"Loanbalance":   ingest.ColLoanBalance,
	"Fieldofficer":  ingest.ColFieldOfficer,
}

// Display layout of the dues listing. The first column doubles as the
// marker column for group headers, subtotals and the grand total.
var (
	displayColumns = []string{"Client Name", "Phone Number", "Installment No", "Amount Due", "Arrears", "Amount Paid", "Loan Balance", "Field Officer"}
	numericColumns = []string{"Amount Due", "Arrears", "Amount Paid", "Loan Balance"}
)

// Service arranges a dues export into the printable per-officer listing.
type Service interface {
	Arrange(file io.Reader, filename string) (*Result, error)
}

type service struct {
	normalizer *ingest.Normalizer
}

func NewService() Service {
	return &service{normalizer: ingest.NewNormalizerWith(duesAliases)}
}

// Result is the assembled listing plus the rollups behind it.
type Result struct {
	Columns     []string
	Rows        []report.Row
	GroupCount  int
	ClientCount int
	GrandTotals map[string]float64
	Stats       Stats
}

// Stats is the summary block appended to the listing and returned in the
// JSON body.
type Stats struct {
	TotalClients       int     `json:"total_clients"`
	FieldOfficers      int     `json:"field_officers"`
	ClientsWithArrears int     `json:"clients_with_arrears"`
	ArrearsPercent     float64 `json:"arrears_percent"`
	TotalArrears       float64 `json:"total_arrears"`
	TotalAmountDue     float64 `json:"total_amount_due"`
}

type clientRow struct {
	name        string
	phone       string
	installment int
	officer     string
	amounts     map[string]decimal.Decimal
}

func (s *service) Arrange(file io.Reader, filename string) (*Result, error) {
	t, err := ingest.LoadTable(file, filename)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", filename, err)
	}
	t = s.normalizer.CanonicalizeHeaders(t)
	if err := s.normalizer.Require(t, filename, ingest.ColFullNames, ingest.ColFieldOfficer); err != nil {
		return nil, err
	}

	rows := s.buildRows(t)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].officer != rows[j].officer {
			return rows[i].officer < rows[j].officer
		}
		if rows[i].installment != rows[j].installment {
			return rows[i].installment < rows[j].installment
		}
		return rows[i].name < rows[j].name
	})

	return s.assemble(rows), nil
}

func (s *service) buildRows(t ingest.Table) []clientRow {
	var out []clientRow
	for _, row := range t.Rows {
		r := clientRow{
			name:        row[ingest.ColFullNames],
			phone:       ingest.FormatPhoneDisplay(row[ingest.ColPhoneNumber]),
			installment: ingest.ParseIntCell(row[ingest.ColInstallmentNo]),
			officer:     s.normalizer.NormalizeOfficer(row[ingest.ColFieldOfficer], domain.UnknownOfficer),
			amounts:     make(map[string]decimal.Decimal, len(numericColumns)),
		}
		if r.name == "" {
			r.name = domain.UnknownClient
		}
		r.amounts["Amount Due"] = ingest.ParseOptionalAmount(row[ingest.ColAmountDue])
		r.amounts["Arrears"] = ingest.ParseOptionalAmount(row[ingest.ColArrears])
		r.amounts["Amount Paid"] = ingest.ParseOptionalAmount(row[ingest.ColAmountPaid])
		r.amounts["Loan Balance"] = ingest.ParseOptionalAmount(row[ingest.ColLoanBalance])
		out = append(out, r)
	}
	return out
}

func (s *service) assemble(rows []clientRow) *Result {
	g := aggregate.NewGrouper(numericColumns...)
	byOfficer := make(map[string][]clientRow)
	for _, r := range rows {
		g.Observe(r.officer, "", r.amounts)
		byOfficer[r.officer] = append(byOfficer[r.officer], r)
	}

	var blocks []report.Block
	groups := g.Groups(nil)
	for _, grp := range groups {
		members := byOfficer[grp.Name]
		block := report.Block{
			Header: fmt.Sprintf("--- %s (%d clients) ---", strings.ToUpper(grp.Name), len(members)),
		}
		installmentSum := 0
		for _, m := range members {
			installmentSum += m.installment
			block.Details = append(block.Details, []string{
				m.name,
				m.phone,
				strconv.Itoa(m.installment),
				ingest.FormatAmount(m.amounts["Amount Due"]),
				ingest.FormatAmount(m.amounts["Arrears"]),
				ingest.FormatAmount(m.amounts["Amount Paid"]),
				ingest.FormatAmount(m.amounts["Loan Balance"]),
				m.officer,
			})
		}
		block.Subtotal = []string{
			"Subtotal " + grp.Name,
			"",
			strconv.Itoa(installmentSum),
			ingest.FormatAmount(grp.Totals.Get("Amount Due")),
			ingest.FormatAmount(grp.Totals.Get("Arrears")),
			ingest.FormatAmount(grp.Totals.Get("Amount Paid")),
			ingest.FormatAmount(grp.Totals.Get("Loan Balance")),
			"",
		}
		block.SummaryLine = summaryLine(grp.Totals)
		blocks = append(blocks, block)
	}

	grand := g.Grand()
	grandCells := []string{
		"GRAND TOTAL",
		"",
		"",
		ingest.FormatAmount(grand.Get("Amount Due")),
		ingest.FormatAmount(grand.Get("Arrears")),
		ingest.FormatAmount(grand.Get("Amount Paid")),
		ingest.FormatAmount(grand.Get("Loan Balance")),
		"",
	}

	stats := buildStats(rows, len(groups), grand.Get("Arrears"), grand.Get("Amount Due"))
	trailer := fmt.Sprintf(
		"SUMMARY: Total Clients: %d | Field Officers: %d | Clients with Arrears: %d (%.1f%%) | Total Arrears: KES %s | Total Amount Due: KES %s",
		stats.TotalClients, stats.FieldOfficers, stats.ClientsWithArrears, stats.ArrearsPercent,
		ingest.FormatAmount(grand.Get("Arrears")), ingest.FormatAmount(grand.Get("Amount Due")),
	)

	res := &Result{
		Columns:     displayColumns,
		Rows:        report.Assemble(displayColumns, blocks, grandCells, summaryLine(grand), trailer),
		GroupCount:  len(groups),
		ClientCount: len(rows),
		GrandTotals: make(map[string]float64, len(numericColumns)),
		Stats:       stats,
	}
	for _, col := range numericColumns {
		res.GrandTotals[col] = grand.Get(col).InexactFloat64()
	}
	return res
}

// summaryLine renders the compact "a | b | c | d" totals row that sits
// under each subtotal.
func summaryLine(t *aggregate.Totals) string {
	parts := make([]string, 0, len(numericColumns))
	for _, col := range numericColumns {
		parts = append(parts, ingest.FormatAmount(t.Get(col)))
	}
	return strings.Join(parts, " | ")
}

func buildStats(rows []clientRow, officers int, totalArrears, totalDue decimal.Decimal) Stats {
	st := Stats{
		TotalClients:   len(rows),
		FieldOfficers:  officers,
		TotalArrears:   totalArrears.InexactFloat64(),
		TotalAmountDue: totalDue.InexactFloat64(),
	}
	for _, r := range rows {
		if r.amounts["Arrears"].IsPositive() {
			st.ClientsWithArrears++
		}
	}
	if st.TotalClients > 0 {
		st.ArrearsPercent = float64(st.ClientsWithArrears) / float64(st.TotalClients) * 100
	}
	return st
}

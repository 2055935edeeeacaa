// internal/core/report/workbook.go
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/DennisMbugua/collectflow/internal/core/bucket"
	"github.com/DennisMbugua/collectflow/internal/core/dashboard"
	"github.com/DennisMbugua/collectflow/internal/core/ingest"
	"github.com/DennisMbugua/collectflow/internal/core/reconcile"
	"github.com/DennisMbugua/collectflow/internal/core/risk"
	"github.com/DennisMbugua/collectflow/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const moneyFormat = "#,##0.00"

// Filename builds a unique download name so concurrent report requests
// never collide on the client side.
func Filename(prefix string) string {
	return fmt.Sprintf("%s_%s_%s.xlsx", prefix, time.Now().Format("20060102_150405"), uuid.NewString()[:8])
}

// styles groups the style ids used across all workbook sheets.
type styles struct {
	header     int
	groupHead  int
	subtotal   int
	grandTotal int
	money      int
	label      int
}

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	var err error

	s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1F4E78"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return s, err
	}
	s.groupHead, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9E1F2"}},
	})
	if err != nil {
		return s, err
	}
	s.subtotal, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F2F2F2"}},
	})
	if err != nil {
		return s, err
	}
	s.grandTotal, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFE699"}},
	})
	if err != nil {
		return s, err
	}
	s.money, err = f.NewStyle(&excelize.Style{CustomNumFmt: strPtr(moneyFormat)})
	if err != nil {
		return s, err
	}
	s.label, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	return s, err
}

func strPtr(s string) *string { return &s }

func setRow(f *excelize.File, sheet string, rowNum int, vals []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &vals)
}

func styleRow(f *excelize.File, sheet string, rowNum, width, style int) error {
	start, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(width, rowNum)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, start, end, style)
}

func freezeHeader(f *excelize.File, sheet string) error {
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	})
}

func money(d decimal.Decimal) float64 { return d.Round(2).InexactFloat64() }

// CollectionsWorkbook renders the reconciliation result into the four-sheet
// collections report.
func CollectionsWorkbook(res *reconcile.Result) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	if err := writeCollectionsSummary(f, st, res); err != nil {
		return nil, err
	}
	if err := writeCollectionsDetail(f, st, "Detailed Collections", res.Collected); err != nil {
		return nil, err
	}
	if err := writeCollectionsDetail(f, st, "Raw Data", res.Merged); err != nil {
		return nil, err
	}
	if err := writeCollectionsStats(f, st, res); err != nil {
		return nil, err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	return workbookBytes(f)
}

func writeCollectionsSummary(f *excelize.File, st styles, res *reconcile.Result) error {
	const sheet = "Summary Report"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []interface{}{"Sales Rep"}
	for _, b := range res.Pivot.Buckets {
		headers = append(headers, b)
	}
	headers = append(headers, "Grand Total")
	if res.Pivot.HasTargets {
		headers = append(headers, "Target", "Remaining", "Achievement %")
	}
	if err := setRow(f, sheet, 1, headers); err != nil {
		return err
	}
	if err := styleRow(f, sheet, 1, len(headers), st.header); err != nil {
		return err
	}

	rowNum := 2
	for _, row := range res.Pivot.Rows {
		if err := setRow(f, sheet, rowNum, pivotCells(row, res.Pivot)); err != nil {
			return err
		}
		rowNum++
	}
	if err := setRow(f, sheet, rowNum, pivotCells(res.Pivot.Grand, res.Pivot)); err != nil {
		return err
	}
	if err := styleRow(f, sheet, rowNum, len(headers), st.grandTotal); err != nil {
		return err
	}

	if err := f.SetColWidth(sheet, "A", "A", 28); err != nil {
		return err
	}
	endCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", endCol, 14); err != nil {
		return err
	}
	if err := f.SetColStyle(sheet, "B:"+endCol, st.money); err != nil {
		return err
	}
	return freezeHeader(f, sheet)
}

func pivotCells(row reconcile.PivotRow, p reconcile.Pivot) []interface{} {
	cells := []interface{}{row.Officer}
	for _, b := range p.Buckets {
		cells = append(cells, money(row.Buckets[b]))
	}
	cells = append(cells, money(row.GrandTotal))
	if p.HasTargets {
		cells = append(cells, money(row.Target), money(row.Remaining), money(row.AchievementPct))
	}
	return cells
}

func writeCollectionsDetail(f *excelize.File, st styles, sheet string, recs []domain.ReconciliationRecord) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	headers := []interface{}{"Loan Id", "Sales Rep", "Arrears Start of Day", "Days in Arrears", "Bucket", "Arrears Current", "Collected"}
	if err := setRow(f, sheet, 1, headers); err != nil {
		return err
	}
	if err := styleRow(f, sheet, 1, len(headers), st.header); err != nil {
		return err
	}

	for i, rec := range recs {
		vals := []interface{}{
			rec.LoanID, rec.Officer, money(rec.ArrearsSOD), rec.AgeSOD,
			rec.Bucket, money(rec.ArrearsCUR), money(rec.Collected),
		}
		if err := setRow(f, sheet, i+2, vals); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", "B", 22); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "C", "G", 16); err != nil {
		return err
	}
	if err := f.SetColStyle(sheet, "C:C", st.money); err != nil {
		return err
	}
	if err := f.SetColStyle(sheet, "F:G", st.money); err != nil {
		return err
	}
	return freezeHeader(f, sheet)
}

func writeCollectionsStats(f *excelize.File, st styles, res *reconcile.Result) error {
	const sheet = "Statistics"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	s := res.Summary
	lines := [][2]interface{}{
		{"Total Collected", s.TotalCollected},
		{"Total Loans Collected", s.TotalLoansCollected},
		{"Officers with Collections", s.OfficerCount},
		{"Total Loans Processed", s.TotalLoansProcessed},
		{"Average Collection", s.AverageCollection},
	}
	for _, b := range res.Pivot.Buckets {
		lines = append(lines, [2]interface{}{"Collected in " + b, s.BucketDistribution[b]})
	}
	if s.TotalTarget != nil {
		lines = append(lines,
			[2]interface{}{"Total Target", *s.TotalTarget},
			[2]interface{}{"Remaining Target", *s.RemainingTarget},
			[2]interface{}{"Overall Achievement %", *s.OverallAchievementPercentage},
		)
	}
	for i, kv := range lines {
		if err := setRow(f, sheet, i+1, kv[:]); err != nil {
			return err
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, st.label); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "A", 30)
}

// RiskWorkbook renders the scored cohort into the three-sheet risk report.
func RiskWorkbook(res *risk.Result) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	if err := writeRiskRanking(f, st, "Customer Risk Ranking", res.Customers); err != nil {
		return nil, err
	}
	if err := writeRiskMatrix(f, st, res.Matrix); err != nil {
		return nil, err
	}
	if err := writeRiskRanking(f, st, "Early Arrears", res.EarlyArrears); err != nil {
		return nil, err
	}
	columns, listing := RiskListing(res.Customers)
	if err := writeAssembledSheet(f, st, "Officer Risk Listing", len(columns), listing); err != nil {
		return nil, err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	return workbookBytes(f)
}

func writeRiskRanking(f *excelize.File, st styles, sheet string, recs []domain.RiskScoredRecord) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	headers := []interface{}{
		"Full Names", "Phone Number", "Field Officer", "Installment No",
		"Arrears", "Loan Balance", "Missed Installments", "Risk Score", "Risk Category",
	}
	if err := setRow(f, sheet, 1, headers); err != nil {
		return err
	}
	if err := styleRow(f, sheet, 1, len(headers), st.header); err != nil {
		return err
	}
	for i, rec := range recs {
		vals := []interface{}{
			rec.FullName, ingest.FormatPhoneDisplay(rec.Phone), rec.Officer, rec.InstallmentNo,
			money(rec.Arrears), money(rec.LoanBalance), rec.MissedInstallments,
			money(rec.RiskScore), rec.RiskCategory,
		}
		if err := setRow(f, sheet, i+2, vals); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", "C", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "D", "I", 16); err != nil {
		return err
	}
	if err := f.SetColStyle(sheet, "E:F", st.money); err != nil {
		return err
	}
	if err := f.SetColStyle(sheet, "H:H", st.money); err != nil {
		return err
	}
	return freezeHeader(f, sheet)
}

func writeRiskMatrix(f *excelize.File, st styles, m risk.Matrix) error {
	const sheet = "Officer Matrix"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	headers := []interface{}{"Field Officer"}
	for _, tier := range domain.RiskTiers {
		headers = append(headers, tier)
	}
	headers = append(headers, "Total Arrears", "High Risk %")
	if err := setRow(f, sheet, 1, headers); err != nil {
		return err
	}
	if err := styleRow(f, sheet, 1, len(headers), st.header); err != nil {
		return err
	}

	rowNum := 2
	for _, row := range m.Rows {
		if err := setRow(f, sheet, rowNum, matrixCells(row)); err != nil {
			return err
		}
		rowNum++
	}
	if err := setRow(f, sheet, rowNum, matrixCells(m.Total)); err != nil {
		return err
	}
	if err := styleRow(f, sheet, rowNum, len(headers), st.grandTotal); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "A", 26); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "F", 16); err != nil {
		return err
	}
	return f.SetColStyle(sheet, "B:F", st.money)
}

func matrixCells(row risk.MatrixRow) []interface{} {
	cells := []interface{}{row.Officer}
	for _, tier := range domain.RiskTiers {
		cells = append(cells, money(row.Tiers[tier]))
	}
	return append(cells, money(row.TotalArrears), money(row.HighRiskPct))
}

// DuesWorkbook renders the pre-assembled dues listing.
func DuesWorkbook(columns []string, rows []Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}
	if err := writeAssembledSheet(f, st, "Amount Due Listing", len(columns), rows); err != nil {
		return nil, err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	return workbookBytes(f)
}

// writeAssembledSheet renders assembler output. Styling keys off the row
// kinds; group header and summary rows are merged across the full width.
func writeAssembledSheet(f *excelize.File, st styles, sheet string, width int, rows []Row) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	for i, row := range rows {
		rowNum := i + 1
		vals := make([]interface{}, len(row.Cells))
		for j, c := range row.Cells {
			vals[j] = c
		}
		if err := setRow(f, sheet, rowNum, vals); err != nil {
			return err
		}

		var style int
		merge := false
		switch row.Kind {
		case KindColumnHeader:
			style = st.header
		case KindGroupHeader:
			style, merge = st.groupHead, true
		case KindSubtotal:
			style = st.subtotal
		case KindGrandTotal:
			style = st.grandTotal
		case KindSummaryLine:
			style, merge = st.label, true
		default:
			continue
		}
		if err := styleRow(f, sheet, rowNum, width, style); err != nil {
			return err
		}
		if merge {
			if err := mergeAcross(f, sheet, rowNum, 1, width); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 28); err != nil {
		return err
	}
	endCol, err := excelize.ColumnNumberToName(width)
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", endCol, 16); err != nil {
		return err
	}
	return freezeHeader(f, sheet)
}

// DashboardWorkbook renders the executive scorecard and the bucketed
// collections priority list.
func DashboardWorkbook(res *dashboard.Result) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}
	if err := writeScorecard(f, st, res); err != nil {
		return nil, err
	}
	if err := writePriorityList(f, st, res); err != nil {
		return nil, err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	return workbookBytes(f)
}

func writeScorecard(f *excelize.File, st styles, res *dashboard.Result) error {
	const sheet = "Executive Dashboard"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	stats := [][2]interface{}{
		{"Total Clients", res.TotalClients},
		{"Total Arrears", res.TotalArrears},
		{"Total Portfolio", res.TotalPortfolio},
		{"Average Days Late", res.AvgDaysLate},
		{"Current Clients", res.CurrentClients},
		{"Delinquent Clients", res.DelinquentClients},
		{"Sales Reps", res.SalesRepCount},
	}
	rowNum := 1
	for _, kv := range stats {
		if err := setRow(f, sheet, rowNum, kv[:]); err != nil {
			return err
		}
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, st.label); err != nil {
			return err
		}
		rowNum++
	}
	rowNum++

	headers := []interface{}{"Sales Rep", "Clients", "Total Arrears", "Total Portfolio", "Risk %"}
	if err := setRow(f, sheet, rowNum, headers); err != nil {
		return err
	}
	if err := styleRow(f, sheet, rowNum, len(headers), st.header); err != nil {
		return err
	}
	rowNum++
	for _, rep := range res.Scorecard {
		vals := []interface{}{
			rep.Officer, rep.ClientCount, money(rep.TotalArrears), money(rep.Portfolio),
			money(rep.RiskPct.Mul(decimal.NewFromInt(100))),
		}
		if err := setRow(f, sheet, rowNum, vals); err != nil {
			return err
		}
		rowNum++
	}
	rowNum++

	if err := setRow(f, sheet, rowNum, []interface{}{"Bucket", "Clients", "Arrears"}); err != nil {
		return err
	}
	if err := styleRow(f, sheet, rowNum, 3, st.header); err != nil {
		return err
	}
	rowNum++
	for _, label := range (bucket.DaysLate{}).Labels() {
		vals := []interface{}{label, res.BucketCounts[label], res.BucketArrears[label]}
		if err := setRow(f, sheet, rowNum, vals); err != nil {
			return err
		}
		rowNum++
	}

	if err := f.SetColWidth(sheet, "A", "A", 26); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "B", "E", 16)
}

func writePriorityList(f *excelize.File, st styles, res *dashboard.Result) error {
	const sheet = "Collections Priority"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	headers := []interface{}{"Client Name", "Phone Number", "Days Late", "Bucket", "Arrears", "Loan Balance"}
	width := len(headers)
	if err := setRow(f, sheet, 1, headers); err != nil {
		return err
	}
	if err := styleRow(f, sheet, 1, width, st.header); err != nil {
		return err
	}

	rowNum := 2
	for _, block := range res.Blocks {
		label := fmt.Sprintf("--- %s (%d clients) ---", strings.ToUpper(block.Officer), len(block.Entries))
		if err := setRow(f, sheet, rowNum, []interface{}{label}); err != nil {
			return err
		}
		if err := styleRow(f, sheet, rowNum, width, st.groupHead); err != nil {
			return err
		}
		if err := mergeAcross(f, sheet, rowNum, 1, width); err != nil {
			return err
		}
		rowNum++

		blockStart := rowNum
		for _, e := range block.Entries {
			vals := []interface{}{
				e.FullName, ingest.FormatPhoneDisplay(e.Phone), e.DaysLate,
				e.Bucket, money(e.Arrears), money(e.LoanBalance),
			}
			if err := setRow(f, sheet, rowNum, vals); err != nil {
				return err
			}
			rowNum++
		}

		// Merge each same-bucket run in the Bucket column and annotate it
		// with the run's arrears total.
		for _, rng := range block.Ranges {
			if rng.Count < 2 {
				continue
			}
			top := blockStart + rng.Start
			start, err := excelize.CoordinatesToCellName(4, top)
			if err != nil {
				return err
			}
			end, err := excelize.CoordinatesToCellName(4, top+rng.Count-1)
			if err != nil {
				return err
			}
			if err := f.MergeCell(sheet, start, end); err != nil {
				return err
			}
			label := fmt.Sprintf("%s\nKES %s", rng.Bucket, ingest.FormatAmount(rng.Total))
			if err := f.SetCellValue(sheet, start, label); err != nil {
				return err
			}
		}

		totals := []interface{}{
			"Subtotal " + block.Officer, "", "", "",
			money(block.TotalArrears), money(block.TotalBalance),
		}
		if err := setRow(f, sheet, rowNum, totals); err != nil {
			return err
		}
		if err := styleRow(f, sheet, rowNum, width, st.subtotal); err != nil {
			return err
		}
		rowNum += 2
	}

	if err := f.SetColWidth(sheet, "A", "B", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "C", "F", 15); err != nil {
		return err
	}
	if err := f.SetColStyle(sheet, "E:F", st.money); err != nil {
		return err
	}
	return freezeHeader(f, sheet)
}

func mergeAcross(f *excelize.File, sheet string, rowNum, from, to int) error {
	start, err := excelize.CoordinatesToCellName(from, rowNum)
	if err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(to, rowNum)
	if err != nil {
		return err
	}
	return f.MergeCell(sheet, start, end)
}

func workbookBytes(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// internal/api/handlers/report_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/DennisMbugua/collectflow/internal/api/responses"
	"github.com/DennisMbugua/collectflow/internal/core/dashboard"
	"github.com/DennisMbugua/collectflow/internal/core/dues"
	"github.com/DennisMbugua/collectflow/internal/core/reconcile"
	"github.com/DennisMbugua/collectflow/internal/core/report"
	"github.com/DennisMbugua/collectflow/internal/core/risk"
	"github.com/DennisMbugua/collectflow/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler exposes the four report pipelines over multipart uploads.
// Every endpoint accepts format=json (default) or format=excel.
type ReportHandler struct {
	reconcile reconcile.Service
	risk      risk.Service
	dues      dues.Service
	dashboard dashboard.Service
}

func NewReportHandler(rec reconcile.Service, rk risk.Service, du dues.Service, db dashboard.Service) *ReportHandler {
	return &ReportHandler{reconcile: rec, risk: rk, dues: du, dashboard: db}
}

// openUpload fetches a named multipart file, reporting a 400 itself when
// the field is absent. The caller must close the returned file.
func openUpload(c *gin.Context, field string) (multipart.File, string, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "file '"+field+"' not found or invalid", err)
		return nil, "", false
	}
	file, err := header.Open()
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "could not open file '"+field+"'", err)
		return nil, "", false
	}
	return file, header.Filename, true
}

// reportError maps pipeline failures onto status codes: schema and
// duplicate-key problems are the caller's fault, everything else is ours.
func reportError(c *gin.Context, err error) {
	var schemaErr *domain.SchemaError
	var dupErr *domain.DuplicateKeyError
	switch {
	case errors.As(err, &schemaErr):
		responses.Error(c, http.StatusBadRequest, schemaErr.Error(), err)
	case errors.As(err, &dupErr):
		responses.Error(c, http.StatusBadRequest, dupErr.Error(), err)
	default:
		responses.Error(c, http.StatusInternalServerError, "report generation failed", err)
	}
}

func wantsExcel(c *gin.Context) bool {
	return c.DefaultPostForm("format", "json") == "excel"
}

// HandleArrearsCollected reconciles the start-of-day arrears snapshot
// against the current one and reports what was collected today.
func (h *ReportHandler) HandleArrearsCollected(c *gin.Context) {
	sodFile, sodName, ok := openUpload(c, "sodFile")
	if !ok {
		return
	}
	defer sodFile.Close()
	curFile, curName, ok := openUpload(c, "curFile")
	if !ok {
		return
	}
	defer curFile.Close()

	targets, ok := parseTargetsField(c)
	if !ok {
		return
	}

	res, err := h.reconcile.Process(sodFile, sodName, curFile, curName, targets)
	if err != nil {
		reportError(c, err)
		return
	}
	if res.NoCollections {
		responses.Notice(c, "No collections were recorded between the two files")
		return
	}

	if wantsExcel(c) {
		data, err := report.CollectionsWorkbook(res)
		if err != nil {
			reportError(c, err)
			return
		}
		responses.Attachment(c, report.Filename("collections_report"), xlsxContentType, data)
		return
	}
	responses.OK(c, res.Summary)
}

// parseTargetsField decodes the optional 'targets' form field, a JSON
// object of officer name to target amount.
func parseTargetsField(c *gin.Context) (map[string]string, bool) {
	raw := c.PostForm("targets")
	if raw == "" {
		return nil, true
	}
	var targets map[string]string
	if err := json.Unmarshal([]byte(raw), &targets); err != nil {
		responses.Error(c, http.StatusBadRequest, "targets must be a JSON object of officer to amount", err)
		return nil, false
	}
	return targets, true
}

// HandleRiskAnalysis scores an unpaid-dues cohort into risk tiers.
func (h *ReportHandler) HandleRiskAnalysis(c *gin.Context) {
	file, filename, ok := openUpload(c, "file")
	if !ok {
		return
	}
	defer file.Close()

	res, err := h.risk.Analyze(file, filename)
	if err != nil {
		reportError(c, err)
		return
	}
	if len(res.Customers) == 0 {
		responses.Notice(c, "No customers found in the uploaded file")
		return
	}

	if wantsExcel(c) {
		data, err := report.RiskWorkbook(res)
		if err != nil {
			reportError(c, err)
			return
		}
		responses.Attachment(c, report.Filename("risk_analysis"), xlsxContentType, data)
		return
	}
	responses.OK(c, gin.H{
		"portfolio_summary": res.PortfolioSummary,
		"customers":         riskView(res.Customers),
		"early_arrears":     riskView(res.EarlyArrears),
	})
}

type riskCustomer struct {
	FullName           string  `json:"full_name"`
	Phone              string  `json:"phone"`
	Officer            string  `json:"officer"`
	InstallmentNo      int     `json:"installment_no"`
	Arrears            float64 `json:"arrears"`
	LoanBalance        float64 `json:"loan_balance"`
	MissedInstallments int     `json:"missed_installments"`
	RiskScore          float64 `json:"risk_score"`
	RiskCategory       string  `json:"risk_category"`
}

func riskView(recs []domain.RiskScoredRecord) []riskCustomer {
	out := make([]riskCustomer, 0, len(recs))
	for _, r := range recs {
		out = append(out, riskCustomer{
			FullName:           r.FullName,
			Phone:              r.Phone,
			Officer:            r.Officer,
			InstallmentNo:      r.InstallmentNo,
			Arrears:            r.Arrears.Round(2).InexactFloat64(),
			LoanBalance:        r.LoanBalance.Round(2).InexactFloat64(),
			MissedInstallments: r.MissedInstallments,
			RiskScore:          r.RiskScore.Round(2).InexactFloat64(),
			RiskCategory:       r.RiskCategory,
		})
	}
	return out
}

// HandleArrangeDues arranges a dues export into the per-officer listing.
func (h *ReportHandler) HandleArrangeDues(c *gin.Context) {
	file, filename, ok := openUpload(c, "file")
	if !ok {
		return
	}
	defer file.Close()

	res, err := h.dues.Arrange(file, filename)
	if err != nil {
		reportError(c, err)
		return
	}
	if res.ClientCount == 0 {
		responses.Notice(c, "No clients found in the uploaded file")
		return
	}

	if wantsExcel(c) {
		data, err := report.DuesWorkbook(res.Columns, res.Rows)
		if err != nil {
			reportError(c, err)
			return
		}
		responses.Attachment(c, report.Filename("amount_due_listing"), xlsxContentType, data)
		return
	}
	responses.OK(c, gin.H{
		"stats":        res.Stats,
		"grand_totals": res.GrandTotals,
		"rows":         rowsView(res.Rows),
	})
}

func rowsView(rows []report.Row) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Cells)
	}
	return out
}

// HandleExecutiveDashboard builds the days-late dashboard.
func (h *ReportHandler) HandleExecutiveDashboard(c *gin.Context) {
	file, filename, ok := openUpload(c, "file")
	if !ok {
		return
	}
	defer file.Close()

	res, err := h.dashboard.Build(file, filename)
	if err != nil {
		reportError(c, err)
		return
	}
	if res.TotalClients == 0 {
		responses.Notice(c, "No clients found in the uploaded file")
		return
	}

	if wantsExcel(c) {
		data, err := report.DashboardWorkbook(res)
		if err != nil {
			reportError(c, err)
			return
		}
		responses.Attachment(c, report.Filename("executive_dashboard"), xlsxContentType, data)
		return
	}
	responses.OK(c, gin.H{
		"summary":         res,
		"rep_performance": scorecardView(res.Scorecard),
	})
}

type repView struct {
	Officer      string  `json:"officer"`
	ClientCount  int     `json:"client_count"`
	TotalArrears float64 `json:"total_arrears"`
	Portfolio    float64 `json:"portfolio"`
	RiskPct      float64 `json:"risk_pct"`
}

func scorecardView(rows []dashboard.RepRow) []repView {
	out := make([]repView, 0, len(rows))
	for _, r := range rows {
		out = append(out, repView{
			Officer:      r.Officer,
			ClientCount:  r.ClientCount,
			TotalArrears: r.TotalArrears.Round(2).InexactFloat64(),
			Portfolio:    r.Portfolio.Round(2).InexactFloat64(),
			RiskPct:      r.RiskPct.Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64(),
		})
	}
	return out
}

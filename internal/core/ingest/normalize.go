// internal/core/ingest/normalize.go
package ingest

import (
	"regexp"
	"strings"

	"github.com/DennisMbugua/collectflow/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Canonical column names shared by the report pipelines.
const (
	ColLoanID        = "LoanId"
	ColSalesRep      = "SalesRep"
	ColArrearsAmount = "ArrearsAmount"
	ColDaysInArrears = "DaysInArrears"
	ColFullNames     = "FullNames"
	ColPhoneNumber   = "PhoneNumber"
	ColInstallmentNo = "InstallmentNo"
	ColAmountDue     = "AmountDue"
	ColArrears       = "Arrears"
	ColAmountPaid    = "AmountPaid"
	ColLoanBalance   = "LoanBalance"
	ColFieldOfficer  = "FieldOfficer"
	ColFundedAmount  = "FundedAmount"
)

// defaultAliases maps cleaned header variants to canonical names. The list
// mirrors what branch uploads actually contain; resolution is
// first-match-wins and unmapped headers pass through untouched.
var defaultAliases = map[string]string{
	"Loanid":  ColLoanID,
	"Loan_id": ColLoanID,

	"Salesrep":  ColSalesRep,
	"Sales_rep": ColSalesRep,
	"Officer":   ColSalesRep,
	"Agent":     ColSalesRep,

	"Arrearsamount":  ColArrearsAmount,
	"Arrears_amount": ColArrearsAmount,
	"Arrears":        ColArrearsAmount,
	"Amount":         ColArrearsAmount,
	"Balance":        ColArrearsAmount,

	"Daysinarrears":   ColDaysInArrears,
	"Days_in_arrears": ColDaysInArrears,
	"Days":            ColDaysInArrears,
	"Age":             ColDaysInArrears,
	"Daysinarr":       ColDaysInArrears,
}

// defaultCorrections fixes officer-name misspellings seen in the field.
// Deliberately incomplete; extend as new variants show up in uploads.
var defaultCorrections = map[string]string{
	"Brian Wanj:":   "Brian Wanjau",
	"Brian Wanjau:": "Brian Wanjau",
	"Brian W.":      "Brian Wanjau",
}

var (
	spacesRe     = regexp.MustCompile(`\s+`)
	nonNumericRe = regexp.MustCompile(`[^0-9.+\-]`)
	camelSplitRe = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// Normalizer maps arbitrary uploaded headers to the canonical field set and
// coerces cell values. Alias and correction tables are data, not logic:
// callers may swap them without touching the pipeline.
type Normalizer struct {
	Aliases     map[string]string
	Corrections map[string]string
	titler      cases.Caser
}

func NewNormalizer() *Normalizer {
	return NewNormalizerWith(defaultAliases)
}

// NewNormalizerWith builds a normalizer over a report-specific alias
// table. Different uploads canonicalize the same raw header differently
// (the collections feed calls arrears "Balance"; the dues feed has a real
// LoanBalance column), so each pipeline owns its table.
func NewNormalizerWith(aliases map[string]string) *Normalizer {
	return &Normalizer{
		Aliases:     aliases,
		Corrections: defaultCorrections,
		titler:      cases.Title(language.English),
	}
}

// CleanHeader strips and collapses whitespace, title-cases the text and
// removes internal spaces, so "loan  id", "LOAN ID" and "LoanID" all land
// on "Loanid"/"LoanId" ready for alias lookup.
func (n *Normalizer) CleanHeader(h string) string {
	h = spacesRe.ReplaceAllString(strings.TrimSpace(h), " ")
	h = n.titler.String(h)
	return strings.ReplaceAll(h, " ", "")
}

// CanonicalizeHeaders rewrites the table headers in place-order: cleaned,
// then alias-resolved. Row keys are rewritten to match.
func (n *Normalizer) CanonicalizeHeaders(t Table) Table {
	out := Table{Headers: make([]string, len(t.Headers))}
	for i, h := range t.Headers {
		cleaned := n.CleanHeader(h)
		if canonical, ok := n.Aliases[cleaned]; ok {
			cleaned = canonical
		}
		out.Headers[i] = cleaned
	}

	out.Rows = make([]map[string]string, len(t.Rows))
	for i, row := range t.Rows {
		mapped := make(map[string]string, len(out.Headers))
		for j, h := range t.Headers {
			if _, taken := mapped[out.Headers[j]]; taken {
				continue // first column wins on header collisions
			}
			mapped[out.Headers[j]] = row[h]
		}
		out.Rows[i] = mapped
	}
	return out
}

// Require verifies the canonical columns are present, returning a
// SchemaError naming the gaps both canonically and in user-facing form.
// A table with headers but no rows passes; a table with no headers at all
// cannot satisfy any requirement.
func (n *Normalizer) Require(t Table, file string, required ...string) error {
	present := make(map[string]bool, len(t.Headers))
	for _, h := range t.Headers {
		present[h] = true
	}

	var missing, readable []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
			readable = append(readable, humanColumnName(col))
		}
	}
	if len(missing) > 0 {
		return &domain.SchemaError{File: file, Missing: missing, Readable: readable}
	}
	return nil
}

// humanColumnName renders "DaysInArrears" as "DaysInArrears or Days In Arrears".
func humanColumnName(col string) string {
	spaced := camelSplitRe.ReplaceAllString(col, "$1 $2")
	if spaced == col {
		return col
	}
	return col + " or " + spaced
}

// ParseAmount coerces a noisy cell into a decimal. Thousands separators and
// stray characters are stripped; anything still unparseable defaults to
// zero. The ok result lets callers drop rows where the field is required.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	s = nonNumericRe.ReplaceAllString(strings.ReplaceAll(s, ",", ""), "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseCount coerces a cell into a non-negative-ish integer the same way
// ParseAmount treats money; fractional input is truncated.
func ParseCount(s string) (int, bool) {
	d, ok := ParseAmount(s)
	if !ok {
		return 0, false
	}
	return int(d.IntPart()), true
}

// ParseOptionalAmount is ParseAmount with the zero default folded in.
func ParseOptionalAmount(s string) decimal.Decimal {
	d, _ := ParseAmount(s)
	return d
}

// NormalizeOfficer trims, applies the correction table and title-cases an
// officer name. Empty input falls back to the given placeholder.
func (n *Normalizer) NormalizeOfficer(name, placeholder string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return placeholder
	}
	for wrong, correct := range n.Corrections {
		name = strings.ReplaceAll(name, wrong, correct)
	}
	return n.titler.String(name)
}

// FindColumn evaluates ranked keyword matchers against the headers and
// returns the first hit. Keywords earlier in the list outrank later ones;
// within one keyword, header order decides.
func FindColumn(t Table, keywords ...string) (string, bool) {
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		for _, h := range t.Headers {
			if strings.Contains(strings.ToLower(h), kw) {
				return h, true
			}
		}
	}
	return "", false
}

// ParseIntCell is a convenience for integer cells that should default to 0.
func ParseIntCell(s string) int {
	v, _ := ParseCount(s)
	return v
}

// FormatAmount renders a decimal with thousands separators and two
// decimals, matching the compact summary lines in the workbook reports.
func FormatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	dot := strings.Index(s, ".")
	intPart, frac := s[:dot], s[dot:]
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}

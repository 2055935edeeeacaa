// internal/domain/models.go
package domain

import "github.com/shopspring/decimal"

// AccountRecord is one row of a loan snapshot after schema normalization.
// All money fields carry full precision; rounding happens only at presentation.
type AccountRecord struct {
	LoanID        string
	AccountKey    string // join/grouping key for the report at hand (loan id or phone)
	Officer       string
	FullName      string
	Phone         string
	Arrears       decimal.Decimal
	AmountDue     decimal.Decimal
	AmountPaid    decimal.Decimal
	LoanBalance   decimal.Decimal
	DaysInArrears int
	InstallmentNo int
}

// ReconciliationRecord is the left join of a start-of-day row onto the
// current snapshot. A loan missing on the current side is a paid-off loan,
// so ArrearsCUR is zero there, not a join miss.
type ReconciliationRecord struct {
	LoanID     string
	Officer    string
	ArrearsSOD decimal.Decimal
	AgeSOD     int
	ArrearsCUR decimal.Decimal
	Collected  decimal.Decimal
	Bucket     string
}

// RiskScoredRecord is an account with its cohort-relative risk assessment.
type RiskScoredRecord struct {
	AccountRecord
	MissedInstallments int
	RiskScore          decimal.Decimal
	RiskCategory       string
}

// Risk tiers in canonical severity order.
const (
	HighRisk   = "High Risk"
	MediumRisk = "Medium Risk"
	LowRisk    = "Low Risk"
)

// RiskTiers lists the tiers in the order reports present them.
var RiskTiers = []string{HighRisk, MediumRisk, LowRisk}

// Placeholders applied when a text field cannot be resolved.
const (
	UnassignedOfficer = "Unassigned"
	UnknownOfficer    = "Unknown"
	UnknownClient     = "Unknown Client"
)

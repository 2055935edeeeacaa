// internal/core/risk/matrix.go
package risk

import (
	"sort"

	"github.com/DennisMbugua/collectflow/internal/core/aggregate"
	"github.com/DennisMbugua/collectflow/internal/domain"
	"github.com/shopspring/decimal"
)

const colArrears = "Arrears"

// MatrixRow is one officer's arrears exposure split by risk tier.
type MatrixRow struct {
	Officer      string
	Tiers        map[string]decimal.Decimal
	TotalArrears decimal.Decimal
	HighRiskPct  decimal.Decimal
}

// Matrix is the officer × risk-tier arrears table with its TOTAL row.
// Officer rows are ranked by total arrears descending. HighRiskPct is
// always a division of sums; the TOTAL row recomputes it from the grand
// sums rather than averaging the officer percentages.
type Matrix struct {
	Rows  []MatrixRow
	Total MatrixRow
}

// BuildMatrix rolls the scored cohort up per officer per tier.
func BuildMatrix(scored []domain.RiskScoredRecord) Matrix {
	g := aggregate.NewGrouper(colArrears)
	for _, r := range scored {
		g.Observe(r.Officer, r.RiskCategory, map[string]decimal.Decimal{colArrears: r.Arrears})
	}

	var m Matrix
	for _, grp := range g.Groups(domain.RiskTiers) {
		row := MatrixRow{Officer: grp.Name, Tiers: make(map[string]decimal.Decimal, len(domain.RiskTiers))}
		for _, tier := range domain.RiskTiers {
			v := grp.Sub(tier).Get(colArrears)
			row.Tiers[tier] = v
			row.TotalArrears = row.TotalArrears.Add(v)
		}
		row.HighRiskPct = aggregate.Percent(row.Tiers[domain.HighRisk], row.TotalArrears)
		m.Rows = append(m.Rows, row)
	}

	sort.SliceStable(m.Rows, func(i, j int) bool {
		if c := m.Rows[i].TotalArrears.Cmp(m.Rows[j].TotalArrears); c != 0 {
			return c > 0
		}
		return m.Rows[i].Officer < m.Rows[j].Officer
	})

	total := MatrixRow{Officer: "TOTAL", Tiers: make(map[string]decimal.Decimal, len(domain.RiskTiers))}
	for _, tier := range domain.RiskTiers {
		total.Tiers[tier] = decimal.Zero
	}
	for _, row := range m.Rows {
		for _, tier := range domain.RiskTiers {
			total.Tiers[tier] = total.Tiers[tier].Add(row.Tiers[tier])
		}
		total.TotalArrears = total.TotalArrears.Add(row.TotalArrears)
	}
	total.HighRiskPct = aggregate.Percent(total.Tiers[domain.HighRisk], total.TotalArrears)
	m.Total = total
	return m
}

// PortfolioSummary is the headline block of the risk report.
type PortfolioSummary struct {
	TotalCustomers        int     `json:"total_customers"`
	CustomersInArrears    int     `json:"customers_in_arrears"`
	PortfolioArrears      float64 `json:"portfolio_arrears"`
	AverageArrears        float64 `json:"average_arrears"`
	LoansInArrearsPercent float64 `json:"loans_in_arrears_percent"`
	HighRiskCustomers     int     `json:"high_risk_customers"`
	MediumRiskCustomers   int     `json:"medium_risk_customers"`
	LowRiskCustomers      int     `json:"low_risk_customers"`
}

func buildPortfolioSummary(scored []domain.RiskScoredRecord) PortfolioSummary {
	s := PortfolioSummary{TotalCustomers: len(scored)}
	total := decimal.Zero
	for _, r := range scored {
		total = total.Add(r.Arrears)
		if r.Arrears.IsPositive() {
			s.CustomersInArrears++
		}
		switch r.RiskCategory {
		case domain.HighRisk:
			s.HighRiskCustomers++
		case domain.MediumRisk:
			s.MediumRiskCustomers++
		case domain.LowRisk:
			s.LowRiskCustomers++
		}
	}
	s.PortfolioArrears = total.InexactFloat64()
	if len(scored) > 0 {
		n := decimal.NewFromInt(int64(len(scored)))
		s.AverageArrears = total.Div(n).Round(2).InexactFloat64()
		s.LoansInArrearsPercent = decimal.NewFromInt(int64(s.CustomersInArrears)).
			Div(n).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
	}
	return s
}

// internal/core/report/risklisting.go
package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/DennisMbugua/collectflow/internal/core/aggregate"
	"github.com/DennisMbugua/collectflow/internal/core/ingest"
	"github.com/DennisMbugua/collectflow/internal/domain"
	"github.com/shopspring/decimal"
)

// Layout of the printable per-officer risk listing.
var riskListingColumns = []string{"Customer", "Phone Number", "Risk Category", "Missed Installments", "Arrears", "Risk Score"}

const colListingArrears = "Arrears"

// RiskListing arranges a scored cohort into officer blocks: customers in
// tier order (worst first) and by score descending within a tier, one
// subtotal per officer, tier breakdown on the summary line.
func RiskListing(scored []domain.RiskScoredRecord) (columns []string, rows []Row) {
	g := aggregate.NewGrouper(colListingArrears)
	byOfficer := make(map[string][]domain.RiskScoredRecord)
	for _, r := range scored {
		g.Observe(r.Officer, r.RiskCategory, map[string]decimal.Decimal{colListingArrears: r.Arrears})
		byOfficer[r.Officer] = append(byOfficer[r.Officer], r)
	}

	tierRank := make(map[string]int, len(domain.RiskTiers))
	for i, tier := range domain.RiskTiers {
		tierRank[tier] = i
	}

	var blocks []Block
	for _, grp := range g.Groups(domain.RiskTiers) {
		members := byOfficer[grp.Name]
		sort.SliceStable(members, func(i, j int) bool {
			if tierRank[members[i].RiskCategory] != tierRank[members[j].RiskCategory] {
				return tierRank[members[i].RiskCategory] < tierRank[members[j].RiskCategory]
			}
			return members[i].RiskScore.GreaterThan(members[j].RiskScore)
		})

		block := Block{
			Header: fmt.Sprintf("--- %s (%d customers) ---", strings.ToUpper(grp.Name), len(members)),
		}
		for _, m := range members {
			block.Details = append(block.Details, []string{
				m.FullName,
				ingest.FormatPhoneDisplay(m.Phone),
				m.RiskCategory,
				strconv.Itoa(m.MissedInstallments),
				ingest.FormatAmount(m.Arrears),
				m.RiskScore.StringFixed(2),
			})
		}
		block.Subtotal = []string{
			"Subtotal " + grp.Name, "", "", "",
			ingest.FormatAmount(grp.Totals.Get(colListingArrears)),
			"",
		}
		block.SummaryLine = tierLine(grp)
		blocks = append(blocks, block)
	}

	grand := g.Grand()
	grandCells := []string{
		"GRAND TOTAL", "", "", "",
		ingest.FormatAmount(grand.Get(colListingArrears)),
		"",
	}
	trailer := fmt.Sprintf("SUMMARY: Customers: %d | Portfolio Arrears: KES %s",
		len(scored), ingest.FormatAmount(grand.Get(colListingArrears)))

	return riskListingColumns, Assemble(riskListingColumns, blocks, grandCells, "", trailer)
}

// tierLine renders the officer's arrears split across the tiers.
func tierLine(grp aggregate.Group) string {
	parts := make([]string, 0, len(domain.RiskTiers))
	for _, tier := range domain.RiskTiers {
		parts = append(parts, tier+": "+ingest.FormatAmount(grp.Sub(tier).Get(colListingArrears)))
	}
	return strings.Join(parts, " | ")
}

// internal/core/reconcile/summary.go
package reconcile

import (
	"github.com/shopspring/decimal"
)

// OfficerPerformance is one officer's slice of the JSON summary.
type OfficerPerformance struct {
	Collected      float64 `json:"collected"`
	LoansCollected int     `json:"loans_collected"`
}

// Summary is the JSON report body consumed by the mobile clients. Target
// fields appear only when targets were supplied with the request.
type Summary struct {
	TotalCollected               float64                       `json:"total_collected"`
	TotalLoansCollected          int                           `json:"total_loans_collected"`
	OfficerCount                 int                           `json:"officer_count"`
	TotalLoansProcessed          int                           `json:"total_loans_processed"`
	AverageCollection            float64                       `json:"average_collection"`
	BucketDistribution           map[string]float64            `json:"bucket_distribution"`
	OfficerPerformance           map[string]OfficerPerformance `json:"officer_performance"`
	OfficerTargets               map[string]float64            `json:"officer_targets,omitempty"`
	TotalTarget                  *float64                      `json:"total_target,omitempty"`
	OverallAchievementPercentage *float64                      `json:"overall_achievement_percentage,omitempty"`
	RemainingTarget              *float64                      `json:"remaining_target,omitempty"`
}

func buildSummary(res *Result) Summary {
	s := Summary{
		TotalLoansCollected: len(res.Collected),
		TotalLoansProcessed: len(res.Merged),
		BucketDistribution:  make(map[string]float64),
		OfficerPerformance:  make(map[string]OfficerPerformance),
	}

	total := decimal.Zero
	officerSums := make(map[string]decimal.Decimal)
	officerCounts := make(map[string]int)
	bucketSums := make(map[string]decimal.Decimal)
	for _, rec := range res.Collected {
		total = total.Add(rec.Collected)
		officerSums[rec.Officer] = officerSums[rec.Officer].Add(rec.Collected)
		officerCounts[rec.Officer]++
		bucketSums[rec.Bucket] = bucketSums[rec.Bucket].Add(rec.Collected)
	}

	s.TotalCollected = total.InexactFloat64()
	s.OfficerCount = len(officerSums)
	if len(res.Collected) > 0 {
		avg := total.Div(decimal.NewFromInt(int64(len(res.Collected))))
		s.AverageCollection = avg.InexactFloat64()
	}
	for b, v := range bucketSums {
		s.BucketDistribution[b] = v.InexactFloat64()
	}
	for o, v := range officerSums {
		s.OfficerPerformance[o] = OfficerPerformance{
			Collected:      v.InexactFloat64(),
			LoansCollected: officerCounts[o],
		}
	}

	if res.Pivot.HasTargets {
		s.OfficerTargets = make(map[string]float64, len(res.Pivot.Rows))
		targetTotal := decimal.Zero
		for _, row := range res.Pivot.Rows {
			s.OfficerTargets[row.Officer] = row.Target.InexactFloat64()
			targetTotal = targetTotal.Add(row.Target)
		}
		tt := targetTotal.InexactFloat64()
		s.TotalTarget = &tt

		achievement := 0.0
		if targetTotal.IsPositive() {
			achievement = total.Div(targetTotal).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
		s.OverallAchievementPercentage = &achievement

		remaining := targetTotal.Sub(total).InexactFloat64()
		s.RemainingTarget = &remaining
	}
	return s
}

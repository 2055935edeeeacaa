// internal/core/bucket/policy.go
package bucket

// Policy maps a days-in-arrears value to a discrete aging bucket. Both
// implementations are total functions: any integer, including negatives,
// lands in exactly one bucket.
type Policy interface {
	// Classify returns the bucket label for the given age.
	Classify(days int) string
	// Labels lists the buckets in canonical severity order.
	Labels() []string
	// Valid reports whether a label participates in rollups.
	Valid(label string) bool
}

// Aging is the collections policy: inclusive ranges 1-15, 16-30 and
// 31-180. Everything else, including non-positive and very old ages, is
// "Other" and is excluded from the valid-bucket rollups.
type Aging struct{}

const OtherBucket = "Other"

var agingLabels = []string{"1-15", "16-30", "31-180"}

func (Aging) Classify(days int) string {
	switch {
	case days >= 1 && days <= 15:
		return "1-15"
	case days >= 16 && days <= 30:
		return "16-30"
	case days >= 31 && days <= 180:
		return "31-180"
	default:
		return OtherBucket
	}
}

func (Aging) Labels() []string { return append([]string(nil), agingLabels...) }

func (Aging) Valid(label string) bool {
	for _, l := range agingLabels {
		if l == label {
			return true
		}
	}
	return false
}

// DaysLate is the fine-grained policy behind the executive dashboard.
// Each label carries a dense ordinal (0..5) used only for stable sorting
// and merge-range grouping in the report layout, never for arithmetic.
type DaysLate struct{}

var daysLateLabels = []string{"Current", "1-3 Days", "4-5 Days", "6-9 Days", "10-30 Days", "31+ Days"}

func (DaysLate) Classify(days int) string {
	return daysLateLabels[DaysLate{}.Ordinal(days)]
}

// Ordinal returns the dense bucket index for an age. Negative ages fall in
// the lowest bucket.
func (DaysLate) Ordinal(days int) int {
	switch {
	case days < 1:
		return 0
	case days <= 3:
		return 1
	case days <= 5:
		return 2
	case days <= 9:
		return 3
	case days <= 30:
		return 4
	default:
		return 5
	}
}

func (DaysLate) Labels() []string { return append([]string(nil), daysLateLabels...) }

func (DaysLate) Valid(label string) bool {
	for _, l := range daysLateLabels {
		if l == label {
			return true
		}
	}
	return false
}

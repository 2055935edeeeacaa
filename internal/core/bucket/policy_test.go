package bucket

import "testing"

func TestAgingClassify(t *testing.T) {
	p := Aging{}

	cases := []struct {
		days int
		want string
	}{
		{-5, OtherBucket},
		{0, OtherBucket},
		{1, "1-15"},
		{15, "1-15"},
		{16, "16-30"},
		{30, "16-30"},
		{31, "31-180"},
		{180, "31-180"},
		{181, OtherBucket},
		{1000, OtherBucket},
	}
	for _, tc := range cases {
		if got := p.Classify(tc.days); got != tc.want {
			t.Errorf("Classify(%d) = %q, want %q", tc.days, got, tc.want)
		}
	}
}

func TestAgingTotality(t *testing.T) {
	p := Aging{}
	for days := -400; days <= 400; days++ {
		label := p.Classify(days)
		if label != OtherBucket && !p.Valid(label) {
			t.Fatalf("Classify(%d) = %q is neither Other nor a valid bucket", days, label)
		}
	}
}

func TestAgingValid(t *testing.T) {
	p := Aging{}
	for _, label := range p.Labels() {
		if !p.Valid(label) {
			t.Errorf("label %q should be valid", label)
		}
	}
	if p.Valid(OtherBucket) {
		t.Error("Other must not participate in rollups")
	}
}

func TestDaysLateClassify(t *testing.T) {
	p := DaysLate{}

	cases := []struct {
		days    int
		want    string
		ordinal int
	}{
		{-3, "Current", 0},
		{0, "Current", 0},
		{1, "1-3 Days", 1},
		{3, "1-3 Days", 1},
		{4, "4-5 Days", 2},
		{5, "4-5 Days", 2},
		{6, "6-9 Days", 3},
		{9, "6-9 Days", 3},
		{10, "10-30 Days", 4},
		{30, "10-30 Days", 4},
		{31, "31+ Days", 5},
		{500, "31+ Days", 5},
	}
	for _, tc := range cases {
		if got := p.Classify(tc.days); got != tc.want {
			t.Errorf("Classify(%d) = %q, want %q", tc.days, got, tc.want)
		}
		if got := p.Ordinal(tc.days); got != tc.ordinal {
			t.Errorf("Ordinal(%d) = %d, want %d", tc.days, got, tc.ordinal)
		}
	}
}

func TestDaysLateOrdinalMatchesLabels(t *testing.T) {
	p := DaysLate{}
	labels := p.Labels()
	for days := -10; days <= 100; days++ {
		if labels[p.Ordinal(days)] != p.Classify(days) {
			t.Fatalf("ordinal and label disagree at %d days", days)
		}
	}
}

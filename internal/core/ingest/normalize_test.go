package ingest

import (
	"errors"
	"testing"

	"github.com/DennisMbugua/collectflow/internal/domain"
	"github.com/shopspring/decimal"
)

func TestCanonicalizeHeaders(t *testing.T) {
	n := NewNormalizer()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"exact canonical", "LoanId", "LoanId"},
		{"spaced", "Loan Id", "LoanId"},
		{"upper with spaces", "LOAN ID", "LoanId"},
		{"underscore variant", "Loan_Id", "LoanId"},
		{"extra whitespace", "  Sales   Rep  ", "SalesRep"},
		{"arrears shorthand", "Arrears", "ArrearsAmount"},
		{"balance shorthand", "Balance", "ArrearsAmount"},
		{"age shorthand", "Age", "DaysInArrears"},
		{"unknown passes through", "Branch Name", "BranchName"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tab := Table{Headers: []string{tc.in}, Rows: []map[string]string{{tc.in: "x"}}}
			got := n.CanonicalizeHeaders(tab)
			if got.Headers[0] != tc.want {
				t.Errorf("header %q: got %q, want %q", tc.in, got.Headers[0], tc.want)
			}
			if got.Rows[0][tc.want] != "x" {
				t.Errorf("row key not rewritten for %q", tc.in)
			}
		})
	}
}

func TestCanonicalizeHeadersFirstColumnWins(t *testing.T) {
	n := NewNormalizer()
	tab := Table{
		Headers: []string{"Arrears", "Arrears Amount"},
		Rows:    []map[string]string{{"Arrears": "100", "Arrears Amount": "999"}},
	}
	got := n.CanonicalizeHeaders(tab)
	if got.Rows[0][ColArrearsAmount] != "100" {
		t.Errorf("expected first column to win, got %q", got.Rows[0][ColArrearsAmount])
	}
}

func TestRequire(t *testing.T) {
	n := NewNormalizer()

	t.Run("all present", func(t *testing.T) {
		tab := Table{Headers: []string{ColLoanID, ColSalesRep}}
		if err := n.Require(tab, "test.csv", ColLoanID, ColSalesRep); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("missing columns named", func(t *testing.T) {
		tab := Table{Headers: []string{ColLoanID}}
		err := n.Require(tab, "Start-of-Day file", ColLoanID, ColDaysInArrears)
		var schemaErr *domain.SchemaError
		if !errors.As(err, &schemaErr) {
			t.Fatalf("expected SchemaError, got %v", err)
		}
		if len(schemaErr.Missing) != 1 || schemaErr.Missing[0] != ColDaysInArrears {
			t.Errorf("missing = %v", schemaErr.Missing)
		}
		if schemaErr.Readable[0] != "DaysInArrears or Days In Arrears" {
			t.Errorf("readable = %v", schemaErr.Readable)
		}
	})

	t.Run("empty table passes with headers", func(t *testing.T) {
		tab := Table{Headers: []string{ColLoanID}}
		if err := n.Require(tab, "f", ColLoanID); err != nil {
			t.Fatalf("headers without rows should pass: %v", err)
		}
	})
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1200.50", "1200.5", true},
		{"1,200.50", "1200.5", true},
		{"KES 3,000", "3000", true},
		{" 42 ", "42", true},
		{"-15.25", "-15.25", true},
		{"", "0", false},
		{"n/a", "0", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseAmount(tc.in)
			if ok != tc.ok {
				t.Fatalf("ParseAmount(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			}
			want, _ := decimal.NewFromString(tc.want)
			if !got.Equal(want) {
				t.Errorf("ParseAmount(%q) = %s, want %s", tc.in, got, want)
			}
		})
	}
}

func TestNormalizeOfficer(t *testing.T) {
	n := NewNormalizer()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "john doe", "John Doe"},
		{"already cased", "John Doe", "John Doe"},
		{"correction applied", "Brian Wanj:", "Brian Wanjau"},
		{"trimmed", "  Mary Atieno ", "Mary Atieno"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := n.NormalizeOfficer(tc.in, domain.UnassignedOfficer); got != tc.want {
				t.Errorf("NormalizeOfficer(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}

	t.Run("empty gets placeholder", func(t *testing.T) {
		if got := n.NormalizeOfficer("", domain.UnassignedOfficer); got != domain.UnassignedOfficer {
			t.Errorf("got %q", got)
		}
	})
}

func TestFindColumn(t *testing.T) {
	tab := Table{Headers: []string{"ClientName", "DaysLate", "ArrearsTotal"}}

	t.Run("ranked keywords", func(t *testing.T) {
		col, ok := FindColumn(tab, "arrears", "days")
		if !ok || col != "ArrearsTotal" {
			t.Errorf("got %q ok=%v", col, ok)
		}
	})
	t.Run("falls through to later keyword", func(t *testing.T) {
		col, ok := FindColumn(tab, "phone", "days")
		if !ok || col != "DaysLate" {
			t.Errorf("got %q ok=%v", col, ok)
		}
	})
	t.Run("no match", func(t *testing.T) {
		if _, ok := FindColumn(tab, "phone"); ok {
			t.Error("expected no match")
		}
	})
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"1234.5", "1,234.50"},
		{"1234567.891", "1,234,567.89"},
		{"-9876.5", "-9,876.50"},
	}
	for _, tc := range cases {
		d, _ := decimal.NewFromString(tc.in)
		if got := FormatAmount(d); got != tc.want {
			t.Errorf("FormatAmount(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

package ingest

import (
	"strings"
	"testing"
)

func TestLoadTableCSV(t *testing.T) {
	t.Run("basic", func(t *testing.T) {
		csvData := "LoanId,SalesRep,ArrearsAmount\nL001,john doe,1200.50\nL002,mary,300\n"
		tab, err := LoadTable(strings.NewReader(csvData), "upload.csv")
		if err != nil {
			t.Fatalf("LoadTable: %v", err)
		}
		if len(tab.Headers) != 3 || tab.Headers[0] != "LoanId" {
			t.Errorf("headers = %v", tab.Headers)
		}
		if len(tab.Rows) != 2 {
			t.Fatalf("rows = %d, want 2", len(tab.Rows))
		}
		if tab.Get(0, "SalesRep") != "john doe" {
			t.Errorf("cell = %q", tab.Get(0, "SalesRep"))
		}
	})

	t.Run("blank rows skipped", func(t *testing.T) {
		csvData := "A,B\n1,2\n,\n3,4\n"
		tab, err := LoadTable(strings.NewReader(csvData), "upload.csv")
		if err != nil {
			t.Fatalf("LoadTable: %v", err)
		}
		if len(tab.Rows) != 2 {
			t.Errorf("rows = %d, want 2 (blank row dropped)", len(tab.Rows))
		}
	})

	t.Run("short rows padded", func(t *testing.T) {
		csvData := "A,B,C\n1,2\n"
		tab, err := LoadTable(strings.NewReader(csvData), "upload.csv")
		if err != nil {
			t.Fatalf("LoadTable: %v", err)
		}
		if got := tab.Get(0, "C"); got != "" {
			t.Errorf("padded cell = %q, want empty", got)
		}
	})

	t.Run("quoted headers stripped", func(t *testing.T) {
		csvData := "\"Loan Id\",\"Sales Rep\"\nL1,john\n"
		tab, err := LoadTable(strings.NewReader(csvData), "upload.csv")
		if err != nil {
			t.Fatalf("LoadTable: %v", err)
		}
		if tab.Headers[0] != "Loan Id" {
			t.Errorf("header = %q", tab.Headers[0])
		}
	})

	t.Run("latin-1 bytes decode", func(t *testing.T) {
		// 0xE9 is é in ISO-8859-1 and invalid as a standalone UTF-8 byte.
		data := []byte("Name\nJos\xe9\n")
		tab, err := LoadTable(strings.NewReader(string(data)), "upload.csv")
		if err != nil {
			t.Fatalf("LoadTable: %v", err)
		}
		if tab.Get(0, "Name") != "José" {
			t.Errorf("cell = %q, want José", tab.Get(0, "Name"))
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		if _, err := LoadTable(strings.NewReader("x"), "upload.pdf"); err == nil {
			t.Error("expected error for .pdf")
		}
	})
}

// internal/core/report/assembler.go
package report

// RowKind tags each presentation row so the workbook writer can style it
// without guessing. Downstream styling also keys off string markers in the
// first cell ("GRAND TOTAL", "Subtotal ", "--- "), so both the kinds and
// the marker texts are part of the contract.
type RowKind int

const (
	KindColumnHeader RowKind = iota
	KindGroupHeader
	KindDetail
	KindSubtotal
	KindSummaryLine
	KindSpacer
	KindGrandTotal
)

// Row is one presentation row: a kind plus its cells, already formatted.
type Row struct {
	Kind  RowKind
	Cells []string
}

// Block is one officer group ready for layout: the header label, the
// detail rows in their final order, the subtotal cells and an optional
// compact summary line of formatted totals.
type Block struct {
	Header      string
	Details     [][]string
	Subtotal    []string
	SummaryLine string
}

// Assemble arranges groups into the row sequence the workbook writer
// consumes: column header; then per group a label row, the detail rows, a
// subtotal row and the summary line; a blank separator after each group;
// finally the grand-total row, its summary line and an optional trailer.
func Assemble(columns []string, blocks []Block, grand []string, grandSummary, trailer string) []Row {
	width := len(columns)
	rows := []Row{{Kind: KindColumnHeader, Cells: append([]string(nil), columns...)}}

	for _, b := range blocks {
		rows = append(rows, Row{Kind: KindGroupHeader, Cells: labelRow(b.Header, width)})
		for _, d := range b.Details {
			rows = append(rows, Row{Kind: KindDetail, Cells: padRow(d, width)})
		}
		if len(b.Subtotal) > 0 {
			rows = append(rows, Row{Kind: KindSubtotal, Cells: padRow(b.Subtotal, width)})
		}
		if b.SummaryLine != "" {
			rows = append(rows, Row{Kind: KindSummaryLine, Cells: labelRow(b.SummaryLine, width)})
		}
		rows = append(rows, Row{Kind: KindSpacer, Cells: make([]string, width)})
	}

	if len(grand) > 0 {
		rows = append(rows, Row{Kind: KindGrandTotal, Cells: padRow(grand, width)})
	}
	if grandSummary != "" {
		rows = append(rows, Row{Kind: KindSummaryLine, Cells: labelRow(grandSummary, width)})
	}
	if trailer != "" {
		rows = append(rows, Row{Kind: KindSummaryLine, Cells: labelRow(trailer, width)})
	}
	return rows
}

func labelRow(label string, width int) []string {
	cells := make([]string, width)
	cells[0] = label
	return cells
}

func padRow(cells []string, width int) []string {
	out := make([]string, width)
	copy(out, cells)
	return out
}

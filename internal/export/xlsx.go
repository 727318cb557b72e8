package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet the XLSX register is written to.
const SheetName = "Receivables"

// WriteXLSX writes the register as an Excel workbook with a totals row.
func WriteXLSX(w io.Writer, rows []RegisterRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(SheetName); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("remove default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E6E6E6"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return err
	}
	overdueStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: "9A0511"}})
	if err != nil {
		return err
	}

	for i, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return err
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(Headers), 1)
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, headerStyle); err != nil {
		return err
	}

	for i, r := range rows {
		rowNum := i + 2
		values := r.Values()
		// Amount cells are numeric for spreadsheet arithmetic; the ledger keeps the exact value.
		for i, m := range r.amounts() {
			values[firstAmountColumn-1+i] = amountCell(m)
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowNum)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return err
			}
		}
		first, _ := excelize.CoordinatesToCellName(firstAmountColumn, rowNum)
		last, _ := excelize.CoordinatesToCellName(firstAmountColumn+5, rowNum)
		if err := f.SetCellStyle(SheetName, first, last, amountStyle); err != nil {
			return err
		}
		if r.DaysOverdue > 0 {
			if err := f.SetCellStyle(SheetName, fmt.Sprintf("F%d", rowNum), fmt.Sprintf("F%d", rowNum), overdueStyle); err != nil {
				return err
			}
		}
	}

	total, paid, outstanding := Totals(rows)
	totalsRow := len(rows) + 2
	totals := []struct {
		col   string
		value interface{}
	}{
		{"A", "Total"},
		{"J", amountCell(total)},
		{"K", amountCell(paid)},
		{"L", amountCell(outstanding)},
	}
	for _, c := range totals {
		if err := f.SetCellValue(SheetName, fmt.Sprintf("%s%d", c.col, totalsRow), c.value); err != nil {
			return fmt.Errorf("write totals row: %w", err)
		}
	}
	if err := f.SetCellStyle(SheetName, fmt.Sprintf("J%d", totalsRow), fmt.Sprintf("L%d", totalsRow), amountStyle); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

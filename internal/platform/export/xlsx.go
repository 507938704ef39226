// Package export renders tabular reference data as XLSX workbooks.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of an XLSX workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Column is one sheet column. Width 0 keeps the default width.
type Column struct {
	Header string
	Width  float64
}

// Table is one worksheet: a header row followed by Rows.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// Join flattens a list field into one cell.
func Join(values []string) string {
	return strings.Join(values, "; ")
}

// Workbook renders tables as consecutive worksheets. The header row is
// bold, bordered and frozen.
func Workbook(tables ...Table) ([]byte, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("at least one table is required")
	}
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})
	if err != nil {
		return nil, fmt.Errorf("create cell style: %w", err)
	}

	for i, t := range tables {
		index, err := f.NewSheet(t.Name)
		if err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", t.Name, err)
		}
		if i == 0 {
			f.SetActiveSheet(index)
		}
		if err := writeTable(f, t, headerStyle, wrapStyle); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", t.Name, err)
		}
	}
	if tables[0].Name != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("delete default sheet: %w", err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTable(f *excelize.File, t Table, headerStyle, wrapStyle int) error {
	for col, c := range t.Columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(t.Name, cell, c.Header); err != nil {
			return err
		}
		if err := f.SetCellStyle(t.Name, cell, cell, headerStyle); err != nil {
			return err
		}
		if c.Width > 0 {
			name, err := excelize.ColumnNumberToName(col + 1)
			if err != nil {
				return err
			}
			if err := f.SetColWidth(t.Name, name, name, c.Width); err != nil {
				return err
			}
		}
	}

	for r, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("row %d has %d cells, want %d", r+1, len(row), len(t.Columns))
		}
		for col, v := range row {
			if v == nil || v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(t.Name, cell, v); err != nil {
				return err
			}
		}
	}
	if len(t.Rows) > 0 && len(t.Columns) > 0 {
		last, err := excelize.CoordinatesToCellName(len(t.Columns), len(t.Rows)+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(t.Name, "A2", last, wrapStyle); err != nil {
			return err
		}
	}

	return f.SetPanes(t.Name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

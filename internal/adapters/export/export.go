// Package export renders contest standings as an XLSX workbook.
package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/contestboard/internal/domain/model"
	"github.com/okian/contestboard/internal/domain/types"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrBuild wraps failures while building the workbook.
var ErrBuild = errors.New("build workbook failed")

const (
	defaultSheet  = "Sheet1"
	percentNumFmt = 10 // 0.00%
	nameColWidth  = 28
	remarkWidth   = 60
)

var headers = []any{
	"Rank", "Staff Name", "Company", "Branch",
	"Target", "Achievement", "Achievement %",
	"Fresh Customer Target", "Fresh Customer Achievement",
	"Full Achiever", "Seats", "Remark",
}

// SheetName returns the worksheet title used for contest.
func SheetName(contest model.ContestType) string {
	s := contest.String()
	if s == "" {
		return defaultSheet
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Filename returns the download name for contest.
func Filename(contest model.ContestType) string {
	return fmt.Sprintf("contest-%s.xlsx", contest)
}

// Standings builds a workbook with one row per entry, in the given order.
// Numeric columns hold raw numbers; the caller owns Close on the result.
func Standings(contest model.ContestType, entries []types.Entry) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := SheetName(contest)
	if err := build(f, sheet, entries); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %w", ErrBuild, err)
	}
	return f, nil
}

func build(f *excelize.File, sheet string, entries []types.Entry) error {
	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		m := e.Metrics
		row := []any{
			e.Rank, e.StaffName, e.Company, e.Branch,
			m.BusinessTarget, m.BusinessAchievement, m.Percentage,
			m.FreshCustomerTarget, m.FreshCustomerAchievement,
			yesNo(m.IsFullAchiever), m.Seats, m.Remark,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	return style(f, sheet, len(entries))
}

func style(f *excelize.File, sheet string, rows int) error {
	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DCE6F1"}},
	})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", bold); err != nil {
		return err
	}
	if rows > 0 {
		pct, err := f.NewStyle(&excelize.Style{NumFmt: percentNumFmt})
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "G2", fmt.Sprintf("G%d", rows+1), pct); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "B", "C", nameColWidth); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "L", "L", remarkWidth); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

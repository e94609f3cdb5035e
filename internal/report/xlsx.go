// Package report exports catalog, validation and progress data as a spreadsheet.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/coursekit/internal/curriculum"
	"github.com/p-n-ai/coursekit/internal/progress"
	"github.com/p-n-ai/coursekit/internal/validator"
)

// Sheet names, in workbook order.
const (
	SheetModules    = "Modules"
	SheetValidation = "Validation"
	SheetProgress   = "Progress"
)

var (
	modulesHeader    = []any{"Module", "Title", "Order", "Exercises", "Solutions", "Tests", "Difficulty"}
	validationHeader = []any{"Module", "Status", "Errors", "Warnings", "Details"}
	progressHeader   = []any{"Module", "Title", "Completed", "Total", "Percent", "Done"}
)

// WriteWorkbook writes a three-sheet workbook describing the catalog, its
// validation result and the learner's progress.
func WriteWorkbook(w io.Writer, modules []curriculum.ModuleEntry, all validator.AllResult, op progress.OverallProgress) error {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with a default sheet; rename it instead of deleting it.
	if err := f.SetSheetName(f.GetSheetName(0), SheetModules); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	for _, name := range []string{SheetValidation, SheetProgress} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	rows := map[string][][]any{
		SheetModules:    moduleRows(modules),
		SheetValidation: validationRows(all),
		SheetProgress:   progressRows(op),
	}
	headers := map[string][]any{
		SheetModules:    modulesHeader,
		SheetValidation: validationHeader,
		SheetProgress:   progressHeader,
	}

	for _, sheet := range []string{SheetModules, SheetValidation, SheetProgress} {
		if err := writeSheet(f, sheet, headers[sheet], rows[sheet], bold); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
		return fmt.Errorf("styling %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+2, err)
		}
	}
	return f.SetColWidth(sheet, "A", "B", 24)
}

func moduleRows(modules []curriculum.ModuleEntry) [][]any {
	rows := make([][]any, 0, len(modules))
	for _, m := range modules {
		rows = append(rows, []any{
			m.ID, m.Title(), m.Order,
			len(m.Exercises), len(m.Solutions), len(m.Tests),
			m.Meta.Difficulty,
		})
	}
	return rows
}

func validationRows(all validator.AllResult) [][]any {
	rows := make([][]any, 0, len(all.Results))
	for _, res := range all.Results {
		status := "PASS"
		if !res.Valid {
			status = "FAIL"
		}
		details := append(append([]string{}, res.Errors...), res.Warnings...)
		rows = append(rows, []any{
			res.ModuleID, status, len(res.Errors), len(res.Warnings),
			strings.Join(details, "\n"),
		})
	}
	return rows
}

func progressRows(op progress.OverallProgress) [][]any {
	rows := make([][]any, 0, len(op.Modules)+1)
	for _, mp := range op.Modules {
		rows = append(rows, []any{
			mp.ModuleID, mp.Title, mp.CompletedExercises, mp.TotalExercises,
			mp.Percentage, mp.Completed,
		})
	}
	rows = append(rows, []any{
		"Total", "", op.CompletedInCatalog, op.TotalExercises, op.Percentage,
		op.TotalModules > 0 && op.CompletedModules == op.TotalModules,
	})
	return rows
}

package report

import (
	"bytes"
	"slices"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/coursekit/internal/curriculum"
	"github.com/p-n-ai/coursekit/internal/progress"
	"github.com/p-n-ai/coursekit/internal/validator"
)

func TestWriteWorkbook(t *testing.T) {
	modules := []curriculum.ModuleEntry{
		{
			ID:        "01-fundamentals",
			Order:     1,
			Exercises: []curriculum.FileRecord{{Name: "01"}, {Name: "02"}},
			Solutions: []curriculum.FileRecord{{Name: "01"}},
			Meta:      curriculum.ModuleMeta{Difficulty: "beginner"},
		},
		{ID: "02-locators", Order: 2},
	}
	all := validator.AllResult{
		TotalModules:   2,
		ValidModules:   1,
		InvalidModules: 1,
		Results: []validator.Result{
			{ModuleID: "01-fundamentals", Valid: false, Errors: []string{"missing alternative solution for 02"}},
			{ModuleID: "02-locators", Valid: true, Warnings: []string{"no learning objectives found"}},
		},
	}
	op := progress.OverallProgress{
		TotalModules:       2,
		TotalExercises:     2,
		CompletedExercises: 4,
		CompletedInCatalog: 1,
		Percentage:         50,
		Modules: []progress.ModuleProgress{
			{ModuleID: "01-fundamentals", Title: "Fundamentals", TotalExercises: 2, CompletedExercises: 1, Percentage: 50},
			{ModuleID: "02-locators", Title: "Locators"},
		},
	}

	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, modules, all, op); err != nil {
		t.Fatalf("WriteWorkbook() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	if got, want := f.GetSheetList(), []string{SheetModules, SheetValidation, SheetProgress}; !slices.Equal(got, want) {
		t.Fatalf("sheets = %v, want %v", got, want)
	}

	tests := []struct {
		sheet string
		row   int
		want  []string
	}{
		{SheetModules, 0, []string{"Module", "Title", "Order", "Exercises", "Solutions", "Tests", "Difficulty"}},
		{SheetModules, 1, []string{"01-fundamentals", "Fundamentals", "1", "2", "1", "0", "beginner"}},
		{SheetModules, 2, []string{"02-locators", "Locators", "2", "0", "0", "0"}},
		{SheetValidation, 1, []string{"01-fundamentals", "FAIL", "1", "0", "missing alternative solution for 02"}},
		{SheetValidation, 2, []string{"02-locators", "PASS", "0", "1", "no learning objectives found"}},
		{SheetProgress, 1, []string{"01-fundamentals", "Fundamentals", "1", "2", "50", "FALSE"}},
		{SheetProgress, 3, []string{"Total", "", "1", "2", "50", "FALSE"}},
	}

	for _, tt := range tests {
		rows, err := f.GetRows(tt.sheet)
		if err != nil {
			t.Fatalf("GetRows(%s) error = %v", tt.sheet, err)
		}
		if tt.row >= len(rows) {
			t.Errorf("%s has %d rows, want row %d", tt.sheet, len(rows), tt.row)
			continue
		}
		if got := rows[tt.row]; !slices.Equal(got, tt.want) {
			t.Errorf("%s row %d = %q, want %q", tt.sheet, tt.row, got, tt.want)
		}
	}
}

func TestWriteWorkbook_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, nil, validator.AllResult{}, progress.OverallProgress{}); err != nil {
		t.Fatalf("WriteWorkbook() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetModules)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("Modules sheet has %d rows, want header only", len(rows))
	}
}

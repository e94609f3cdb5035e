package validator

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/p-n-ai/coursekit/internal/curriculum"
)

// identical reports whether two files have the same content.
func identical(a, b string) (bool, error) {
	left, err := os.ReadFile(a)
	if err != nil {
		return false, err
	}
	right, err := os.ReadFile(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(left, right), nil
}

// Diff renders the changes between an exercise and its solution. With color set, the
// output carries ANSI escapes; otherwise insertions and deletions are marked with {+ +}
// and [- -].
func (v *Validator) Diff(moduleID, exerciseName string, lang curriculum.Language, color bool) (string, error) {
	m, found := v.catalog.LoadModule(moduleID)
	if !found {
		return "", fmt.Errorf("module %s not found", moduleID)
	}
	ex, ok := m.Find(curriculum.RoleExercise, exerciseName, lang)
	if !ok {
		return "", fmt.Errorf("exercise %s (%s) not found in %s", exerciseName, lang, moduleID)
	}
	sol, ok := m.Find(curriculum.RoleSolution, exerciseName, lang)
	if !ok {
		return "", fmt.Errorf("no %s solution for %s in %s", lang, ex.FileName, moduleID)
	}

	original, err := os.ReadFile(ex.Path)
	if err != nil {
		return "", fmt.Errorf("reading exercise: %w", err)
	}
	solved, err := os.ReadFile(sol.Path)
	if err != nil {
		return "", fmt.Errorf("reading solution: %w", err)
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(original), string(solved), true)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n+++ %s\n", ex.FileName, sol.FileName)
	if color {
		b.WriteString(dmp.DiffPrettyText(diffs))
		return b.String(), nil
	}
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			b.WriteString("{+" + d.Text + "+}")
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-" + d.Text + "-]")
		default:
			b.WriteString(d.Text)
		}
	}
	return b.String(), nil
}

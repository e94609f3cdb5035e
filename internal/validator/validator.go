// Package validator checks curriculum modules for structural completeness.
//
// Violations are collected, never returned as Go errors: a module with problems
// yields a Result listing every error and warning in a single pass.
package validator

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/p-n-ai/coursekit/internal/curriculum"
)

// Result is the outcome of validating one module.
type Result struct {
	ModuleID string   `json:"module_id"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// AllResult aggregates the results for every discovered module.
type AllResult struct {
	TotalModules   int      `json:"total_modules"`
	ValidModules   int      `json:"valid_modules"`
	InvalidModules int      `json:"invalid_modules"`
	Results        []Result `json:"results"`
	Errors         []string `json:"errors"`
	Warnings       []string `json:"warnings"`
}

// Validator cross-checks catalog entries for completeness.
type Validator struct {
	catalog *curriculum.Catalog
}

// New creates a validator backed by the given catalog.
func New(catalog *curriculum.Catalog) *Validator {
	return &Validator{catalog: catalog}
}

// ValidateModule runs every structural check against one module.
func (v *Validator) ValidateModule(id string) Result {
	res := Result{ModuleID: id, Errors: []string{}, Warnings: []string{}}

	m, found := v.catalog.LoadModule(id)
	if !found {
		res.errorf("module %s not found", id)
		return res
	}

	v.checkDescription(m, &res)
	checkDirectories(m, &res)
	if len(m.Exercises) == 0 {
		res.errorf("no exercises found in %s/", curriculum.RoleExercise.Dir())
	}
	v.checkSolutions(m, &res)
	checkTests(m, &res)
	if m.DescriptionPath != "" && len(m.Objectives) == 0 {
		res.warnf("%s lists no learning objectives", v.catalog.DescriptionFile())
	}
	checkOrphans(m, &res)
	checkUnchanged(m, &res)
	checkLanguagePairs(m, &res)
	v.checkPrerequisites(m, &res)

	res.Valid = len(res.Errors) == 0
	return res
}

// ValidateAll validates every discovered module. A failing module never stops the others.
func (v *Validator) ValidateAll() (AllResult, error) {
	all := AllResult{
		Results:  []Result{},
		Errors:   []string{},
		Warnings: []string{},
	}

	modules, err := v.catalog.Discover()
	if err != nil {
		return all, fmt.Errorf("discovering modules: %w", err)
	}
	if len(modules) == 0 {
		slog.Warn("no modules discovered; nothing to validate", "root", v.catalog.Root())
	}

	for _, m := range modules {
		res := v.ValidateModule(m.ID)
		all.TotalModules++
		if res.Valid {
			all.ValidModules++
		} else {
			all.InvalidModules++
		}
		for _, e := range res.Errors {
			all.Errors = append(all.Errors, m.ID+": "+e)
		}
		for _, w := range res.Warnings {
			all.Warnings = append(all.Warnings, m.ID+": "+w)
		}
		all.Results = append(all.Results, res)
	}

	slog.Debug("validation finished",
		"modules", all.TotalModules,
		"valid", all.ValidModules,
		"invalid", all.InvalidModules,
	)
	return all, nil
}

func (v *Validator) checkDescription(m *curriculum.ModuleEntry, res *Result) {
	if m.DescriptionPath == "" {
		res.errorf("missing description document %s", v.catalog.DescriptionFile())
	}
}

func checkDirectories(m *curriculum.ModuleEntry, res *Result) {
	for _, name := range curriculum.RequiredDirs {
		info, err := os.Stat(filepath.Join(m.Dir, name))
		if err != nil || !info.IsDir() {
			res.errorf("missing required directory %s/", name)
		}
	}
}

// checkSolutions enforces that every exercise has a solution in the same dialect.
func (v *Validator) checkSolutions(m *curriculum.ModuleEntry, res *Result) {
	for _, ex := range m.Exercises {
		if _, ok := m.Find(curriculum.RoleSolution, ex.Name, ex.Language); ok {
			continue
		}
		expected := v.solutionFileName(ex)
		res.errorf("missing %s solution for %s: expected %s/%s",
			ex.Language, ex.FileName, curriculum.RoleSolution.Dir(), expected)

		if other, ok := m.Find(curriculum.RoleSolution, ex.Name, ex.Language.Other()); ok {
			res.warnf("solution for exercise %s exists only as %s (%s)", ex.Name, other.FileName, other.Language)
		}
	}
}

func (v *Validator) solutionFileName(ex curriculum.FileRecord) string {
	return string(curriculum.RoleSolution) + "-" + ex.Name + v.catalog.Extension(ex.Language)
}

func checkTests(m *curriculum.ModuleEntry, res *Result) {
	tested := make(map[string]bool)
	for _, t := range m.Tests {
		tested[t.Name] = true
	}
	for _, name := range m.ExerciseNames() {
		if !tested[name] {
			res.warnf("no test found for exercise %s in %s/", name, curriculum.RoleTest.Dir())
		}
	}
}

func checkOrphans(m *curriculum.ModuleEntry, res *Result) {
	for _, sol := range m.Solutions {
		if _, ok := m.Find(curriculum.RoleExercise, sol.Name, sol.Language); !ok {
			res.warnf("orphan solution %s has no matching exercise", sol.FileName)
		}
	}
}

// checkUnchanged flags solutions that are identical to their exercise starter.
func checkUnchanged(m *curriculum.ModuleEntry, res *Result) {
	for _, ex := range m.Exercises {
		sol, ok := m.Find(curriculum.RoleSolution, ex.Name, ex.Language)
		if !ok {
			continue
		}
		same, err := identical(ex.Path, sol.Path)
		if err != nil {
			slog.Warn("comparing exercise and solution", "exercise", ex.Path, "error", err)
			continue
		}
		if same {
			res.warnf("solution %s is unchanged from %s", sol.FileName, ex.FileName)
		}
	}
}

// checkLanguagePairs reports exercises offered in only one of the two dialects.
// It stays silent when a module is written entirely in one dialect.
func checkLanguagePairs(m *curriculum.ModuleEntry, res *Result) {
	byLang := map[curriculum.Language]map[string]bool{
		curriculum.LanguagePrimary:     {},
		curriculum.LanguageAlternative: {},
	}
	for _, ex := range m.Exercises {
		byLang[ex.Language][ex.Name] = true
	}
	if len(byLang[curriculum.LanguagePrimary]) == 0 || len(byLang[curriculum.LanguageAlternative]) == 0 {
		return
	}
	for _, name := range m.ExerciseNames() {
		for _, lang := range []curriculum.Language{curriculum.LanguagePrimary, curriculum.LanguageAlternative} {
			if !byLang[lang][name] {
				res.warnf("exercise %s has no %s version", name, lang)
			}
		}
	}
}

func (v *Validator) checkPrerequisites(m *curriculum.ModuleEntry, res *Result) {
	for _, id := range m.Meta.Prerequisites {
		if id == m.ID {
			res.warnf("module lists itself as a prerequisite")
			continue
		}
		if _, found := v.catalog.LoadModule(id); !found {
			res.warnf("prerequisite %s does not exist", id)
		}
	}
}

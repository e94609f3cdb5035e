package curriculum

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Language identifies which of the two supported syntax dialects a file is written in.
type Language string

const (
	LanguagePrimary     Language = "primary"
	LanguageAlternative Language = "alternative"
)

// Other returns the opposite dialect.
func (l Language) Other() Language {
	if l == LanguagePrimary {
		return LanguageAlternative
	}
	return LanguagePrimary
}

func (l Language) rank() int {
	if l == LanguagePrimary {
		return 0
	}
	return 1
}

// Role is the part a file plays inside a module.
type Role string

const (
	RoleExercise Role = "exercise"
	RoleSolution Role = "solution"
	RoleTest     Role = "test"
)

// Dir returns the module subdirectory that holds files of this role.
func (r Role) Dir() string {
	switch r {
	case RoleExercise:
		return "exercises"
	case RoleSolution:
		return "solutions"
	default:
		return "tests"
	}
}

// RequiredDirs lists the subdirectories every module must contain.
var RequiredDirs = []string{RoleExercise.Dir(), RoleSolution.Dir(), RoleTest.Dir()}

// FileRecord is one exercise, solution or test file.
type FileRecord struct {
	Name     string   `json:"name"`
	FileName string   `json:"file_name"`
	Role     Role     `json:"role"`
	Language Language `json:"language"`
	Path     string   `json:"path"`
}

// ModuleMeta is the optional module.yaml sitting next to the description document.
type ModuleMeta struct {
	Title            string   `yaml:"title" json:"title,omitempty"`
	Description      string   `yaml:"description" json:"description,omitempty"`
	Difficulty       string   `yaml:"difficulty" json:"difficulty,omitempty"`
	EstimatedMinutes int      `yaml:"estimated_minutes" json:"estimated_minutes,omitempty"`
	Prerequisites    []string `yaml:"prerequisites" json:"prerequisites,omitempty"`
}

// ModuleEntry is one numbered curriculum module.
type ModuleEntry struct {
	ID              string       `json:"id"`
	Order           int          `json:"order"`
	Dir             string       `json:"dir"`
	Exercises       []FileRecord `json:"exercises"`
	Solutions       []FileRecord `json:"solutions"`
	Tests           []FileRecord `json:"tests"`
	Objectives      []string     `json:"objectives"`
	DescriptionPath string       `json:"description_path,omitempty"`
	Meta            ModuleMeta   `json:"meta"`
}

// Title returns the module title from module.yaml, or one derived from the directory name.
func (m ModuleEntry) Title() string {
	if m.Meta.Title != "" {
		return m.Meta.Title
	}
	name := m.ID
	if i := strings.IndexByte(name, '-'); i >= 0 {
		name = name[i+1:]
	}
	return cases.Title(language.Und).String(strings.ReplaceAll(name, "-", " "))
}

// ExerciseNames returns the distinct exercise names of the module in sorted order.
// An exercise written in both dialects counts once.
func (m ModuleEntry) ExerciseNames() []string {
	var names []string
	seen := make(map[string]bool)
	for _, f := range m.Exercises {
		if !seen[f.Name] {
			seen[f.Name] = true
			names = append(names, f.Name)
		}
	}
	return names
}

// Find returns the file with the given role, name and language.
func (m ModuleEntry) Find(role Role, name string, lang Language) (FileRecord, bool) {
	for _, f := range m.files(role) {
		if f.Name == name && f.Language == lang {
			return f, true
		}
	}
	return FileRecord{}, false
}

func (m ModuleEntry) files(role Role) []FileRecord {
	switch role {
	case RoleExercise:
		return m.Exercises
	case RoleSolution:
		return m.Solutions
	default:
		return m.Tests
	}
}

// Stats aggregates counts over a discovered catalog.
type Stats struct {
	Modules              int `json:"modules"`
	Exercises            int `json:"exercises"`
	Solutions            int `json:"solutions"`
	Tests                int `json:"tests"`
	PrimaryExercises     int `json:"primary_exercises"`
	AlternativeExercises int `json:"alternative_exercises"`
}

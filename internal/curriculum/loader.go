package curriculum

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultPrimaryExt      = ".js"
	defaultAlternativeExt  = ".ts"
	defaultDescriptionFile = "README.md"
	metaFile               = "module.yaml"
)

var modulePattern = regexp.MustCompile(`^\d{2}-[a-z-]+$`)

// IsModuleID reports whether name follows the NN-name module convention.
func IsModuleID(name string) bool {
	return modulePattern.MatchString(name)
}

// ParseOrder returns the sequence number encoded in a module ID's two-digit prefix,
// or -1 if the ID is not a module ID.
func ParseOrder(id string) int {
	if !IsModuleID(id) {
		return -1
	}
	n, _ := strconv.Atoi(id[:2])
	return n
}

// Catalog discovers curriculum modules under a root directory.
// It holds no cached state; every call reflects the filesystem as it is.
type Catalog struct {
	rootDir         string
	primaryExt      string
	alternativeExt  string
	descriptionFile string
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithExtensions sets the file extensions of the primary and alternative dialects.
func WithExtensions(primary, alternative string) Option {
	return func(c *Catalog) {
		if primary != "" {
			c.primaryExt = normalizeExt(primary)
		}
		if alternative != "" {
			c.alternativeExt = normalizeExt(alternative)
		}
	}
}

// WithDescriptionFile sets the name of each module's description document.
func WithDescriptionFile(name string) Option {
	return func(c *Catalog) {
		if name != "" {
			c.descriptionFile = name
		}
	}
}

// NewCatalog creates a catalog rooted at rootDir.
func NewCatalog(rootDir string, opts ...Option) *Catalog {
	if abs, err := filepath.Abs(rootDir); err == nil {
		rootDir = abs
	}
	c := &Catalog{
		rootDir:         rootDir,
		primaryExt:      defaultPrimaryExt,
		alternativeExt:  defaultAlternativeExt,
		descriptionFile: defaultDescriptionFile,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Root returns the absolute root directory of the catalog.
func (c *Catalog) Root() string {
	return c.rootDir
}

// DescriptionFile returns the file name looked up as each module's description document.
func (c *Catalog) DescriptionFile() string {
	return c.descriptionFile
}

// Extension returns the file extension used for the given dialect.
func (c *Catalog) Extension(lang Language) string {
	if lang == LanguageAlternative {
		return c.alternativeExt
	}
	return c.primaryExt
}

// Discover lists every module under the root, sorted by order, with the objectives
// of each description document.
// A missing root is not an error: it yields an empty catalog.
func (c *Catalog) Discover() ([]ModuleEntry, error) {
	entries, err := os.ReadDir(c.rootDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("curriculum root does not exist", "root", c.rootDir)
			return []ModuleEntry{}, nil
		}
		return nil, fmt.Errorf("reading curriculum root: %w", err)
	}

	rootRules := loadIgnoreRules(c.rootDir)
	modules := []ModuleEntry{}
	for _, e := range entries {
		if !e.IsDir() || !IsModuleID(e.Name()) {
			continue
		}
		if rootRules.matches(e.Name() + "/") {
			slog.Debug("module ignored", "module", e.Name())
			continue
		}
		modules = append(modules, c.scanModule(e.Name(), rootRules))
	}

	slices.SortFunc(modules, func(a, b ModuleEntry) int {
		return cmp.Or(cmp.Compare(a.Order, b.Order), cmp.Compare(a.ID, b.ID))
	})

	slog.Debug("curriculum discovered", "root", c.rootDir, "modules", len(modules))
	return modules, nil
}

// LoadModule scans a single module. It returns false if the module does not exist
// or the root ignore file excludes it.
func (c *Catalog) LoadModule(id string) (*ModuleEntry, bool) {
	if !IsModuleID(id) {
		return nil, false
	}
	info, err := os.Stat(filepath.Join(c.rootDir, id))
	if err != nil || !info.IsDir() {
		return nil, false
	}

	rootRules := loadIgnoreRules(c.rootDir)
	if rootRules.matches(id + "/") {
		return nil, false
	}
	m := c.scanModule(id, rootRules)
	return &m, true
}

// Statistics counts modules and files across the whole catalog.
func (c *Catalog) Statistics() (Stats, error) {
	modules, err := c.Discover()
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Modules: len(modules)}
	for _, m := range modules {
		stats.Exercises += len(m.Exercises)
		stats.Solutions += len(m.Solutions)
		stats.Tests += len(m.Tests)
		for _, f := range m.Exercises {
			if f.Language == LanguagePrimary {
				stats.PrimaryExercises++
			} else {
				stats.AlternativeExercises++
			}
		}
	}
	return stats, nil
}

func (c *Catalog) scanModule(id string, rootRules ignoreRules) ModuleEntry {
	dir := filepath.Join(c.rootDir, id)
	rules := rootRules.under(id).merge(loadIgnoreRules(dir))

	m := ModuleEntry{
		ID:         id,
		Order:      ParseOrder(id),
		Dir:        dir,
		Exercises:  c.listFiles(dir, RoleExercise, rules),
		Solutions:  c.listFiles(dir, RoleSolution, rules),
		Tests:      c.listFiles(dir, RoleTest, rules),
		Objectives: []string{},
		Meta:       readMeta(dir),
	}

	desc := filepath.Join(dir, c.descriptionFile)
	if info, err := os.Stat(desc); err == nil && !info.IsDir() {
		m.DescriptionPath = desc
		objectives, err := readObjectives(desc)
		if err != nil {
			slog.Warn("reading description document", "module", id, "error", err)
		}
		m.Objectives = objectives
	}
	return m
}

// listFiles walks one role directory recursively and keeps files in either dialect.
func (c *Catalog) listFiles(moduleDir string, role Role, rules ignoreRules) []FileRecord {
	roleDir := filepath.Join(moduleDir, role.Dir())
	records := []FileRecord{}

	err := filepath.WalkDir(roleDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			slog.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		rel, _ := filepath.Rel(moduleDir, path)
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if path != roleDir && rules.matches(rel+"/") {
				return fs.SkipDir
			}
			return nil
		}
		if rules.matches(rel) {
			return nil
		}

		lang, ok := c.languageOf(d.Name())
		if !ok {
			return nil
		}
		records = append(records, FileRecord{
			Name:     recordName(role, strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))),
			FileName: d.Name(),
			Role:     role,
			Language: lang,
			Path:     path,
		})
		return nil
	})
	if err != nil {
		slog.Warn("listing module files", "dir", roleDir, "error", err)
	}

	slices.SortFunc(records, func(a, b FileRecord) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Language.rank(), b.Language.rank()))
	})
	return records
}

func (c *Catalog) languageOf(fileName string) (Language, bool) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case c.primaryExt:
		return LanguagePrimary, true
	case c.alternativeExt:
		return LanguageAlternative, true
	}
	return "", false
}

// recordName strips the role prefix from a base name: "exercise-01" becomes "01".
// Test files may be named after either the test or the exercise and may carry a
// ".spec" or ".test" suffix.
func recordName(role Role, base string) string {
	if role == RoleTest {
		base = strings.TrimSuffix(base, ".spec")
		base = strings.TrimSuffix(base, ".test")
		if name, ok := strings.CutPrefix(base, string(RoleExercise)+"-"); ok {
			return name
		}
	}
	if name, ok := strings.CutPrefix(base, string(role)+"-"); ok {
		return name
	}
	return base
}

func readMeta(moduleDir string) ModuleMeta {
	var meta ModuleMeta
	path := filepath.Join(moduleDir, metaFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return meta
	}
	if err := yaml.Unmarshal(data, &meta); err != nil {
		slog.Warn("skipping invalid module metadata", "path", path, "error", err)
		return ModuleMeta{}
	}
	return meta
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

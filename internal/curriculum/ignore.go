package curriculum

import (
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFile holds gitignore-style patterns excluded from discovery. It may sit at the
// curriculum root or inside a module directory.
const IgnoreFile = ".curriculumignore"

type ignoreSet struct {
	prefix string // prepended to module-relative paths before matching
	rules  *ignore.GitIgnore
}

type ignoreRules []ignoreSet

// loadIgnoreRules reads the ignore file in dir. A missing file yields no rules.
func loadIgnoreRules(dir string) ignoreRules {
	lines, err := readIgnoreFile(filepath.Join(dir, IgnoreFile))
	if err != nil || len(lines) == 0 {
		return nil
	}
	return ignoreRules{{rules: ignore.CompileIgnoreLines(lines...)}}
}

// under rebases rules loaded at the root so they can match paths relative to a module.
func (r ignoreRules) under(moduleID string) ignoreRules {
	out := make(ignoreRules, 0, len(r))
	for _, s := range r {
		out = append(out, ignoreSet{prefix: moduleID + "/" + s.prefix, rules: s.rules})
	}
	return out
}

func (r ignoreRules) merge(other ignoreRules) ignoreRules {
	return append(r, other...)
}

func (r ignoreRules) matches(path string) bool {
	for _, s := range r {
		if s.rules.MatchesPath(s.prefix + path) {
			return true
		}
	}
	return false
}

// readIgnoreFile returns the non-blank lines of an ignore file.
func readIgnoreFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var patterns []string
	for line := range strings.Lines(string(data)) {
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) != "" {
			patterns = append(patterns, line)
		}
	}
	return patterns, nil
}

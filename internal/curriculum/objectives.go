package curriculum

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

var (
	headingPattern = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)
	bulletPattern  = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+(.*)$`)
	taskBoxPattern = regexp.MustCompile(`^\[[ xX]\]\s*`)
)

// objectiveHeadings are the case-folded words that mark an objectives section,
// in English and in Spanish/Portuguese.
var objectiveHeadings = []string{"objectives", "objetivos"}

// ParseObjectives extracts the bullet items under the first objectives heading of a
// markdown document. Collection stops at the next heading of the same or a higher level.
func ParseObjectives(r io.Reader) ([]string, error) {
	folder := cases.Fold()
	objectives := []string{}
	level := 0 // heading level of the open objectives section, 0 when outside it
	inFence := false

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}

		if m := headingPattern.FindStringSubmatch(line); m != nil {
			depth := len(m[1])
			if level > 0 && depth <= level {
				break
			}
			if level == 0 && isObjectivesHeading(folder.String(m[2])) {
				level = depth
			}
			continue
		}

		if level == 0 {
			continue
		}
		if m := bulletPattern.FindStringSubmatch(line); m != nil {
			item := strings.TrimSpace(taskBoxPattern.ReplaceAllString(m[1], ""))
			if item != "" {
				objectives = append(objectives, item)
			}
		}
	}
	return objectives, scanner.Err()
}

func isObjectivesHeading(folded string) bool {
	for _, word := range objectiveHeadings {
		if strings.Contains(folded, word) {
			return true
		}
	}
	return false
}

func readObjectives(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return []string{}, err
	}
	defer f.Close()
	return ParseObjectives(f)
}

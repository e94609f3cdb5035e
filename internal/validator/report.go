package validator

import (
	"fmt"
	"strings"
)

// GenerateReport formats a single module result as human-readable text.
func GenerateReport(res Result) string {
	var b strings.Builder
	writeResult(&b, res)
	return b.String()
}

// GenerateSummary formats the aggregate result of ValidateAll.
func GenerateSummary(all AllResult) string {
	var b strings.Builder

	b.WriteString("Curriculum validation\n")
	b.WriteString(strings.Repeat("=", 21) + "\n\n")

	if all.TotalModules == 0 {
		b.WriteString("No modules discovered. Check the curriculum root path.\n")
		return b.String()
	}

	for _, res := range all.Results {
		writeResult(&b, res)
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Modules: %d total, %d valid, %d invalid\n",
		all.TotalModules, all.ValidModules, all.InvalidModules)
	fmt.Fprintf(&b, "Diagnostics: %d errors, %d warnings\n", len(all.Errors), len(all.Warnings))
	return b.String()
}

func writeResult(b *strings.Builder, res Result) {
	status := "PASS"
	if !res.Valid {
		status = "FAIL"
	}
	fmt.Fprintf(b, "[%s] %s\n", status, res.ModuleID)
	for _, e := range res.Errors {
		fmt.Fprintf(b, "  error:   %s\n", e)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(b, "  warning: %s\n", w)
	}
}

package report

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/globalbike/SalesWarehouseETL/validation"
)

// WriteErrorReport renders the human-readable error report: per faulty
// source line the 1-based line number, each diagnostic message and the raw
// field map. The report is written even when the database phase failed, it
// is the durable record of the run.
func WriteErrorReport(path string, errorReport *validation.ErrorReport) error {
	entries := errorReport.Entries()
	general := errorReport.General()

	var sb strings.Builder
	sb.WriteString("ERROR REPORT - Global Bike Sales Data ETL\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n\n")
	sb.WriteString(fmt.Sprintf("Number of faulty records: %d\n\n", len(entries)))

	for _, entry := range entries {
		sb.WriteString(fmt.Sprintf("\nLine %d:\n", entry.LineNum))
		sb.WriteString(strings.Repeat("-", 40) + "\n")
		for _, message := range entry.Messages {
			sb.WriteString(fmt.Sprintf("  - %s\n", message))
		}
		sb.WriteString(fmt.Sprintf("  Data: %s\n", formatFields(entry.Fields)))
	}

	if len(general) > 0 {
		sb.WriteString("\nOther problems:\n")
		sb.WriteString(strings.Repeat("-", 40) + "\n")
		for _, message := range general {
			sb.WriteString(fmt.Sprintf("  - %s\n", message))
		}
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write error report, %v", err)
	}
	return nil
}

// PrintErrorReport prints the per-line diagnostics to the console.
func PrintErrorReport(errorReport *validation.ErrorReport) {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("ERROR REPORT")
	fmt.Println(strings.Repeat("=", 80))

	entries := errorReport.Entries()
	if len(entries) == 0 && len(errorReport.General()) == 0 {
		fmt.Println("\nNo errors found!")
		return
	}

	fmt.Printf("\n%d faulty records found:\n", len(entries))
	for _, entry := range entries {
		for _, message := range entry.Messages {
			fmt.Printf("  - %s\n", message)
		}
	}
	for _, message := range errorReport.General() {
		fmt.Printf("  - %s\n", message)
	}
}

// fields rendered in a stable order so reports are comparable between runs
func formatFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, fields[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

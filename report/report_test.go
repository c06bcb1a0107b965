package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/globalbike/SalesWarehouseETL/validation"
)

func TestWriteErrorReport(t *testing.T) {
	errorReport := validation.NewErrorReport()
	errorReport.Add(4, map[string]string{"Country": "XYZ", "OrderNumber": "1001"},
		[]string{"line 4: invalid country code 'XYZ' (should be a 2-letter code)"})
	errorReport.Add(2, map[string]string{"Date": "31.02.24"},
		[]string{"line 2: invalid date format '31.02.24'"})
	errorReport.AddGeneral("failed to insert row into factsales: foreign key violation")

	path := filepath.Join(t.TempDir(), "faulty_records.txt")
	if err := WriteErrorReport(path, errorReport); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read the report back, %v", err)
	}
	text := string(content)

	if !strings.Contains(text, "Number of faulty records: 2") {
		t.Errorf("Expected the faulty record count, got:\n%s", text)
	}
	if !strings.Contains(text, "invalid date format '31.02.24'") {
		t.Errorf("Expected the date diagnostic, got:\n%s", text)
	}
	if !strings.Contains(text, "foreign key violation") {
		t.Errorf("Expected the general diagnostic, got:\n%s", text)
	}

	//entries are ordered by line number
	if strings.Index(text, "Line 2:") > strings.Index(text, "Line 4:") {
		t.Errorf("Expected line 2 before line 4, got:\n%s", text)
	}
}

func TestWriteErrorReportEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faulty_records.txt")
	if err := WriteErrorReport(path, validation.NewErrorReport()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read the report back, %v", err)
	}
	if !strings.Contains(string(content), "Number of faulty records: 0") {
		t.Errorf("Expected an empty report, got:\n%s", content)
	}
}

func TestFormatFieldsStableOrder(t *testing.T) {
	fields := map[string]string{"b": "2", "a": "1", "c": "3"}

	first := formatFields(fields)
	if first != `{a="1", b="2", c="3"}` {
		t.Errorf("Unexpected rendering, %s", first)
	}
	for i := 0; i < 10; i++ {
		if formatFields(fields) != first {
			t.Fatalf("Expected a stable rendering across calls")
		}
	}
}

package extract

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// expected header columns of SalesData.csv
var ExpectedColumns = []string{
	"OrderNumber", "OrderItem", "Customer", "CustDescr", "City", "Country",
	"Date", "SalesOrg", "Currency", "Revenue", "Discount", "RevenueUSD",
	"DiscountUSD", "CostsUSD", "SalesQuantity", "UnitOfMeasure",
	"Product", "ProdDescr", "Division", "ProdCat", "CatDescr",
}

// one raw record from the source file, line numbers are 1-based with the
// header on line 1 so the first data row is line 2
type SourceRow struct {
	LineNum int
	Fields  map[string]string
}

// ReadCSV extracts all rows from a semicolon-delimited source file.
// A UTF-8 byte order mark is stripped if present. Rows with a wrong field
// count are skipped and reported as diagnostics instead of aborting the run.
func ReadCSV(path string) ([]SourceRow, []string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read source file, %v", err)
	}

	//strip byte order mark
	text := strings.TrimPrefix(string(content), "\ufeff")

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1 //field count checked per row below

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse source file, %v", err)
	}

	if len(records) == 0 {
		return nil, nil, fmt.Errorf("source file %s is empty", path)
	}

	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []SourceRow
	var diagnostics []string

	for i, record := range records[1:] {
		lineNum := i + 2

		if len(record) != len(header) {
			diagnostics = append(diagnostics, fmt.Sprintf("line %d: expected %d fields, got %d, row skipped", lineNum, len(header), len(record)))
			continue
		}

		fields := make(map[string]string, len(header))
		for j, col := range header {
			fields[col] = record[j]
		}
		rows = append(rows, SourceRow{LineNum: lineNum, Fields: fields})
	}
	return rows, diagnostics, nil
}

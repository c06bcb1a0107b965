package database

// A named warehouse table with an explicit column order and an ordered set
// of rows, ready for loading. KeyColumns name the natural/surrogate key the
// sink must treat as "insert if absent, otherwise skip".
type Table struct {
	Name       string
	Columns    []string
	KeyColumns []string
	Rows       []map[string]interface{}
}

// values of a row in column order, for positional SQL parameters
func (t Table) rowValues(row map[string]interface{}) []interface{} {
	values := make([]interface{}, len(t.Columns))
	for i, col := range t.Columns {
		values[i] = row[col]
	}
	return values
}

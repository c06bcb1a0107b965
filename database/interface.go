package database

import "fmt"

// Write policy for a table load. Dimension, hub, link and satellite loads
// are atomic: one failed insert aborts the whole group. The fact load is
// best-effort: failed inserts are collected and the loop continues so a
// complete error report can be produced.
type LoadPolicy int

const (
	AtomicLoad LoadPolicy = iota
	BestEffortLoad
)

// one failed insert during a best-effort load
type RowError struct {
	Table string
	Row   map[string]interface{}
	Err   error
}

func (e RowError) Error() string {
	return fmt.Sprintf("failed to insert row into %s: %v", e.Table, e.Err)
}

// result of loading one table
type LoadResult struct {
	Table     string
	Inserted  int
	Skipped   int
	RowErrors []RowError
}

// Interface for ease with mock tests
type WarehouseClient interface {
	Connect() error
	Close() error
	//executes a DDL script, splitting on statement boundaries, within one transaction
	ExecuteScript(script string) error
	//loads one table idempotently, existing keys are not duplicated
	LoadTable(table Table, policy LoadPolicy) (LoadResult, error)
	//row count of a warehouse table, zero if it does not exist yet
	CountRows(tableName string) (int64, error)
}

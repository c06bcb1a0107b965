package etl

import (
	"fmt"
	"log"
	"time"

	"github.com/globalbike/SalesWarehouseETL/database"
	"github.com/globalbike/SalesWarehouseETL/extract"
	"github.com/globalbike/SalesWarehouseETL/monitoring"
	"github.com/globalbike/SalesWarehouseETL/star"
	"github.com/globalbike/SalesWarehouseETL/validation"
	"github.com/globalbike/SalesWarehouseETL/vault"
)

// which modeling strategy to load
type PipelineMode string

const (
	StarPipeline  PipelineMode = "star"
	VaultPipeline PipelineMode = "vault"
	BothPipelines PipelineMode = "both"
)

// config for one ETL run
type EngineConfig struct {
	Mode      PipelineMode
	Target    string
	Workers   int       //workers for loading independent tables of one tier
	BatchSize int       //fact rows per best-effort batch
	LoadDate  time.Time //satellite load date stamp
	DryRun    bool      //transform and report only, skip the database phase
	RunDDL    bool
	DDLScript string
}

// one tier of mutually independent tables, tiers are loaded strictly in
// order so parents always precede children
type loadTier struct {
	tables []database.Table
	policy database.LoadPolicy
}

// ETL process keeper
type Engine struct {
	Config    EngineConfig
	Client    database.WarehouseClient
	Report    *validation.ErrorReport
	Logger    *monitoring.Logger
	Snapshots *SnapshotManager
}

// Results of one ETL run
type Result struct {
	Success     bool
	TableCounts map[string]int //emitted rows per table, the final tally
	RowsRead    int
	FaultyRows  int
	Inserted    int
	Skipped     int
	FailedRows  int
	Duration    time.Duration
	StartTime   time.Time
	EndTime     time.Time
	Errors      []string
}

// creating a new ETL engine
func NewEngine(config EngineConfig, client database.WarehouseClient, report *validation.ErrorReport) *Engine {
	if config.BatchSize <= 0 {
		config.BatchSize = 1000
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.LoadDate.IsZero() {
		config.LoadDate = time.Now()
	}
	return &Engine{
		Config: config,
		Client: client,
		Report: report,
		Logger: monitoring.NewLogger(),
	}
}

// Run executes the complete ETL process: validate and transform every
// source row, then flush the result to the warehouse in dependency order.
// The transform phase always completes, even when the database phase is
// skipped or fails, so the error report covers the whole input.
func (e *Engine) Run(rows []extract.SourceRow) (*Result, error) {
	startTime := time.Now()

	result := &Result{
		StartTime:   startTime,
		TableCounts: make(map[string]int),
		RowsRead:    len(rows),
	}

	log.Printf("Starting %s pipeline for %d source rows", e.Config.Mode, len(rows))

	//Step1: validate and annotate every row, errors are diagnostic and the
	//full stream flows into the builders
	validator := validation.NewRowValidator(e.Report)
	annotated := make([]validation.AnnotatedRow, 0, len(rows))
	for _, row := range rows {
		annotated = append(annotated, validator.Validate(row))
	}
	result.FaultyRows = e.Report.Count()

	//Step2: build the requested models
	tiers, err := e.buildTiers(annotated)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result, err
	}

	var totalRows int64
	var totalTables int
	for _, tier := range tiers {
		for _, table := range tier.tables {
			result.TableCounts[table.Name] = len(table.Rows)
			totalRows += int64(len(table.Rows))
			totalTables++
		}
	}
	log.Printf("Transform completed: %d tables, %d rows", totalTables, totalRows)

	//Step3: flush to the warehouse
	if e.Config.DryRun || e.Client == nil {
		log.Println("Dry run, skipping the database phase")
		result.Success = true
		e.finalize(result)
		return result, nil
	}

	if err := e.flush(tiers, totalRows, totalTables, result); err != nil {
		result.Errors = append(result.Errors, err.Error())
		e.finalize(result)
		return result, err
	}

	result.Success = true
	e.finalize(result)
	log.Printf("ETL completed successfully in %v", result.Duration)
	return result, nil
}

// assembles the load tiers for the configured pipeline mode
func (e *Engine) buildTiers(annotated []validation.AnnotatedRow) ([]loadTier, error) {
	var tiers []loadTier

	switch e.Config.Mode {
	case StarPipeline:
		tiers = e.starTiers(annotated)
	case VaultPipeline:
		tiers = e.vaultTiers(annotated)
	case BothPipelines:
		tiers = append(e.starTiers(annotated), e.vaultTiers(annotated)...)
	default:
		return nil, fmt.Errorf("unsupported pipeline mode %s", e.Config.Mode)
	}
	return tiers, nil
}

// dimensions first, facts last with the best-effort policy so a complete
// error report can be produced without aborting the load
func (e *Engine) starTiers(annotated []validation.AnnotatedRow) []loadTier {
	builder := star.NewBuilder()
	for _, row := range annotated {
		builder.Consume(row)
	}
	return []loadTier{
		{tables: builder.DimensionTables(), policy: database.AtomicLoad},
		{tables: []database.Table{builder.FactTable()}, policy: database.BestEffortLoad},
	}
}

// hubs before links before satellites
func (e *Engine) vaultTiers(annotated []validation.AnnotatedRow) []loadTier {
	builder := vault.NewBuilder()
	for _, row := range annotated {
		builder.Consume(row)
	}
	return []loadTier{
		{tables: builder.HubTables(), policy: database.AtomicLoad},
		{tables: builder.LinkTables(), policy: database.AtomicLoad},
		{tables: builder.SatelliteTables(e.Config.LoadDate), policy: database.AtomicLoad},
	}
}

// the database write phase: connect, optionally bootstrap the schema, then
// load tier by tier
func (e *Engine) flush(tiers []loadTier, totalRows int64, totalTables int, result *Result) error {
	if err := e.Client.Connect(); err != nil {
		return fmt.Errorf("database connection failed, write phase skipped, %v", err)
	}
	defer e.Client.Close()

	if e.Config.RunDDL && e.Config.DDLScript != "" {
		log.Println("Executing schema bootstrap script...")
		if err := e.Client.ExecuteScript(e.Config.DDLScript); err != nil {
			return fmt.Errorf("schema bootstrap failed, %v", err)
		}
	}

	//snapshot of the pre-load table states, for reporting what a failed
	//run had already written
	if e.Snapshots != nil {
		names := make([]string, 0, totalTables)
		for _, tier := range tiers {
			for _, table := range tier.tables {
				names = append(names, table.Name)
			}
		}
		snapshot, err := e.Snapshots.CreateSnapshot(string(e.Config.Mode), e.Config.Target, names)
		if err != nil {
			e.Logger.Error("Failed to create load snapshot", err.Error())
		} else {
			defer func() {
				if result.Success {
					e.Snapshots.MarkSnapshotCompleted(snapshot.ID)
				} else {
					e.Snapshots.MarkSnapshotFailed(snapshot.ID)
				}
			}()
		}
	}

	tracker := monitoring.NewLoadTracker(totalRows, totalTables)
	stopMonitor := tracker.StartProgressMonitor(2 * time.Second)
	defer func() {
		close(stopMonitor)
		tracker.PrintFinalSummary()
	}()

	for _, tier := range tiers {
		if err := e.loadTier(tier, tracker, result); err != nil {
			return err
		}
	}
	return nil
}

// loads one tier, tables within a tier are independent of each other and
// may be loaded concurrently
func (e *Engine) loadTier(tier loadTier, tracker *monitoring.LoadTracker, result *Result) error {
	if tier.policy == database.BestEffortLoad {
		for _, table := range tier.tables {
			if err := e.loadBestEffort(table, tracker, result); err != nil {
				return err
			}
		}
		return nil
	}

	results, err := database.LoadTablesWithWorkerPool(e.Client, tier.tables, tier.policy, e.Config.Workers)
	for _, loadResult := range results {
		result.Inserted += loadResult.Inserted
		result.Skipped += loadResult.Skipped
		tracker.CompletedTable(loadResult.Table, loadResult.Inserted+loadResult.Skipped)
		tracker.UpdateProgress(int64(loadResult.Inserted + loadResult.Skipped))
	}
	if err != nil {
		return fmt.Errorf("atomic load failed, %v", err)
	}
	return nil
}

// best-effort load in batches: failed inserts are collected in the error
// report and the loop continues, the surviving rows still commit
func (e *Engine) loadBestEffort(table database.Table, tracker *monitoring.LoadTracker, result *Result) error {
	tracker.SetCurrentTable(table.Name)

	processor := database.NewBatchProcessor(e.Config.BatchSize)
	loaded := 0

	err := processor.ProcessInBatches(table.Rows, func(batch []map[string]interface{}) error {
		subTable := table
		subTable.Rows = batch

		loadResult, err := e.Client.LoadTable(subTable, database.BestEffortLoad)
		if err != nil {
			return err
		}

		result.Inserted += loadResult.Inserted
		result.Skipped += loadResult.Skipped
		result.FailedRows += len(loadResult.RowErrors)

		for _, rowError := range loadResult.RowErrors {
			e.Report.AddGeneral(rowError.Error())
		}
		tracker.AddRowErrors(len(loadResult.RowErrors))
		tracker.UpdateProgress(int64(len(batch)))
		loaded += len(batch)
		return nil
	})
	if err != nil {
		return fmt.Errorf("best-effort load of table %s failed, %v", table.Name, err)
	}

	tracker.CompletedTable(table.Name, loaded)
	return nil
}

func (e *Engine) finalize(result *Result) {
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
}

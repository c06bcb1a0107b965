package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/globalbike/SalesWarehouseETL/config"
	"github.com/globalbike/SalesWarehouseETL/database"
	"github.com/globalbike/SalesWarehouseETL/etl"
	"github.com/globalbike/SalesWarehouseETL/extract"
	"github.com/globalbike/SalesWarehouseETL/monitoring"
	"github.com/globalbike/SalesWarehouseETL/report"
	"github.com/globalbike/SalesWarehouseETL/validation"
)

// supported warehouse targets
var supportedTargets = []string{"postgresql", "mysql", "mongodb"}

// supported pipeline modes
var supportedPipelines = []string{"star", "vault", "both"}

//validate inputs, pipeline mode and warehouse target

func validateInput(pipeline, target string) error {
	if pipeline == "" || target == "" {
		return fmt.Errorf("both pipeline and target must be specified")
	}

	if !isSupported(pipeline, supportedPipelines) {
		return fmt.Errorf("invalid pipeline mode %s", pipeline)
	}
	if !isSupported(target, supportedTargets) {
		return fmt.Errorf("invalid target database type %s", target)
	}
	return nil
}

func isSupported(value string, slice []string) bool {
	for _, v := range slice {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

func main() {

	//defining CLI for user input
	pipeline := flag.String("pipeline", "", "Pipeline mode (star,vault,both)")
	target := flag.String("target", "", "Target warehouse type (postgresql,mysql,mongodb)")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	csvPath := flag.String("csv", "", "Path to SalesData.csv, overrides config")
	runDDL := flag.Bool("run-ddl", false, "Execute the schema bootstrap script before loading")
	workers := flag.Int("workers", 0, "Workers for loading independent tables, overrides config")
	dryRun := flag.Bool("dry-run", false, "Transform and report only, skip the database phase")

	//parsing the user input
	flag.Parse()

	//Loading config from config.yaml and .env
	config.LoadEnvFile()
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Error loading config %v", err)
	}
	cfg.ApplyEnvOverrides()

	//flags override config defaults
	if *pipeline == "" {
		*pipeline = cfg.Pipeline.Mode
	}
	if *target == "" {
		*target = cfg.Pipeline.Target
	}
	if *csvPath == "" {
		*csvPath = cfg.CSVFilePath
	}
	if *workers <= 0 {
		*workers = cfg.Pipeline.Workers
	}

	//validate input
	if err := validateInput(*pipeline, *target); err != nil {
		fmt.Println("Error:", err)
		flag.Usage()
		os.Exit(1)
	}
	fmt.Println("Input validated successfully")
	fmt.Printf("Starting %s pipeline targeting %s\n", *pipeline, *target)

	//extract the source file
	fmt.Printf("Reading source file %s...\n", *csvPath)
	rows, diagnostics, err := extract.ReadCSV(*csvPath)
	if err != nil {
		log.Fatalf("Failed to read source data, %v", err)
	}
	fmt.Printf("Read %d source rows\n", len(rows))

	errorReport := validation.NewErrorReport()
	for _, diagnostic := range diagnostics {
		errorReport.AddGeneral(diagnostic)
	}

	//choosing the warehouse client
	var client database.WarehouseClient
	if !*dryRun {
		switch strings.ToLower(*target) {
		case "postgresql":
			client = database.NewPostgreSQLClientFromConfig(cfg)
		case "mysql":
			client = database.NewMySQLClientFromConfig(cfg)
		case "mongodb":
			client = database.NewMongoDBClientFromConfig(cfg)
		default:
			log.Fatalf("Unsupported target database type, %s", *target)
		}
	}

	//optionally reading the schema bootstrap script
	var ddlScript string
	if *runDDL {
		content, err := os.ReadFile(cfg.DDLFilePath)
		if err != nil {
			log.Fatalf("Failed to read DDL script, %v", err)
		}
		ddlScript = string(content)
	}

	engine := etl.NewEngine(etl.EngineConfig{
		Mode:      etl.PipelineMode(strings.ToLower(*pipeline)),
		Target:    strings.ToLower(*target),
		Workers:   *workers,
		LoadDate:  time.Now(),
		DryRun:    *dryRun,
		RunDDL:    *runDDL,
		DDLScript: ddlScript,
	}, client, errorReport)

	if client != nil {
		engine.Snapshots = etl.NewSnapshotManager(client, monitoring.NewLogger())
	}

	result, runErr := engine.Run(rows)

	//the error report is always produced, even when the write phase failed
	report.PrintErrorReport(errorReport)
	if err := report.WriteErrorReport(cfg.ErrorReportPath, errorReport); err != nil {
		log.Printf("Failed to write the error report, %v", err)
	} else {
		fmt.Printf("\nFull error report saved to %s\n", cfg.ErrorReportPath)
	}

	//final statistics
	fmt.Printf("\nRows read: %d, faulty rows: %d\n", result.RowsRead, result.FaultyRows)
	if !*dryRun {
		fmt.Printf("Rows inserted: %d, skipped (already present): %d, failed: %d\n", result.Inserted, result.Skipped, result.FailedRows)
	}

	if runErr != nil {
		log.Fatalf("ETL run failed, %v", runErr)
	}
	fmt.Println("ETL process completed!")
}

package monitoring

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// struct tracking load progress with thread safe operations, the loader
// workers report into it concurrently
type LoadTracker struct {
	mu            sync.RWMutex
	totalRows     int64
	loadedRows    int64
	totalTables   int
	loadedTables  int
	startTime     time.Time
	currentTable  string
	tableCounts   map[string]int
	rowErrorCount int
}

// struct holding load metrics
type LoadMetrics struct {
	TotalRows       int64         `json:"total_rows"`
	LoadedRows      int64         `json:"loaded_rows"`
	TotalTables     int           `json:"total_tables"`
	LoadedTables    int           `json:"loaded_tables"`
	RowsPerSecond   float64       `json:"rows_per_second"`
	ElapsedTime     time.Duration `json:"elapsed_time"`
	CurrentTable    string        `json:"current_table"`
	RowErrorCount   int           `json:"row_error_count"`
	ProgressPercent float64       `json:"progress_percent"`
}

// creating a new load tracker
func NewLoadTracker(totalRows int64, totalTables int) *LoadTracker {
	return &LoadTracker{
		totalRows:   totalRows,
		totalTables: totalTables,
		startTime:   time.Now(),
		tableCounts: make(map[string]int),
	}
}

// updating the number of loaded rows (threadsafe)
func (lt *LoadTracker) UpdateProgress(rowsLoaded int64) {
	atomic.AddInt64(&lt.loadedRows, rowsLoaded)
}

// updating the currently loading table
func (lt *LoadTracker) SetCurrentTable(tableName string) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.currentTable = tableName
}

// marks a table as completed with its emitted row count
func (lt *LoadTracker) CompletedTable(tableName string, rows int) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.loadedTables++
	lt.tableCounts[tableName] = rows
}

// records failed row inserts from a best-effort load
func (lt *LoadTracker) AddRowErrors(count int) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.rowErrorCount += count
}

// returning current load metrics
func (lt *LoadTracker) GetMetrics() LoadMetrics {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	loadedRows := atomic.LoadInt64(&lt.loadedRows)
	elapsedTime := time.Since(lt.startTime)

	var progressPercent float64
	if lt.totalRows > 0 {
		progressPercent = float64(loadedRows) / float64(lt.totalRows) * 100
	}

	var rowsPerSecond float64
	if elapsedTime.Seconds() > 0 {
		rowsPerSecond = float64(loadedRows) / elapsedTime.Seconds()
	}

	return LoadMetrics{
		TotalRows:       lt.totalRows,
		LoadedRows:      loadedRows,
		TotalTables:     lt.totalTables,
		LoadedTables:    lt.loadedTables,
		RowsPerSecond:   rowsPerSecond,
		ElapsedTime:     elapsedTime,
		CurrentTable:    lt.currentTable,
		RowErrorCount:   lt.rowErrorCount,
		ProgressPercent: progressPercent,
	}
}

// printing the progress
func (lt *LoadTracker) PrintProgress() {
	metrics := lt.GetMetrics()
	fmt.Printf("\r[%s] Progress: %.1f%% (%d/%d rows, %d/%d tables) | Speed: %.0f rows/sec",
		time.Now().Format("15:04:05"),
		metrics.ProgressPercent,
		metrics.LoadedRows,
		metrics.TotalRows,
		metrics.LoadedTables,
		metrics.TotalTables,
		metrics.RowsPerSecond,
	)

	if metrics.CurrentTable != "" {
		fmt.Printf(" | Current: %s", metrics.CurrentTable)
	}
}

// starting goroutine for printing progress updates
func (lt *LoadTracker) StartProgressMonitor(interval time.Duration) chan struct{} {
	stopChan := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				lt.PrintProgress()
			case <-stopChan:
				lt.PrintProgress() //final update
				fmt.Println()      //new line after printing progress
				return
			}
		}
	}()
	return stopChan
}

// printing the final tally of emitted row counts per table
func (lt *LoadTracker) PrintFinalSummary() {
	metrics := lt.GetMetrics()

	lt.mu.RLock()
	names := make([]string, 0, len(lt.tableCounts))
	for name := range lt.tableCounts {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\n=====Load Summary=====")
	for _, name := range names {
		fmt.Printf("  %s: %d rows\n", name, lt.tableCounts[name])
	}
	lt.mu.RUnlock()

	fmt.Printf("Total Duration: %v\n", formatDuration(metrics.ElapsedTime))
	fmt.Printf("Rows Loaded: %d / %d (%.1f%%)\n", metrics.LoadedRows, metrics.TotalRows, metrics.ProgressPercent)
	fmt.Printf("Tables Loaded: %d / %d\n", metrics.LoadedTables, metrics.TotalTables)
	fmt.Printf("Average Speed: %.0f rows/sec\n", metrics.RowsPerSecond)

	if metrics.RowErrorCount > 0 {
		fmt.Printf("Failed Inserts: %d (see error report)\n", metrics.RowErrorCount)
	}
	fmt.Println("======================")
}

// formats the duration in a human readable way
func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

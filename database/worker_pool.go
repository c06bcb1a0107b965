package database

import (
	"fmt"
	"sync"
)

// manages concurrent table loads within one dependency tier. Tables handed
// to the pool must be independent of each other; dependency order between
// tiers (dimensions/hubs before links before satellites before facts) is
// the caller's responsibility.
type WorkerPool struct {
	numWorkers int
	jobs       chan LoadJob
	results    chan LoadJobResult
	wg         sync.WaitGroup
}

// represents one table to load
type LoadJob struct {
	Table  Table
	Policy LoadPolicy
	Client WarehouseClient
}

// represents the outcome of loading one table
type LoadJobResult struct {
	TableName string
	Result    LoadResult
	Error     error
}

// creating a new workerpool
func NewWorkerPool(numWorkers int) *WorkerPool {
	return &WorkerPool{
		numWorkers: numWorkers,
		jobs:       make(chan LoadJob, numWorkers*2),
		results:    make(chan LoadJobResult, numWorkers*2),
	}
}

// initialising the workerpool
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// processing jobs from the jobs channel
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobs {
		fmt.Printf("Worker %d loading table: %s\n", id, job.Table.Name)

		result, err := job.Client.LoadTable(job.Table, job.Policy)

		wp.results <- LoadJobResult{
			TableName: job.Table.Name,
			Result:    result,
			Error:     err,
		}
	}
}

// adding a job to the workerpool
func (wp *WorkerPool) SubmitJob(job LoadJob) {
	wp.jobs <- job
}

// closing workerpool
func (wp *WorkerPool) Close() {
	close(wp.jobs)
	wp.wg.Wait()
	close(wp.results)
}

// returning result to the channel
func (wp *WorkerPool) GetResults() <-chan LoadJobResult {
	return wp.results
}

// LoadTablesWithWorkerPool loads a set of mutually independent tables
// concurrently and returns the per-table results keyed by table name.
func LoadTablesWithWorkerPool(client WarehouseClient, tables []Table, policy LoadPolicy, numWorkers int) (map[string]LoadResult, error) {
	if len(tables) == 0 {
		return map[string]LoadResult{}, nil
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if numWorkers > len(tables) {
		numWorkers = len(tables)
	}

	//creating worker pool
	wp := NewWorkerPool(numWorkers)
	wp.Start()

	//submitting jobs to the pool
	go func() {
		for _, table := range tables {
			wp.SubmitJob(LoadJob{Table: table, Policy: policy, Client: client})
		}
		wp.Close()
	}()

	//collecting results
	results := make(map[string]LoadResult, len(tables))
	var errors []error

	for i := 0; i < len(tables); i++ {
		jobResult := <-wp.GetResults()

		if jobResult.Error != nil {
			errors = append(errors, fmt.Errorf("error loading table %s: %w", jobResult.TableName, jobResult.Error))
			continue
		}
		results[jobResult.TableName] = jobResult.Result
	}

	//returning error if any table fails
	if len(errors) > 0 {
		return results, fmt.Errorf("failed to load %d tables: %v", len(errors), errors[0])
	}
	return results, nil
}

// for batch processing of large fact loads, so progress can be reported
// between batches
type BatchProcessor struct {
	batchSize int
}

// creating a new batch processor
func NewBatchProcessor(batchsize int) *BatchProcessor {
	return &BatchProcessor{batchSize: batchsize}
}

// processing rows in batches
func (bp *BatchProcessor) ProcessInBatches(rows []map[string]interface{}, processFunc func([]map[string]interface{}) error) error {
	if len(rows) == 0 {
		return nil
	}

	for i := 0; i < len(rows); i += bp.batchSize {
		end := i + bp.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := processFunc(rows[i:end]); err != nil {
			return fmt.Errorf("failed to process batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

package etl

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/globalbike/SalesWarehouseETL/database"
	"github.com/globalbike/SalesWarehouseETL/monitoring"
)

// type to represent a snapshot of the warehouse state before a load, used
// to report what a failed run had already written
type LoadSnapshot struct {
	ID           string                `json:"id"`
	Timestamp    time.Time             `json:"timestamp"`
	Pipeline     string                `json:"pipeline"`
	Target       string                `json:"target"`
	Tables       []string              `json:"tables"`
	PreLoadState map[string]TableState `json:"pre_load_state"`
	Status       string                `json:"status"` //"in_progress", "completed", "failed"
}

// type to represent the state of one warehouse table before the load
type TableState struct {
	TableName string `json:"table_name"`
	RowCount  int64  `json:"row_count"`
}

// type for handling load snapshots
type SnapshotManager struct {
	client       database.WarehouseClient
	snapshotsDir string
	logger       *monitoring.Logger
}

// creating a new snapshot manager
func NewSnapshotManager(client database.WarehouseClient, logger *monitoring.Logger) *SnapshotManager {
	snapshotsDir := "load_snapshots"

	//creating snapshots directory if not present
	if err := os.MkdirAll(snapshotsDir, 0755); err != nil {
		log.Printf("Warning: Could not create snapshot directory, %v", err)
	}

	return &SnapshotManager{
		client:       client,
		snapshotsDir: snapshotsDir,
		logger:       logger,
	}
}

// creating a snapshot before the load
func (sm *SnapshotManager) CreateSnapshot(pipeline, target string, tables []string) (*LoadSnapshot, error) {
	snapshotID := fmt.Sprintf("load_%s_%s_%d", pipeline, target, time.Now().Unix())

	sm.logger.Info(fmt.Sprintf("Creating load snapshot, %s", snapshotID))

	snapshot := &LoadSnapshot{
		ID:           snapshotID,
		Timestamp:    time.Now(),
		Pipeline:     pipeline,
		Target:       target,
		Tables:       tables,
		PreLoadState: make(map[string]TableState),
		Status:       "in_progress",
	}

	//capturing pre-load state for each table, a missing table counts zero
	for _, table := range tables {
		count, err := sm.client.CountRows(table)
		if err != nil {
			sm.logger.Error("Failed to capture table state", fmt.Sprintf("Table: %s, Error: %v", table, err))
			count = 0
		}
		snapshot.PreLoadState[table] = TableState{TableName: table, RowCount: count}
	}

	//saving snapshot to the disk
	if err := sm.saveSnapshot(snapshot); err != nil {
		return nil, fmt.Errorf("failed to save snapshot, %v", err)
	}
	sm.logger.Info(fmt.Sprintf("Load snapshot created successfully, %s", snapshotID))
	return snapshot, nil
}

// saving a snapshot to the disk
func (sm *SnapshotManager) saveSnapshot(snapshot *LoadSnapshot) error {
	fileName := filepath.Join(sm.snapshotsDir, snapshot.ID+".json")

	data, err := json.MarshalIndent(snapshot, "", " ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot, %v", err)
	}
	if err := os.WriteFile(fileName, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot file, %v", err)
	}
	return nil
}

// loading a snapshot from the disk
func (sm *SnapshotManager) LoadSnapshot(snapshotID string) (*LoadSnapshot, error) {
	filename := filepath.Join(sm.snapshotsDir, snapshotID+".json")

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file, %v", err)
	}

	var snapshot LoadSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot, %v", err)
	}
	return &snapshot, nil
}

// marking the snapshot as completed
func (sm *SnapshotManager) MarkSnapshotCompleted(snapshotID string) error {
	return sm.setStatus(snapshotID, "completed")
}

// marking the snapshot as failed
func (sm *SnapshotManager) MarkSnapshotFailed(snapshotID string) error {
	return sm.setStatus(snapshotID, "failed")
}

func (sm *SnapshotManager) setStatus(snapshotID, status string) error {
	snapshot, err := sm.LoadSnapshot(snapshotID)
	if err != nil {
		return err
	}
	snapshot.Status = status
	return sm.saveSnapshot(snapshot)
}

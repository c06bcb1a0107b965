package monitoring

import (
	"sync"
	"testing"
	"time"
)

func TestLoadTrackerProgress(t *testing.T) {
	tracker := NewLoadTracker(100, 8)

	tracker.UpdateProgress(25)
	tracker.UpdateProgress(25)
	tracker.SetCurrentTable("factsales")
	tracker.CompletedTable("country", 4)
	tracker.AddRowErrors(3)

	metrics := tracker.GetMetrics()
	if metrics.LoadedRows != 50 {
		t.Errorf("Expected 50 loaded rows, got %d", metrics.LoadedRows)
	}
	if metrics.ProgressPercent != 50.0 {
		t.Errorf("Expected 50%% progress, got %.1f", metrics.ProgressPercent)
	}
	if metrics.LoadedTables != 1 {
		t.Errorf("Expected 1 loaded table, got %d", metrics.LoadedTables)
	}
	if metrics.CurrentTable != "factsales" {
		t.Errorf("Expected current table factsales, got %s", metrics.CurrentTable)
	}
	if metrics.RowErrorCount != 3 {
		t.Errorf("Expected 3 row errors, got %d", metrics.RowErrorCount)
	}
}

func TestLoadTrackerZeroTotals(t *testing.T) {
	tracker := NewLoadTracker(0, 0)

	metrics := tracker.GetMetrics()
	if metrics.ProgressPercent != 0 {
		t.Errorf("Expected 0%% progress for an empty load, got %.1f", metrics.ProgressPercent)
	}
}

func TestLoadTrackerConcurrentUpdates(t *testing.T) {
	tracker := NewLoadTracker(1000, 10)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				tracker.UpdateProgress(1)
				tracker.AddRowErrors(1)
			}
		}()
	}
	wg.Wait()

	metrics := tracker.GetMetrics()
	if metrics.LoadedRows != 100 {
		t.Errorf("Expected 100 loaded rows, got %d", metrics.LoadedRows)
	}
	if metrics.RowErrorCount != 100 {
		t.Errorf("Expected 100 row errors, got %d", metrics.RowErrorCount)
	}
}

func TestStartProgressMonitorStops(t *testing.T) {
	tracker := NewLoadTracker(10, 1)

	stop := tracker.StartProgressMonitor(10 * time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	close(stop)
}

func TestFormatDuration(t *testing.T) {
	cases := map[time.Duration]string{
		0:                               "0s",
		45 * time.Second:                "45s",
		2*time.Minute + 5*time.Second:  "2m5s",
		time.Hour + 3*time.Minute:      "1h3m0s",
		61*time.Minute + 2*time.Second: "1h1m2s",
	}
	for d, want := range cases {
		if got := formatDuration(d); got != want {
			t.Errorf("formatDuration(%v) = %s, want %s", d, got, want)
		}
	}
}

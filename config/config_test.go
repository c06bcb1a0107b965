package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp config, %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	content := `
postgresql:
  host: localhost
  port: 5432
  user: etl
  password: secret
  dbname: warehouse
pipeline:
  mode: star
  target: postgresql
  workers: 4
csv_file_path: SalesData.csv
ddl_file_path: schema.sql
error_report_path: faulty_records.txt
`
	cfg, err := LoadConfig(writeTempConfig(t, content))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.PostgreSQL.Host != "localhost" || cfg.PostgreSQL.Port != 5432 {
		t.Errorf("Unexpected postgresql config, %+v", cfg.PostgreSQL)
	}
	if cfg.Pipeline.Mode != "star" || cfg.Pipeline.Workers != 4 {
		t.Errorf("Unexpected pipeline config, %+v", cfg.Pipeline)
	}
	if cfg.CSVFilePath != "SalesData.csv" {
		t.Errorf("Expected csv path SalesData.csv, got %s", cfg.CSVFilePath)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeTempConfig(t, "csv_file_path: SalesData.csv\n"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Pipeline.Mode != "both" {
		t.Errorf("Expected default mode both, got %s", cfg.Pipeline.Mode)
	}
	if cfg.Pipeline.Target != "postgresql" {
		t.Errorf("Expected default target postgresql, got %s", cfg.Pipeline.Target)
	}
	if cfg.Pipeline.Workers != 1 {
		t.Errorf("Expected default workers 1, got %d", cfg.Pipeline.Workers)
	}
	if cfg.ErrorReportPath != "faulty_records.txt" {
		t.Errorf("Expected default report path, got %s", cfg.ErrorReportPath)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("does_not_exist.yaml"); err == nil {
		t.Errorf("Expected an error for a missing config file")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	if _, err := LoadConfig(writeTempConfig(t, "pipeline: [not a mapping\n")); err == nil {
		t.Errorf("Expected an error for invalid yaml")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("POSTGRES_PASSWORD", "env-secret")
	t.Setenv("MYSQL_PASSWORD", "")

	cfg := &Config{}
	cfg.PostgreSQL.Password = "file-secret"
	cfg.MySQL.Password = "file-secret"
	cfg.ApplyEnvOverrides()

	if cfg.PostgreSQL.Password != "env-secret" {
		t.Errorf("Expected the env password to win, got %s", cfg.PostgreSQL.Password)
	}
	//an empty env var leaves the file value alone
	if cfg.MySQL.Password != "file-secret" {
		t.Errorf("Expected the file password to survive, got %s", cfg.MySQL.Password)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ETL_TEST_KEY", "value")

	if got := GetEnv("ETL_TEST_KEY", "fallback"); got != "value" {
		t.Errorf("Expected value, got %s", got)
	}
	if got := GetEnv("ETL_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("Expected fallback, got %s", got)
	}
}

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// connection settings for the PostgreSQL warehouse
type PostgreSQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

// connection settings for the MySQL warehouse
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

// connection settings for the MongoDB warehouse
type MongoDBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

// pipeline defaults, overridable on the command line
type PipelineConfig struct {
	Mode    string `yaml:"mode"`    //star, vault or both
	Target  string `yaml:"target"`  //postgresql, mysql or mongodb
	Workers int    `yaml:"workers"` //workers for loading independent tables
}

// config struct to map config.yaml
type Config struct {
	PostgreSQL      PostgreSQLConfig `yaml:"postgresql"`
	MySQL           MySQLConfig      `yaml:"mysql"`
	MongoDB         MongoDBConfig    `yaml:"mongodb"`
	Pipeline        PipelineConfig   `yaml:"pipeline"`
	CSVFilePath     string           `yaml:"csv_file_path"`
	DDLFilePath     string           `yaml:"ddl_file_path"`
	ErrorReportPath string           `yaml:"error_report_path"`
}

func LoadConfig(filepath string) (*Config, error) {

	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file, %v", err)
	}

	var config Config
	err = yaml.Unmarshal(content, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}

	//defaults when config.yaml leaves the pipeline section out
	if config.Pipeline.Mode == "" {
		config.Pipeline.Mode = "both"
	}
	if config.Pipeline.Target == "" {
		config.Pipeline.Target = "postgresql"
	}
	if config.Pipeline.Workers <= 0 {
		config.Pipeline.Workers = 1
	}
	if config.ErrorReportPath == "" {
		config.ErrorReportPath = "faulty_records.txt"
	}
	return &config, nil
}

package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/globalbike/SalesWarehouseETL/config"
	_ "github.com/lib/pq"
)

type PostgreSQLClient struct {
	User     string
	Password string
	Host     string
	Port     int
	DBName   string
	DB       *sql.DB
}

func NewPostgreSQLClient(user, password, host string, port int, dbname string) *PostgreSQLClient {
	return &PostgreSQLClient{
		User:     user,
		Password: password,
		Host:     host,
		Port:     port,
		DBName:   dbname,
	}
}

func NewPostgreSQLClientFromConfig(cfg *config.Config) *PostgreSQLClient {
	return &PostgreSQLClient{
		User:     cfg.PostgreSQL.User,
		Password: cfg.PostgreSQL.Password,
		Host:     cfg.PostgreSQL.Host,
		Port:     cfg.PostgreSQL.Port,
		DBName:   cfg.PostgreSQL.DBName,
	}
}

// connect to Postgresql database
func (p *PostgreSQLClient) Connect() error {
	//DSN for postgresql
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", p.Host, p.Port, p.User, p.Password, p.DBName)

	//open connection
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open Postgresql connection, %v", err)
	}

	//testing connection
	if err = db.Ping(); err != nil {
		return fmt.Errorf("failed to ping postgresql database, %v", err)
	}
	p.DB = db
	fmt.Println("Successfully connected to the postgresql database")
	return nil
}

// Close the database connection
func (p *PostgreSQLClient) Close() error {
	if p.DB != nil {
		return p.DB.Close()
	}
	return nil
}

// ExecuteScript splits a DDL script on statement boundaries and executes
// the statements sequentially within one transaction.
func (p *PostgreSQLClient) ExecuteScript(script string) error {
	if p.DB == nil {
		return fmt.Errorf("database connection not established")
	}

	tx, err := p.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction, %v", err)
	}

	for _, stmt := range splitStatements(script) {
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute statement %q, %v", truncateStatement(stmt), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction, %v", err)
	}
	return nil
}

// LoadTable inserts the rows of a table, skipping rows whose key already
// exists. Atomic loads roll back on the first failure, best-effort loads
// continue after a failed row and collect it; either way the surviving
// inserts are committed together.
func (p *PostgreSQLClient) LoadTable(table Table, policy LoadPolicy) (LoadResult, error) {
	result := LoadResult{Table: table.Name}

	if p.DB == nil {
		return result, fmt.Errorf("database connection not established")
	}
	if len(table.Rows) == 0 {
		return result, nil
	}

	//placeholders for one row
	placeholders := make([]string, len(table.Columns))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	quoted := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		quoted[i] = quoteIdentifier(col)
	}

	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT DO NOTHING",
		quoteIdentifier(table.Name),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)

	tx, err := p.DB.Begin()
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction, %v", err)
	}

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		tx.Rollback()
		return result, fmt.Errorf("failed to prepare statement for table %s, %v", table.Name, err)
	}
	defer stmt.Close()

	for _, row := range table.Rows {
		values := table.rowValues(row)

		if policy == BestEffortLoad {
			//a failed statement poisons a postgres transaction, so each
			//best-effort insert runs inside its own savepoint
			if _, err := tx.Exec("SAVEPOINT load_row"); err != nil {
				tx.Rollback()
				return result, fmt.Errorf("failed to create savepoint, %v", err)
			}
		}

		res, err := stmt.Exec(values...)
		if err != nil {
			if policy == AtomicLoad {
				tx.Rollback()
				return result, fmt.Errorf("failed to insert row into table %s, %v", table.Name, err)
			}
			result.RowErrors = append(result.RowErrors, RowError{Table: table.Name, Row: row, Err: err})
			if _, err := tx.Exec("ROLLBACK TO SAVEPOINT load_row"); err != nil {
				tx.Rollback()
				return result, fmt.Errorf("failed to roll back to savepoint, %v", err)
			}
			continue
		}

		if policy == BestEffortLoad {
			if _, err := tx.Exec("RELEASE SAVEPOINT load_row"); err != nil {
				tx.Rollback()
				return result, fmt.Errorf("failed to release savepoint, %v", err)
			}
		}

		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			result.Skipped++ //key already present
		} else {
			result.Inserted++
		}
	}

	//the whole batch is committed together
	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("failed to commit transaction, %v", err)
	}
	return result, nil
}

// CountRows returns the current row count of a warehouse table, zero when
// the table does not exist yet.
func (p *PostgreSQLClient) CountRows(tableName string) (int64, error) {
	if p.DB == nil {
		return 0, fmt.Errorf("database connection not established")
	}

	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdentifier(tableName))
	if err := p.DB.QueryRow(query).Scan(&count); err != nil {
		return 0, nil
	}
	return count, nil
}

// quoting identifiers handles reserved table names like date and order and
// prevents SQL injection through table or column names
func quoteIdentifier(identifier string) string {
	return `"` + strings.Replace(identifier, `"`, "", -1) + `"`
}

// splits a DDL script into individual statements
func splitStatements(script string) []string {
	var statements []string
	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}

func truncateStatement(stmt string) string {
	if len(stmt) > 60 {
		return stmt[:60] + "..."
	}
	return stmt
}

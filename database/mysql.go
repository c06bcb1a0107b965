package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/globalbike/SalesWarehouseETL/config"

	_ "github.com/go-sql-driver/mysql"
)

type MySQLClient struct {
	User     string
	Password string
	Host     string
	Port     int
	DBName   string
	DB       *sql.DB
}

// create a MySQL client using manual parameters, (for tests)
func NewMySQLClient(user, password, host string, port int, dbname string) *MySQLClient {
	return &MySQLClient{
		User:     user,
		Password: password,
		Host:     host,
		Port:     port,
		DBName:   dbname,
	}
}

// create a new MySQL client using config file
func NewMySQLClientFromConfig(cfg *config.Config) *MySQLClient {
	return &MySQLClient{
		User:     cfg.MySQL.User,
		Password: cfg.MySQL.Password,
		Host:     cfg.MySQL.Host,
		Port:     cfg.MySQL.Port,
		DBName:   cfg.MySQL.DBName,
	}
}

// to connect with the MySQL DB
func (c *MySQLClient) Connect() error {
	//format: user:password@tcp(host:port)/name
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", c.User, c.Password, c.Host, c.Port, c.DBName)

	//open connection
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open MySQL connection, %v", err)
	}

	//test the connection
	if err = db.Ping(); err != nil {
		return fmt.Errorf("failed to ping the MySQL database, %v", err)
	}

	c.DB = db

	fmt.Println("Successfully connected to MySQL database")
	return nil
}

// closes the database connection
func (c *MySQLClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// ExecuteScript runs a DDL script statement by statement within one transaction.
func (c *MySQLClient) ExecuteScript(script string) error {
	if c.DB == nil {
		return fmt.Errorf("db connection not established")
	}

	tx, err := c.DB.Begin()
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

// LoadTable inserts the rows of a table using INSERT IGNORE so rows whose
// key already exists are skipped. In MySQL a failed insert does not poison
// the transaction, so the best-effort policy needs no savepoints.
func (c *MySQLClient) LoadTable(table Table, policy LoadPolicy) (LoadResult, error) {
	result := LoadResult{Table: table.Name}

	if c.DB == nil {
		return result, fmt.Errorf("db connection not established")
	}
	if len(table.Rows) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(table.Columns))
	quoted := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		placeholders[i] = "?"
		quoted[i] = quoteMySQLIdentifier(col)
	}

	insertSQL := fmt.Sprintf(
		"INSERT IGNORE INTO %s (%s) VALUES (%s)",
		quoteMySQLIdentifier(table.Name),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)

	tx, err := c.DB.Begin()
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
		res, err := stmt.Exec(table.rowValues(row)...)
		if err != nil {
			if policy == AtomicLoad {
				tx.Rollback()
				return result, fmt.Errorf("failed to insert row into table %s, %v", table.Name, err)
			}
			result.RowErrors = append(result.RowErrors, RowError{Table: table.Name, Row: row, Err: err})
			continue
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			result.Skipped++
		} else {
			result.Inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("failed to commit transaction, %v", err)
	}
	return result, nil
}

// CountRows returns the current row count of a warehouse table.
func (c *MySQLClient) CountRows(tableName string) (int64, error) {
	if c.DB == nil {
		return 0, fmt.Errorf("db connection not established")
	}

	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteMySQLIdentifier(tableName))
	if err := c.DB.QueryRow(query).Scan(&count); err != nil {
		return 0, nil
	}
	return count, nil
}

// backtick quoting for MySQL identifiers
func quoteMySQLIdentifier(identifier string) string {
	return "`" + strings.Replace(identifier, "`", "", -1) + "`"
}

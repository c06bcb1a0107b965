package database

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockedMySQLClient(t *testing.T) (*MySQLClient, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock, %v", err)
	}
	return &MySQLClient{DB: db}, mock
}

const mysqlCountryInsertSQL = "INSERT IGNORE INTO `country` (`countrycode`, `countryname`) VALUES (?, ?)"

func TestMySQLLoadTableAtomic(t *testing.T) {
	client, mock := newMockedMySQLClient(t)
	defer client.Close()

	mock.ExpectBegin()
	mock.ExpectPrepare(regexp.QuoteMeta(mysqlCountryInsertSQL))
	mock.ExpectExec(regexp.QuoteMeta(mysqlCountryInsertSQL)).
		WithArgs("DE", "Germany").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(mysqlCountryInsertSQL)).
		WithArgs("US", "United States").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	result, err := client.LoadTable(countryTable(), AtomicLoad)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Inserted != 2 {
		t.Errorf("Expected 2 inserted rows, got %d", result.Inserted)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations, %v", err)
	}
}

func TestMySQLLoadTableIgnoredRowsCountAsSkipped(t *testing.T) {
	client, mock := newMockedMySQLClient(t)
	defer client.Close()

	mock.ExpectBegin()
	mock.ExpectPrepare(regexp.QuoteMeta(mysqlCountryInsertSQL))
	mock.ExpectExec(regexp.QuoteMeta(mysqlCountryInsertSQL)).
		WithArgs("DE", "Germany").
		WillReturnResult(sqlmock.NewResult(0, 0)) //INSERT IGNORE hit an existing key
	mock.ExpectExec(regexp.QuoteMeta(mysqlCountryInsertSQL)).
		WithArgs("US", "United States").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	result, err := client.LoadTable(countryTable(), AtomicLoad)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Inserted != 1 || result.Skipped != 1 {
		t.Errorf("Expected 1 inserted and 1 skipped, got %d and %d", result.Inserted, result.Skipped)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations, %v", err)
	}
}

func TestMySQLLoadTableBestEffortNeedsNoSavepoints(t *testing.T) {
	client, mock := newMockedMySQLClient(t)
	defer client.Close()

	mock.ExpectBegin()
	mock.ExpectPrepare(regexp.QuoteMeta(mysqlCountryInsertSQL))
	mock.ExpectExec(regexp.QuoteMeta(mysqlCountryInsertSQL)).
		WithArgs("DE", "Germany").
		WillReturnError(fmt.Errorf("foreign key violation"))
	mock.ExpectExec(regexp.QuoteMeta(mysqlCountryInsertSQL)).
		WithArgs("US", "United States").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	result, err := client.LoadTable(countryTable(), BestEffortLoad)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Inserted != 1 {
		t.Errorf("Expected 1 inserted row, got %d", result.Inserted)
	}
	if len(result.RowErrors) != 1 {
		t.Errorf("Expected 1 row error, got %d", len(result.RowErrors))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations, %v", err)
	}
}

func TestMySQLExecuteScript(t *testing.T) {
	client, mock := newMockedMySQLClient(t)
	defer client.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE country (countrycode CHAR(2))")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := client.ExecuteScript("CREATE TABLE country (countrycode CHAR(2));"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations, %v", err)
	}
}

func TestQuoteMySQLIdentifier(t *testing.T) {
	if got := quoteMySQLIdentifier("order"); got != "`order`" {
		t.Errorf("Unexpected quoting, %s", got)
	}
	if got := quoteMySQLIdentifier("x`y"); got != "`xy`" {
		t.Errorf("Expected embedded backticks stripped, got %s", got)
	}
}

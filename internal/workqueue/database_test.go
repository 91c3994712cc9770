package workqueue_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"listingcast/internal/workqueue"
)

func newMockConnector(t *testing.T) (*workqueue.DatabaseConnector, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	connector := &workqueue.DatabaseConnector{
		DSN:   "postgres://listings",
		Table: "listings",
		Open: func(driverName, _ string) (*sql.DB, error) {
			if driverName != "postgres" {
				t.Fatalf("unexpected driver %q", driverName)
			}
			return db, nil
		},
	}
	return connector, mock
}

func TestDatabaseConnectorFetchAndWrite(t *testing.T) {
	connector, mock := newMockConnector(t)
	mock.ExpectQuery(`SELECT \* FROM "listings" ORDER BY id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "address", "status"}).
			AddRow(17, "Seoul Gangnam Apt", nil).
			AddRow(23, "Seoul Seocho Officetel", "완료"))
	mock.ExpectExec(`UPDATE "listings" SET "status" = \$1 WHERE id = \$2`).
		WithArgs("처리중", "17").
		WillReturnResult(sqlmock.NewResult(0, 1))

	conn, err := connector.Connect(context.Background(), "")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	table, err := conn.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(table.Rows) != 2 || table.Rows[0][0] != "17" || table.Rows[0][2] != "" {
		t.Fatalf("unexpected rows %+v", table.Rows)
	}
	writer, ok := conn.(workqueue.CellWriter)
	if !ok {
		t.Fatal("expected database connection to be writable")
	}
	if err := writer.WriteCell(context.Background(), workqueue.Cell{Row: 2, Column: 3, Header: "status"}, "처리중"); err != nil {
		t.Fatalf("WriteCell: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestDatabaseConnectorWriteUnknownRow(t *testing.T) {
	connector, mock := newMockConnector(t)
	mock.ExpectQuery(`SELECT \* FROM "listings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "address"}))

	conn, err := connector.Connect(context.Background(), "")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if _, err := conn.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	err = conn.(workqueue.CellWriter).WriteCell(context.Background(), workqueue.Cell{Row: 9, Column: 1, Header: "status"}, "x")
	if err == nil {
		t.Fatal("expected error for row outside last fetch")
	}
}

func TestDatabaseConnectorRequiresDSN(t *testing.T) {
	_, err := (&workqueue.DatabaseConnector{}).Connect(context.Background(), "")
	if !errors.Is(err, workqueue.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestDatabaseConnectionClosedWithSource(t *testing.T) {
	connector, mock := newMockConnector(t)
	mock.ExpectQuery(`SELECT \* FROM "listings" ORDER BY id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "address"}).AddRow(17, "Seoul Gangnam Apt"))
	mock.ExpectClose()

	source := newTestSource(connector)
	if _, err := source.List(context.Background(), "listings"); err != nil {
		t.Fatalf("List: %v", err)
	}
	if err := source.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

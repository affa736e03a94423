package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func withMock(t *testing.T, pingErr error) sqlmock.Sqlmock {
	t.Helper()
	handle, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	ping := mock.ExpectPing()
	if pingErr != nil {
		ping.WillReturnError(pingErr)
		mock.ExpectClose()
	}
	prev := openDB
	openDB = func(driverName, dsn string) (*sql.DB, error) {
		if driverName != "pgx" {
			t.Fatalf("unexpected driver %q", driverName)
		}
		return handle, nil
	}
	t.Cleanup(func() { openDB = prev })
	return mock
}

func TestConnectPingsAndSizesPool(t *testing.T) {
	mock := withMock(t, nil)

	handle, err := Connect(context.Background(), "postgres://interviews", Options{MaxOpenConns: 6})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer handle.Close()

	if got := handle.Stats().MaxOpenConnections; got != 6 {
		t.Fatalf("expected 6 open conns, got %d", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestConnectClosesOnPingFailure(t *testing.T) {
	mock := withMock(t, errors.New("connection refused"))

	if _, err := Connect(context.Background(), "postgres://interviews", Options{}); err == nil {
		t.Fatalf("expected ping error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestConnectRequiresURL(t *testing.T) {
	if _, err := Connect(context.Background(), "  ", Options{}); !errors.Is(err, ErrNoURL) {
		t.Fatalf("expected ErrNoURL, got %v", err)
	}
}

func TestConnectSurfacesOpenError(t *testing.T) {
	prev := openDB
	openDB = func(string, string) (*sql.DB, error) { return nil, errors.New("bad dsn") }
	defer func() { openDB = prev }()

	if _, err := Connect(context.Background(), "postgres://x", Options{}); err == nil {
		t.Fatalf("expected open error")
	}
}

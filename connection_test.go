package spot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestOpen_SQLite(t *testing.T) {
	conn, err := Open(context.Background(), "sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer func() { _ = conn.Close() }()

	if conn.Platform().Family() != FamilySQLite {
		t.Errorf("Platform().Family() = %v, want %v", conn.Platform().Family(), FamilySQLite)
	}
	if conn.DB() == nil {
		t.Error("DB() returned nil")
	}
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "dsn")
	if !errors.Is(err, ErrUnknownPlatform) {
		t.Errorf("Open(oracle) error = %v, want ErrUnknownPlatform", err)
	}

	_, err = Open(context.Background(), "mysql", "not a dsn")
	if err == nil || !strings.Contains(err.Error(), "parse mysql dsn") {
		t.Errorf("Open(mysql, bad dsn) error = %v", err)
	}
}

func TestConnection_Passthrough(t *testing.T) {
	conn := NewConnection(nil, Postgres())

	if got := conn.QuoteIdentifier("posts.id"); got != `"posts"."id"` {
		t.Errorf("QuoteIdentifier() = %q", got)
	}
	if got := conn.QuoteString("x"); got != `'x'` {
		t.Errorf("QuoteString() = %q", got)
	}
	if got := conn.IdentifierQuoteChar(); got != `"` {
		t.Errorf("IdentifierQuoteChar() = %q", got)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("Close() without a handle = %v", err)
	}
	if _, err := conn.execer(); !errors.Is(err, ErrNoConnection) {
		t.Errorf("execer() error = %v, want ErrNoConnection", err)
	}

	var missing *Connection
	if _, err := missing.execer(); !errors.Is(err, ErrNoConnection) {
		t.Errorf("nil execer() error = %v, want ErrNoConnection", err)
	}
}

func TestNormalizeDriverError(t *testing.T) {
	if normalizeDriverError(nil) != nil {
		t.Error("normalizeDriverError(nil) should be nil")
	}

	plain := errors.New("plain")
	if normalizeDriverError(plain) != plain {
		t.Error("non-driver errors should pass through")
	}

	src := &mysql.MySQLError{Number: 1064, Message: "syntax error"}
	err := normalizeDriverError(src)

	var driverErr *DriverError
	if !errors.As(err, &driverErr) {
		t.Fatalf("error = %T, want *DriverError", err)
	}
	if driverErr.Code != 1064 || driverErr.Message != "syntax error" {
		t.Errorf("DriverError = %+v", driverErr)
	}
	if !errors.Is(err, src) {
		t.Error("DriverError should unwrap to the driver error")
	}
}

package spot

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Connection pairs a database handle with its platform quoting rules.
//
// The db parameter accepts sqlx.ExtContext, which is satisfied by both *sqlx.DB
// and *sqlx.Tx. A nil db is allowed for query building without execution.
type Connection struct {
	db       sqlx.ExtContext
	platform Platform
}

// NewConnection wraps db for the given platform.
func NewConnection(db sqlx.ExtContext, platform Platform) *Connection {
	return &Connection{db: db, platform: platform}
}

// Open connects to a database and picks the platform from the driver name.
// MySQL DSNs are normalized to parse DATE and DATETIME columns into time.Time.
func Open(ctx context.Context, driverName, dsn string) (*Connection, error) {
	platform, err := PlatformFor(driverName)
	if err != nil {
		return nil, fmt.Errorf("spot: %w", err)
	}

	if platform.Family() == FamilyMySQL {
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("spot: parse mysql dsn: %w", err)
		}
		cfg.ParseTime = true
		dsn = cfg.FormatDSN()
	}

	db, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("spot: connect: %w", err)
	}
	return NewConnection(db, platform), nil
}

// DB returns the underlying handle.
func (c *Connection) DB() sqlx.ExtContext { return c.db }

// Platform returns the platform.
func (c *Connection) Platform() Platform { return c.platform }

// QuoteIdentifier quotes an identifier with the platform rules.
func (c *Connection) QuoteIdentifier(identifier string) string {
	return c.platform.QuoteIdentifier(identifier)
}

// QuoteString quotes a string literal with the platform rules.
func (c *Connection) QuoteString(value string) string {
	return c.platform.QuoteString(value)
}

// IdentifierQuoteChar returns the platform identifier quote character.
func (c *Connection) IdentifierQuoteChar() string {
	return c.platform.IdentifierQuoteChar()
}

// Close closes the handle when it is closable.
func (c *Connection) Close() error {
	if closer, ok := c.db.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (c *Connection) execer() (sqlx.ExtContext, error) {
	if c == nil || c.db == nil {
		return nil, ErrNoConnection
	}
	return c.db, nil
}

// normalizeDriverError maps MySQL server errors to *DriverError.
func normalizeDriverError(err error) error {
	if err == nil {
		return nil
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return &DriverError{Code: mysqlErr.Number, Message: mysqlErr.Message, Err: err}
	}
	return err
}

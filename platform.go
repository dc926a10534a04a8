package spot

import (
	"fmt"
	"strings"

	// goqu dialects used by the platforms below.
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/lib/pq"
)

// Family groups platforms that share SQL extensions (fulltext, REGEXP).
type Family int

// Platform families.
const (
	FamilyMySQL Family = iota + 1
	FamilyPostgres
	FamilySQLite
)

func (f Family) String() string {
	switch f {
	case FamilyMySQL:
		return "mysql"
	case FamilyPostgres:
		return "postgres"
	case FamilySQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// Platform provides the quoting rules of a database platform.
type Platform interface {
	// Dialect returns the goqu dialect name used to render SQL.
	Dialect() string
	Family() Family
	// QuoteIdentifier quotes a possibly dotted identifier. A "*" part is left bare.
	QuoteIdentifier(identifier string) string
	// QuoteString quotes a string literal.
	QuoteString(value string) string
	IdentifierQuoteChar() string
	RegexOperator() string
}

// MySQL returns the MySQL/MariaDB platform.
func MySQL() Platform { return mysqlPlatform{} }

// Postgres returns the PostgreSQL platform.
func Postgres() Platform { return postgresPlatform{} }

// SQLite returns the SQLite platform.
func SQLite() Platform { return sqlitePlatform{} }

// PlatformFor maps a database/sql driver name to its platform.
func PlatformFor(driverName string) (Platform, error) {
	switch strings.ToLower(driverName) {
	case "mysql":
		return MySQL(), nil
	case "postgres", "pgx", "pq":
		return Postgres(), nil
	case "sqlite3", "sqlite":
		return SQLite(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, driverName)
	}
}

type mysqlPlatform struct{}

func (mysqlPlatform) Dialect() string             { return "mysql" }
func (mysqlPlatform) Family() Family              { return FamilyMySQL }
func (mysqlPlatform) IdentifierQuoteChar() string { return "`" }
func (mysqlPlatform) RegexOperator() string       { return "REGEXP" }

func (mysqlPlatform) QuoteIdentifier(identifier string) string {
	return quoteDotted(identifier, quoteBacktick)
}

var mysqlStringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\x00", `\0`,
	"\n", `\n`,
	"\r", `\r`,
	"\x1a", `\Z`,
)

func (mysqlPlatform) QuoteString(value string) string {
	return "'" + mysqlStringEscaper.Replace(value) + "'"
}

type postgresPlatform struct{}

func (postgresPlatform) Dialect() string             { return "postgres" }
func (postgresPlatform) Family() Family              { return FamilyPostgres }
func (postgresPlatform) IdentifierQuoteChar() string { return `"` }
func (postgresPlatform) RegexOperator() string       { return "~" }

func (postgresPlatform) QuoteIdentifier(identifier string) string {
	return quoteDotted(identifier, pq.QuoteIdentifier)
}

func (postgresPlatform) QuoteString(value string) string {
	return pq.QuoteLiteral(value)
}

// sqlitePlatform uses backticks to match goqu's sqlite3 dialect.
type sqlitePlatform struct{}

func (sqlitePlatform) Dialect() string             { return "sqlite3" }
func (sqlitePlatform) Family() Family              { return FamilySQLite }
func (sqlitePlatform) IdentifierQuoteChar() string { return "`" }
func (sqlitePlatform) RegexOperator() string       { return "REGEXP" }

func (sqlitePlatform) QuoteIdentifier(identifier string) string {
	return quoteDotted(identifier, quoteBacktick)
}

func (sqlitePlatform) QuoteString(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func quoteBacktick(part string) string {
	return "`" + strings.ReplaceAll(part, "`", "``") + "`"
}

func quoteDotted(identifier string, quote func(string) string) string {
	parts := strings.Split(identifier, ".")
	for i, part := range parts {
		if part == "*" {
			continue
		}
		parts[i] = quote(part)
	}
	return strings.Join(parts, ".")
}

// Unquote strips one level of identifier quoting using the platform quote
// character or backticks. Anything that is not a single quoted identifier is
// returned unchanged.
func Unquote(p Platform, identifier string) string {
	chars := []string{"`"}
	if p != nil && p.IdentifierQuoteChar() != "`" {
		chars = append(chars, p.IdentifierQuoteChar())
	}
	for _, q := range chars {
		if len(identifier) < 2 || !strings.HasPrefix(identifier, q) || !strings.HasSuffix(identifier, q) {
			continue
		}
		inner := identifier[len(q) : len(identifier)-len(q)]
		if strings.Contains(strings.ReplaceAll(inner, q+q, ""), q) {
			return identifier
		}
		return strings.ReplaceAll(inner, q+q, q)
	}
	return identifier
}

// unboundedLimit returns the LIMIT value a platform needs in front of a bare
// OFFSET. MySQL and SQLite have no OFFSET without LIMIT; Postgres does.
func unboundedLimit(p Platform) (uint, bool) {
	switch p.Family() {
	case FamilyMySQL:
		return ^uint(0), true
	case FamilySQLite:
		return ^uint(0) >> 1, true
	default:
		return 0, false
	}
}

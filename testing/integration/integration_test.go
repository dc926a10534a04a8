// Package integration provides integration tests for spot using testcontainers.
// These tests require Docker to be running and may take longer to execute.
//
// Run with: go test -tags=integration ./testing/integration/...
//
//go:build integration

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/zoobzio/spot"
)

// Container wraps a database testcontainer and a spot connection to it.
type Container struct {
	container testcontainers.Container
	conn      *spot.Connection
}

// Close terminates the container and closes the connection.
func (c *Container) Close(ctx context.Context) error {
	if c.conn != nil {
		_ = c.conn.Close()
	}
	if c.container != nil {
		return c.container.Terminate(ctx)
	}
	return nil
}

func startContainer(ctx context.Context, req testcontainers.ContainerRequest, driver string, dsn func(host, port string) string, port string) (*Container, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	mappedPort, err := container.MappedPort(ctx, port)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	conn, err := spot.Open(ctx, driver, dsn(host, mappedPort.Port()))
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Container{container: container, conn: conn}, nil
}

// NewPostgresContainer creates and starts a PostgreSQL container.
func NewPostgresContainer(ctx context.Context) (*Container, error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
	}
	return startContainer(ctx, req, "postgres", func(host, port string) string {
		return fmt.Sprintf("host=%s port=%s user=test password=test dbname=testdb sslmode=disable", host, port)
	}, "5432")
}

// NewMySQLContainer creates and starts a MySQL container.
func NewMySQLContainer(ctx context.Context) (*Container, error) {
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8.0",
		ExposedPorts: []string{"3306/tcp"},
		WaitingFor:   wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(120 * time.Second),
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "test",
			"MYSQL_DATABASE":      "testdb",
		},
	}
	return startContainer(ctx, req, "mysql", func(host, port string) string {
		return fmt.Sprintf("root:test@tcp(%s:%s)/testdb", host, port)
	}, "3306")
}

func postEntity(engine string) *spot.Entity {
	e := &spot.Entity{
		Name:  "post",
		Table: "posts",
		Fields: []spot.Field{
			{Name: "id", Type: spot.TypeInteger, Primary: true},
			{Name: "title", Type: spot.TypeString, Fulltext: true},
			{Name: "status", Type: spot.TypeString},
			{Name: "author", Column: "author_id", Type: spot.TypeInteger},
			{Name: "views", Type: spot.TypeInteger},
		},
		Scopes: map[string]spot.Conditions{
			"published": spot.Cond("status", "published"),
		},
	}
	if engine != "" {
		e.Options = map[string]string{spot.OptionEngine: engine}
	}
	return e
}

func seed(ctx context.Context, t *testing.T, c *Container, ddl string) {
	t.Helper()
	db := c.conn.DB()
	_, err := db.ExecContext(ctx, ddl)
	require.NoError(t, err)

	rows := []struct {
		title, status string
		author, views int
	}{
		{"Go generics in practice", "published", 1, 100},
		{"Rust traits explained", "published", 2, 50},
		{"Go modules", "draft", 1, 10},
	}
	for _, r := range rows {
		query := "INSERT INTO posts (title, status, author_id, views) VALUES (?, ?, ?, ?)"
		if c.conn.Platform().Family() == spot.FamilyPostgres {
			query = "INSERT INTO posts (title, status, author_id, views) VALUES ($1, $2, $3, $4)"
		}
		_, err := db.ExecContext(ctx, query, r.title, r.status, r.author, r.views)
		require.NoError(t, err)
	}
}

func TestPostgresIntegration(t *testing.T) {
	ctx := context.Background()
	c, err := NewPostgresContainer(ctx)
	require.NoError(t, err)
	defer func() { _ = c.Close(ctx) }()

	seed(ctx, t, c, `
		CREATE TABLE posts (
			id SERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			status TEXT NOT NULL,
			author_id INTEGER NOT NULL,
			views INTEGER NOT NULL DEFAULT 0
		)`)

	m, err := spot.NewMapper(postEntity(""), c.conn)
	require.NoError(t, err)
	factory := spot.NewFactory()

	t.Run("where and order", func(t *testing.T) {
		rows, err := factory.Query(m).
			Where(spot.Cond("status", "published")).
			Order(spot.Desc("views")).
			ToArray(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Go generics in practice", rows[0]["title"])
		assert.Contains(t, rows[0], "author")
	})

	t.Run("regex", func(t *testing.T) {
		n, err := factory.Query(m).Where(spot.Cond("title ~=", "^Go")).Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("in", func(t *testing.T) {
		n, err := factory.Query(m).Where(spot.Cond("author in", []int{2, 3})).Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("search falls back to like", func(t *testing.T) {
		rows, err := factory.Query(m).Search([]string{"title"}, "%modules%").ToArray(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "draft", rows[0]["status"])
	})

	t.Run("scope dispatch", func(t *testing.T) {
		out, err := factory.Query(m).Call(ctx, "published")
		require.NoError(t, err)
		q, ok := out.(*spot.Query)
		require.True(t, ok)
		n, err := q.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("result method dispatch", func(t *testing.T) {
		out, err := factory.Query(m).Order(spot.Asc("id")).Call(ctx, "identities")
		require.NoError(t, err)
		assert.Len(t, out, 3)
	})
}

func TestMySQLIntegration_Fulltext(t *testing.T) {
	ctx := context.Background()
	c, err := NewMySQLContainer(ctx)
	require.NoError(t, err)
	defer func() { _ = c.Close(ctx) }()

	seed(ctx, t, c, `
		CREATE TABLE posts (
			id INT AUTO_INCREMENT PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			status VARCHAR(32) NOT NULL,
			author_id INT NOT NULL,
			views INT NOT NULL DEFAULT 0,
			FULLTEXT KEY title_ft (title)
		) ENGINE=MyISAM`)

	m, err := spot.NewMapper(postEntity("MyISAM"), c.conn)
	require.NoError(t, err)
	factory := spot.NewFactory()

	t.Run("boolean mode", func(t *testing.T) {
		rows, err := factory.Query(m).
			Search([]string{"title"}, "+generics -rust", spot.SearchOptions{Boolean: true}).
			ToArray(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Go generics in practice", rows[0]["title"])
	})

	t.Run("driver error is normalized", func(t *testing.T) {
		_, err := factory.Query(m).WhereSQL("no_such_column = 1").ToArray(ctx)
		var driverErr *spot.DriverError
		require.ErrorAs(t, err, &driverErr)
		assert.Equal(t, uint16(1054), driverErr.Code)
	})
}

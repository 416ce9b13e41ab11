// Package testutil starts database containers for integration tests
package testutil

import (
	"context"
	"database/sql"
	"io"
	"log"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var suppressedLogger = log.New(io.Discard, "", 0)

// image returns the image to use, overridable through env
func image(env, def string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}

// ContainerInfo holds container connection details
type ContainerInfo struct {
	Container testcontainers.Container
	DSN       string
	Conn      *sql.DB
}

// SetupPostgresContainer starts PostgreSQL and connects to it with pgx.
// METAEXTRACTOR_POSTGRES_IMAGE overrides the image.
func SetupPostgresContainer(ctx context.Context, t *testing.T) *ContainerInfo {
	t.Helper()

	container, err := postgres.Run(ctx,
		image("METAEXTRACTOR_POSTGRES_IMAGE", "postgres:17-alpine"),
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
		testcontainers.WithLogger(suppressedLogger),
	)
	if err != nil {
		t.Fatalf("Failed to start container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	return &ContainerInfo{Container: container, DSN: dsn, Conn: conn}
}

// SetupMySQLContainer starts MySQL and connects to it with go-sql-driver.
// METAEXTRACTOR_MYSQL_IMAGE overrides the image.
func SetupMySQLContainer(ctx context.Context, t *testing.T) *ContainerInfo {
	t.Helper()

	container, err := tcmysql.Run(ctx,
		image("METAEXTRACTOR_MYSQL_IMAGE", "mysql:8.0"),
		tcmysql.WithDatabase("testdb"),
		tcmysql.WithUsername("testuser"),
		tcmysql.WithPassword("testpass"),
		testcontainers.WithLogger(suppressedLogger),
	)
	if err != nil {
		t.Fatalf("Failed to start container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	return &ContainerInfo{Container: container, DSN: dsn, Conn: conn}
}

// Exec runs fixture statements one at a time
func (ci *ContainerInfo) Exec(ctx context.Context, t *testing.T, stmts ...string) {
	t.Helper()
	for _, stmt := range stmts {
		if _, err := ci.Conn.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("Failed to run fixture %q: %v", stmt, err)
		}
	}
}

// Terminate cleans up the container and connection
func (ci *ContainerInfo) Terminate(ctx context.Context, t *testing.T) {
	ci.Conn.Close()
	if err := ci.Container.Terminate(ctx); err != nil {
		t.Logf("Failed to terminate container: %v", err)
	}
}

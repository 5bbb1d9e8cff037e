//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/leaflove/care-service/internal/store"
	"github.com/leaflove/care-service/internal/store/storetest"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "care",
			"POSTGRES_PASSWORD": "care",
			"POSTGRES_DB":       "care",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}
	return fmt.Sprintf("postgres://care:care@%s:%s/care?sslmode=disable", host, port.Port())
}

func TestPostgresStore_Container(t *testing.T) {
	dsn := startPostgres(t)
	if err := Bootstrap(context.Background(), dsn); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	storetest.Run(t, func(t *testing.T) store.Store {
		db, err := Open(dsn)
		if err != nil {
			t.Fatalf("postgres open: %v", err)
		}
		t.Cleanup(func() { _ = db.Close() })
		return NewWithDB(db)
	})
}

package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/replyscout/replyscout/internal/model"
	"github.com/replyscout/replyscout/internal/store/storetest"
)

// openTestDSN prefers an externally provided database; otherwise it starts
// a throwaway postgres container.
func openTestDSN(t *testing.T) string {
	t.Helper()
	if dsn := os.Getenv("REPLYSCOUT_POSTGRES_DSN"); dsn != "" {
		return dsn
	}
	if testing.Short() {
		t.Skip("short mode and REPLYSCOUT_POSTGRES_DSN not set; skipping postgres store integration test")
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "replyscout",
			"POSTGRES_PASSWORD": "replyscout",
			"POSTGRES_DB":       "replyscout_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("docker unavailable, skipping postgres store integration test: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	return fmt.Sprintf("postgres://replyscout:replyscout@%s:%s/replyscout_test?sslmode=disable", host, port.Port())
}

func makeHarness(t *testing.T) storetest.Harness {
	t.Helper()
	dsn := openTestDSN(t)

	conn, err := Open(dsn)
	if err != nil {
		t.Fatalf("postgres open: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if err := EnsureSchema(context.Background(), conn); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return storetest.Harness{
		Store: NewWithDB(conn),
		SeedAccount: func(ctx context.Context, a *model.Account) error {
			schedules, err := json.Marshal(a.Schedules)
			if err != nil {
				return err
			}
			_, err = conn.ExecContext(ctx, `
                INSERT INTO accounts (account_id, platform, handle, status, discovery_schedules, creation_time)
                VALUES ($1,$2,$3,$4,$5,$6)
            `, a.AccountID, a.Platform, a.Handle, a.Status, schedules, a.CreationTime)
			return err
		},
	}
}

func TestPostgresStore_Compliance(t *testing.T) {
	storetest.Run(t, makeHarness)
}

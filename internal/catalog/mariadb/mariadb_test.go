//go:build integration

package mariadb

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kozaktomas/finder/internal/catalog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mariadb:11",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MARIADB_USER":          "test",
			"MARIADB_PASSWORD":      "test",
			"MARIADB_DATABASE":      "testdb",
			"MARIADB_ROOT_PASSWORD": "root",
		},
		WaitingFor: wait.ForListeningPort("3306/tcp").WithStartupTimeout(90 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "3306")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dsn := fmt.Sprintf("test:test@tcp(%s:%s)/testdb", host, port.Port())

	// The port opens before the server accepts logins, retry for a while.
	var pool *Pool
	for range 30 {
		pool, err = NewPool(dsn)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to migrate: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}
	return pool, cleanup
}

func TestItemRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewItemRepository(pool)

	rec := catalog.Record{
		ID:               "umbrella",
		Descriptors:      []float64{0, 128, 255, 1},
		DescriptorLength: 2,
		Metadata: catalog.Metadata{
			Description: "blue umbrella",
			Date:        "2024-05-10",
			Category:    "umbrella",
			LocatedAt:   time.Date(2024, 5, 10, 8, 30, 0, 0, time.UTC),
		},
	}

	t.Run("SaveAndFetchOne", func(t *testing.T) {
		if _, err := repo.Save(ctx, rec); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}
		got, err := repo.FetchOne(ctx, "umbrella")
		if err != nil {
			t.Fatalf("Failed to fetch: %v", err)
		}
		if len(got.Descriptors) != 4 || got.Descriptors[2] != 255 {
			t.Errorf("Descriptors not preserved: %v", got.Descriptors)
		}
		if got.DescriptorLength != 2 {
			t.Errorf("Expected descriptor length 2, got %d", got.DescriptorLength)
		}
		if !got.Metadata.LocatedAt.Equal(rec.Metadata.LocatedAt) {
			t.Errorf("LocatedAt not preserved: %v", got.Metadata.LocatedAt)
		}
	})

	t.Run("Duplicate", func(t *testing.T) {
		if _, err := repo.Save(ctx, rec); !errors.Is(err, catalog.ErrAlreadyExists) {
			t.Errorf("Expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("CorruptDescriptorsStillYielded", func(t *testing.T) {
		_, err := pool.db.ExecContext(ctx, `
			INSERT INTO items (`+itemColumns+`)
			VALUES ('broken', 'x', '2024-01-01', 'misc', '', '', 0, 0, NULL, 'not json', 32, NOW())`)
		if err != nil {
			t.Fatalf("Failed to insert corrupt row: %v", err)
		}

		var seen, corrupt int
		for got, err := range repo.FetchAll(ctx) {
			if err != nil {
				t.Fatalf("FetchAll failed: %v", err)
			}
			seen++
			if got.DecodeErr != nil {
				corrupt++
			}
		}
		if seen != 2 || corrupt != 1 {
			t.Errorf("Expected 2 records with 1 corrupt, got %d and %d", seen, corrupt)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := repo.Delete(ctx, "umbrella"); err != nil {
			t.Fatalf("Failed to delete: %v", err)
		}
		if err := repo.Delete(ctx, "umbrella"); !errors.Is(err, catalog.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
		count, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("Failed to count: %v", err)
		}
		if count != 1 {
			t.Errorf("Expected 1 item left, got %d", count)
		}
	})
}

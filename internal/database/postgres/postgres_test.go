//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kozaktomas/face-recall/internal/config"
	"github.com/kozaktomas/face-recall/internal/database"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
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
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cfg := &config.DatabaseConfig{
		URL:          fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()),
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := Open(ctx, cfg, nil)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to open pool: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}

	return pool, cleanup
}

func TestPeopleRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewPeopleRepository(pool)

	age := 34
	alice, err := repo.CreatePerson(ctx, database.NewPerson{
		PairID: "p1", Name: "Alice", Relationship: "sister", Age: &age, ImageURL: "https://img/alice.jpg",
	})
	if err != nil {
		t.Fatalf("Failed to create person: %v", err)
	}
	bob, err := repo.CreatePerson(ctx, database.NewPerson{PairID: "p1", Name: "Bob", ImageURL: "https://img/bob.jpg"})
	if err != nil {
		t.Fatalf("Failed to create person: %v", err)
	}
	if _, err := repo.CreatePerson(ctx, database.NewPerson{PairID: "p2", Name: "Carol"}); err != nil {
		t.Fatalf("Failed to create person: %v", err)
	}

	if _, err := repo.AddEmbedding(ctx, alice.ID, []float32{1, 0, 0}); err != nil {
		t.Fatalf("Failed to add embedding: %v", err)
	}
	if _, err := repo.AddEmbedding(ctx, bob.ID, []float32{0, 1, 0}); err != nil {
		t.Fatalf("Failed to add embedding: %v", err)
	}

	t.Run("ListScopedByPair", func(t *testing.T) {
		people, err := repo.ListPeople(ctx, "p1")
		if err != nil {
			t.Fatalf("Failed to list people: %v", err)
		}
		if len(people) != 2 {
			t.Fatalf("Expected 2 people, got %d", len(people))
		}
		if people[0].Name != "Alice" || len(people[0].FaceEmbeddings) != 1 {
			t.Errorf("Unexpected first person: %+v", people[0])
		}
		if got := people[0].FaceEmbeddings[0].Embedding; len(got) != 3 || got[0] != 1 {
			t.Errorf("Unexpected embedding: %v", got)
		}
	})

	t.Run("GetPairID", func(t *testing.T) {
		pairID, err := repo.GetPairID(ctx, bob.ID)
		if err != nil {
			t.Fatalf("Failed to get pair: %v", err)
		}
		if pairID != "p1" {
			t.Errorf("Expected pair 'p1', got '%s'", pairID)
		}
	})

	t.Run("UpdateOnlySetFields", func(t *testing.T) {
		notes := "met at school"
		if err := repo.UpdatePerson(ctx, alice.ID, database.PersonUpdate{Notes: &notes, ClearAge: true}); err != nil {
			t.Fatalf("Failed to update: %v", err)
		}
		people, _ := repo.ListPeople(ctx, "p1")
		if people[0].Notes != notes || people[0].Age != nil || people[0].Name != "Alice" {
			t.Errorf("Unexpected person after update: %+v", people[0].Person)
		}
	})

	t.Run("DeleteRemovesEmbeddingsAndPerson", func(t *testing.T) {
		if _, err := repo.DeleteEmbeddings(ctx, bob.ID); err != nil {
			t.Fatalf("Failed to delete embeddings: %v", err)
		}
		n, err := repo.DeletePerson(ctx, bob.ID)
		if err != nil || n != 1 {
			t.Fatalf("Failed to delete person: n=%d err=%v", n, err)
		}

		people, _ := repo.ListPeople(ctx, "p1")
		for _, p := range people {
			if p.ID == bob.ID {
				t.Error("Deleted person still listed")
			}
		}

		var orphans int
		if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM face_embeddings WHERE person_id = $1", bob.ID).Scan(&orphans); err != nil {
			t.Fatalf("Failed to count embeddings: %v", err)
		}
		if orphans != 0 {
			t.Errorf("Expected no embeddings left, got %d", orphans)
		}
	})

	t.Run("MigrationsRecorded", func(t *testing.T) {
		versions, err := pool.MigrationsApplied(ctx)
		if err != nil {
			t.Fatalf("Failed to list migrations: %v", err)
		}
		if len(versions) == 0 || versions[0] != "001_people.sql" {
			t.Errorf("Unexpected migrations: %v", versions)
		}
	})
}

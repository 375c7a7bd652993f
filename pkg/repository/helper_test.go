package repository_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/repository/firestore"
	"github.com/secmon-lab/echonotes/pkg/repository/memory"
	"github.com/secmon-lab/echonotes/pkg/repository/sqldb"
)

type repoFactory struct {
	name    string
	newRepo func(t *testing.T) interfaces.Repository
}

func repoFactories() []repoFactory {
	return []repoFactory{
		{name: "Memory", newRepo: newMemoryRepository},
		{name: "SQLite", newRepo: newSQLiteRepository},
		{name: "Postgres", newRepo: newPostgresRepository},
		{name: "Firestore", newRepo: newFirestoreRepository},
	}
}

func newMemoryRepository(t *testing.T) interfaces.Repository {
	t.Helper()
	return memory.New()
}

func newSQLiteRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	ctx := context.Background()
	repo, err := sqldb.NewSQLite(ctx, filepath.Join(t.TempDir(), "data", "echo_notes.db"))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})

	_, err = repo.Migrate(ctx)
	gt.NoError(t, err).Required()
	return repo
}

func newPostgresRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	repo, err := sqldb.NewPostgres(ctx, dsn)
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})

	_, err = repo.Migrate(ctx)
	gt.NoError(t, err).Required()
	return repo
}

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	// Composite indexes for the prefix are created by `echonotes migrate`
	prefix := os.Getenv("TEST_FIRESTORE_COLLECTION_PREFIX")
	if prefix == "" {
		prefix = "test"
	}

	repo, err := firestore.New(context.Background(), projectID, databaseID, firestore.WithCollectionPrefix(prefix))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

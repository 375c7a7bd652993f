package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/repository/firestore"
	"github.com/secmon-lab/echonotes/pkg/repository/memory"
	"github.com/secmon-lab/echonotes/pkg/repository/sqldb"
	"github.com/secmon-lab/echonotes/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Repository holds CLI flags for repository backend configuration
type Repository struct {
	backend          string
	dbPath           string
	postgresDSN      string
	projectID        string
	databaseID       string
	collectionPrefix string
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Repository backend type (sqlite, postgres, firestore or memory)",
			Value:       "sqlite",
			Category:    "Repository",
			Sources:     cli.EnvVars("ECHO_NOTES_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "db-path",
			Usage:       "SQLite database file",
			Value:       "data/echo_notes.db",
			Category:    "Repository",
			Sources:     cli.EnvVars("ECHO_NOTES_DB_PATH"),
			Destination: &r.dbPath,
		},
		&cli.StringFlag{
			Name:        "postgres-dsn",
			Usage:       "PostgreSQL DSN (required when using postgres backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("ECHO_NOTES_POSTGRES_DSN"),
			Destination: &r.postgresDSN,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("ECHO_NOTES_FIRESTORE_PROJECT_ID"),
			Destination: &r.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Category:    "Repository",
			Sources:     cli.EnvVars("ECHO_NOTES_FIRESTORE_DATABASE_ID"),
			Destination: &r.databaseID,
		},
		&cli.StringFlag{
			Name:        "firestore-collection-prefix",
			Usage:       "Prefix for Firestore collection names",
			Category:    "Repository",
			Sources:     cli.EnvVars("ECHO_NOTES_FIRESTORE_COLLECTION_PREFIX"),
			Destination: &r.collectionPrefix,
		},
	}
}

// Backend returns the configured backend type
func (r *Repository) Backend() string {
	return r.backend
}

// ProjectID returns the Firestore project ID
func (r *Repository) ProjectID() string {
	return r.projectID
}

// DatabaseID returns the Firestore database ID
func (r *Repository) DatabaseID() string {
	return r.databaseID
}

// CollectionPrefix returns the Firestore collection prefix
func (r *Repository) CollectionPrefix() string {
	return r.collectionPrefix
}

// OpenSQL opens the relational backend without migrating it
func (r *Repository) OpenSQL(ctx context.Context) (*sqldb.DB, error) {
	switch r.backend {
	case "sqlite":
		db, err := sqldb.NewSQLite(ctx, r.dbPath)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize sqlite repository")
		}
		logging.Default().Info("Using SQLite repository", "path", r.dbPath)
		return db, nil

	case "postgres":
		if r.postgresDSN == "" {
			return nil, goerr.New("postgres-dsn is required when using postgres backend")
		}
		db, err := sqldb.NewPostgres(ctx, r.postgresDSN)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize postgres repository")
		}
		logging.Default().Info("Using PostgreSQL repository")
		return db, nil

	default:
		return nil, goerr.Wrap(ErrInvalidBackend, "backend is not relational", goerr.V(BackendKey, r.backend))
	}
}

// Configure initializes and returns a repository based on the configured backend.
// Relational schemas are brought up to date before returning.
// The caller is responsible for calling Close() on the returned repository.
func (r *Repository) Configure(ctx context.Context) (interfaces.Repository, error) {
	switch r.backend {
	case "sqlite", "postgres":
		db, err := r.OpenSQL(ctx)
		if err != nil {
			return nil, err
		}
		steps, err := db.Migrate(ctx)
		if err != nil {
			_ = db.Close()
			return nil, goerr.Wrap(err, "failed to migrate database schema")
		}
		if len(steps) > 0 {
			logging.Default().Debug("Database schema updated", "steps", len(steps))
		}
		return db, nil

	case "firestore":
		if r.projectID == "" {
			return nil, goerr.New("firestore-project-id is required when using firestore backend")
		}
		repo, err := firestore.New(ctx, r.projectID, r.databaseID, firestore.WithCollectionPrefix(r.collectionPrefix))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore repository")
		}
		logging.Default().Info("Using Firestore repository",
			"project_id", r.projectID,
			"database_id", r.databaseID,
		)
		return repo, nil

	case "memory":
		logging.Default().Info("Using in-memory repository (development mode)")
		return memory.New(), nil

	default:
		return nil, goerr.Wrap(ErrInvalidBackend, "invalid repository backend", goerr.V(BackendKey, r.backend))
	}
}

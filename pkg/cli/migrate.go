package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/echonotes/pkg/cli/config"
	"github.com/secmon-lab/echonotes/pkg/repository/firestore"
	"github.com/secmon-lab/echonotes/pkg/repository/sqldb"
	"github.com/secmon-lab/echonotes/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var dryRun bool
	var fileCfg config.File
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Preview changes without applying",
			Destination: &dryRun,
		},
	}
	flags = append(flags, fileCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Migrate the SQL schema or Firestore indexes of the configured backend",
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, fileCfg.Apply(c)
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logging.Default().Info("Migrate configuration",
				"backend", repoCfg.Backend(),
				"dryRun", dryRun)

			switch repoCfg.Backend() {
			case "firestore":
				return migrateFirestore(ctx, &repoCfg, dryRun)
			case "memory":
				logging.Default().Info("In-memory repository needs no migration")
				return nil
			default:
				return migrateSQL(ctx, &repoCfg, dryRun)
			}
		},
	}
}

func migrateSQL(ctx context.Context, repoCfg *config.Repository, dryRun bool) error {
	logger := logging.Default()

	db, err := repoCfg.OpenSQL(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", "error", err.Error())
		}
	}()

	var steps []sqldb.MigrationStep
	if dryRun {
		logger.Info("Dry run mode - previewing changes")
		steps, err = db.Plan(ctx)
		if err != nil {
			return goerr.Wrap(err, "failed to create migration plan")
		}
	} else {
		steps, err = db.Migrate(ctx)
		if err != nil {
			return goerr.Wrap(err, "failed to apply migrations")
		}
	}

	for _, step := range steps {
		logger.Info("Migration step",
			"table", step.Table,
			"description", step.Description,
			"statement", step.Statement)
	}
	logger.Info("Schema migration finished", "steps", len(steps), "applied", !dryRun)
	return nil
}

func migrateFirestore(ctx context.Context, repoCfg *config.Repository, dryRun bool) error {
	logger := logging.Default()

	if repoCfg.ProjectID() == "" {
		return goerr.New("firestore-project-id is required when using firestore backend")
	}

	indexConfig := firestore.IndexConfig(repoCfg.CollectionPrefix())

	client, err := fireconf.New(ctx, repoCfg.ProjectID(), repoCfg.DatabaseID(), indexConfig,
		fireconf.WithLogger(logger),
		fireconf.WithDryRun(dryRun),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to create fireconf client")
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close fireconf client", "error", err.Error())
		}
	}()

	if dryRun {
		logger.Info("Dry run mode - previewing changes")
		names := make([]string, 0, len(indexConfig.Collections))
		for _, col := range indexConfig.Collections {
			names = append(names, col.Name)
		}

		current, err := client.Import(ctx, names...)
		if err != nil {
			return goerr.Wrap(err, "failed to read current indexes")
		}
		diff, err := client.DiffConfigs(current)
		if err != nil {
			return goerr.Wrap(err, "failed to create migration plan")
		}

		for _, col := range diff.Collections {
			logger.Info("Migration step",
				"collection", col.Name,
				"action", col.Action,
				"indexesToAdd", len(col.IndexesToAdd),
				"indexesToDelete", len(col.IndexesToDelete))
		}
		if len(diff.Collections) == 0 {
			logger.Info("No changes required")
		}
		return nil
	}

	logger.Info("Applying migrations")
	if err := client.Migrate(ctx); err != nil {
		return goerr.Wrap(err, "failed to apply migrations")
	}
	logger.Info("Migrations applied successfully")
	return nil
}

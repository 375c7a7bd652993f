package cli_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/echonotes/pkg/cli"
	"github.com/secmon-lab/echonotes/pkg/utils/logging"
)

func TestMigrate(t *testing.T) {
	prev := logging.Default()
	t.Cleanup(func() { logging.SetDefault(prev) })

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "echo_notes.db")
	logPath := filepath.Join(dir, "echonotes.log")

	t.Run("dry run does not create tables", func(t *testing.T) {
		err := cli.Run(context.Background(), []string{
			"echonotes", "--log-format", "json", "--log-output", logPath,
			"migrate", "--repository-backend", "sqlite", "--db-path", dbPath, "--dry-run",
		}, "test")
		gt.NoError(t, err).Required()

		data, err := os.ReadFile(logPath)
		gt.NoError(t, err).Required()
		gt.String(t, string(data)).Contains("create table")
	})

	t.Run("apply", func(t *testing.T) {
		err := cli.Run(context.Background(), []string{
			"echonotes", "--log-format", "json", "--log-output", logPath,
			"migrate", "--repository-backend", "sqlite", "--db-path", dbPath,
		}, "test")
		gt.NoError(t, err).Required()
	})

	t.Run("config file supplies backend", func(t *testing.T) {
		cfgPath := filepath.Join(dir, "echonotes.toml")
		gt.NoError(t, os.WriteFile(cfgPath, []byte(`repository-backend = "memory"`), 0o600)).Required()

		err := cli.Run(context.Background(), []string{
			"echonotes", "--log-format", "json", "--log-output", logPath,
			"migrate", "--config", cfgPath,
		}, "test")
		gt.NoError(t, err).Required()
	})

	t.Run("invalid backend", func(t *testing.T) {
		err := cli.Run(context.Background(), []string{
			"echonotes", "--log-format", "json", "--log-output", logPath,
			"migrate", "--repository-backend", "mongodb",
		}, "test")
		gt.Error(t, err)
	})
}

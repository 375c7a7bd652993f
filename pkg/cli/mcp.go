package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/echonotes/pkg/cli/config"
	mcpctrl "github.com/secmon-lab/echonotes/pkg/controller/mcp"
	"github.com/secmon-lab/echonotes/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdMCP(version string) *cli.Command {
	var fileCfg config.File
	var appCfg config.App
	var repoCfg config.Repository
	var sentryCfg config.Sentry

	var flags []cli.Flag
	flags = append(flags, fileCfg.Flags()...)
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve echo, create_note and get_note as MCP tools over stdio",
		Flags: flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, fileCfg.Apply(c)
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return err
			}
			defer flush()

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			uc, closeStore, err := appCfg.Configure(ctx, repo)
			if err != nil {
				return err
			}
			defer closeStore()

			logging.Default().Info("Starting MCP server on stdio", "repository", repoCfg.Backend())
			return mcpctrl.New(uc, version).ServeStdio()
		},
	}
}

// Package cli is the carematchctl command tree: operator tasks that run
// against the same configuration as the server.
package cli

import (
	"context"
	"database/sql"
	"io"

	"github.com/spf13/cobra"

	"carematch/internal/platform/config"
	"carematch/internal/platform/postgres"
)

// ConfigLoader resolves configuration when a command runs, not when the tree is built.
type ConfigLoader func() config.Config

func NewRootCmd(load ConfigLoader) *cobra.Command {
	root := &cobra.Command{
		Use:   "carematchctl",
		Short: "Operator tooling for the carematch verification service",
		Long: `carematchctl runs one-off operator tasks: applying the schema, loading the
locality gazetteer, bootstrapping accounts and minting development tokens.
Configuration is read from the environment and an optional .env file.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.AddCommand(
		newMigrateCmd(load),
		newGazetteerCmd(load),
		newUsersCmd(load),
		newTokenCmd(load),
	)
	return root
}

// Execute runs the tree against the process environment.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := NewRootCmd(config.FromEnv)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func openDB(ctx context.Context, load ConfigLoader, migrate bool) (*sql.DB, error) {
	return postgres.Open(ctx, load().Postgres, migrate)
}

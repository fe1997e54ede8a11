package commands

import (
	"context"

	"github.com/spf13/cobra"

	"blogicum/cmd/blogctl/output"
	"blogicum/internal/db"
	"blogicum/internal/store"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema if it does not exist",
		Long: `Create every table the web application needs. Running it against an
up-to-date database changes nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd, func(ctx context.Context, s *store.Store) error {
				if err := db.Migrate(ctx, s.DB(), s.Dialect()); err != nil {
					return err
				}
				output.Success(cmd.OutOrStdout(), "schema is up to date (%s)", s.Dialect())
				return nil
			})
		},
	}
}

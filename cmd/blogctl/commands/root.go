// Package commands implements the blogctl command tree.
package commands

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"blogicum/cmd/blogctl/output"
	"blogicum/internal/config"
	"blogicum/internal/db"
	"blogicum/internal/store"
)

// app carries the persistent flags down to the subcommands.
type app struct {
	driver string
	dsn    string
}

// settings resolves the database from flags first, then the environment.
func (a *app) settings() (db.Dialect, string, error) {
	return config.DatabaseFromEnv(func(key string) string {
		switch {
		case key == "DB_DRIVER" && a.driver != "":
			return a.driver
		case key == "DATABASE_URL" && a.dsn != "":
			return a.dsn
		}
		return os.Getenv(key)
	})
}

// open connects to the database. The caller closes the returned store's DB.
func (a *app) open() (*store.Store, error) {
	d, dsn, err := a.settings()
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(d, dsn)
	if err != nil {
		return nil, err
	}
	return store.New(conn, d), nil
}

// withStore runs fn against an open store and closes it afterwards.
func (a *app) withStore(cmd *cobra.Command, fn func(ctx context.Context, s *store.Store) error) error {
	s, err := a.open()
	if err != nil {
		return err
	}
	defer s.DB().Close()
	return fn(cmd.Context(), s)
}

// NewRootCmd builds the blogctl command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "blogctl",
		Short: "Administer a Blogicum database",
		Long: `blogctl manages the records the web application leaves to administrators:
categories, locations, users and the publication flag of posts.

The database defaults to $DB_DRIVER and $DATABASE_URL (or .env), falling
back to the SQLite file ./data/blogicum.db.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.driver, "driver", "", "database driver: sqlite or postgres (default $DB_DRIVER)")
	root.PersistentFlags().StringVar(&a.dsn, "dsn", "", "database DSN or SQLite path (default $DATABASE_URL)")

	root.AddCommand(
		newMigrateCmd(a),
		newCategoryCmd(a),
		newLocationCmd(a),
		newUserCmd(a),
		newPostCmd(a),
		newModerateCmd(a),
	)
	return root
}

// Execute runs blogctl and exits non-zero on failure.
func Execute() {
	config.LoadEnvFile()
	if err := NewRootCmd().Execute(); err != nil {
		output.Error(os.Stderr, "%v", err)
		os.Exit(1)
	}
}

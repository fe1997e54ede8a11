package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"blogicum/cmd/blogctl/output"
	"blogicum/internal/models"
	"blogicum/internal/store"
)

func newLocationCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "location",
		Aliases: []string{"locations"},
		Short:   "Manage locations",
	}

	var hidden bool
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(ctx context.Context, s *store.Store) error {
				l := &models.Location{Name: args[0], IsPublished: !hidden}
				if err := s.CreateLocation(ctx, l); err != nil {
					return err
				}
				output.Success(cmd.OutOrStdout(), "created location %q (id %d, %s)", l.Name, l.ID, publishedWord(l.IsPublished))
				return nil
			})
		},
	}
	add.Flags().BoolVar(&hidden, "hidden", false, "create the location unpublished")

	list := &cobra.Command{
		Use:   "list",
		Short: "List every location with its status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd, func(ctx context.Context, s *store.Store) error {
				locs, err := s.ListLocations(ctx, false)
				if err != nil {
					return err
				}
				if len(locs) == 0 {
					output.Muted(cmd.OutOrStdout(), "no locations")
					return nil
				}
				rows := make([][]string, len(locs))
				for i, l := range locs {
					rows[i] = []string{fmt.Sprint(l.ID), l.Name, output.Published(l.IsPublished)}
				}
				output.Table(cmd.OutOrStdout(), []string{"ID", "NAME", "STATUS"}, rows)
				return nil
			})
		},
	}

	setPublished := func(published bool) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(ctx context.Context, s *store.Store) error {
				l, err := locationArg(ctx, s, args[0])
				if err != nil {
					return err
				}
				if err := s.SetLocationPublished(ctx, l.ID, published); err != nil {
					return err
				}
				output.Success(cmd.OutOrStdout(), "location %q is now %s", l.Name, publishedWord(published))
				return nil
			})
		}
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a location; its posts lose their location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(ctx context.Context, s *store.Store) error {
				l, err := locationArg(ctx, s, args[0])
				if err != nil {
					return err
				}
				if err := s.DeleteLocation(ctx, l.ID); err != nil {
					return err
				}
				output.Success(cmd.OutOrStdout(), "deleted location %q", l.Name)
				return nil
			})
		},
	}

	cmd.AddCommand(add, list,
		&cobra.Command{Use: "publish <id>", Short: "Publish a location", Args: cobra.ExactArgs(1), RunE: setPublished(true)},
		&cobra.Command{Use: "unpublish <id>", Short: "Hide a location from post pages", Args: cobra.ExactArgs(1), RunE: setPublished(false)},
		del,
	)
	return cmd
}

func locationArg(ctx context.Context, s *store.Store, arg string) (*models.Location, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("location id %q is not a positive number", arg)
	}
	l, err := s.LocationByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("location %d: %w", id, err)
	}
	return l, nil
}

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"blogicum/cmd/blogctl/output"
	"blogicum/internal/models"
	"blogicum/internal/store"
)

func newCategoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"categories"},
		Short:   "Manage categories",
	}

	var (
		title, slug, description string
		hidden                   bool
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd, func(ctx context.Context, s *store.Store) error {
				c := &models.Category{Title: title, Slug: slug, Description: description, IsPublished: !hidden}
				if err := s.CreateCategory(ctx, c); err != nil {
					return err
				}
				output.Success(cmd.OutOrStdout(), "created category %q (id %d, %s)", c.Slug, c.ID, publishedWord(c.IsPublished))
				return nil
			})
		},
	}
	add.Flags().StringVar(&title, "title", "", "category title")
	add.Flags().StringVar(&slug, "slug", "", "URL identifier: latin letters, digits, hyphen and underscore")
	add.Flags().StringVar(&description, "description", "", "category description")
	add.Flags().BoolVar(&hidden, "hidden", false, "create the category unpublished")
	_ = add.MarkFlagRequired("title")
	_ = add.MarkFlagRequired("slug")
	_ = add.MarkFlagRequired("description")

	list := &cobra.Command{
		Use:   "list",
		Short: "List every category with its status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd, func(ctx context.Context, s *store.Store) error {
				cats, err := s.ListCategories(ctx, false)
				if err != nil {
					return err
				}
				if len(cats) == 0 {
					output.Muted(cmd.OutOrStdout(), "no categories")
					return nil
				}
				rows := make([][]string, len(cats))
				for i, c := range cats {
					rows[i] = []string{fmt.Sprint(c.ID), c.Slug, c.Title, output.Published(c.IsPublished)}
				}
				output.Table(cmd.OutOrStdout(), []string{"ID", "SLUG", "TITLE", "STATUS"}, rows)
				return nil
			})
		},
	}

	setPublished := func(published bool) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(ctx context.Context, s *store.Store) error {
				c, err := categoryArg(ctx, s, args[0])
				if err != nil {
					return err
				}
				if err := s.SetCategoryPublished(ctx, c.ID, published); err != nil {
					return err
				}
				output.Success(cmd.OutOrStdout(), "category %q is now %s", c.Slug, publishedWord(published))
				return nil
			})
		}
	}

	var newTitle, newSlug, newDescription string
	edit := &cobra.Command{
		Use:   "edit <slug>",
		Short: "Change a category's title, description or slug",
		Long: `Change the given fields of a category. The slug cannot change once a post
belongs to the category, since links to the category page would break.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("title") && !flags.Changed("slug") && !flags.Changed("description") {
				return fmt.Errorf("nothing to change: pass --title, --slug or --description")
			}
			return a.withStore(cmd, func(ctx context.Context, s *store.Store) error {
				c, err := categoryArg(ctx, s, args[0])
				if err != nil {
					return err
				}
				if flags.Changed("title") {
					c.Title = newTitle
				}
				if flags.Changed("slug") {
					c.Slug = newSlug
				}
				if flags.Changed("description") {
					c.Description = newDescription
				}
				if err := s.UpdateCategory(ctx, *c); err != nil {
					return fmt.Errorf("category %q: %w", args[0], err)
				}
				output.Success(cmd.OutOrStdout(), "updated category %q", c.Slug)
				return nil
			})
		},
	}
	edit.Flags().StringVar(&newTitle, "title", "", "new title")
	edit.Flags().StringVar(&newSlug, "slug", "", "new URL identifier")
	edit.Flags().StringVar(&newDescription, "description", "", "new description")

	del := &cobra.Command{
		Use:   "delete <slug>",
		Short: "Delete a category; its posts lose their category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(ctx context.Context, s *store.Store) error {
				c, err := categoryArg(ctx, s, args[0])
				if err != nil {
					return err
				}
				if err := s.DeleteCategory(ctx, c.ID); err != nil {
					return err
				}
				output.Success(cmd.OutOrStdout(), "deleted category %q", c.Slug)
				return nil
			})
		},
	}

	cmd.AddCommand(add, list, edit,
		&cobra.Command{Use: "publish <slug>", Short: "Publish a category", Args: cobra.ExactArgs(1), RunE: setPublished(true)},
		&cobra.Command{Use: "unpublish <slug>", Short: "Hide a category and all of its posts", Args: cobra.ExactArgs(1), RunE: setPublished(false)},
		del,
	)
	return cmd
}

func categoryArg(ctx context.Context, s *store.Store, slug string) (*models.Category, error) {
	c, err := s.CategoryBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("category %q: %w", slug, err)
	}
	return c, nil
}

func publishedWord(published bool) string {
	if published {
		return "published"
	}
	return "hidden"
}

package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"blogicum/cmd/blogctl/output"
	"blogicum/internal/access"
	"blogicum/internal/models"
	"blogicum/internal/store"
)

// allPosts walks every page of a listing.
func allPosts(ctx context.Context, s *store.Store, q store.PostQuery) ([]models.Post, error) {
	var posts []models.Post
	q.Page = 1
	for {
		page, err := s.ListPosts(ctx, q)
		if err != nil {
			return nil, err
		}
		posts = append(posts, page.Posts...)
		if !page.HasNext() {
			return posts, nil
		}
		q.Page++
	}
}

func newPostCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "post",
		Aliases: []string{"posts"},
		Short:   "Inspect posts and moderate their publication flag",
	}

	var (
		author, category, search string
		location                 int64
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List all posts, including hidden and scheduled ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd, func(ctx context.Context, s *store.Store) error {
				now := time.Now()
				posts, err := allPosts(ctx, s, store.PostQuery{
					Scope:          store.ScopeAll,
					AuthorUsername: author,
					CategorySlug:   category,
					LocationID:     location,
					Search:         search,
					Now:            now,
					PageSize:       100,
				})
				if err != nil {
					return err
				}
				if len(posts) == 0 {
					output.Muted(cmd.OutOrStdout(), "no posts")
					return nil
				}
				rows := make([][]string, len(posts))
				for i, p := range posts {
					cat := "-"
					if p.Category != nil {
						cat = p.Category.Slug
					}
					rows[i] = []string{
						fmt.Sprint(p.ID),
						p.PubDate.Format("2006-01-02 15:04"),
						p.Author.Username,
						cat,
						access.Status(p, now),
						p.Title,
					}
				}
				output.Table(cmd.OutOrStdout(), []string{"ID", "PUB DATE", "AUTHOR", "CATEGORY", "STATUS", "TITLE"}, rows)
				return nil
			})
		},
	}
	list.Flags().StringVar(&author, "author", "", "only posts by this username")
	list.Flags().StringVar(&category, "category", "", "only posts in this category slug")
	list.Flags().Int64Var(&location, "location", 0, "only posts at this location id")
	list.Flags().StringVar(&search, "search", "", "only posts whose title contains this text")

	setPublished := func(published bool) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("post id %q is not a positive number", args[0])
			}
			return a.withStore(cmd, func(ctx context.Context, s *store.Store) error {
				if err := s.SetPostPublished(ctx, id, published); err != nil {
					return fmt.Errorf("post %d: %w", id, err)
				}
				output.Success(cmd.OutOrStdout(), "post %d is now %s", id, publishedWord(published))
				return nil
			})
		}
	}

	cmd.AddCommand(list,
		&cobra.Command{Use: "publish <id>", Short: "Publish a post", Args: cobra.ExactArgs(1), RunE: setPublished(true)},
		&cobra.Command{Use: "unpublish <id>", Short: "Hide a post from everyone but its author", Args: cobra.ExactArgs(1), RunE: setPublished(false)},
	)
	return cmd
}

package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"blogicum/cmd/blogctl/tui"
	"blogicum/internal/access"
	"blogicum/internal/models"
	"blogicum/internal/store"
)

func newModerateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "moderate [posts|categories|locations]",
		Short:     "Toggle publication flags interactively",
		Long:      `Open a list of records. Enter or space publishes or hides the selected one; q quits.`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"posts", "categories", "locations"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := "posts"
			if len(args) == 1 {
				kind = args[0]
			}
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.DB().Close()
			src, err := moderationSource(s, kind)
			if err != nil {
				return err
			}
			return tui.RunModerate(src)
		},
	}
}

func postRow(p models.Post, now time.Time) tui.Row {
	return tui.Row{
		ID:        p.ID,
		Label:     p.Title,
		Detail:    fmt.Sprintf("by %s, %s, %s", p.Author.Username, p.PubDate.Format("2006-01-02"), access.Status(p, now)),
		Published: p.IsPublished,
	}
}

// moderationSource binds the moderation screen to one table.
func moderationSource(s *store.Store, kind string) (tui.Source, error) {
	switch kind {
	case "posts":
		return tui.Source{
			Kind: kind,
			Load: func(ctx context.Context) ([]tui.Row, error) {
				now := time.Now()
				posts, err := allPosts(ctx, s, store.PostQuery{Scope: store.ScopeAll, Now: now, PageSize: 100})
				if err != nil {
					return nil, err
				}
				rows := make([]tui.Row, len(posts))
				for i, p := range posts {
					rows[i] = postRow(p, now)
				}
				return rows, nil
			},
			Reload: func(ctx context.Context, id int64) (tui.Row, error) {
				p, err := s.PostByID(ctx, id)
				if err != nil {
					return tui.Row{}, err
				}
				return postRow(*p, time.Now()), nil
			},
			Toggle: s.SetPostPublished,
		}, nil
	case "categories":
		return tui.Source{
			Kind: kind,
			Load: func(ctx context.Context) ([]tui.Row, error) {
				cats, err := s.ListCategories(ctx, false)
				if err != nil {
					return nil, err
				}
				rows := make([]tui.Row, len(cats))
				for i, c := range cats {
					rows[i] = tui.Row{ID: c.ID, Label: c.Title, Detail: "/category/" + c.Slug + "/", Published: c.IsPublished}
				}
				return rows, nil
			},
			Toggle: s.SetCategoryPublished,
		}, nil
	case "locations":
		return tui.Source{
			Kind: kind,
			Load: func(ctx context.Context) ([]tui.Row, error) {
				locs, err := s.ListLocations(ctx, false)
				if err != nil {
					return nil, err
				}
				rows := make([]tui.Row, len(locs))
				for i, l := range locs {
					rows[i] = tui.Row{ID: l.ID, Label: l.Name, Published: l.IsPublished}
				}
				return rows, nil
			},
			Toggle: s.SetLocationPublished,
		}, nil
	}
	return tui.Source{}, fmt.Errorf("cannot moderate %q: choose posts, categories or locations", kind)
}

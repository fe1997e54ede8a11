package commands

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"blogicum/cmd/blogctl/output"
	"blogicum/internal/auth"
	"blogicum/internal/models"
	"blogicum/internal/store"
)

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "user",
		Aliases: []string{"users"},
		Short:   "Manage user accounts",
	}

	var u models.User
	var password string
	add := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if utf8.RuneCountInString(password) < auth.MinPasswordLength {
				return fmt.Errorf("password must be at least %d characters", auth.MinPasswordLength)
			}
			return a.withStore(cmd, func(ctx context.Context, s *store.Store) error {
				hash, err := auth.HashPassword(password)
				if err != nil {
					return err
				}
				u.Username = args[0]
				u.PasswordHash = hash
				if err := s.CreateUser(ctx, &u); err != nil {
					return err
				}
				output.Success(cmd.OutOrStdout(), "created user %q (id %d)", u.Username, u.ID)
				return nil
			})
		},
	}
	add.Flags().StringVar(&password, "password", "", "initial password")
	add.Flags().StringVar(&u.Email, "email", "", "email address")
	add.Flags().StringVar(&u.FirstName, "first-name", "", "first name")
	add.Flags().StringVar(&u.LastName, "last-name", "", "last name")
	_ = add.MarkFlagRequired("password")

	list := &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd, func(ctx context.Context, s *store.Store) error {
				users, err := s.ListUsers(ctx)
				if err != nil {
					return err
				}
				if len(users) == 0 {
					output.Muted(cmd.OutOrStdout(), "no users")
					return nil
				}
				rows := make([][]string, len(users))
				for i, u := range users {
					rows[i] = []string{fmt.Sprint(u.ID), u.Username, u.FullName(), u.Email, u.CreatedAt.Format("2006-01-02")}
				}
				output.Table(cmd.OutOrStdout(), []string{"ID", "USERNAME", "NAME", "EMAIL", "JOINED"}, rows)
				return nil
			})
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

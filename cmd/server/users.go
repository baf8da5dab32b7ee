package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"oversight/internal/auth"
	"oversight/internal/domain"
	"oversight/internal/services/users"
)

type userAddOptions struct {
	Name       string
	Email      string
	Role       string
	Enterprise string
}

func newUsersCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Provision accounts",
	}
	cmd.AddCommand(newUsersAddCommand(root))
	return cmd
}

func newUsersAddCommand(root *rootOptions) *cobra.Command {
	opts := userAddOptions{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user and print it as JSON",
		Long: `Create a user and print it as JSON.

Example:
  oversight users add --name "Awa Bello" --email awa@minmidt.cm --role inspector
  oversight users add --name Owner --email owner@sosucam.cm --enterprise 6f1c...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := domain.UserInput{Name: opts.Name, Email: opts.Email, Role: domain.Role(opts.Role)}
			if opts.Enterprise != "" {
				id, err := uuid.Parse(opts.Enterprise)
				if err != nil {
					return fmt.Errorf("invalid --enterprise: %w", err)
				}
				in.EnterpriseID = &id
			}
			e, err := openEnv(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer e.Close()
			u, err := users.New(e.store.Users, e.store.Enterprises).Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(u)
		},
	}
	cmd.Flags().StringVar(&opts.Name, "name", "", "display name (required)")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&opts.Role, "role", string(domain.RoleUser), "admin|inspector|user")
	cmd.Flags().StringVar(&opts.Enterprise, "enterprise", "", "enterprise the user belongs to")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newTokenCommand(root *rootOptions) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for a provisioned user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			e, err := openEnv(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer e.Close()
			if e.cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is required")
			}
			u, err := e.store.Users.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !u.Active {
				return fmt.Errorf("user %s is disabled", u.ID)
			}
			token, err := auth.NewTokens(e.cfg.JWTSecret, e.cfg.JWTExpire).Issue(u.ID)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

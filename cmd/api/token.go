package main

import (
	"fmt"

	"github.com/01moynul/farmers-market-api/internal/auth"
	"github.com/01moynul/farmers-market-api/internal/config"
	"github.com/01moynul/farmers-market-api/internal/models"
	"github.com/spf13/cobra"
)

// newTokenCommand mints a bearer token signed with JWT_SECRET_KEY, for
// seeding the first admin or poking at the API by hand.
func newTokenCommand() *cobra.Command {
	var (
		userID int64
		role   string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed bearer token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID <= 0 {
				return fmt.Errorf("--user-id must be a positive integer")
			}
			if role != models.RoleUser && role != models.RoleAdmin {
				return fmt.Errorf("--role must be %q or %q", models.RoleUser, models.RoleAdmin)
			}

			// Only the secret and TTL matter here; no logger is needed.
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			token, err := auth.NewManager(cfg.JWTSecretKey, cfg.JWTTTL).GenerateToken(userID, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user-id", 0, "subject of the token")
	cmd.Flags().StringVar(&role, "role", models.RoleUser, "role claim (user or admin)")
	return cmd
}

package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/xchangepos/backend/internal/config"
	"github.com/xchangepos/backend/internal/utils"
)

func main() {
	cmd := newIssueTokenCommand(config.LoadConfig().JWT, os.Stdout)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newIssueTokenCommand creates the command that mints bearer tokens for the
// compliance API, signed with the configured JWT secret
func newIssueTokenCommand(jwtCfg config.JWTConfig, out io.Writer) *cobra.Command {
	var (
		email   string
		userID  string
		isAdmin bool
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Issue an access token for the FINTRAC compliance API",
		Long: `Issue an HS256 access token signed with JWT_SECRET.

Compliance endpoints require an admin token. The lifetime defaults to
JWT_EXPIRATION hours.

Examples:
  # Token for a compliance officer
  ./issue-token --email=officer@example.com --admin

  # Short-lived token for a specific user
  ./issue-token --email=analyst@example.com --user-id=3f1c... --ttl=30m`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := uuid.New()
			if userID != "" {
				parsed, err := uuid.Parse(userID)
				if err != nil {
					return fmt.Errorf("invalid --user-id: %w", err)
				}
				id = parsed
			}

			token, err := utils.GenerateAccessToken(jwtCfg.Secret, id, email, isAdmin, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, token)
			return err
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email claim of the token holder")
	cmd.Flags().StringVar(&userID, "user-id", "", "User id claim (random when empty)")
	cmd.Flags().BoolVar(&isAdmin, "admin", false, "Grant admin access")
	cmd.Flags().DurationVar(&ttl, "ttl", jwtCfg.TokenTTL(), "Token lifetime")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	jwttoken "carematch/internal/jwt_token"
	id "carematch/pkg/domain"
)

func newTokenCmd(load ConfigLoader) *cobra.Command {
	var (
		user string
		role string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token signed with JWT_SIGNING_KEY",
		Long: `Mint an access token for local development and smoke tests. Tokens in
production are issued by the account service; this uses the same key and issuer
the server verifies against.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsedRole, err := id.ParseRole(strings.TrimSpace(role))
			if err != nil {
				return err
			}
			userID := id.UserID(uuid.New())
			if user != "" {
				if userID, err = id.ParseUserID(user); err != nil {
					return err
				}
			}
			if ttl <= 0 {
				return fmt.Errorf("ttl must be positive, got %s", ttl)
			}

			cfg := load()
			token, err := jwttoken.New(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer).Mint(userID, parsedRole, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "subject user id (random when empty)")
	cmd.Flags().StringVar(&role, "role", string(id.RoleProvider), "provider, family or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}

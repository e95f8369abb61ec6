package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"carematch/internal/accounts"
	"carematch/internal/verification/store"
	id "carematch/pkg/domain"
	"carematch/pkg/platform/audit/publishers/compliance"
	auditpostgres "carematch/pkg/platform/audit/store/postgres"
)

func newUsersCmd(load ConfigLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts directly in the database",
	}

	var email, role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account, typically the first admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := id.ParseRole(strings.TrimSpace(role))
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), load, true)
			if err != nil {
				return err
			}
			defer db.Close()

			svc, err := accounts.New(accounts.NewPostgresStore(db), store.NewPostgres(db), compliance.New(auditpostgres.New(db)))
			if err != nil {
				return err
			}
			user, err := svc.CreateUser(cmd.Context(), email, parsed)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", user.ID, user.Email, user.Role)
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "account email address")
	create.Flags().StringVar(&role, "role", string(id.RoleAdmin), "provider, family or admin")
	_ = create.MarkFlagRequired("email")

	cmd.AddCommand(create)
	return cmd
}

package cmd

import (
	"fmt"

	"blogapi/config"
	"blogapi/database"
	"blogapi/models"
	"blogapi/services"

	"github.com/spf13/cobra"
)

var roleCmd = &cobra.Command{
	Use:   "role <email> <user|admin>",
	Short: "Change the role of a registered user",
	Long: `Change the role of a registered user.

Admins may list every user through GET /v1/users. There is no HTTP endpoint
for granting roles; use this command against the production store.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		if cfg.StoreDriver == config.DriverMemory {
			return fmt.Errorf("role changes need a persistent store, STORE_DRIVER is %q", cfg.StoreDriver)
		}

		db, err := database.Connect(cmd.Context(), cfg.MongoURI, cfg.Database, log)
		if err != nil {
			return err
		}
		defer db.Disconnect(cmd.Context())

		users := services.NewUserService(db.Users, services.Options{Logger: log, Timeout: cfg.StoreTimeout})
		user, err := users.SetRole(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Email, user.Role)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(roleCmd)
	roleCmd.ValidArgs = []string{models.RoleUser, models.RoleAdmin}
}

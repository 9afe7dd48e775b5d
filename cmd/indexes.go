package cmd

import (
	"blogapi/config"
	"blogapi/database"

	"github.com/spf13/cobra"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create collection indexes",
	Long: `Create the MongoDB indexes the API relies on: title and message lookups,
newest-first listings, comments by post and unique user emails.

Creating an index that already exists is a no-op, so the command is safe to
run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		if cfg.StoreDriver == config.DriverMemory {
			log.Warn("in-memory store has no indexes to create")
			return nil
		}

		db, err := database.Connect(cmd.Context(), cfg.MongoURI, cfg.Database, log)
		if err != nil {
			return err
		}
		defer db.Disconnect(cmd.Context())

		if err := db.EnsureIndexes(cmd.Context()); err != nil {
			return err
		}
		log.Info("indexes created")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexesCmd)
}

package cli

import (
	"log"

	"storefront/internal/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(opts)
			if err != nil {
				return err
			}
			defer database.Close(db)
			log.Println("Database schema is up to date")
			return nil
		},
	}
}

// openDatabase connects with the configured driver and migrates the schema.
func openDatabase(opts *RootOptions) (*gorm.DB, error) {
	cfg := opts.Config
	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		database.Close(db)
		return nil, err
	}
	return db, nil
}

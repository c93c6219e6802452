package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fleetops/dt-ingest/internal/persistence"
)

// NewMigrateCommand creates the schema-migration command.
func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long: `migrate runs GORM's AutoMigrate against the configured database,
creating the objects, route lists, requests, shift records, trips and zone
events tables if they don't already exist.

Example:
  dtctl migrate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if err := persistence.AutoMigrate(a.db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			a.logger.Printf("migration complete")
			return nil
		},
	}

	return cmd
}

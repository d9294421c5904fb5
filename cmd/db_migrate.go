package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"inventory.GO/config"
	"inventory.GO/migrations"
	inventoryRepo "inventory.GO/model/repository/inventory"
)

var migrateDown int

var migrateCmd = &cobra.Command{
	Use:   "db:migrate",
	Short: "Apply database migrations (MySQL) or auto-migrate the SQLite schema",
	RunE: func(c *cobra.Command, args []string) error {
		db, err := config.NewDB()
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		if config.DBDriver() != "mysql" {
			if migrateDown > 0 {
				return fmt.Errorf("--down needs DB_DRIVER=mysql")
			}
			if err := inventoryRepo.AutoMigrate(db); err != nil {
				return err
			}
			fmt.Println("SQLite schema is up to date.")
			return nil
		}

		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if migrateDown > 0 {
			err = migrations.Down(sqlDB, migrateDown)
		} else {
			err = migrations.Up(sqlDB)
		}
		if err != nil {
			return err
		}
		v, dirty, err := migrations.Version(sqlDB)
		if err != nil {
			return err
		}
		fmt.Printf("Schema version %d (dirty: %t)\n", v, dirty)
		return nil
	},
}

func init() {
	migrateCmd.Flags().IntVar(&migrateDown, "down", 0, "roll back this many migrations instead of applying")
	Register(migrateCmd)
}

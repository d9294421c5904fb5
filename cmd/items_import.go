package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"inventory.GO/config"
	inventoryService "inventory.GO/service/inventory"
)

var (
	importFile   string
	importBatch  int
	importUpdate bool
)

var importCmd = &cobra.Command{
	Use:   "items:import",
	Short: "Import inventory items from CSV straight into the database",
	RunE: func(c *cobra.Command, args []string) error {
		f, err := os.Open(importFile)
		if err != nil {
			return fmt.Errorf("open CSV: %w", err)
		}
		defer f.Close()

		ctx := context.Background()
		_, svc, err := openService(ctx, config.App(), zap.L())
		if err != nil {
			return err
		}

		res, err := svc.ImportCSV(ctx, f, inventoryService.ImportOptions{
			BatchSize:      importBatch,
			UpdateExisting: importUpdate,
		})
		if res != nil {
			for _, w := range res.Warnings {
				fmt.Printf("  [warn] %s\n", w)
			}
		}
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		fmt.Printf(`
=== Import Report ===
CSV rows:       %d
Created:        %d
Updated:        %d
Skipped:        %d
Total time:     %s
=====================
`, res.TotalRows, res.Created, res.Updated, res.Skipped, res.TotalTime.Round(time.Millisecond))
		return nil
	},
}

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "CSV file with name, category, quantity, lowStockThreshold, barcode, qrCode, image columns")
	importCmd.Flags().IntVar(&importBatch, "batch-size", 500, "barcode lookup batch size")
	importCmd.Flags().BoolVar(&importUpdate, "update", false, "update items whose barcode already exists")
	importCmd.MarkFlagRequired("file")
	Register(importCmd)
}

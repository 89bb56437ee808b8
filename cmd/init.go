package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"tabula/internal/config"
	"tabula/internal/db"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample dialogs file and seed the demo database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to check %s: %w", path, err)
		}

		cfg := sampleConfig()
		dbPath := filepath.Join(filepath.Dir(path), cfg.Database)
		if override := firstNonEmpty(dbFile, os.Getenv(dbEnv)); override != "" {
			dbPath = config.ExpandHome(override)
			cfg.Database = dbPath
		}
		if err := config.Write(path, cfg); err != nil {
			return err
		}

		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()
		if err := db.SeedDemo(cmd.Context(), database); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\nSeeded demo data in %s\n", path, dbPath)
		return nil
	},
}

func init() { //nolint:gochecknoinits
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing dialogs file")
}

// sampleConfig describes two dialogs over the demo tables. Paths are relative
// to the dialogs file.
func sampleConfig() *config.Config {
	return &config.Config{
		Database: "tabula.db",
		LogFile:  "tabula.log",
		LogLevel: config.DefaultLogLevel,
		Dialogs: []config.Dialog{
			{
				ID:      "stock",
				Title:   "Stock",
				Width:   config.DefaultWidth,
				Height:  config.DefaultHeight,
				Headers: []string{"sku", "name", "category", "qty", "unit price", "restocked"},
				Source: config.Source{
					Kind:  config.SourceSQL,
					Query: "SELECT sku, name, category, qty, unit_price, restocked_on FROM demo_stock ORDER BY id",
				},
			},
			{
				ID:      "orders",
				Title:   "Orders",
				Width:   config.DefaultWidth,
				Height:  config.DefaultHeight,
				Headers: []string{"order", "sku", "item", "quantity", "ordered", "status"},
				Refresh: config.Duration(30 * time.Second),
				Source: config.Source{
					Kind:  config.SourceSQL,
					Query: "SELECT o.id, s.sku, s.name, o.quantity, o.ordered_on, o.status FROM demo_orders o JOIN demo_stock s ON s.id = o.stock_id ORDER BY o.id",
				},
			},
		},
	}
}

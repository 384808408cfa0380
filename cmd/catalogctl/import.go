package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pathfinder-llm/internal/repository"
)

var importCmd = &cobra.Command{
	Use:   "import [catalog.yaml]",
	Short: "Importa (upsert) un catalogo de ocupaciones desde YAML",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		e, err := newEnv(cmd, !dryRun)
		if err != nil {
			return err
		}
		defer e.Close()

		path := e.cfg.CatalogFile
		if len(args) == 1 {
			path = args[0]
		}
		records, err := repository.LoadCatalogFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if dryRun {
			fmt.Printf("%s: %d occupations ok\n", path, len(records))
			return nil
		}

		repo := repository.NewPgOccupationRepository(e.pool)
		ctx := contextOf(cmd)
		for _, rec := range records {
			if err := repo.Upsert(ctx, rec); err != nil {
				return fmt.Errorf("upsert %s: %w", rec.ID, err)
			}
		}
		e.logger.Info("catalog imported", zap.String("file", path), zap.Int("count", len(records)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().Bool("dry-run", false, "only validate the file")
}

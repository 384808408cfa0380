package main

import (
	"github.com/spf13/cobra"

	"pathfinder-llm/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Crea las tablas y la extension vector si no existen",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := newEnv(cmd, true)
		if err != nil {
			return err
		}
		defer e.Close()
		if err := db.Migrate(contextOf(cmd), e.pool); err != nil {
			return err
		}
		e.logger.Info("schema up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

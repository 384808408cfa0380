package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pathfinder-llm/internal/repository"
	"pathfinder-llm/internal/service"
)

var resetCmd = &cobra.Command{
	Use:   "reset-sessions",
	Short: "Abandona las conversaciones activas o pausadas sin actividad",
	RunE: func(cmd *cobra.Command, _ []string) error {
		idle, _ := cmd.Flags().GetDuration("idle")
		e, err := newEnv(cmd, true)
		if err != nil {
			return err
		}
		defer e.Close()

		orch := service.NewOrchestrator(service.OrchestratorDeps{
			Conversations: repository.NewPgConversationRepository(e.pool),
		}, e.cfg.OrchestratorSettings(), e.logger)
		n, err := orch.ResetStale(contextOf(cmd), idle)
		if err != nil {
			return err
		}
		fmt.Printf("%d conversations abandoned\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().Duration("idle", 72*time.Hour, "inactivity window")
}

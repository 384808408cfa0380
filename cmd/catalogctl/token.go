package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pathfinder-llm/internal/service"
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Emite un access token para pruebas locales",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()
		ttl, _ := cmd.Flags().GetDuration("ttl")
		if ttl <= 0 {
			ttl = e.cfg.JWTAccessTTL
		}
		token, err := service.NewJWTService(e.cfg.JWTSecret, ttl).IssueAccessToken(args[0])
		if err != nil {
			return fmt.Errorf("issuing token (is JWT_SECRET set?): %w", err)
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().Duration("ttl", time.Duration(0), "token lifetime (default JWT_ACCESS_TTL)")
}

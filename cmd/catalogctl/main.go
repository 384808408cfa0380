package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pathfinder-llm/internal/config"
	"pathfinder-llm/internal/db"
	"pathfinder-llm/internal/logger"
)

const app = "catalogctl"

var rootCmd = &cobra.Command{
	Use:           app,
	Short:         "catalogctl administra el catalogo de ocupaciones y las sesiones de pathfinder",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", app, err)
		os.Exit(1)
	}
}

// env reune lo que comparten los subcomandos que tocan la base.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	pool   *pgxpool.Pool
}

func newEnv(cmd *cobra.Command, needDB bool) (*env, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	jsonLogs, _ := cmd.Flags().GetBool("json")
	debug, _ := cmd.Flags().GetBool("debug")
	zl, err := logger.New(jsonLogs || cfg.LogJSON, debug || cfg.LogDebug)
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}
	e := &env{cfg: cfg, logger: zl}
	if !needDB {
		return e, nil
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	pool, err := db.NewPool(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	e.pool = pool
	return e, nil
}

func (e *env) Close() {
	if e.pool != nil {
		e.pool.Close()
	}
	_ = e.logger.Sync()
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kfranzke/leitstelle/app"
	"github.com/kfranzke/leitstelle/config"
	"github.com/kfranzke/leitstelle/infra/logger"
)

var (
	cfgPath    string
	difficulty string
	gameSpeed  float64
)

var rootCmd = &cobra.Command{
	Use:   "leitstelle",
	Short: "Emergency dispatch training simulation engine",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (json or yaml)")
	rootCmd.PersistentFlags().StringVarP(&difficulty, "difficulty", "d", "", "difficulty preset: rookie, regular or veteran")
	rootCmd.PersistentFlags().Float64VarP(&gameSpeed, "speed", "s", 0, "game speed multiplier")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if cfgPath == "" {
		cfg = config.Default()
	} else {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	if difficulty != "" {
		cfg.Difficulty = difficulty
	}
	if gameSpeed > 0 {
		cfg.GameSpeed = gameSpeed
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}

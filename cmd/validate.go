package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fmt.Printf("ok: difficulty=%s speed=%.1fx vehicles=%d areas=%d incidents/h=%.1f\n",
		cfg.Difficulty, cfg.GameSpeed, len(cfg.World.BuildFleet()),
		len(cfg.World.Areas), cfg.Incident.IncidentsPerHour)
	return nil
}

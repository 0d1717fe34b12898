package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var fleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "Fleet related commands",
}

var fleetLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the shift's starting fleet",
	RunE:  runFleetLs,
}

func init() {
	fleetCmd.AddCommand(fleetLsCmd)
	rootCmd.AddCommand(fleetCmd)
}

func runFleetLs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	for _, v := range cfg.World.BuildFleet() {
		spec := v.Spec()
		fmt.Printf("%s\t%-16s\t%s\tcrew=%d\ttank=%.0fL\n",
			v.ID, v.CallSign, v.Type, spec.CrewSize, spec.TankLiters)
	}
	return nil
}

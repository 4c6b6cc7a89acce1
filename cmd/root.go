package cmd

import (
	"github.com/spf13/cobra"
)

var cfgDir string

var rootCmd = &cobra.Command{
	Use:   "bank-service",
	Short: "Blood and organ bank service",
	Long:  `A service for tracking donors, recipients, donated inventory and the allocation of inventory items to recipient requests`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config-dir", ".", "directory containing the config file")
}

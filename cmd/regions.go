package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/posso-labs/leadscout/internal/model"
)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List the quick-pick UK regions",
	Run: func(cmd *cobra.Command, args []string) {
		for _, r := range model.QuickPickRegions {
			fmt.Fprintln(cmd.OutOrStdout(), r)
		}
	},
}

func init() {
	rootCmd.AddCommand(regionsCmd)
}

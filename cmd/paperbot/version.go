package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/paperbot/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of paperbot",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "paperbot %s\n", version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ransim",
	Short: "A 5G RAN control-plane simulator",
	Long:  "ransim simulates a gNodeB and one or more UEs speaking NGAP, RRC, GTP-U and NAS.",
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/tastyfind/internal/cli"
	"github.com/cloo-solutions/tastyfind/internal/cli/daemon"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tastyfindd",
		Short: "TastyFind web daemon",
		Long:  "TastyFind daemon serving the search frontend against the restaurant backend",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(daemon.ServeCmd())
	rootCmd.AddCommand(daemon.CheckCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

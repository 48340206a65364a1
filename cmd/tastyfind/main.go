package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/tastyfind/internal/cli"
	"github.com/cloo-solutions/tastyfind/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "tastyfind",
		Short: "TastyFind CLI - Discover restaurants worldwide",
		Long: `TastyFind CLI searches the restaurant directory by filters, location,
free-text meaning and photos.

Environment variables:
  TASTYFIND_API_URL                Backend base URL (overrides config)
  TASTYFIND_DEFAULT_PAGE_SIZE      Results per page
  TASTYFIND_REQUEST_TIMEOUT        Per-request timeout, e.g. 30s
  TASTYFIND_S3_ENDPOINT            S3 endpoint for s3:// image sources
  TASTYFIND_S3_ACCESS_KEY_ID       S3 access key
  TASTYFIND_S3_SECRET_ACCESS_KEY   S3 secret key`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "Backend base URL (overrides env and config)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Per-request timeout, 0 waits indefinitely")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log backend requests to stderr")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.InitCmd())
	rootCmd.AddCommand(client.ListCmd())
	rootCmd.AddCommand(client.QueryCmd())
	rootCmd.AddCommand(client.GetCmd())
	rootCmd.AddCommand(client.NearbyCmd())
	rootCmd.AddCommand(client.SemanticCmd())
	rootCmd.AddCommand(client.ImageCmd())
	rootCmd.AddCommand(client.CountriesCmd())
	rootCmd.AddCommand(client.BrowseCmd())
	rootCmd.AddCommand(client.ConfigCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

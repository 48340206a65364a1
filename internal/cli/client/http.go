package client

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cloo-solutions/tastyfind/internal/logger"
	"github.com/cloo-solutions/tastyfind/internal/transport"
)

// overridesFromCmd collects the persistent flags the user actually set.
func overridesFromCmd(cmd *cobra.Command) Overrides {
	var o Overrides
	if cmd == nil {
		return o
	}
	o.APIURL, _ = cmd.Flags().GetString("api-url")
	if cmd.Flags().Changed("timeout") {
		o.Timeout, _ = cmd.Flags().GetDuration("timeout")
	}
	if cmd.Flags().Changed("limit") {
		o.PageSize, _ = cmd.Flags().GetInt("limit")
	}
	return o
}

// NewTransportWithCmd creates a backend client from the resolved settings.
// If cmd is nil only env and config.json are consulted.
func NewTransportWithCmd(cmd *cobra.Command, opts ...transport.Option) (*transport.Client, error) {
	_ = godotenv.Load()

	resolved, err := Resolve(overridesFromCmd(cmd))
	if err != nil {
		return nil, err
	}

	var verbose bool
	if cmd != nil {
		verbose, _ = cmd.Flags().GetBool("verbose")
	}

	all := []transport.Option{
		transport.WithLogger(logger.NewCLI(verbose)),
	}
	if resolved.Timeout > 0 {
		all = append(all, transport.WithTimeout(resolved.Timeout))
	}
	all = append(all, opts...)

	client, err := transport.New(resolved.APIURL, all...)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, nil
}

// pageSizeFor returns the --limit flag when set, then the configured page size.
func pageSizeFor(cmd *cobra.Command, flagLimit int) int {
	resolved, err := Resolve(overridesFromCmd(cmd))
	if err != nil {
		if flagLimit > 0 {
			return flagLimit
		}
		return defaultPageSize
	}
	return resolved.PageSize
}

package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/cloo-solutions/tastyfind/internal/config"
	"github.com/cloo-solutions/tastyfind/internal/transport"
	"github.com/spf13/cobra"
)

const defaultCheckTimeout = 10 * time.Second

// CheckCmd returns the check command
func CheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the daemon configuration and backend",
		Long:  "Load the daemon configuration and verify that the restaurant backend answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return runCheck(cmd.Context(), cmd.OutOrStdout(), cfg, outputFormat)
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

type checkResult struct {
	Backend        string   `json:"backend"`
	Reachable      bool     `json:"reachable"`
	Countries      int      `json:"countries"`
	StaleResponses string   `json:"stale_responses"`
	PageSize       int      `json:"page_size"`
	S3             bool     `json:"s3"`
	Sentry         bool     `json:"sentry"`
	CORSOrigins    []string `json:"cors_origins"`
	Error          string   `json:"error,omitempty"`
}

func runCheck(ctx context.Context, w io.Writer, cfg *config.Config, outputFormat string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}

	client, err := transport.New(cfg.APIURL, transport.WithTimeout(timeout))
	if err != nil {
		return fmt.Errorf("failed to create transport: %w", err)
	}

	result := checkResult{
		Backend:        client.BaseURL(),
		StaleResponses: cfg.StaleResponses,
		PageSize:       cfg.DefaultPageSize,
		S3:             cfg.HasS3(),
		Sentry:         cfg.HasSentry(),
		CORSOrigins:    cfg.CORSOrigins,
	}
	countries, checkErr := client.ListCountries(ctx)
	if checkErr != nil {
		result.Error = transport.Message(checkErr)
	} else {
		result.Reachable = true
		result.Countries = len(countries)
	}

	if outputFormat == "json" {
		jsonBytes, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(w, string(jsonBytes))
	} else {
		fmt.Fprintf(w, "Backend:         %s\n", result.Backend)
		if result.Reachable {
			fmt.Fprintf(w, "Status:          reachable (%d countries)\n", result.Countries)
		} else {
			fmt.Fprintf(w, "Status:          unreachable: %s\n", result.Error)
		}
		fmt.Fprintf(w, "Stale responses: %s\n", result.StaleResponses)
		fmt.Fprintf(w, "Page size:       %d\n", result.PageSize)
		fmt.Fprintf(w, "S3 images:       %t\n", result.S3)
		fmt.Fprintf(w, "Sentry:          %t\n", result.Sentry)
	}

	if checkErr != nil {
		return fmt.Errorf("backend check failed: %w", checkErr)
	}
	return nil
}

package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/tastyfind/internal/transport"
)

func InitCmd() *cobra.Command {
	var apiURL string
	var pageSize int
	var skipCheck bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Configure the tastyfind CLI",
		Long:  "Writes the backend URL and default page size to config.json.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runInit(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), apiURL, pageSize, skipCheck, outputJSON)
		},
	}

	cmd.Flags().StringVar(&apiURL, "url", "", "Backend base URL (default: "+transport.DefaultBaseURL+")")
	cmd.Flags().IntVar(&pageSize, "page-size", defaultPageSize, "Default page size for list and browse")
	cmd.Flags().BoolVar(&skipCheck, "skip-check", false, "Do not contact the backend before saving")

	return cmd
}

func runInit(ctx context.Context, in io.Reader, out io.Writer, apiURL string, pageSize int, skipCheck, outputJSON bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if pageSize < 1 {
		return fmt.Errorf("page size must be a positive integer")
	}

	if apiURL == "" && !outputJSON {
		fmt.Fprintf(out, "Backend URL [%s]: ", transport.DefaultBaseURL)
		reader := bufio.NewReader(in)
		input, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read backend URL: %w", err)
		}
		apiURL = strings.TrimSpace(input)
	}
	if apiURL == "" {
		apiURL = transport.DefaultBaseURL
	}

	client, err := transport.New(apiURL)
	if err != nil {
		return fmt.Errorf("invalid backend URL: %w", err)
	}

	var countries int
	if !skipCheck {
		list, err := client.ListCountries(ctx)
		if err != nil {
			return fmt.Errorf("backend check failed: %w", err)
		}
		countries = len(list)
	}

	config := &Settings{APIURL: client.BaseURL(), PageSize: pageSize}
	if err := SaveSettings(config); err != nil {
		return err
	}
	configPath, _ := SettingsPath()

	if outputJSON {
		return printJSON(out, map[string]interface{}{
			"success":   true,
			"api_url":   config.APIURL,
			"page_size": config.PageSize,
			"config":    configPath,
		})
	}

	fmt.Fprintf(out, "\nSaved configuration to %s\n", configPath)
	fmt.Fprintf(out, "Backend: %s\n", config.APIURL)
	if !skipCheck {
		fmt.Fprintf(out, "Backend reachable, %d countries available\n", countries)
	}
	return nil
}

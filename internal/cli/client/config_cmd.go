package client

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ConfigCmd creates the config command.
func ConfigCmd() *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective CLI configuration",
		Long:  "Prints each setting with where it came from: flag, env, config file or default.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			if reset {
				if err := ClearSettings(); err != nil {
					return err
				}
			}
			resolved, err := Resolve(overridesFromCmd(cmd))
			if err != nil {
				return err
			}
			return printConfig(cmd.OutOrStdout(), resolved, outputJSON)
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "Delete config.json before showing the configuration")

	return cmd
}

func printConfig(w io.Writer, r Resolved, outputJSON bool) error {
	path, _ := SettingsPath()
	if outputJSON {
		return printJSON(w, map[string]interface{}{
			"config":   path,
			"settings": r,
		})
	}

	timeout := "none"
	if r.Timeout > 0 {
		timeout = r.Timeout.String()
	}
	fmt.Fprintln(w, titleStyle.Render("Configuration"))
	fmt.Fprintf(w, "Backend URL  %s %s\n", r.APIURL, metaStyle.Render("("+string(r.APIURLSource)+")"))
	fmt.Fprintf(w, "Page size    %d %s\n", r.PageSize, metaStyle.Render("("+string(r.PageSizeSource)+")"))
	fmt.Fprintf(w, "Timeout      %s %s\n", timeout, metaStyle.Render("("+string(r.TimeoutSource)+")"))
	fmt.Fprintf(w, "Config file  %s\n", path)
	return nil
}

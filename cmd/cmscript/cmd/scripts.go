package cmd

import (
	"github.com/spf13/cobra"

	"github.com/joshburkard/MECMAdminService-sub003/internal/cli"
	"github.com/joshburkard/MECMAdminService-sub003/internal/script"
)

var scriptsCmd = &cobra.Command{
	Use:   "scripts",
	Short: "Browse the scripts the backend exposes",
}

var listScriptsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all scripts",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		scripts, err := client.ListScripts(cmd.Context())
		if err != nil {
			return err
		}

		if outputJSON {
			return cli.FormatJSON(scripts)
		}
		return cli.FormatScriptsTable(scripts)
	},
}

var showScriptCmd = &cobra.Command{
	Use:   "show [script name or GUID]",
	Short: "Show one script including its decoded parameter schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		def, err := client.ResolveScript(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		schema, err := script.DecodeSchema(def.Parameterlist)
		if err != nil {
			return err
		}

		if outputJSON {
			return cli.FormatJSON(map[string]any{"script": def, "schema": schema})
		}
		return cli.FormatScriptDetail(def, schema)
	},
}

func init() {
	scriptsCmd.AddCommand(listScriptsCmd)
	scriptsCmd.AddCommand(showScriptCmd)

	rootCmd.AddCommand(scriptsCmd)
}

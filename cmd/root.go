package cmd

import (
	"github.com/spf13/cobra"
)

var appVersion = "dev"

func SetVersion(v string) {
	appVersion = v
}

var rootCmd = &cobra.Command{
	Use:   "specmcp",
	Short: "Serve an OpenAPI document as MCP tools",
	Long: `specmcp reads an OpenAPI 3.x document and exposes every operation as an
MCP tool that describes its method, path, body fields and examples.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(listCmd)
}

func Execute() error {
	rootCmd.Version = appVersion
	rootCmd.SetVersionTemplate("specmcp v{{.Version}}\n")
	return rootCmd.Execute()
}

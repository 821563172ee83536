// Package commands implements the CLI commands for the openpgpcard daemon.
package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "openpgpcard",
	Short: "OpenPGP card application core",
	Long: `openpgpcard runs the OpenPGP card application core: TLV-encoded
data objects, PW1/PW3/RC authorization, RSA/ECDSA/ECDH/EdDSA key slots,
and the PERFORM SECURITY OPERATION / INTERNAL AUTHENTICATE / GENERATE
ASYMMETRIC KEY PAIR / GET-PUT DATA / SELECT SECURITY ENVIRONMENT command
set, reachable over a Unix-domain socket or a PC/SC reader.

Use "openpgpcard [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main() and only needs to
// happen once.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/openpgpcard/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(resetCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
	os.Exit(1)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.Printf("openpgpcard %s (commit: %s, built: %s)\n", Version, Commit, Date)
		return nil
	},
}

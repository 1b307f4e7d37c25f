// Root of the sfs command tree.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"streamfs/pkg/client"
	"streamfs/pkg/models"
)

const defaultServer = "http://127.0.0.1:9222"

// settings resolves the gateway address from flag, environment and config
// file, in that order of precedence.
var settings = viper.New()

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sfs",
	Short: "Command-line client for a streamfs gateway",
	Long: `sfs talks to a streamfs gateway over HTTP.

The gateway address comes from --server, the SFS_SERVER environment
variable or ~/.sfs.yaml, whichever is set first.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree. Called once from main.
func Execute() {
	rootCmd.Version = strings.TrimSpace(Version)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "sfs: %v\n", err)
		os.Exit(1)
	}
}

// gatewayClient builds a client for the configured gateway address.
func gatewayClient() *client.Client {
	return client.New(settings.GetString("server"))
}

// parseMeta turns repeated key=value pairs into object metadata.
func parseMeta(pairs []string) (models.Header, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	meta := models.Header{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("malformed metadata pair %q, want key=value", pair)
		}
		meta.Add(key, value)
	}

	return meta, nil
}

func init() {
	rootCmd.PersistentFlags().String("server", defaultServer, "streamfs gateway base URL")
	_ = settings.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))

	settings.SetEnvPrefix("sfs")
	settings.AutomaticEnv()

	if home, err := os.UserHomeDir(); err == nil {
		settings.AddConfigPath(home)
	}
	settings.SetConfigName(".sfs")
	settings.SetConfigType("yaml")

	// A missing config file is fine; flags and env still apply.
	_ = settings.ReadInConfig()
}

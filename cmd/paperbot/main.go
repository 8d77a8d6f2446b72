// Package main is the entry point for the paperbot CLI.
package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/paperbot/internal/config"
)

// rootCmd is the base command for the paperbot CLI.
var rootCmd = &cobra.Command{
	Use:   "paperbot",
	Short: "Telegram bot that searches the C++ standardization paper index",
	Long: `paperbot answers /paper <query> in Telegram chats with the WG21 papers
whose number, title or author contains the query. The paper index is
downloaded at startup and refreshed periodically.

Configuration is read from config/$ENV.yaml (ENV defaults to "local") or the
file given with --config; the flags below override individual keys.`,
	SilenceUsage: true,
}

// overrides holds the persistent flags that take precedence over the config file.
var overrides struct {
	configPath       string
	token            string
	catalogURL       string
	maxResults       int
	maxMessageLength int
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&overrides.configPath, "config", "", "config file (default: config/$ENV.yaml)")
	pf.StringVar(&overrides.token, "token", "", "Telegram bot token (overrides telegram.token)")
	pf.StringVar(&overrides.catalogURL, "catalog-url", "", "paper index URL (overrides catalog.url)")
	pf.IntVar(&overrides.maxResults, "max-results", 0, "maximum papers per reply (overrides search.max_results)")
	pf.IntVar(&overrides.maxMessageLength, "max-message-length", 0,
		"maximum characters per chat message (overrides search.max_message_length)")
}

// loadConfig reads the config file and applies flag overrides. It does not validate,
// so a token given only on the command line is accepted. With allowMissing, an absent
// default config file yields the built-in defaults.
func loadConfig(allowMissing bool) (config.Config, string, error) {
	env := config.GetEnv()

	path := overrides.configPath
	if path == "" {
		path = config.PathFor(env)
	}

	cfg, err := config.Read(path)
	if err != nil {
		if !allowMissing || overrides.configPath != "" || !errors.Is(err, fs.ErrNotExist) {
			return config.Config{}, env, err
		}
		cfg = config.Config{}
		cfg.ApplyDefaults()
	}

	applyOverrides(&cfg)
	return cfg, env, nil
}

func applyOverrides(cfg *config.Config) {
	if overrides.token != "" {
		cfg.Telegram.Token = overrides.token
	}
	if overrides.catalogURL != "" {
		cfg.Catalog.URL = overrides.catalogURL
	}
	if overrides.maxResults > 0 {
		cfg.Search.MaxResults = overrides.maxResults
	}
	if overrides.maxMessageLength > 0 {
		cfg.Search.MaxMessageLength = overrides.maxMessageLength
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

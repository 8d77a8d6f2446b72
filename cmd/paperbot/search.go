package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/paperbot/internal/catalog"
	"github.com/kailas-cloud/paperbot/internal/transport/wg21"
	"github.com/kailas-cloud/paperbot/internal/usecase/reply"
	searchuc "github.com/kailas-cloud/paperbot/internal/usecase/search"
)

// messageSeparator is printed between chat messages in one-shot output.
const messageSeparator = "-----"

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Fetch the paper index once and print the reply for a query",
	Long: `search downloads the paper index, runs the same search and formatting as
the /paper command and prints the resulting chat messages to stdout. No
Telegram token is needed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(true)
		if err != nil {
			return err
		}

		fetcher := wg21.NewClient(wg21.Config{
			URL:          cfg.Catalog.URL,
			Timeout:      time.Duration(cfg.Catalog.FetchTimeoutSec) * time.Second,
			MaxBodyBytes: int64(cfg.Catalog.MaxBodyMB) << 20,
			UserAgent:    userAgent(cfg.Catalog.UserAgent),
		})
		cat, err := fetcher.Fetch(cmd.Context())
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}

		store := catalog.NewStore()
		store.Replace(cat)

		query := strings.Join(args, " ")
		res := searchuc.New(store, cfg.Search.MaxResults).Search(cmd.Context(), query)
		messages := reply.NewFormatter(cfg.Search.MaxMessageLength).Format(query, res)

		out := cmd.OutOrStdout()
		for i, m := range messages {
			if i > 0 {
				fmt.Fprintln(out, messageSeparator)
			}
			fmt.Fprintln(out, strings.TrimRight(m, "\n"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

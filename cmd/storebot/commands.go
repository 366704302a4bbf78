package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/anbtech/storebot/internal/api"
	"github.com/anbtech/storebot/internal/catalog"
	"github.com/anbtech/storebot/internal/config"
	"github.com/anbtech/storebot/internal/ledger"
)

// --- catalog ---

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the models, storage options and colors on sale",
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "MODEL\tFROM\tSTORAGE\tCOLORS")
		for _, e := range catalog.Default().Entries() {
			var storage []string
			for _, gb := range e.StorageOptions() {
				storage = append(storage, fmt.Sprintf("%dGB", gb))
			}
			fmt.Fprintf(tw, "%s\tR%d\t%s\t%s\n", e.Model, e.BasePrice, strings.Join(storage, "/"), strings.Join(e.Colors, ", "))
		}
		return tw.Flush()
	},
}

// --- quote ---

var quoteCmd = &cobra.Command{
	Use:   "quote <model> <color> <storageGB>",
	Short: "Quote the price of a catalog configuration",
	Long: `Quote the price of a catalog configuration.

Examples:
  storebot quote "iPhone 13" Blue 128
  storebot quote "iphone 15 pro" "natural titanium" 256`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		gb, err := strconv.Atoi(strings.TrimSuffix(strings.ToLower(args[2]), "gb"))
		if err != nil {
			return fmt.Errorf("invalid storage %q: want a number of GB", args[2])
		}

		cat := catalog.Default()
		price, err := cat.Price(args[0], args[1], gb)
		if err != nil {
			return err
		}
		e, _ := cat.Lookup(args[0])
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, %dGB): R%d\n", e.Model, args[1], gb, price)
		return nil
	},
}

// --- report ---

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the sales report of a running storebot",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/admin/report")
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), result["report"])
		return nil
	},
}

// --- promise ---

var promiseCmd = &cobra.Command{
	Use:   "promise <user-id> <weekday> <item>",
	Short: "Record a payment a customer promised for a weekday",
	Long: `Record a payment a customer promised for a weekday.

Examples:
  storebot promise +27820000001 friday "iPhone 13 (Blue, 128gb)" --amount 7549`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := ledger.ParseWeekday(args[1]); err != nil {
			return fmt.Errorf("%w: %q", err, args[1])
		}
		amount, _ := cmd.Flags().GetInt("amount")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/admin/promises", api.PromiseRequest{
			UserID: args[0],
			Item:   args[2],
			Amount: &amount,
			Day:    args[1],
		})
		if err != nil {
			return err
		}

		var rec ledger.SaleRecord
		if err := decodeJSON(resp, &rec); err != nil {
			return err
		}
		printSuccess("Recorded R%d from %s on %s", rec.Amount, rec.UserID, rec.Day)
		return nil
	},
}

func init() {
	promiseCmd.Flags().Int("amount", ledger.DefaultAmount, "promised amount in rand")
}

// --- sessions ---

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List customer sessions of a running storebot",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/admin/sessions")
		if err != nil {
			return err
		}

		var sessions []api.SessionSummary
		if err := decodeJSON(resp, &sessions); err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(sessions)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "USER\tLAST MESSAGE\tFOLLOW-UPS\tTURNS\tREMINDER")
		for _, s := range sessions {
			reminder := "-"
			if s.ReminderAt != nil {
				reminder = s.ReminderAt.Format("2006-01-02 15:04")
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", s.UserID, s.LastMessageTime.Format("2006-01-02 15:04"), s.FollowUpCount, s.Turns, reminder)
		}
		return tw.Flush()
	},
}

func init() {
	sessionsCmd.Flags().Bool("json", false, "print raw JSON")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n\n", label("Config file:"), config.ConfigFilePath())
		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(out, "  %-32s = %-28s (%s)\n", k.Key, k.Value, k.EnvVar)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetKey(args[0], args[1]); err != nil {
			return fmt.Errorf("%w\nvalid keys: %s", err, strings.Join(config.ValidKeys(), ", "))
		}
		printSuccess("Set %s = %s", args[0], args[1])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

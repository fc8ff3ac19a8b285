// Package main provides the Shop Search CLI client.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shopsearch/shop-search/internal/client"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "shop-search",
		Short: "Shop Search - conversational product search",
		Long: `Shop Search finds products from free-text queries, with follow-up
support ("these in blue", "something cheaper") within a session.

Run 'shop-search search "running shoes under $100"' to search.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "server URL")
	rootCmd.PersistentFlags().String("api-key", "", "API key when the server requires one")
	rootCmd.PersistentFlags().Bool("json", false, "print raw JSON responses")

	rootCmd.AddCommand(
		searchCmd(),
		feedbackCmd(),
		healthCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newClient(cmd *cobra.Command) *client.Client {
	serverURL, _ := cmd.Flags().GetString("server")
	apiKey, _ := cmd.Flags().GetString("api-key")
	cfg := client.DefaultConfig()
	cfg.BaseURL = serverURL
	cfg.APIKey = apiKey
	return client.New(cfg)
}

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search for products",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			sessionID, _ := cmd.Flags().GetString("session")
			asJSON, _ := cmd.Flags().GetBool("json")

			c := newClient(cmd)
			resp, err := c.Search(cmd.Context(), client.SearchRequest{
				Query:     query,
				SessionID: sessionID,
			})
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(resp)
			}

			fmt.Println(resp.Response)
			fmt.Println()
			for i, r := range resp.Results {
				fmt.Printf("%d. %s", i+1, r.Product.Name)
				if r.Product.Brand != "" {
					fmt.Printf(" (%s)", r.Product.Brand)
				}
				fmt.Printf(" - $%.2f  [score %.3f]\n", r.Product.Price, r.FinalScore)
			}
			fmt.Printf("\nsession: %s  intent: %s (%.2f)\n",
				resp.SessionID, resp.Intent, resp.Confidence)
			if resp.Degraded {
				fmt.Println("note: some pipeline stages ran degraded")
			}
			return nil
		},
	}

	cmd.Flags().StringP("session", "s", "", "session ID for follow-up queries")
	return cmd
}

func feedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Submit feedback for a past search",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, _ := cmd.Flags().GetString("session")
			query, _ := cmd.Flags().GetString("query")
			rating, _ := cmd.Flags().GetInt("rating")
			comment, _ := cmd.Flags().GetString("comment")

			c := newClient(cmd)
			err := c.SubmitFeedback(cmd.Context(), client.FeedbackRequest{
				SessionID: sessionID,
				Query:     query,
				Rating:    rating,
				Comment:   comment,
			})
			if err != nil {
				return err
			}

			fmt.Println("Feedback submitted.")
			return nil
		},
	}

	cmd.Flags().StringP("session", "s", "", "session ID (required)")
	cmd.Flags().StringP("query", "q", "", "the query the feedback is about")
	cmd.Flags().IntP("rating", "r", 0, "rating 1-5 (required)")
	cmd.Flags().String("comment", "", "optional comment")
	cmd.MarkFlagRequired("session")
	cmd.MarkFlagRequired("rating")

	return cmd
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(cmd)
			resp, err := c.Health(cmd.Context())
			if err != nil {
				return err
			}

			asJSON, _ := cmd.Flags().GetBool("json")
			if asJSON {
				return printJSON(resp)
			}

			fmt.Printf("status: %s\n", resp.Status)
			for name, check := range resp.Checks {
				fmt.Printf("  %s: %s\n", name, check)
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("shop-search %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

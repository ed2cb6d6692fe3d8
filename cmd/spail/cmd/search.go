package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spailhq/spail/internal/search"
	"github.com/spf13/cobra"
)

var searchType string

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Query the web search proxy",
	Long: `Query the aggregated web search proxy from the command line. This is
the same backend the HTTP API exposes at /api/search.

Types: search (default), suggestions, images, videos.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := search.NewClient(search.Options{
			UserAgent: cfg.Search.UserAgent,
			Timeout:   time.Duration(cfg.Search.TimeoutSeconds) * time.Second,
			Logger:    logger,
		})

		q := strings.Join(args, " ")
		resp := client.Query(cmd.Context(), q, searchType)

		if resp.Knowledge != nil {
			fmt.Printf("%s\n%s\n\n", resp.Knowledge.Title, resp.Knowledge.Extract)
		}
		for _, s := range resp.Suggestions {
			fmt.Println(s)
		}
		for _, r := range resp.Results {
			fmt.Printf("%s\n  %s\n", r.Title, r.URL)
			if r.Snippet != "" {
				fmt.Printf("  %s\n", r.Snippet)
			}
			fmt.Println()
		}
		if resp.Knowledge == nil && len(resp.Suggestions) == 0 && len(resp.Results) == 0 {
			fmt.Println("No results.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchType, "type", "search", "result type (search, suggestions, images, videos)")
}

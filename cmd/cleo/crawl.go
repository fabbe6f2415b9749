package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/cleo-api/internal/config"
	"github.com/yourusername/cleo-api/internal/llm"
	"github.com/yourusername/cleo-api/internal/service"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl <domain>",
	Short: "Crawl a company website and print the research as JSON",
	Long:  "Fetches the home page and blog of a company website, finds its logo and brand colors, and summarizes it with the configured LLM. Without an API key the summary falls back to the page's about text.",
	Args:  cobra.ExactArgs(1),
	RunE:  runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx := cmd.Context()
	provider, err := llm.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM provider: %w", err)
	}

	fetcher := service.NewPageFetcher(cfg.CrawlTimeout)
	crawler := service.NewSiteCrawler(fetcher, newLogoService(cfg), service.NewContentAnalyzer(provider))

	result, err := crawler.Crawl(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd, result)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

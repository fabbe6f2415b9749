package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/cleo-api/internal/config"
	"github.com/yourusername/cleo-api/internal/service"
)

var logoCmd = &cobra.Command{
	Use:   "logo <domain>",
	Short: "Look up a company's logo and brand colors",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogo,
}

func init() {
	rootCmd.AddCommand(logoCmd)
}

func runLogo(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return printJSON(cmd, newLogoService(cfg).Lookup(cmd.Context(), args[0]))
}

func newLogoService(cfg *config.Config) *service.LogoService {
	return service.NewLogoService(service.LogoConfig{
		BrandfetchBaseURL: cfg.BrandfetchBaseURL,
		BrandfetchAPIKey:  cfg.BrandfetchAPIKey,
		ClearbitBaseURL:   cfg.ClearbitBaseURL,
		Timeout:           cfg.LogoTimeout,
		ProbeTimeout:      cfg.LogoProbeTimeout,
	})
}

// Package main is the entry point for the aiact compliance service.
//
// aiact scans software projects for AI framework usage and evaluates them
// against EU AI Act risk-tier and GDPR processing-role checklists. It runs
// in three modes: an HTTP session gateway for MCP clients (serve), a
// stdio MCP server (serve --stdio), and a one-shot local scan (scan).
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/ark-forge/mcp-eu-ai-act/internal/checker"
	"github.com/ark-forge/mcp-eu-ai-act/internal/compliance"
	"github.com/ark-forge/mcp-eu-ai-act/internal/config"
	"github.com/ark-forge/mcp-eu-ai-act/internal/gateway"
	"github.com/ark-forge/mcp-eu-ai-act/internal/keystore"
	"github.com/ark-forge/mcp-eu-ai-act/internal/logging"
	"github.com/ark-forge/mcp-eu-ai-act/internal/mcpserver"
	"github.com/ark-forge/mcp-eu-ai-act/internal/ratelimit"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func main() {
	logger := logging.NewAppLogger()

	rootCmd := &cobra.Command{
		Use:          "aiact",
		Short:        "EU AI Act and GDPR compliance scanner",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(serveCmd(logger))
	rootCmd.AddCommand(scanCmd(logger))
	rootCmd.AddCommand(checkCmd(logger))
	rootCmd.AddCommand(categoriesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(logger *logging.AppLogger) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Error loading config", "error", err)
		return nil, err
	}
	return cfg, nil
}

func serveCmd(logger *logging.AppLogger) *cobra.Command {
	var (
		stdio    bool
		addr     string
		keyFiles []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP compliance server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(logger)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ListenAddr = addr
			}

			chk := checker.New(cfg, logger)

			if stdio {
				logger.Info("Starting MCP server on stdio")
				return server.ServeStdio(mcpserver.New(chk, logger))
			}

			if err := cfg.EnsureDataDir(); err != nil {
				return err
			}
			if len(keyFiles) == 0 {
				keyFiles = []string{cfg.KeyFilePath()}
			}

			keys := keystore.New(logger, keyFiles...)
			limiter := ratelimit.New(cfg.RateLimitFilePath(), cfg.FreeTierDailyLimit, logger)
			gw := gateway.New(
				gateway.NewRegistry(),
				mcpserver.NewFactory(chk, logger),
				keys,
				limiter,
				logger,
			)

			logger.Info("Starting session gateway",
				"addr", cfg.ListenAddr,
				"free_tier_limit", cfg.FreeTierDailyLimit,
				"keys_loaded", keys.Count(),
			)
			return http.ListenAndServe(cfg.ListenAddr, gw.Handler())
		},
	}

	cmd.Flags().BoolVar(&stdio, "stdio", false, "serve MCP over stdio instead of HTTP")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringSliceVar(&keyFiles, "keys", nil, "API key file(s); earlier files win on collision")
	return cmd
}

func scanCmd(logger *logging.AppLogger) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scan <project-path>",
		Short: "Scan a project for AI framework usage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(logger)
			if err != nil {
				return err
			}

			res, err := checker.New(cfg, logger).ScanProject(args[0])
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(res)
			}

			fmt.Printf("Scanned %d files under %s\n", res.FilesScanned, res.ProjectPath)
			if len(res.AIFiles) == 0 {
				fmt.Println("No AI framework usage detected")
				return nil
			}
			fmt.Printf("AI usage detected in %d file(s):\n", len(res.AIFiles))
			for _, f := range res.AIFiles {
				fmt.Printf("  %s  [%s]\n", f.File, strings.Join(f.Categories, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw JSON result")
	return cmd
}

func checkCmd(logger *logging.AppLogger) *cobra.Command {
	var (
		category string
		asJSON   bool
		report   bool
	)

	cmd := &cobra.Command{
		Use:   "check <project-path>",
		Short: "Evaluate a project against a compliance checklist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(logger)
			if err != nil {
				return err
			}
			chk := checker.New(cfg, logger)

			if report {
				rep, err := chk.GenerateReport(args[0], category)
				if err != nil {
					return err
				}
				return printJSON(rep)
			}

			res, err := chk.CheckCompliance(args[0], category)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(res)
			}

			fmt.Printf("%s (%s)\n", res.Description, res.Category)
			fmt.Printf("Score: %s (%.1f%%)\n", res.Score, res.Percentage)
			for item, ok := range res.Status {
				mark := "FAIL"
				if ok {
					mark = "ok"
				}
				fmt.Printf("  [%-4s] %s\n", mark, item)
			}
			for item, note := range res.Notes {
				fmt.Printf("  note: %s: %s\n", item, note)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "minimal", "risk tier or processing role to evaluate")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw JSON result")
	cmd.Flags().BoolVar(&report, "report", false, "print a full timestamped report (implies --json)")
	return cmd
}

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List valid compliance categories",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("EU AI Act risk tiers:")
			for _, c := range compliance.RiskTiers() {
				info, _ := compliance.Lookup(c)
				fmt.Printf("  %-20s %s\n", c, info.Description)
			}
			fmt.Println("GDPR processing roles:")
			for _, c := range compliance.ProcessingRoles() {
				info, _ := compliance.Lookup(c)
				fmt.Printf("  %-20s %s\n", c, info.Description)
			}
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// MandiPulse serves agricultural market insights over HTTP and from the
// command line.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"MandiPulse/internal/di"
	"MandiPulse/internal/usecase"
	"MandiPulse/pkg/config"
)

var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "mandipulse",
	Short:         "Market intelligence for agricultural commodities",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		path, err := configPath(path)
		if err != nil {
			return err
		}
		cfg, err = config.LoadWithEnv(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "config/config.yaml", "config file path")

	insightsCmd.Flags().String("state", "", "state filter")
	insightsCmd.Flags().String("district", "", "district filter")
	insightsCmd.Flags().String("market", "", "market filter")
	insightsCmd.Flags().String("season", "", "season filter (summer, rainy, winter, spring)")

	chartCmd.Flags().Int("days", 30, "window length in days")
	chartCmd.Flags().String("state", "", "state filter")
	chartCmd.Flags().String("district", "", "district filter")
	chartCmd.Flags().String("market", "", "market filter")

	liveCmd.Flags().String("source", usecase.LiveSourceAPI, "api or local")

	rootCmd.AddCommand(serveCmd, insightsCmd, chartCmd, liveCmd, seasonalCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cleanup, err := di.InitializeApp(cfg)
		if err != nil {
			return fmt.Errorf("app initialization failed: %w", err)
		}
		defer cleanup()
		return app.Run(cmd.Context())
	},
}

var insightsCmd = &cobra.Command{
	Use:   "insights <crop>",
	Short: "Trend, stability and forecast for one crop",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, _ := cmd.Flags().GetString("state")
		district, _ := cmd.Flags().GetString("district")
		market, _ := cmd.Flags().GetString("market")
		season, _ := cmd.Flags().GetString("season")
		return withEngine(cmd.Context(), func(ctx context.Context, eng *di.Engine) (any, error) {
			return eng.Insights.GetInsights(ctx, usecase.InsightParams{
				Crop:     args[0],
				State:    state,
				District: district,
				Market:   market,
				Season:   season,
			})
		})
	},
}

var chartCmd = &cobra.Command{
	Use:   "chart <commodity>",
	Short: "Daily price series and per-market comparison",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		state, _ := cmd.Flags().GetString("state")
		district, _ := cmd.Flags().GetString("district")
		market, _ := cmd.Flags().GetString("market")
		return withEngine(cmd.Context(), func(ctx context.Context, eng *di.Engine) (any, error) {
			return eng.Prices.History(ctx, usecase.HistoryParams{
				Commodity: args[0],
				State:     state,
				District:  district,
				Market:    market,
				Days:      days,
			})
		})
	},
}

var liveCmd = &cobra.Command{
	Use:   "live <commodity>",
	Short: "Fetch current prices from the live feeds",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _ := cmd.Flags().GetString("source")
		return withEngine(cmd.Context(), func(ctx context.Context, eng *di.Engine) (any, error) {
			return eng.Prices.Live(ctx, usecase.LiveParams{Commodity: args[0], Source: source})
		})
	},
}

var seasonalCmd = &cobra.Command{
	Use:   "seasonal <season>",
	Short: "Top commodities traded in a season",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd.Context(), func(ctx context.Context, eng *di.Engine) (any, error) {
			return eng.Prices.Seasonal(ctx, args[0])
		})
	},
}

// configPath returns "" for a missing file so that defaults and environment
// apply. Any other stat failure is reported.
func configPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("config %s: %w", path, err)
	}
	return path, nil
}

func withEngine(ctx context.Context, fn func(context.Context, *di.Engine) (any, error)) error {
	// stdout carries the JSON result
	if cfg.Log.Output == "stdout" {
		cfg.Log.Output = "stderr"
	}
	eng, cleanup, err := di.InitializeEngine(cfg)
	if err != nil {
		return fmt.Errorf("engine initialization failed: %w", err)
	}
	defer cleanup()

	out, err := fn(ctx, eng)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

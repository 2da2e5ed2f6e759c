package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"eco-route-engine/internal/adapters/route"
	"eco-route-engine/internal/api/dto"
	"eco-route-engine/internal/config"
	"eco-route-engine/internal/domain"
	"eco-route-engine/internal/services"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// routecli runs the optimization engine from the shell, without the HTTP
// server, for manual exercise and smoke checks against the live oracle.
func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "routecli",
		Short:         "Run the eco-route optimization engine from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "config file path")

	root.AddCommand(optimizeCmd(&configPath))
	root.AddCommand(geocodeCmd(&configPath))

	return root
}

func optimizeCmd(configPath *string) *cobra.Command {
	var (
		origin      string
		destination string
		stops       []string
		startTime   string
	)

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Optimize a delivery run and print the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, cfg, err := buildProvider(*configPath)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Engine.RequestTimeout)
			defer cancel()

			resolve := func(address string) (domain.Waypoint, error) {
				coords, err := provider.Geocode(ctx, address)
				if err != nil {
					return domain.Waypoint{}, fmt.Errorf("resolve %q: %w", address, err)
				}
				return domain.Waypoint{Address: address, Coords: coords}, nil
			}

			req := domain.RouteRequest{}
			if req.Origin, err = resolve(origin); err != nil {
				return err
			}
			if req.Destination, err = resolve(destination); err != nil {
				return err
			}
			for _, s := range stops {
				wp, err := resolve(s)
				if err != nil {
					return err
				}
				req.Stops = append(req.Stops, wp)
			}

			if req.StartTime, err = time.Parse("15:04", startTime); err != nil {
				return fmt.Errorf("start time must be HH:MM, got %q", startTime)
			}

			engine := services.NewEngine(provider, services.EngineConfig{
				EmissionFactor: cfg.Engine.EmissionFactor,
				LegConcurrency: cfg.Engine.LegConcurrency,
				FastestWeight:  cfg.Engine.FastestWeight,
				EcoWeight:      cfg.Engine.EcoWeight,
			})

			result, err := engine.Optimize(ctx, req)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(dto.FromResult(result))
		},
	}

	cmd.Flags().StringVar(&origin, "origin", "", "origin address")
	cmd.Flags().StringVar(&destination, "destination", "", "destination address")
	cmd.Flags().StringArrayVar(&stops, "stop", nil, "intermediate stop address (repeatable, max 5)")
	cmd.Flags().StringVar(&startTime, "start", "09:00", "start time (HH:MM)")
	_ = cmd.MarkFlagRequired("origin")
	_ = cmd.MarkFlagRequired("destination")

	return cmd
}

func geocodeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "geocode <address>",
		Short: "Resolve an address to coordinates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, cfg, err := buildProvider(*configPath)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Engine.RequestTimeout)
			defer cancel()

			coords, err := provider.Geocode(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%.5f, %.5f\n", coords.Lat, coords.Lon)
			return nil
		},
	}
}

// buildProvider loads config and constructs an oracle client. The CLI skips
// the persistent geocode cache: one-shot runs do not warrant a database.
func buildProvider(configPath string) (*route.ORSRouteProvider, *config.Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found (using environment variables)")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if cfg.ORS.APIKey == "" {
		cfg.ORS.APIKey = os.Getenv("ORS_API_KEY")
	}

	provider, err := route.NewORSRouteProvider(route.Options{
		APIKey:      cfg.ORS.APIKey,
		BaseURL:     cfg.ORS.BaseURL,
		Profile:     cfg.ORS.Profile,
		Timeout:     cfg.ORS.Timeout,
		MaxAttempts: cfg.ORS.MaxAttempts,
	})
	if err != nil {
		return nil, nil, err
	}

	return provider, cfg, nil
}

package cmd

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/charterbots/internal/browser"
	"github.com/xkilldash9x/charterbots/internal/config"
	"github.com/xkilldash9x/charterbots/internal/humanoid"
	"github.com/xkilldash9x/charterbots/internal/observability"
	"github.com/xkilldash9x/charterbots/internal/persona"
	"github.com/xkilldash9x/charterbots/internal/session"
	"github.com/xkilldash9x/charterbots/internal/telemetry"
)

const shutdownTimeout = 15 * time.Second

// launcherFactory starts the browser backend for a run. The returned shutdown
// func is called once every session has finished.
type launcherFactory func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (session.Launcher, func(context.Context) error, error)

func defaultLauncherFactory(ctx context.Context, cfg *config.Config, logger *zap.Logger) (session.Launcher, func(context.Context) error, error) {
	mgr, err := browser.NewManager(ctx, logger, cfg.Browser)
	if err != nil {
		return nil, nil, err
	}
	launcher := session.LauncherFunc(func(ctx context.Context) (session.Browser, error) {
		s, err := mgr.NewSession(ctx)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
	return launcher, mgr.Shutdown, nil
}

func newRunCmd(launch launcherFactory) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one journey per persona against the target application",
		Long: `Run launches a browser, then drives one journey for each selected persona.
Without --persona every registered persona runs. Sessions run concurrently up to
journeys.concurrency, and one failing session never stops the others.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := configFrom(ctx)
			if err != nil {
				return err
			}
			if err := applyRunFlags(cmd, cfg); err != nil {
				return err
			}

			reg, err := persona.Load(cfg)
			if err != nil {
				return err
			}
			names, _ := cmd.Flags().GetStringSlice("persona")
			personas, err := selectPersonas(reg, names)
			if err != nil {
				return err
			}

			logger.Info("Starting run",
				zap.String("base_url", cfg.Browser.BaseURL),
				zap.Int("personas", len(personas)),
				zap.Int("concurrency", cfg.Journeys.Concurrency),
				zap.Bool("telemetry", cfg.Telemetry.Enabled()),
			)

			launcher, shutdown, err := launch(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to start browser: %w", err)
			}
			sink := telemetry.New(cfg.Telemetry, cfg.Browser.IgnoreTLSErrors, logger)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := sink.Close(shutdownCtx); err != nil {
					logger.Warn("Error while flushing telemetry", zap.Error(err))
				}
				if err := shutdown(shutdownCtx); err != nil {
					logger.Warn("Error during browser manager shutdown", zap.Error(err))
				}
			}()

			runner := session.NewRunner(launcher, sink, logger,
				session.WithRoutes(cfg.Journeys.Routes),
				session.WithSessionTimeout(cfg.Journeys.SessionTimeout),
				session.WithHumanoidConfig(humanoid.ConfigFrom(cfg.Humanoid)),
				session.WithFallbackTimezone(cfg.Browser.Fingerprint().Timezone),
			)
			summary, err := session.NewFleet(runner, cfg.Journeys.Concurrency, logger).RunAll(ctx, personas)
			if err != nil {
				return err
			}

			if err := printSummary(cmd, summary); err != nil {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return summary.Err()
		},
	}

	runCmd.Flags().StringSliceP("persona", "p", nil, "Persona names to run, comma separated (default: all)")
	runCmd.Flags().String("base-url", "", "Target application URL. (Overrides config/env)")
	runCmd.Flags().Bool("headless", true, "Run the browser without a window. (Overrides config/env)")
	runCmd.Flags().IntP("concurrency", "j", 0, "Number of concurrent sessions. (Overrides config/env)")
	return runCmd
}

// applyRunFlags layers explicitly set flags over the loaded configuration.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		u, _ := flags.GetString("base-url")
		cfg.Browser.BaseURL = strings.TrimRight(u, "/")
	}
	if flags.Changed("headless") {
		cfg.Browser.Headless, _ = flags.GetBool("headless")
	}
	if flags.Changed("concurrency") {
		cfg.Journeys.Concurrency, _ = flags.GetInt("concurrency")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

// selectPersonas resolves names against the registry. No names selects everyone.
func selectPersonas(reg *persona.Registry, names []string) ([]persona.Persona, error) {
	if len(names) == 0 {
		return reg.All(), nil
	}
	seen := make(map[string]bool, len(names))
	out := make([]persona.Persona, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		p, err := reg.Lookup(n)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func printSummary(cmd *cobra.Command, sum session.Summary) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PERSONA\tJOURNEY\tSTATUS\tDURATION\tSESSION")
	for _, r := range sum.Results {
		status := "ok"
		if !r.OK() {
			status = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Persona, r.Journey, status, r.Duration.Round(time.Millisecond), r.SessionID)
	}
	fmt.Fprintf(w, "\n%d succeeded, %d failed in %s\n", sum.Succeeded, sum.Failed, sum.Elapsed.Round(time.Millisecond))
	return w.Flush()
}

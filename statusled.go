package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"lautenbacher.net/statusled/config"
	"lautenbacher.net/statusled/effect"
	"lautenbacher.net/statusled/logging"
	pl "lautenbacher.net/statusled/platform"
	"lautenbacher.net/statusled/status"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfile string
	root := &cobra.Command{
		Use:           "statusled",
		Short:         "Drive an RGB status light from device health and connectivity",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfile, "config", "c", config.CONFILE, "Path to configuration file")

	root.AddCommand(newRunCmd(&cfile), newValidateCmd(&cfile), newStatesCmd())
	return root
}

func newRunCmd(cfile *string) *cobra.Command {
	var platformName string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the control loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig(*cfile)
			if err != nil {
				return err
			}
			if platformName != "" {
				conf.Hardware.Platform = platformName
				if err := conf.Validate(); err != nil {
					return err
				}
			}
			return run(cmd.Context(), *cfile, conf)
		},
	}
	cmd.Flags().StringVarP(&platformName, "platform", "p", "", "Override Hardware.Platform (rpi, tui, headless)")
	return cmd
}

// loadConfig reads cfile, falling back to the defaults when it does not
// exist.
func loadConfig(cfile string) (*config.Config, error) {
	if _, err := os.Stat(cfile); os.IsNotExist(err) {
		slog.Warn("Config file not found, using defaults", "file", cfile)
		return config.Default(), nil
	}
	return config.ReadConfig(cfile)
}

func run(ctx context.Context, cfile string, conf *config.Config) error {
	tui := conf.Hardware.Platform == config.PlatformTUI
	logConf := conf.Logging.HW
	if tui {
		logConf = conf.Logging.TUI
	}
	if err := logging.Init(tui, logging.Options{Level: logConf.Level, Format: logConf.Format, File: logConf.File}); err != nil {
		return fmt.Errorf("can't initialise logging: %w", err)
	}
	defer logging.Close()

	ossignal := make(chan os.Signal, 4)
	signal.Notify(ossignal, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(ossignal)

	if _, err := os.Stat(cfile); err != nil {
		cfile = ""
	}
	app := NewApp(cfile, conf, status.NewMonotonicClock(), ossignal)
	if err := app.Start(pl.New); err != nil {
		slog.Error("Startup failed", "error", err)
		return err
	}
	defer app.Stop()

	<-app.platform.Ready()
	slog.Info("Status light running", "platform", conf.Hardware.Platform, "config", cfile)
	return app.Run(ctx)
}

func newValidateCmd(cfile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration file and print the resulting table",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.ReadConfig(*cfile)
			if err != nil {
				return err
			}
			printTable(cmd.OutOrStdout(), conf)
			return nil
		},
	}
}

func newStatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "states [state...]",
		Short: "List states in priority order, highest first",
		Long:  "Without arguments all states are listed. Named states are matched case insensitive.",
		RunE: func(cmd *cobra.Command, args []string) error {
			states := status.States()
			if len(args) > 0 {
				states = states[:0]
				for _, name := range args {
					st, err := status.ParseState(name)
					if err != nil {
						return err
					}
					states = append(states, st)
				}
				slices.Sort(states)
			}
			for i := len(states) - 1; i >= 0; i-- {
				fmt.Fprintf(cmd.OutOrStdout(), "%2d %s\n", int(states[i]), states[i])
			}
			return nil
		},
	}
}

func printTable(w io.Writer, conf *config.Config) {
	table := conf.Table()
	settings := conf.Settings()
	fmt.Fprintf(w, "brightness %.2f, priority %s, idle display %t, tick %v\n",
		settings.Brightness, settings.Resolver.Policy, settings.Resolver.IdleEnabled, conf.TickInterval)
	for _, state := range status.States() {
		d := table.Lookup(state)
		if !d.Enabled {
			fmt.Fprintf(w, "%-22s off\n", state)
			continue
		}
		fmt.Fprintf(w, "%-22s %-5s %s", state, d.Kind, d.Color)
		if d.HasBrightness {
			fmt.Fprintf(w, " brightness %.2f", d.Brightness)
		}
		if d.Kind == effect.Blink && d.Period > 0 {
			fmt.Fprintf(w, " period %dms on %dms", d.Period, d.OnTime)
		}
		fmt.Fprintln(w)
	}
}

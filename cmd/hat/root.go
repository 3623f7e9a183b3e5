package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/sortinghat/pkg/api"
	"github.com/vanderheijden86/sortinghat/pkg/config"
	"github.com/vanderheijden86/sortinghat/pkg/debug"
	"github.com/vanderheijden86/sortinghat/pkg/metrics"
	"github.com/vanderheijden86/sortinghat/pkg/ui"
	"github.com/vanderheijden86/sortinghat/pkg/watcher"
)

// app carries the resolved configuration and global flags to every
// subcommand.
type app struct {
	out    io.Writer
	errOut io.Writer

	cfg     config.Config
	cfgPath string

	configFlag  string
	apiURL      string
	jsonOut     bool
	debugOn     bool
	timings     bool
	metricsAddr string

	client *api.Client
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "hat",
		Short:         "Browse the product taxonomy and classify product URLs",
		Long:          "hat is a terminal client for the sorting hat classification service.\nRun without a subcommand to open the interactive browser.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.timings {
				printTimings(a.errOut, metrics.AllTimingStats())
			}
			debug.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFlag, "config", "", "Path to config.yaml (default $XDG_CONFIG_HOME/sortinghat/config.yaml)")
	pf.StringVar(&a.apiURL, "api-url", "", "Backend base URL (overrides config and "+config.EnvAPIURL+")")
	pf.BoolVar(&a.jsonOut, "json", false, "Print machine-readable JSON")
	pf.BoolVar(&a.debugOn, "debug", false, "Write debug logs to the log file")
	pf.BoolVar(&a.timings, "timings", false, "Print request timings to stderr on exit")
	pf.StringVar(&a.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	root.AddCommand(
		a.newTreeCmd(),
		a.newSearchCmd(),
		a.newNodeCmd(),
		a.newGroupsCmd(),
		a.newCheckCmd(),
		a.newClassifyCmd(),
		a.newHistoryCmd(),
		a.newStatsCmd(),
		newVersionCmd(out),
	)
	return root
}

// setup resolves configuration in order: file, environment, flags.
func (a *app) setup(cmd *cobra.Command) error {
	a.cfgPath = a.configFlag
	if a.cfgPath == "" {
		a.cfgPath = config.ConfigPath()
	}

	cfg, err := config.LoadFrom(a.cfgPath)
	if err != nil {
		return err
	}
	cfg.ApplyEnv()
	if a.apiURL != "" {
		cfg.API.BaseURL = a.apiURL
	}
	a.cfg = cfg

	if a.debugOn {
		debug.SetEnabled(true)
	}
	if debug.Enabled() {
		debug.Init(debug.Options{File: cfg.LogPath(), Level: cfg.Log.Level})
		debug.Section(cmd.CommandPath())
		debug.With("config", "path", a.cfgPath, "base_url", cfg.API.BaseURL)
	}

	if a.metricsAddr != "" {
		go func() {
			if err := metrics.Serve(cmd.Context(), a.metricsAddr); err != nil {
				debug.Warn("metrics server: %v", err)
				fmt.Fprintf(a.errOut, "metrics server: %v\n", err)
			}
		}()
	}

	a.client = api.New(cfg.API.BaseURL, api.WithTimeout(cfg.API.Timeout))
	return nil
}

// runTUI launches the interactive browser and live-reloads UI settings
// from the config file.
func (a *app) runTUI(ctx context.Context) error {
	var w *watcher.Watcher
	if a.cfgPath != "" {
		var err error
		w, err = watcher.New(a.cfgPath)
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			debug.Warn("config watcher disabled: %v", err)
			w = nil
		} else {
			defer w.Stop()
		}
	}

	m := ui.NewModel(a.client, ui.Options{
		Config:     a.cfg,
		ConfigPath: a.cfgPath,
		Watcher:    w,
		Context:    ctx,
	})
	return runTUIProgram(ctx, m)
}

func runTUIProgram(ctx context.Context, m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown when the context is cancelled (SIGINT/SIGTERM).
	go func() {
		select {
		case <-runDone:
			return
		case <-ctx.Done():
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	_, err := p.Run()
	if err != nil && (errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted)) {
		return nil
	}
	return err
}

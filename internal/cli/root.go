package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"lookahead/internal/autocomplete"
	"lookahead/internal/config"
	"lookahead/internal/domain"
	"lookahead/internal/eventbus"
	"lookahead/internal/lookup"
	"lookahead/internal/ui"
)

// E2EEnv switches the TUI into end-to-end test mode when set to "1"
const E2EEnv = "LOOKAHEAD_E2E_TEST"

// options holds the persistent flags shared by every command
type options struct {
	configPath string
	debounce   int
	latency    int
	logFile    string
	logLevel   string

	logOut io.Closer
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "lookahead",
		Short: "Search-as-you-type lookup with infinite scroll",
		Long: `lookahead is a terminal search box. Results for the typed prefix are
loaded a page at a time as you scroll through them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			return opts.setupLogging()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logOut != nil {
				log.SetOutput(os.Stderr)
				_ = opts.logOut.Close()
				opts.logOut = nil
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default is "+config.DefaultPath()+")")
	flags.IntVar(&opts.debounce, "debounce", int(autocomplete.DefaultDebounce/time.Millisecond), "quiet period in milliseconds before a search starts")
	flags.IntVar(&opts.latency, "latency", 0, "simulated backend latency in milliseconds")
	flags.StringVar(&opts.logFile, "log-file", "lookahead.log", "log file, empty logs to stderr")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	return cmd
}

// Execute runs the root command and exits non-zero on error
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging points logrus at the log file. The TUI owns the terminal, so
// stderr is only used when the file cannot be opened.
func (o *options) setupLogging() error {
	level, err := log.ParseLevel(o.logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)

	if o.logFile == "" {
		log.SetOutput(os.Stderr)
		return nil
	}
	f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.SetOutput(os.Stderr)
		log.WithError(err).Warn("Could not open log file")
		return nil
	}
	log.SetOutput(f)
	o.logOut = f
	return nil
}

// loadConfig reads the config file with env and flag overrides applied
func (o *options) loadConfig(cmd *cobra.Command, bus eventbus.EventBus) (config.ConfigService, *config.Config, error) {
	svc := config.NewConfigServiceWithBus(o.configPath, bus)
	if err := svc.BindFlags(cmd.Flags()); err != nil {
		return nil, nil, err
	}
	cfg, err := svc.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return svc, cfg, nil
}

func newSource(cfg *config.Config) *lookup.MemorySource {
	source := lookup.NewMemorySource(lookup.MockLookups(),
		lookup.WithLatency(time.Duration(cfg.Backend.LatencyMS)*time.Millisecond))
	log.WithFields(log.Fields{
		"records":    source.Len(),
		"latency_ms": cfg.Backend.LatencyMS,
	}).Debug("Mock backend ready")
	return source
}

func runTUI(cmd *cobra.Command, opts *options) error {
	bus := eventbus.New()
	defer bus.Close()

	svc, cfg, err := opts.loadConfig(cmd, bus)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pipeline := autocomplete.New(newSource(cfg),
		autocomplete.WithDebounce(time.Duration(cfg.Search.DebounceMS)*time.Millisecond),
		autocomplete.WithBus(bus),
	)

	e2e := os.Getenv(E2EEnv) == "1"
	model := ui.NewModel(bus, cfg, pipeline, ui.Options{E2E: e2e})

	programOpts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithMouseCellMotion()}
	if !e2e {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	p := tea.NewProgram(model, programOpts...)
	model.SetProgram(p)

	selection, unsubscribe := subscribeUI(bus, p.Send)
	defer unsubscribe()

	log.WithField("config", svc.Path()).Info("Starting UI")
	pipeline.Start(ctx)

	var g errgroup.Group
	g.Go(func() error {
		for r := range pipeline.Results() {
			p.Send(ui.ResultsMsg{Results: r})
		}
		return nil
	})
	g.Go(func() error {
		defer pipeline.Close()
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("error running program: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("UI exited normally")

	if cfg.UISettings.AutosaveOnExit {
		saveSelection(svc, selection.Last())
	}
	return nil
}

// saveSelection stores sel as the next initial value. Only the file is read
// back, so flag and environment overrides of this run are not written.
func saveSelection(svc config.ConfigService, sel *domain.Lookup) {
	if sel == nil {
		return
	}
	cfg, err := svc.ReadFile()
	if err != nil {
		log.WithError(err).Warn("Not saving selection")
		return
	}
	if cfg.Selection == *sel {
		return
	}
	cfg.Selection = *sel
	if err := svc.Save(cfg); err != nil {
		log.WithError(err).Error("Failed to save config")
		return
	}
	log.WithField("path", svc.Path()).Info("Selection saved")
}

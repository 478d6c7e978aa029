package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/atinylittleshell/gep/internal/core"
	"github.com/atinylittleshell/gep/internal/gdb"
	"github.com/atinylittleshell/gep/internal/picker"
	"github.com/atinylittleshell/gep/internal/repl"
	"github.com/atinylittleshell/gep/internal/repl/config"
	"github.com/atinylittleshell/gep/internal/repl/input"
	"github.com/atinylittleshell/gep/internal/styles"
)

var BUILD_VERSION = "dev"

type rootOptions struct {
	gdbPath    string
	configPath string
	version    bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styles.ERROR("gep: "+err.Error()))

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "gep [flags] [-- gdb-args...]",
		Short: "GDB Enhanced Prompt",
		Long: `gep - GDB Enhanced Prompt
  - Ctrl+R fuzzy searches command history
  - Tab fuzzy completes commands with help in a preview pane
  - Enter on an empty line repeats the last command

Arguments are passed to gdb unchanged.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.version {
				fmt.Fprintln(cmd.OutOrStdout(), BUILD_VERSION)
				return nil
			}
			return run(cmd.Context(), opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.gdbPath, "gdb", "gdb", "debugger binary to run")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "config file (default ~/.gep/config.yaml)")
	cmd.Flags().BoolVar(&opts.version, "version", false, "display build version")

	return cmd
}

func run(ctx context.Context, opts *rootOptions, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Without a terminal there is nothing to enhance; hand stdin to the
	// debugger as is.
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return runPlainDebugger(ctx, opts.gdbPath, args)
	}

	configPath := opts.configPath
	if configPath == "" {
		configPath = core.ConfigFile()
	}
	cfg, configErrors, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := initializeLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("-------- new gep session --------", zap.Any("args", os.Args))
	for _, configErr := range configErrors {
		logger.Warn("config error", zap.String("path", configPath), zap.Error(configErr))
		fmt.Fprintln(os.Stderr, styles.WARNING(fmt.Sprintf("%s: %v", configPath, configErr)))
	}

	finder := initializeFinder(cfg, os.Stderr, logger)

	client, err := gdb.Start(ctx, gdb.Config{
		Path:   opts.gdbPath,
		Args:   args,
		Output: os.Stdout,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	host, err := gdb.NewHost(ctx, client, logger)
	if err != nil {
		return err
	}
	if err := host.AttachTerminal(ctx); err != nil {
		logger.Warn("failed to attach inferior terminal", zap.Error(err))
	}

	debuggerVersion := ""
	if v := host.Version(); v != nil {
		debuggerVersion = v.String()
	}

	r, err := repl.NewREPL(ctx, repl.Options{
		Host:            host,
		Config:          cfg,
		Finder:          finder,
		BuildVersion:    BUILD_VERSION,
		DebuggerVersion: debuggerVersion,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer r.Close()

	return r.Run(ctx)
}

// loadConfig reads the config file. Problems inside the file are returned
// separately so the session can start with defaults.
func loadConfig(path string) (*config.Config, []error, error) {
	result, err := config.NewLoader(zap.NewNop()).LoadFromFile(path)
	if err != nil {
		return nil, nil, err
	}
	return result.Config, result.Errors, nil
}

func initializeLogger(cfg *config.Config) (*zap.Logger, error) {
	loggerConfig := newLoggerConfig(cfg, BUILD_VERSION)
	loggerConfig.OutputPaths = []string{
		core.LogFile(),
	}

	// Logs only go to file to avoid interfering with the line editor.
	// Use `tail -f ~/.gep/gep.log` to monitor logs in real-time.
	return loggerConfig.Build()
}

func newLoggerConfig(cfg *config.Config, version string) zap.Config {
	logLevel, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		logLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	if version == "dev" {
		logLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = logLevel
	return loggerConfig
}

// initializeFinder resolves the fuzzy finder, or returns nil to use the
// built-in completion menu and history search.
func initializeFinder(cfg *config.Config, stderr io.Writer, logger *zap.Logger) input.Finder {
	p, err := picker.New(picker.Config{
		Command:       cfg.Picker.Command,
		Height:        cfg.Picker.Height,
		PreviewWindow: cfg.Picker.PreviewWindow,
		Stderr:        stderr,
		Logger:        logger,
	})
	if err != nil {
		logger.Warn("fuzzy finder unavailable", zap.Error(err))
		if errors.Is(err, picker.ErrNotInstalled) {
			fmt.Fprintln(stderr, styles.WARNING("fzf not found; using built-in completion and history search"))
		} else {
			fmt.Fprintln(stderr, styles.WARNING(err.Error()))
		}
		return nil
	}
	return p
}

// runPlainDebugger runs the debugger attached directly to the standard
// streams.
func runPlainDebugger(ctx context.Context, gdbPath string, args []string) error {
	cmd := exec.CommandContext(ctx, gdbPath, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

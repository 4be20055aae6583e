// Command sumsplit generates flattened slot containers for sum types.
//
//	//go:generate go run github.com/reoring/sumsplit/cmd/sumsplit generate . -t Msg
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reoring/sumsplit/codegen"
	"github.com/reoring/sumsplit/i18n"
	"github.com/reoring/sumsplit/internal/config"
	"github.com/reoring/sumsplit/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	a := &app{}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		printError(stderr, err, colorEnabled(stderr))
		return 1
	}
	return 0
}

// app holds the state shared by the subcommands.
type app struct {
	configPath string
	verbose    bool
	lang       string

	cfg    *config.Config
	logger *zap.Logger
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sumsplit",
		Short: "Flatten sum types into positional slot containers",
		Long: `sumsplit generates, for each sum type (a sealed Go interface, a YAML/JSON
description or a WIT variant), three flat containers with one slot per field
of every variant, plus the split functions that fill them.

Slot order is variant declaration order, then field order, so the layout is
stable as long as the sum type is.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", config.FileName, "configuration file")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&a.lang, "lang", "", "diagnostics language (en, ja)")

	root.AddCommand(
		a.generateCmd(),
		a.describeCmd(),
		a.witCmd(),
		a.layoutCmd(),
		a.watchCmd(),
	)
	return root
}

// setup loads the configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.lang != "" {
		cfg.Lang = a.lang
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config %s: %w", a.configPath, err)
	}
	i18n.SetLanguage(cfg.Lang)

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, colorEnabled(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) generator() *codegen.Generator {
	opt := a.cfg.CodegenOptions()
	opt.Logger = a.logger
	return codegen.New(opt)
}

// colorEnabled reports whether w is a terminal that should get ANSI colours.
func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reoring/sumsplit/codegen"
	"github.com/reoring/sumsplit/internal/watch"
	"github.com/reoring/sumsplit/witimport"
)

func (a *app) generateCmd() *cobra.Command {
	var types []string
	var out string
	cmd := &cobra.Command{
		Use:     "generate [dir...]",
		Aliases: []string{"compile"},
		Short:   "Generate split code for sealed interfaces in Go packages",
		Long: `Generate reads the Go package in each directory (default ".") and renders
the containers and split functions of the named sum types, or of every type
tagged //sumsplit:split when -t is omitted. The result is written to
<package>_split.go in the same directory unless -o is given.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs := args
			if len(dirs) == 0 {
				dirs = []string{"."}
			}
			if out != "" && len(dirs) > 1 {
				return errors.New("-o cannot be combined with several directories")
			}
			reqs := make([]codegen.Request, len(dirs))
			for i, d := range dirs {
				reqs[i] = codegen.Request{Dir: d, Types: types}
			}
			outs, err := a.generator().Generate(cmd.Context(), reqs...)
			if err != nil {
				return err
			}
			for _, o := range outs {
				if err := a.emit(cmd, o, out); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&types, "type", "t", nil, "comma-separated sum type names")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (- for stdout)")
	return cmd
}

func (a *app) describeCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "describe <doc.yaml|doc.json>",
		Short: "Generate sum types and split code from a structural description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := a.generator().FromDocumentFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.emit(cmd, o, out)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (- for stdout)")
	return cmd
}

func (a *app) witCmd() *cobra.Command {
	var opt witimport.Options
	var out string
	cmd := &cobra.Command{
		Use:   "wit <resolve.json>",
		Short: "Generate sum types and split code from WIT variants and enums",
		Long: `Wit reads the JSON form of a resolved WIT package, as printed by
"wasm-tools component wit --json", and generates a sum type for every variant
and enum typedef, or for the ones named with -t.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := a.generator().FromWIT(cmd.Context(), args[0], opt)
			if err != nil {
				return err
			}
			return a.emit(cmd, o, out)
		},
	}
	cmd.Flags().StringSliceVarP(&opt.Types, "type", "t", nil, "WIT or Go type names to import")
	cmd.Flags().StringVar(&opt.Package, "package", "", "Go package name of the output")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (- for stdout)")
	return cmd
}

func (a *app) layoutCmd() *cobra.Command {
	var types []string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "layout [dir]",
		Short: "Print the slot layout of sum types",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			ms, err := a.generator().Manifests(cmd.Context(), dir, types)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if asJSON {
				data, err := json.MarshalIndent(ms, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(w, "%s\n", data)
				return err
			}
			for i, m := range ms {
				if i > 0 {
					fmt.Fprintln(w)
				}
				printManifest(cmd, m)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&types, "type", "t", nil, "comma-separated sum type names")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printManifest(cmd *cobra.Command, m codegen.Manifest) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s.%s: %d slots\n", m.Package, m.Type, m.N)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  VARIANT\tSHAPE\tRANGE\tFIELDS")
	for _, v := range m.Variants {
		fmt.Fprintf(tw, "  %s\t%s\t[%d, %d)\t%s\n", v.Name, v.Shape, v.Range.Offset, v.Range.End(), strings.Join(v.Fields, ", "))
	}
	fmt.Fprintln(tw, "  SLOT\tNAME\tVARIANT\tTYPE")
	for _, s := range m.Slots {
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\n", s.Index, s.Name, s.Variant, s.Type)
	}
	tw.Flush()
}

func (a *app) watchCmd() *cobra.Command {
	var types []string
	cmd := &cobra.Command{
		Use:   "watch [dir...]",
		Short: "Regenerate split code whenever package sources change",
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs := args
			if len(dirs) == 0 {
				dirs = []string{"."}
			}
			for i, d := range dirs {
				abs, err := filepath.Abs(d)
				if err != nil {
					return err
				}
				dirs[i] = abs
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			g := a.generator()
			regen := func(ctx context.Context, dir string) error {
				o, err := g.FromDir(ctx, dir, types)
				if err != nil {
					printError(cmd.ErrOrStderr(), err, colorEnabled(cmd.ErrOrStderr()))
					return err
				}
				return a.emit(cmd, o, "")
			}
			for _, d := range dirs {
				_ = regen(ctx, d)
			}
			w := watch.New(dirs, regen,
				watch.WithLogger(a.logger),
				watch.WithIgnoredSuffix(a.cfg.Output.FileSuffix))
			return w.Run(ctx)
		},
	}
	cmd.Flags().StringSliceVarP(&types, "type", "t", nil, "comma-separated sum type names")
	return cmd
}

// emit writes o to path, to o.Path when path is empty, or to stdout for "-".
func (a *app) emit(cmd *cobra.Command, o *codegen.Output, path string) error {
	if path == "-" {
		_, err := cmd.OutOrStdout().Write(o.Source)
		return err
	}
	if path == "" {
		path = o.Path
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	wrote, err := o.WriteTo(path)
	if err != nil {
		return err
	}
	if wrote {
		a.logger.Info("wrote", zap.String("file", path))
	} else {
		a.logger.Debug("unchanged", zap.String("file", path))
	}
	return nil
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/gogpu/compute"
	"github.com/gogpu/compute/demo"
)

// blur: blur an image with the separable filter.
func blurCmd() *cobra.Command {
	var (
		input, output, comparison string
		kind                      string
		radius                    float64
		iterations                int
		watch                     bool
	)
	cmd := &cobra.Command{
		Use:   "blur",
		Short: "Blur an image on the CPU and with the compute path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("input") {
				cfg.Blur.Input = input
			}
			if flags.Changed("output") {
				cfg.Blur.Output = output
			}
			if flags.Changed("comparison") {
				cfg.Blur.Comparison = comparison
			}
			if flags.Changed("kind") {
				cfg.Blur.Kind = kind
			}
			if flags.Changed("radius") {
				cfg.Blur.Radius = radius
			}
			if flags.Changed("iterations") {
				cfg.Blur.Iterations = iterations
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if watch {
				if err := checkWatchPaths(cfg.Blur.Input, cfg.Blur.Output, cfg.Blur.Comparison); err != nil {
					return err
				}
			}
			bo := cfg.BlurOptions()

			d := demo.NewBlur(cmd.OutOrStdout())
			run := func() error {
				rep, err := d.Run(cmd.Context(), demo.BlurConfig{
					Input:        cfg.Blur.Input,
					Output:       cfg.Blur.Output,
					Comparison:   cfg.Blur.Comparison,
					MaxDimension: cfg.Blur.MaxDimension,
					Blur:         bo,
					Options:      computeOptions(),
				})
				if err != nil {
					return err
				}
				return checkValid("blur", rep)
			}

			if err := run(); err != nil || !watch {
				return err
			}
			return watchFile(cmd.Context(), cfg.Blur.Input, func() {
				if err := run(); err != nil {
					compute.Logger().Error("blur failed", "err", err)
				}
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&input, "input", "i", "", "input image (default: generated blue checkerboard)")
	flags.StringVarP(&output, "output", "o", "blur.png", "output PNG")
	flags.StringVar(&comparison, "comparison", "", "write a CPU | compute | difference PNG to this path")
	flags.StringVar(&kind, "kind", "gaussian", "kernel: gaussian, box or fivetap")
	flags.Float64Var(&radius, "radius", 4, "Gaussian sigma or box half width in pixels")
	flags.IntVar(&iterations, "iterations", 2, "number of horizontal+vertical pass pairs")
	flags.BoolVarP(&watch, "watch", "w", false, "blur again whenever the input file changes")
	return cmd
}

// checkWatchPaths rejects a watch whose outputs would rewrite the input and
// trigger another run.
func checkWatchPaths(input string, outputs ...string) error {
	if input == "" {
		return errors.New("blur: --watch needs --input")
	}
	in, err := filepath.Abs(input)
	if err != nil {
		return fmt.Errorf("blur: %w", err)
	}
	for _, out := range outputs {
		if out == "" {
			continue
		}
		abs, err := filepath.Abs(out)
		if err != nil {
			return fmt.Errorf("blur: %w", err)
		}
		if abs == in {
			return fmt.Errorf("blur: --watch cannot write %s over its own input", out)
		}
	}
	return nil
}

// watchFile calls fn after every write to path until ctx is done. The
// parent directory is watched so editors that replace the file on save
// are seen too.
func watchFile(ctx context.Context, path string, fn func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	compute.Logger().Info("watching for changes", "path", abs)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				compute.Logger().Debug("input changed", "op", event.Op.String())
				fn()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			compute.Logger().Warn("watch error", "err", err)
		}
	}
}

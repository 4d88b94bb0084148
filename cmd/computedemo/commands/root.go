package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/gogpu/compute"
	"github.com/gogpu/compute/config"
	"github.com/gogpu/compute/demo"
	"github.com/gogpu/compute/gpu"
)

var (
	cfgPath  string
	logLevel string
	seed     uint64
	useGPU   bool

	cfg config.Config
)

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "computedemo",
		Short:        "GPU compute demos: bitonic sort, squares and separable blur",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("log-level") {
				loaded.LogLevel = logLevel
			}
			if flags.Changed("seed") {
				loaded.Seed = seed
			}
			if flags.Changed("gpu") {
				loaded.GPU.Enabled = useGPU
			}
			if err := loaded.Validate(); err != nil {
				return err
			}
			if loaded.Seed == 0 {
				loaded.Seed = uint64(time.Now().UnixNano()) //nolint:gosec // any seed will do
			}
			cfg = loaded

			level, _ := cfg.SlogLevel()
			compute.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			gpu.SetTimeout(cfg.GPU.Timeout.Duration)

			if cfg.GPU.Enabled && !gpu.Available() {
				compute.Logger().Warn("no GPU available, the compute path runs on the CPU")
			} else if cfg.GPU.Enabled {
				compute.Logger().Info("using GPU", "adapter", gpu.AdapterName())
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "computedemo.toml", "TOML config file (missing file uses defaults)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().Uint64Var(&seed, "seed", 0, "random seed (0 picks one from the clock)")
	root.PersistentFlags().BoolVar(&useGPU, "gpu", true, "run the compute path on the GPU when one is available")

	root.AddCommand(sortCmd(), squaresCmd(), blurCmd(), lengthsCmd())
	return root
}

// computeOptions returns the options every compute call uses.
func computeOptions() []compute.Option {
	if !cfg.GPU.Enabled {
		return []compute.Option{compute.WithCPUOnly()}
	}
	return nil
}

// checkValid turns a failed validation into the command's error.
func checkValid(name string, rep demo.Report) error {
	if !rep.Valid {
		return fmt.Errorf("%s: compute result does not match the CPU baseline", name)
	}
	return nil
}

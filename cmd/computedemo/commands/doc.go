// Package commands defines the computedemo CLI.
//
// Commands
//
//   - sort      Time the bitonic sort on the CPU and the GPU
//   - squares   Square an array on the CPU and the GPU
//   - blur      Blur an image on the CPU and the GPU
//   - lengths   List the selectable sort lengths
//
// # Implementation
//
// The root command loads the TOML configuration, applies the persistent
// flags on top of it, installs the slog handler and configures the GPU
// timeout before any subcommand runs. Subcommands read the merged
// configuration from the package-level cfg.
package commands

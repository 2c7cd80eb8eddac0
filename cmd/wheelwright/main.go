// Command wheelwright installs wheels into a target environment, inspects
// them and queries the artifact cache.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/wheelwright/internal/config"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/logging"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/platform"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0-dev"

// app holds state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	verbose    bool

	detector platform.Detector
	logger   logging.Logger
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr, platform.NewDetector()).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer, detector platform.Detector) *cobra.Command {
	a := &app{detector: detector, logger: logging.Noop()}

	root := &cobra.Command{
		Use:           "wheelwright",
		Short:         "Install and inspect Python wheels",
		Long:          "wheelwright installs built distributions into a target environment, verifies their RECORD manifests and manages a cache of locally built archives.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := a.logLevel
			if a.verbose {
				level = "debug"
			}
			a.logger = logging.NewCharm(stderr, level)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default $WHEELWRIGHT_CONFIG or ~/.config/wheelwright/config.lua)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Verbose output (same as --log-level debug)")

	root.AddCommand(
		newInstallCmd(a),
		newInspectCmd(a),
		newCheckCmd(a),
		newCacheCmd(a),
		newBuildSystemCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w\n\n%s", err, cmd.UsageString())
	})
	return withErrorReporting(root, stderr, a)
}

// withErrorReporting prints RunE errors once, in friendly form.
func withErrorReporting(root *cobra.Command, stderr io.Writer, a *app) *cobra.Command {
	for _, cmd := range allCommands(root) {
		run := cmd.RunE
		if run == nil {
			continue
		}
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			err := run(cmd, args)
			if err != nil {
				fmt.Fprintf(stderr, "Error: %s\n", config.FormatError(err, a.verbose))
			}
			return err
		}
	}
	return root
}

func allCommands(cmd *cobra.Command) []*cobra.Command {
	out := []*cobra.Command{cmd}
	for _, c := range cmd.Commands() {
		out = append(out, allCommands(c)...)
	}
	return out
}

// loadConfig reads the configured (or default) config file.
func (a *app) loadConfig(ctx context.Context) (*config.Config, error) {
	path := a.configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.NewParser(a.detector).WithLogger(a.logger).Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// environment builds the interpreter environment for the detected host.
func (a *app) environment(ctx context.Context, cfg *config.Config) (*platform.Environment, error) {
	info, err := a.detector.Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect platform: %w", err)
	}
	return cfg.Environment(info)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the wheelwright version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "wheelwright %s\n", Version)
			return nil
		},
	}
}

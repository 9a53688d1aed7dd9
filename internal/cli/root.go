// Package cli implements the memfs command line: it seeds an in-memory file
// system from a file and inspects it.
package cli

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/brettbedarf/memfs"
	"github.com/brettbedarf/memfs/config"
	"github.com/brettbedarf/memfs/filesystem"
	"github.com/brettbedarf/memfs/internal/util"
)

// app carries flag values and the file system built from them into the
// subcommands
type app struct {
	configPath string
	seedPath   string
	platform   string
	verbose    int
	noColor    bool

	lookupEnv func(string) (string, bool)
	dirColor  *color.Color
	fsys      *filesystem.FileSystem
}

// NewRootCmd builds the memfs command tree
func NewRootCmd() *cobra.Command {
	return newRootCmd(os.LookupEnv)
}

func newRootCmd(lookupEnv func(string) (string, bool)) *cobra.Command {
	a := &app{lookupEnv: lookupEnv}

	cmd := &cobra.Command{
		Use:   "memfs",
		Short: "Inspect an in-memory file system seeded from a yaml or json file",
		Long: `memfs loads a seed file into an in-memory file system that emulates
POSIX or Windows path rules and lets you list, read and dump it.

Configuration is read from --config, then MEMFS_* environment variables,
then flags.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to config file (yaml, json, toml or .env)")
	flags.StringVarP(&a.seedPath, "seed", "s", "", "Path to seed file (yaml or json)")
	flags.StringVar(&a.platform, "platform", "", "Path conventions to emulate: posix or windows (default host)")
	flags.IntVarP(&a.verbose, "verbose", "v", config.InfoVerbose, "Log verbosity between 1 (error) and 5 (trace)")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(
		newLsCmd(a),
		newCatCmd(a),
		newTreeCmd(a),
		newStatCmd(a),
		newDumpCmd(a),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.NewDefaultConfig()
	if a.configPath != "" {
		var err error
		if cfg, err = config.NewConfigFromFile(a.configPath); err != nil {
			return err
		}
	}
	env, err := config.OverrideFromEnv(a.lookupEnv)
	if err != nil {
		return err
	}
	cfg.Merge(env)

	var override config.ConfigOverride
	flags := cmd.Flags()
	if flags.Changed("platform") {
		override.Platform = &a.platform
	}
	if flags.Changed("seed") {
		override.SeedFile = &a.seedPath
	}
	if flags.Changed("verbose") {
		override.LogLvl = &a.verbose
	}
	cfg.Merge(&override)

	util.InitializeLogger(cfg.LogLvl, cmd.ErrOrStderr())
	logger := util.GetLogger("cli")

	a.dirColor = color.New(color.FgBlue, color.Bold)
	if a.noColor {
		a.dirColor.DisableColor()
	}

	fsys, err := memfs.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	a.fsys = fsys
	logger.Debug().Str("platform", cfg.Platform).Str("seed", cfg.SeedFile).
		Int("paths", len(fsys.AllPaths())).Msg("File system ready")
	return nil
}

// dirOrCwd returns the single optional directory argument
func (a *app) dirOrCwd(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return a.fsys.CurrentDirectory()
}

// Package cli implements the castctl command-line interface: it loads
// symbolic manifests, answers castability queries against them, and keeps a
// catalog of computed castable sets.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/capcast/internal/catalog"
	"github.com/mesh-intelligence/capcast/internal/logging"
	"github.com/mesh-intelligence/capcast/internal/manifest"
	"github.com/mesh-intelligence/capcast/internal/paths"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

const appName = "castctl"

// systemError marks failures of the environment rather than of the input.
type systemError struct{ err error }

func (e systemError) Error() string { return e.err.Error() }
func (e systemError) Unwrap() error { return e.err }

func sysErr(format string, args ...any) error {
	return systemError{err: fmt.Errorf(format, args...)}
}

// exitCode maps a command error to a process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var se systemError
	if errors.As(err, &se) {
		return exitSysError
	}
	return exitUserError
}

// app holds global flag values and the state resolved before a subcommand
// runs.
type app struct {
	configDirFlag string
	dataDirFlag   string
	manifestFlag  string
	logLevel      string
	jsonMode      bool

	configDir string
	cfg       *viper.Viper
	log       zerolog.Logger
}

// NewRootCmd creates the top-level "castctl" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{log: zerolog.Nop()}
	root := &cobra.Command{
		Use:   appName,
		Short: "Inspect capability castable sets",
		Long: `castctl evaluates symbolic capability declarations from a manifest,
answers castability queries against them, and records computed castable sets
in a local catalog.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configDirFlag, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.dataDirFlag, "data-dir", "", "catalog directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	root.PersistentFlags().StringVar(&a.manifestFlag, "manifest", "", "manifest file (default: $(CWD)/"+paths.DefaultManifestName+")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error, off")
	root.PersistentFlags().BoolVar(&a.jsonMode, "json", false, "output as JSON")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newListCmd(a))
	root.AddCommand(newCheckCmd(a))
	root.AddCommand(newSnapshotCmd(a))
	root.AddCommand(newHistoryCmd(a))
	root.AddCommand(newExportCmd(a))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// setup resolves the config directory, loads config.yaml and builds the
// logger. The version command needs none of it.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	configDir, err := paths.ResolveConfigDir(a.configDirFlag)
	if err != nil {
		return sysErr("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return sysErr("%w", err)
	}
	a.configDir = configDir
	a.cfg = cfg

	level := a.logLevel
	if level == "" {
		level = cfg.GetString(cfgKeyLogLevel)
	}
	a.log = logging.New(cmd.ErrOrStderr(), appName, level)
	a.log.Debug().Str("config_dir", configDir).Msg("config loaded")
	return nil
}

// dataDir follows --data-dir > config.yaml data_dir > CAPCAST_DATA_DIR > CWD.
func (a *app) dataDir() (string, error) {
	dir, err := paths.ResolveDataDir(a.dataDirFlag, a.cfg.GetString(cfgKeyDataDir))
	if err != nil {
		return "", sysErr("resolve data dir: %w", err)
	}
	return dir, nil
}

// manifestPath follows --manifest > config.yaml manifest > CAPCAST_MANIFEST > CWD.
func (a *app) manifestPath() (string, error) {
	path, err := paths.ResolveManifest(a.manifestFlag, a.cfg.GetString(cfgKeyManifest))
	if err != nil {
		return "", sysErr("resolve manifest: %w", err)
	}
	return path, nil
}

func (a *app) loadManifest() (*manifest.Manifest, error) {
	path, err := a.manifestPath()
	if err != nil {
		return nil, err
	}
	m, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	a.log.Debug().Str("manifest", path).Int("types", len(m.Types)).Msg("manifest loaded")
	return m, nil
}

// openCatalog opens the catalog in the resolved data directory. The caller
// must Close it.
func (a *app) openCatalog() (*catalog.Store, error) {
	dir, err := a.dataDir()
	if err != nil {
		return nil, err
	}
	store, err := catalog.Open(dir)
	if err != nil {
		return nil, sysErr("open catalog: %w", err)
	}
	return store, nil
}

// Package paths resolves where castctl keeps its configuration, its snapshot
// catalog, and the manifest it reads by default.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the directory name used under platform config and data roots.
const AppName = "capcast"

// CWD-relative names.
const (
	DefaultDataDirName  = ".capcast-db"
	DefaultManifestName = "capcast.yaml"
)

// Environment variable names for overrides.
const (
	EnvConfigDir = "CAPCAST_CONFIG_DIR"
	EnvDataDir   = "CAPCAST_DATA_DIR"
	EnvManifest  = "CAPCAST_MANIFEST"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// xdgDir returns $xdgVar/capcast on Linux, falling back to ~/<fallback...>/capcast.
// Other platforms use os.UserConfigDir for both config and data.
func xdgDir(xdgVar string, fallback ...string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	parts := append([]string{home}, fallback...)
	return filepath.Join(append(parts, AppName)...), nil
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/capcast (fallback ~/.config/capcast)
// macOS:   ~/Library/Application Support/capcast
// Windows: %APPDATA%/capcast
func DefaultConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/capcast (fallback ~/.local/share/capcast)
// macOS and Windows: same as the config directory.
func DefaultDataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", ".local", "share")
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > CAPCAST_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > config.yaml value > CAPCAST_DATA_DIR env > $(CWD)/.capcast-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	return resolve(flag, configValue, EnvDataDir, DefaultDataDirName)
}

// ResolveManifest returns the manifest path following the precedence chain:
// flag > config.yaml value > CAPCAST_MANIFEST env > $(CWD)/capcast.yaml.
func ResolveManifest(flag, configValue string) (string, error) {
	return resolve(flag, configValue, EnvManifest, DefaultManifestName)
}

func resolve(flag, configValue, envVar, cwdName string) (string, error) {
	for _, v := range []string{flag, configValue, os.Getenv(envVar)} {
		if v != "" {
			return filepath.Abs(v)
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, cwdName), nil
}

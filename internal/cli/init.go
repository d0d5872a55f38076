package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// manifestFile is the on-disk shape of a manifest, used to write the
// starter file.
type manifestFile struct {
	Types []manifestType `yaml:"types"`
}

type manifestType struct {
	Name       string    `yaml:"name"`
	Bases      []string  `yaml:"bases,omitempty"`
	Markers    *[]string `yaml:"markers,omitempty"`
	Implements []string  `yaml:"implements,omitempty"`
	Possesses  []string  `yaml:"possesses,omitempty"`
}

// starterManifest covers the three marker forms: omitted, explicit empty,
// and explicit.
func starterManifest() manifestFile {
	none := []string{}
	movable := []string{"movable"}
	return manifestFile{Types: []manifestType{
		{
			Name:      "Plain",
			Possesses: []string{"shareable", "transferable"},
		},
		{
			Name:      "Pinned",
			Markers:   &none,
			Possesses: []string{"shareable", "transferable"},
		},
		{
			Name:       "Widget",
			Bases:      []string{"Trait"},
			Markers:    &movable,
			Implements: []string{"Trait"},
			Possesses:  []string{"shareable", "transferable", "movable"},
		},
	}}
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize castctl configuration, catalog and manifest",
		Long: `Create the configuration directory and config.yaml, the catalog in the
data directory, and a starter manifest if none exists yet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd)
		},
	}
}

func (a *app) runInit(cmd *cobra.Command) error {
	store, err := a.openCatalog()
	if err != nil {
		return err
	}
	if err := store.Close(); err != nil {
		return sysErr("close catalog: %w", err)
	}

	path, err := a.manifestPath()
	if err != nil {
		return err
	}
	created, err := writeManifestIfMissing(path)
	if err != nil {
		return sysErr("write manifest: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "config:   %s\n", a.configDir)
	fmt.Fprintf(out, "catalog:  %s\n", store.Dir())
	if created {
		fmt.Fprintf(out, "manifest: %s (created)\n", path)
	} else {
		fmt.Fprintf(out, "manifest: %s\n", path)
	}
	fmt.Fprintln(out, "castctl initialized successfully")
	return nil
}

// writeManifestIfMissing writes the starter manifest unless path exists.
func writeManifestIfMissing(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	data, err := yaml.Marshal(starterManifest())
	if err != nil {
		return false, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}

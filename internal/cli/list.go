package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/capcast/internal/manifest"
)

// typeListing is the JSON form of one type's castable set.
type typeListing struct {
	Type           string   `json:"type"`
	AtomicEligible bool     `json:"atomic_eligible"`
	Dropped        []string `json:"dropped_markers,omitempty"`
	Targets        []string `json:"targets"`
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [type...]",
		Short: "List the castable set of each declared type",
		Long: `List computes the castable set of every type in the manifest, or only of
the named types, and prints each castable target.

Example:
  castctl list
  castctl list Widget
  castctl list --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList(cmd, args)
		},
	}
}

func (a *app) runList(cmd *cobra.Command, names []string) error {
	m, err := a.loadManifest()
	if err != nil {
		return err
	}
	sets, err := m.Compute()
	if err != nil {
		return err
	}
	sets, err = selectTypes(sets, names)
	if err != nil {
		return err
	}

	listings := make([]typeListing, 0, len(sets))
	for _, c := range sets {
		l := typeListing{
			Type:           c.Decl.Name,
			AtomicEligible: c.Table.AtomicEligible(),
			Dropped:        markerNames(c.Table.Dropped()),
		}
		if len(l.Dropped) == 0 {
			l.Dropped = nil
		}
		for _, e := range c.Table.Entries() {
			l.Targets = append(l.Targets, targetName(e))
		}
		listings = append(listings, l)
	}

	if a.jsonMode {
		return printJSON(cmd, listings)
	}

	out := cmd.OutOrStdout()
	for i, l := range listings {
		if i > 0 {
			fmt.Fprintln(out)
		}
		gate := "not atomic eligible"
		if l.AtomicEligible {
			gate = "atomic eligible"
		}
		fmt.Fprintf(out, "%s: %d castable target(s), %s\n", l.Type, len(l.Targets), gate)
		if len(l.Dropped) > 0 {
			fmt.Fprintf(out, "  declared but not possessed: %v\n", l.Dropped)
		}
		for _, target := range l.Targets {
			fmt.Fprintf(out, "  %s\n", target)
		}
	}
	return nil
}

// selectTypes keeps the named types, in the order given. No names keeps all.
func selectTypes(sets []manifest.Computed, names []string) ([]manifest.Computed, error) {
	if len(names) == 0 {
		return sets, nil
	}
	byName := make(map[string]manifest.Computed, len(sets))
	for _, c := range sets {
		byName[c.Decl.Name] = c
	}
	out := make([]manifest.Computed, 0, len(names))
	for _, name := range names {
		c, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", manifest.ErrTypeNotFound, name)
		}
		out = append(out, c)
	}
	return out, nil
}

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/capcast/pkg/capset"
)

var errNotCastable = errors.New("not castable")

// checkResult is the JSON form of one castability query.
type checkResult struct {
	Type     string   `json:"type"`
	Target   string   `json:"target"`
	Markers  []string `json:"markers"`
	Atomic   bool     `json:"atomic"`
	Castable bool     `json:"castable"`
	Reason   string   `json:"reason,omitempty"`
}

func newCheckCmd(a *app) *cobra.Command {
	var atomic bool
	cmd := &cobra.Command{
		Use:   "check <type> <target> [marker...]",
		Short: "Check whether a type can be cast to a target",
		Long: `Check looks up <target> qualified by the given markers in the castable set
of <type>. The target is an interface name, "any", "Dyn", or the type's own
name. With --atomic the query is made for an atomic shared handle, which
first requires the type to be Shareable and Transferable.

Exits with status 1 when the cast is not possible.

Example:
  castctl check Widget Trait movable
  castctl check Pinned any --atomic`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCheck(cmd, args[0], args[1], args[2:], atomic)
		},
	}
	cmd.Flags().BoolVar(&atomic, "atomic", false, "query for an atomic shared handle")
	return cmd
}

func (a *app) runCheck(cmd *cobra.Command, typeName, target string, markerArgs []string, atomic bool) error {
	var set capset.MarkerSet
	for _, arg := range markerArgs {
		mk, err := capset.ParseMarker(arg)
		if err != nil {
			return err
		}
		set = set.With(mk)
	}

	m, err := a.loadManifest()
	if err != nil {
		return err
	}
	decl, err := m.Lookup(typeName)
	if err != nil {
		return err
	}
	tbl, err := decl.Compute()
	if err != nil {
		return err
	}

	res := checkResult{
		Type:    typeName,
		Target:  targetName(capset.Entry[string]{Type: target, Markers: set}),
		Markers: markerNames(set),
		Atomic:  atomic,
	}
	switch {
	case atomic && !tbl.AtomicEligible():
		res.Reason = "atomic handles require Shareable + Transferable"
	case target == decl.Name:
		res.Castable = set == capset.NoMarkers && tbl.HasConcrete(target)
		if !res.Castable {
			res.Reason = "the concrete type never takes markers"
		}
	default:
		res.Castable = tbl.Has(target, set)
		if !res.Castable {
			res.Reason = "not in the castable set"
		}
	}
	a.log.Debug().
		Str("type", res.Type).
		Str("target", res.Target).
		Bool("atomic", atomic).
		Bool("castable", res.Castable).
		Msg("check")

	if a.jsonMode {
		if err := printJSON(cmd, res); err != nil {
			return err
		}
	} else if res.Castable {
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s: castable\n", res.Type, res.Target)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s: not castable (%s)\n", res.Type, res.Target, res.Reason)
	}

	if !res.Castable {
		return errNotCastable
	}
	return nil
}

package cli

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/capcast/internal/catalog"
)

func newSnapshotCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Record the manifest's castable sets in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSnapshot(cmd)
		},
	}
}

func (a *app) runSnapshot(cmd *cobra.Command) error {
	m, err := a.loadManifest()
	if err != nil {
		return err
	}
	sets, err := m.Compute()
	if err != nil {
		return err
	}

	store, err := a.openCatalog()
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.Save(m.Path, sets)
	if err != nil {
		return sysErr("save snapshot: %w", err)
	}
	a.log.Info().Str("snapshot", snap.ID).Int("entries", snap.Entries).Msg("snapshot saved")

	if a.jsonMode {
		return printJSON(cmd, snap)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "snapshot %s: %d type(s), %d entries\n", snap.ID, snap.Types, snap.Entries)
	return nil
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHistory(cmd, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of snapshots (0 = no limit)")
	return cmd
}

func (a *app) runHistory(cmd *cobra.Command, limit int) error {
	store, err := a.openCatalog()
	if err != nil {
		return err
	}
	defer store.Close()

	snaps, err := store.Snapshots()
	if err != nil {
		return sysErr("list snapshots: %w", err)
	}
	if limit > 0 && len(snaps) > limit {
		snaps = snaps[:limit]
	}

	if a.jsonMode {
		if snaps == nil {
			snaps = []catalog.Snapshot{}
		}
		return printJSON(cmd, snaps)
	}

	out := cmd.OutOrStdout()
	if len(snaps) == 0 {
		fmt.Fprintln(out, "No snapshots found.")
		return nil
	}
	rows := make([][]string, 0, len(snaps))
	for _, s := range snaps {
		rows = append(rows, []string{
			shortID(s.ID),
			s.CreatedAt.Local().Format(time.DateTime),
			strconv.Itoa(s.Types),
			strconv.Itoa(s.Entries),
			s.Manifest,
		})
	}
	printTable(out, []string{"ID", "CREATED", "TYPES", "ENTRIES", "MANIFEST"}, rows)
	fmt.Fprintf(out, "Total: %d snapshot(s)\n", len(snaps))
	return nil
}

func newExportCmd(a *app) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export [snapshot]",
		Short: "Export a snapshot's entries as JSONL",
		Long: `Export writes every castable entry of a snapshot to a JSONL file, one
entry per line. The snapshot is a full id, a unique id prefix, or "latest"
(the default). Without --out the file is <data-dir>/<snapshot-id>.jsonl.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := catalog.LatestRef
			if len(args) == 1 {
				ref = args[0]
			}
			return a.runExport(cmd, ref, outPath)
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file")
	return cmd
}

func (a *app) runExport(cmd *cobra.Command, ref, outPath string) error {
	store, err := a.openCatalog()
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.Resolve(ref)
	if err != nil {
		return err
	}
	if outPath == "" {
		outPath = filepath.Join(store.Dir(), snap.ID+".jsonl")
	}
	n, err := store.ExportJSONL(snap.ID, outPath)
	if err != nil {
		return sysErr("export: %w", err)
	}
	a.log.Debug().Str("snapshot", snap.ID).Str("path", outPath).Msg("exported")

	if a.jsonMode {
		return printJSON(cmd, map[string]any{"snapshot_id": snap.ID, "path": outPath, "entries": n})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "exported %d entries of %s to %s\n", n, shortID(snap.ID), outPath)
	return nil
}

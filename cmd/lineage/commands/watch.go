package commands

import (
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/teranos/lineage/am"
	"github.com/teranos/lineage/blueprint"
	"github.com/teranos/lineage/logger"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-decorate the blueprint whenever it changes",
		Long: `Watch the blueprint file and rebuild it on every change. Types whose
linearization changed are printed with their old and new fingerprints.

Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
}

// fingerprints decorates every type in g and maps names to fingerprints.
func fingerprints(g *blueprint.Graph) (map[string]string, error) {
	descs, err := g.DecorateAll()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(descs))
	for _, d := range descs {
		out[d.Name()] = d.Fingerprint()
	}
	return out, nil
}

// reportChanges prints types that were added, removed or relinearized.
func reportChanges(w io.Writer, names []string, before, after map[string]string) int {
	changed := 0
	for _, name := range names {
		old, existed := before[name]
		switch {
		case !existed:
			fmt.Fprintf(w, "+ %s %s\n", name, shortFingerprint(after[name]))
		case old != after[name]:
			fmt.Fprintf(w, "~ %s %s -> %s\n", name, shortFingerprint(old), shortFingerprint(after[name]))
		default:
			continue
		}
		changed++
	}
	for _, name := range slices.Sorted(maps.Keys(before)) {
		if _, ok := after[name]; !ok {
			fmt.Fprintf(w, "- %s\n", name)
			changed++
		}
	}
	return changed
}

func runWatch(cmd *cobra.Command, args []string) error {
	path, err := blueprintPath(cmd)
	if err != nil {
		return err
	}
	cfg, err := am.Load()
	if err != nil {
		return err
	}

	g, _, err := loadGraph(cmd)
	if err != nil {
		return err
	}
	current, err := fingerprints(g)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	reportChanges(w, g.Names(), nil, current)

	watcher, err := blueprint.NewWatcher(path, time.Duration(cfg.Blueprint.WatchDebounceMS)*time.Millisecond)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	type reload struct {
		names []string
		fps   map[string]string
		err   error
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reloads := make(chan reload, 1)
	watcher.OnReload(func(f *blueprint.File, err error) {
		r := reload{err: err}
		if err == nil {
			var g *blueprint.Graph
			if g, _, r.err = buildGraph(f); r.err == nil {
				r.names = g.Names()
				r.fps, r.err = fingerprints(g)
			}
		}
		select {
		case reloads <- r:
		case <-ctx.Done():
		}
	})
	watcher.Start()
	logger.Infow("watching blueprint", logger.FieldFile, path)
	fmt.Fprintf(w, "watching %s (Ctrl-C to stop)\n", path)

	for {
		select {
		case r := <-reloads:
			if r.err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "✗ %v\n", r.err)
				continue
			}
			if reportChanges(w, r.names, current, r.fps) == 0 {
				fmt.Fprintln(w, "reloaded, no linearization changed")
			}
			current = r.fps
		case <-ctx.Done():
			return nil
		}
	}
}

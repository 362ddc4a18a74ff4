package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vango-dev/storekit/internal/errors"
	"github.com/vango-dev/storekit/pkg/selector"
	"github.com/vango-dev/storekit/pkg/state"
	"github.com/vango-dev/storekit/pkg/store"
	"github.com/vango-dev/storekit/pkg/view"
)

func demoCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Walk through patches, selectors and subscriptions",
		Long: `Run a short scripted session against an in-process store and
print what each step changed and which views re-rendered.

Examples:
  storekit demo
  storekit demo --log-level=debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			logger, err := flags.logger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return runDemo(cmd.OutOrStdout(), logger)
		},
	}
	return cmd
}

// counterView mounts a view watching keys and counts its re-renders.
func counterView(st *store.Store, keys ...string) (*view.Instance, error) {
	var useErr error
	v := view.New("counter-"+uuid.NewString()[:8], func(v *view.Instance) {
		if err := st.UseState(v, keys...); err != nil && useErr == nil {
			useErr = err
		}
	})
	v.Mount()
	return v, useErr
}

func rerenders(v *view.Instance) uint64 {
	return v.Renders() - 1
}

func runDemo(w io.Writer, logger *slog.Logger) error {
	// Patch merges into state.
	st := store.New(state.State{"count": 0}, nil, store.WithLogger(logger))
	fmt.Fprintln(w, "Patch")
	fmt.Fprintf(w, "  count: %v", st.GetState()["count"])
	st.PatchState(state.State{"count": 5})
	fmt.Fprintf(w, " -> %v\n", st.GetState()["count"])

	// Selectors recompute lazily after a patch.
	st = store.New(state.State{"count": 3}, map[string]selector.Selector{
		"double": func(s state.State) any { return s["count"].(int) * 2 },
	}, store.WithLogger(logger))
	fmt.Fprintln(w, "Selectors")
	fmt.Fprintf(w, "  double: %v\n", st.GetSelectors()["double"])
	st.PatchState(state.State{"count": 4})
	fmt.Fprintf(w, "  double: %v (after count=4)\n", st.GetSelectors()["double"])

	// Views re-render only for keys they watch.
	st = store.New(state.State{"count": 0, "name": "ada"}, nil, store.WithLogger(logger))
	v, err := counterView(st, "count")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "Subscriptions")
	st.PatchState(state.State{"name": "grace"})
	fmt.Fprintf(w, "  name changed:  counter re-renders %d\n", rerenders(v))
	st.PatchState(state.State{"count": 1, "name": "lin"})
	fmt.Fprintf(w, "  count changed: counter re-renders %d\n", rerenders(v))

	// Unmounted views are never re-rendered.
	v.Unmount()
	before := rerenders(v)
	st.PatchState(state.State{"count": 99})
	fmt.Fprintln(w, "Unmount")
	fmt.Fprintf(w, "  after unmount: counter re-renders %d, subscriptions %d\n", rerenders(v)-before, st.Subscriptions())

	// Unknown keys fail fast.
	fmt.Fprintln(w, "Strict keys")
	if _, err := counterView(st, "cuont"); err != nil {
		fmt.Fprintf(w, "  UseState(\"cuont\"): %s\n", errors.Classify(err).Error())
	}
	return nil
}

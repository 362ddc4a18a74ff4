package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vango-dev/storekit/internal/errors"
	"github.com/vango-dev/storekit/internal/logging"
	"github.com/vango-dev/storekit/internal/tui"
	"github.com/vango-dev/storekit/pkg/store"
)

func tuiCmd(flags *globalFlags) *cobra.Command {
	var altScreen bool

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Run the interactive counter",
		Long: `Run a terminal counter whose panels are store views.

Each panel subscribes to its own keys or selectors, and the footer
shows how many times each one has rendered.

Keys:
  +/-  change count   s  cycle step   r  reset   q  quit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}

			// The terminal belongs to the UI, so store logs are dropped.
			st := store.New(tui.InitialState(), tui.Selectors(),
				store.WithLogger(logging.Discard()),
				store.WithStrictKeys(cfg.StrictKeys),
			)

			var opts []tea.ProgramOption
			if altScreen {
				opts = append(opts, tea.WithAltScreen())
			}
			if err := tui.Run(st, opts...); err != nil {
				return errors.New("S030").Wrap(err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&altScreen, "alt-screen", true, "Use the terminal's alternate screen")

	return cmd
}

package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amirbrooks/taskorg/internal/plugin"
	"github.com/amirbrooks/taskorg/internal/store"
)

func (a *app) watchCmd() *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Organize a document every time it changes",
		Long: `Watches one document and organizes it after every change. Requires the
organizerOnSave setting; stop with Ctrl-C.`,
		Args: exactArgs(1, "taskorg watch <file> [--debounce 200ms]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := a.ws.Settings()
			if !settings.OrganizerOnSave {
				return usagef("organizerOnSave is off; enable it with: taskorg config set organizerOnSave true")
			}
			path := args[0]
			if _, err := store.ReadDocument(path); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ed := plugin.NewFileEditor(path)
			host := plugin.NewFileHost(a.logger, ed, debounce)
			p := plugin.New(a.logger, settings)
			p.Load(host)
			defer p.Unload()

			if _, err := p.OrganizeTasks(ctx, ed); err != nil {
				return err
			}
			if err := host.Run(ctx); err != nil {
				return err
			}
			a.logger.Info(ctx, "watch stopped")
			return nil
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", plugin.DefaultDebounce, "Quiet period before organizing after a change")
	return cmd
}

package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/idsync/internal/watch"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	return command(&cobra.Command{
		Use:   "watch [model-dir]",
		Short: "Re-sync the ledger whenever model files change",
		Long: `Sync once, then watch the model directory and sync again after every
burst of changes to its CUE or YAML files (debounced by watch_debounce).
A failed sync is reported and watching continues. Stops on interrupt.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			dir := rootOpts.modelDir(args)
			logger := rootOpts.logger

			syncOnce := func(ctx context.Context) {
				res, err := runSync(ctx, rootOpts, dir)
				if err != nil {
					_ = fail(f, "sync failed", err)
					return
				}
				_ = f.Success(res)
			}

			w, err := watch.New(dir, rootOpts.cfg.WatchDebounce, logger)
			if err != nil {
				_ = f.Error(ErrCodeNotFound, err.Error(), nil)
				return WrapExitError(ExitCommandError, "starting watcher", err)
			}
			defer w.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			syncOnce(ctx)
			logger.Info("watching for model changes", "dir", dir)

			return w.Run(ctx, func(ctx context.Context, changed []string) {
				logger.Info("model changed, syncing", "files", len(changed))
				syncOnce(ctx)
			})
		},
	})
}

package app

import (
	"context"

	"go.trai.ch/lathe/internal/core/domain"
)

// Watch renders files once and then again each time any of them is edited,
// until ctx is done. A single session is kept so unchanged edits are cache hits.
// Failed renders are logged and watching continues.
func (a *App) Watch(ctx context.Context, files []string, opts RenderOptions) error {
	if len(files) == 0 {
		return domain.ErrNoInputFiles
	}

	session, err := a.Open(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}
	defer func() {
		if errClose := session.Close(); errClose != nil {
			a.logger.Warn("failed to close render session", "error", errClose)
		}
	}()

	store, err := exportStore(opts)
	if err != nil {
		return err
	}

	w, err := a.newWatcher(a.logger)
	if err != nil {
		return err
	}
	defer func() {
		if errStop := w.Stop(); errStop != nil {
			a.logger.Warn("failed to stop file watcher", "error", errStop)
		}
	}()

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := w.Start(watchCtx, files); err != nil {
		return err
	}

	a.renderBatch(ctx, session, store, files, opts)
	a.logger.Info("watching for changes", "files", len(files))

	for batch := range w.Changes() {
		if ctx.Err() != nil {
			break
		}
		a.logger.Debug("geometry changed", "files", batch)
		a.renderBatch(ctx, session, store, batch, opts)
	}
	return nil
}

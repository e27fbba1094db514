package seed

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/recipebox/backend/internal/domain"
)

const reloadDebounce = 200 * time.Millisecond

// ChangeFunc receives each successfully reloaded vocabulary
type ChangeFunc func(ctx context.Context, vocab *domain.Vocabulary) error

// Watch reloads the seed file whenever it changes on disk and hands the
// new vocabulary to onChange. An invalid file is logged and skipped, so
// the previously loaded vocabulary stays in service. Watch blocks until
// ctx is cancelled.
//
// The parent directory is watched rather than the file itself so that
// editors which save by rename are still picked up.
func Watch(ctx context.Context, path string, logger *zap.Logger, onChange ChangeFunc) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("vocabulary watcher started", zap.String("path", abs))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(reloadDebounce)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(reloadDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("vocabulary watcher stopped")
			return nil

		case <-reloadCh:
			reload(ctx, abs, logger, onChange)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("vocabulary watcher error", zap.Error(watchErr))
		}
	}
}

func reload(ctx context.Context, path string, logger *zap.Logger, onChange ChangeFunc) {
	vocab, warnings, err := Load(path)
	for _, warning := range warnings {
		logger.Warn("seed vocabulary warning", zap.String("detail", warning))
	}
	if err != nil {
		logger.Warn("seed file rejected, keeping previous vocabulary", zap.Error(err))
		return
	}

	if err := onChange(ctx, vocab); err != nil {
		logger.Error("failed to apply reloaded vocabulary", zap.Error(err))
		return
	}

	logger.Info("vocabulary reloaded",
		zap.Int("ingredients", len(vocab.Ingredients)),
		zap.Int("aliases", len(vocab.Aliases)),
		zap.Int("two_word_phrases", len(vocab.TwoWordPhrases)),
	)
}

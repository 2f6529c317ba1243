package config

import (
	"context"
	"errors"
	"io"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// WaitForPublished blocks until the configuration named name has been
// published to configFile with every player identified, returning it.
// The file is checked once up front and again each time it is rewritten.
func WaitForPublished(ctx context.Context, logger *logrus.Entry, configFile, name string) (*Config, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	defer w.Close()

	if err = w.Add(filepath.Dir(configFile)); err != nil {
		return nil, err
	}

	if c, ok := loadPublished(logger, configFile, name); ok {
		return c, nil
	}

	for {
		select {
		case evt, ok := <-w.Events:
			if !ok {
				return nil, ErrWatcherClosed
			}

			// Ignore events for other files.
			if filepath.Clean(evt.Name) != filepath.Clean(configFile) {
				continue
			}

			// Save replaces the file, which shows up as a create.
			if evt.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if c, ok := loadPublished(logger, configFile, name); ok {
				return c, nil
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil, ErrWatcherClosed
			}
			logger.
				WithField("error", err.Error()).
				Error("error watching files")

		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// loadPublished loads configFile and reports whether it holds the fully
// identified configuration named name.
func loadPublished(logger *logrus.Entry, configFile, name string) (*Config, bool) {
	c, err := NewConfigFromFile(configFile)
	if err != nil {
		// A file being rewritten may be observed empty.
		if !errors.Is(err, io.EOF) {
			logger.
				WithField("error", err.Error()).
				Debug("published config not readable yet")
		}

		return nil, false
	}

	if c.Name != name || !c.Identified() {
		return nil, false
	}

	return c, true
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package registry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// overlayFile is the on-disk shape of a template overlay.
type overlayFile struct {
	Templates []Template `yaml:"templates"`
}

// LoadOverlay merges templates from a YAML file into the registry.
//
// Description:
//
//	The overlay file lets deployments add custom node kinds (or adjust the
//	defaults of built-in ones) without a rebuild. Entries replace existing
//	templates with the same kind.
//
// Example overlay:
//
//	templates:
//	  - kind: sentimentModel
//	    label: Sentiment Model
//	    category: ai
//	    default_config:
//	      model: sentiment-v2
func (r *Registry) LoadOverlay(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read template overlay: %w", err)
	}
	var file overlayFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("failed to parse template overlay %s: %w", path, err)
	}
	for _, t := range file.Templates {
		if err := r.Register(t); err != nil {
			return fmt.Errorf("invalid overlay template in %s: %w", path, err)
		}
	}
	slog.Info("Loaded template overlay", "path", path, "templates", len(file.Templates))
	return nil
}

// overlayDebounce is how long the watcher waits for further writes before
// reloading. Editors tend to produce bursts of write events per save.
const overlayDebounce = 200 * time.Millisecond

// OverlayWatcher reloads a template overlay file when it changes.
//
// Thread Safety: safe for concurrent use; the reload runs on a single
// goroutine owned by the watcher.
type OverlayWatcher struct {
	registry *Registry
	path     string
	watcher  *fsnotify.Watcher
	stopOnce sync.Once
	done     chan struct{}
}

// WatchOverlay starts watching path and re-applies the overlay on change.
//
// The parent directory is watched rather than the file itself so atomic
// rename-style saves keep working. Stop the watcher or cancel ctx to
// release the inotify handle.
func (r *Registry) WatchOverlay(ctx context.Context, path string) (*OverlayWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create overlay watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}
	ow := &OverlayWatcher{
		registry: r,
		path:     path,
		watcher:  w,
		done:     make(chan struct{}),
	}
	go ow.run(ctx)
	return ow, nil
}

// Stop releases the watcher. Safe to call more than once.
func (w *OverlayWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()
	})
}

func (w *OverlayWatcher) run(ctx context.Context) {
	var pending *time.Timer
	var pendingC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if pending == nil {
				pending = time.NewTimer(overlayDebounce)
			} else {
				pending.Reset(overlayDebounce)
			}
			pendingC = pending.C
		case <-pendingC:
			pendingC = nil
			if err := w.registry.LoadOverlay(w.path); err != nil {
				slog.Warn("Template overlay reload failed, keeping previous templates", "error", err)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Overlay watcher error", "error", err)
		}
	}
}

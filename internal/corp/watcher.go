// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package corp

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher hot-reloads a Table when its CSV file changes on disk. The
// registry export is refreshed out of band (a cron job downloading from
// DART), so the running client picks new data up without a restart.
type Watcher struct {
	table    *Table
	path     string
	fsw      *fsnotify.Watcher
	onReload func(err error)
	done     chan struct{}
}

// WatchTable starts watching path and reloading table on changes.
// onReload, if non-nil, is called after every reload attempt with its
// result. Close the watcher to stop.
func WatchTable(table *Table, path string, onReload func(err error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	// Watch the directory, not the file: editors and atomic replacers
	// rename over the target, which drops a file-level watch.
	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &Watcher{
		table:    table,
		path:     path,
		fsw:      fsw,
		onReload: onReload,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	target := filepath.Clean(w.path)
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			err := w.table.LoadFile(w.path)
			if err != nil {
				log.Printf("corp: reload %s failed: %v", w.path, err)
			} else {
				log.Printf("corp: reloaded %s (%d records)", w.path, w.table.Len())
			}
			if w.onReload != nil {
				w.onReload(err)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("corp: watcher error: %v", err)
		}
	}
}

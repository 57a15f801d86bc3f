// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package viewer

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
)

// Fetcher downloads a PDF from the backend by collection file name.
type Fetcher interface {
	DownloadPDF(ctx context.Context, fileName string) ([]byte, error)
}

// State is a snapshot of the viewer for rendering.
type State struct {
	Visible     bool
	CurrentFile string
	CurrentPage int
	PageCount   int
	// HandlePath is the temp file holding the loaded PDF, empty when no
	// document is loaded.
	HandlePath string
}

// Viewer synchronizes citation clicks with the PDF panel. It holds at most
// one downloaded document at a time, in a temp file that stands in for the
// browser object URL of the original design. Each distinct file is fetched
// at most once for as long as it stays loaded; page navigation and toggling
// never refetch.
type Viewer struct {
	mu      sync.Mutex
	fetcher Fetcher

	// countPages is injectable for tests; the default reads the PDF with
	// pdfcpu and returns its page count.
	countPages func(path string) (int, error)

	visible    bool
	file       string
	page       int
	pageCount  int
	handlePath string
}

// New creates a viewer over the given fetcher.
func New(fetcher Fetcher) *Viewer {
	return &Viewer{
		fetcher:    fetcher,
		countPages: pdfPageCount,
	}
}

// pdfPageCount reads the document and returns its page count.
func pdfPageCount(path string) (int, error) {
	ctx, err := pdfapi.ReadContextFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read pdf: %w", err)
	}
	return ctx.PageCount, nil
}

// =============================================================================
// CITATION CLICKS
// =============================================================================

// OnCiteClick handles a click on a viewable citation.
//
// Clicking the exact file+page already showing toggles the panel closed;
// anything else shows the panel at the cited page, downloading the file
// first if it is not the loaded document. A failed fetch logs and leaves
// every piece of state untouched.
func (v *Viewer) OnCiteClick(ctx context.Context, file string, page int) error {
	if file == "" || page < 1 {
		return fmt.Errorf("citation is not viewable: file=%q page=%d", file, page)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	// Strict toggle: only the exact same file and page collapses.
	if v.visible && v.file == file && v.page == page {
		v.visible = false
		return nil
	}

	if v.file != file || v.handlePath == "" {
		if err := v.loadLocked(ctx, file); err != nil {
			log.Printf("viewer: fetch %s failed: %v", file, err)
			return err
		}
	}

	v.page = clamp(page, 1, v.pageCount)
	v.visible = true
	return nil
}

// loadLocked downloads file into a fresh temp handle and swaps it in. The
// old handle is released only after the new document is fully ready, so a
// failure cannot leave the viewer half-swapped.
func (v *Viewer) loadLocked(ctx context.Context, file string) error {
	data, err := v.fetcher.DownloadPDF(ctx, file)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp("", "finsight-*.pdf")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close pdf: %w", err)
	}

	count, err := v.countPages(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return err
	}
	if count < 1 {
		os.Remove(tmpPath)
		return fmt.Errorf("document %s has no pages", file)
	}

	v.releaseLocked()
	v.handlePath = tmpPath
	v.file = file
	v.pageCount = count
	return nil
}

// releaseLocked deletes the current temp handle, if any.
func (v *Viewer) releaseLocked() {
	if v.handlePath != "" {
		if err := os.Remove(v.handlePath); err != nil && !os.IsNotExist(err) {
			log.Printf("viewer: failed to release %s: %v", v.handlePath, err)
		}
		v.handlePath = ""
	}
}

// =============================================================================
// PAGE NAVIGATION
// =============================================================================

// NextPage advances one page, clamped to the document end.
func (v *Viewer) NextPage() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.handlePath == "" {
		return
	}
	v.page = clamp(v.page+1, 1, v.pageCount)
}

// PrevPage goes back one page, clamped to page 1.
func (v *Viewer) PrevPage() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.handlePath == "" {
		return
	}
	v.page = clamp(v.page-1, 1, v.pageCount)
}

// GoToPage jumps to a page, clamped to the document bounds.
func (v *Viewer) GoToPage(page int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.handlePath == "" {
		return
	}
	v.page = clamp(page, 1, v.pageCount)
}

// =============================================================================
// VISIBILITY
// =============================================================================

// Close hides the panel. The loaded document stays cached so reopening the
// same file needs no refetch.
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.visible = false
}

// Reset hides the panel and releases the document handle. Called when the
// conversation is cleared.
func (v *Viewer) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.visible = false
	v.file = ""
	v.page = 0
	v.pageCount = 0
	v.releaseLocked()
}

// State returns a snapshot for rendering.
func (v *Viewer) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return State{
		Visible:     v.visible,
		CurrentFile: v.file,
		CurrentPage: v.page,
		PageCount:   v.pageCount,
		HandlePath:  v.handlePath,
	}
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

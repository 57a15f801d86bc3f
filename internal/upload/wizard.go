// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Step is the wizard's position in the upload flow.
type Step int

const (
	// StepChoose is the initial state: no file selected.
	StepChoose Step = iota
	// StepUpload has a file selected and ready to send.
	StepUpload
	// StepRegister has the file uploaded, waiting to be chunked into the
	// vector collection.
	StepRegister
	// StepDone means the file is uploaded and registered.
	StepDone
)

// String returns the step name for display.
func (s Step) String() string {
	switch s {
	case StepChoose:
		return "choose"
	case StepUpload:
		return "upload"
	case StepRegister:
		return "register"
	case StepDone:
		return "done"
	default:
		return "unknown"
	}
}

// Wizard errors.
var (
	ErrNotPDF    = errors.New("only PDF files can be uploaded")
	ErrWrongStep = errors.New("operation not valid in current step")
)

// Backend is the slice of the API client the wizard needs.
type Backend interface {
	UploadPDF(ctx context.Context, fileName string, content io.Reader) error
	Register(ctx context.Context, fileNames []string) error
}

// Wizard walks one PDF through the two-phase ingestion flow: upload the
// raw file, then register it so the backend chunks it into the vector
// collection. Steps only move forward; Reset returns to the start at any
// point, which is how a failed upload is retried.
type Wizard struct {
	mu      sync.Mutex
	backend Backend

	step     Step
	path     string
	fileName string
	lastErr  error
}

// NewWizard creates a wizard over the given backend.
func NewWizard(backend Backend) *Wizard {
	return &Wizard{backend: backend}
}

// Step returns the current step.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// FileName returns the selected file's base name, if any.
func (w *Wizard) FileName() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fileName
}

// LastErr returns the most recent step failure, for display.
func (w *Wizard) LastErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Choose selects the PDF at path and moves to the upload step.
func (w *Wizard) Choose(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepChoose {
		return fmt.Errorf("%w: choose during %s", ErrWrongStep, w.step)
	}
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		w.lastErr = ErrNotPDF
		return ErrNotPDF
	}
	if _, err := os.Stat(path); err != nil {
		w.lastErr = err
		return fmt.Errorf("cannot read %s: %w", path, err)
	}

	w.path = path
	w.fileName = filepath.Base(path)
	w.step = StepUpload
	w.lastErr = nil
	return nil
}

// Upload sends the selected file to the backend and moves to the register
// step. On failure the wizard stays in the upload step so the user can
// retry or Reset.
func (w *Wizard) Upload(ctx context.Context) error {
	w.mu.Lock()
	if w.step != StepUpload {
		w.mu.Unlock()
		return fmt.Errorf("%w: upload during %s", ErrWrongStep, w.step)
	}
	path, name := w.path, w.fileName
	w.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		w.fail(err)
		return fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	if err := w.backend.UploadPDF(ctx, name, f); err != nil {
		w.fail(err)
		return fmt.Errorf("upload failed: %w", err)
	}

	w.mu.Lock()
	w.step = StepRegister
	w.lastErr = nil
	w.mu.Unlock()
	return nil
}

// Register asks the backend to chunk the uploaded file into the vector
// collection and moves to the done step.
func (w *Wizard) Register(ctx context.Context) error {
	w.mu.Lock()
	if w.step != StepRegister {
		w.mu.Unlock()
		return fmt.Errorf("%w: register during %s", ErrWrongStep, w.step)
	}
	name := w.fileName
	w.mu.Unlock()

	if err := w.backend.Register(ctx, []string{name}); err != nil {
		w.fail(err)
		return fmt.Errorf("register failed: %w", err)
	}

	w.mu.Lock()
	w.step = StepDone
	w.lastErr = nil
	w.mu.Unlock()
	return nil
}

// Reset returns the wizard to the choose step. Valid at any point.
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.step = StepChoose
	w.path = ""
	w.fileName = ""
	w.lastErr = nil
}

func (w *Wizard) fail(err error) {
	w.mu.Lock()
	w.lastErr = err
	w.mu.Unlock()
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upload

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

type fakeBackend struct {
	uploadErr   error
	registerErr error

	uploadedName string
	uploadedSize int
	registered   [][]string
}

func (f *fakeBackend) UploadPDF(ctx context.Context, fileName string, content io.Reader) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	f.uploadedName = fileName
	f.uploadedSize = len(data)
	return nil
}

func (f *fakeBackend) Register(ctx context.Context, fileNames []string) error {
	if f.registerErr != nil {
		return f.registerErr
	}
	f.registered = append(f.registered, fileNames)
	return nil
}

func writePDF(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("%PDF-1.4 test"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWizard_HappyPath(t *testing.T) {
	backend := &fakeBackend{}
	w := NewWizard(backend)
	path := writePDF(t, "재무보고서.pdf")

	if w.Step() != StepChoose {
		t.Fatalf("initial step = %v, want choose", w.Step())
	}

	if err := w.Choose(path); err != nil {
		t.Fatalf("Choose failed: %v", err)
	}
	if w.Step() != StepUpload || w.FileName() != "재무보고서.pdf" {
		t.Fatalf("after Choose: step=%v file=%q", w.Step(), w.FileName())
	}

	if err := w.Upload(context.Background()); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if w.Step() != StepRegister {
		t.Fatalf("after Upload: step = %v, want register", w.Step())
	}
	if backend.uploadedName != "재무보고서.pdf" || backend.uploadedSize == 0 {
		t.Errorf("upload sent name=%q size=%d", backend.uploadedName, backend.uploadedSize)
	}

	if err := w.Register(context.Background()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if w.Step() != StepDone {
		t.Fatalf("after Register: step = %v, want done", w.Step())
	}
	if len(backend.registered) != 1 || backend.registered[0][0] != "재무보고서.pdf" {
		t.Errorf("registered = %+v", backend.registered)
	}
}

func TestWizard_RejectsNonPDF(t *testing.T) {
	w := NewWizard(&fakeBackend{})
	err := w.Choose(filepath.Join(t.TempDir(), "notes.txt"))
	if !errors.Is(err, ErrNotPDF) {
		t.Errorf("err = %v, want ErrNotPDF", err)
	}
	if w.Step() != StepChoose {
		t.Errorf("step = %v, want choose after rejection", w.Step())
	}
}

func TestWizard_RejectsMissingFile(t *testing.T) {
	w := NewWizard(&fakeBackend{})
	if err := w.Choose(filepath.Join(t.TempDir(), "ghost.pdf")); err == nil {
		t.Error("choosing a missing file should fail")
	}
	if w.Step() != StepChoose {
		t.Errorf("step = %v, want choose", w.Step())
	}
}

func TestWizard_UppercaseExtensionAccepted(t *testing.T) {
	w := NewWizard(&fakeBackend{})
	path := writePDF(t, "REPORT.PDF")
	if err := w.Choose(path); err != nil {
		t.Errorf("Choose(.PDF) failed: %v", err)
	}
}

func TestWizard_StepOrderEnforced(t *testing.T) {
	backend := &fakeBackend{}
	w := NewWizard(backend)
	ctx := context.Background()

	if err := w.Upload(ctx); !errors.Is(err, ErrWrongStep) {
		t.Errorf("Upload before Choose: err = %v, want ErrWrongStep", err)
	}
	if err := w.Register(ctx); !errors.Is(err, ErrWrongStep) {
		t.Errorf("Register before upload: err = %v, want ErrWrongStep", err)
	}

	path := writePDF(t, "a.pdf")
	if err := w.Choose(path); err != nil {
		t.Fatal(err)
	}
	if err := w.Register(ctx); !errors.Is(err, ErrWrongStep) {
		t.Errorf("Register before Upload: err = %v, want ErrWrongStep", err)
	}
	if err := w.Choose(path); !errors.Is(err, ErrWrongStep) {
		t.Errorf("second Choose: err = %v, want ErrWrongStep", err)
	}

	if len(backend.registered) != 0 || backend.uploadedName != "" {
		t.Error("out-of-order calls must not reach the backend")
	}
}

func TestWizard_UploadFailureStaysRetryable(t *testing.T) {
	wantErr := errors.New("backend down")
	backend := &fakeBackend{uploadErr: wantErr}
	w := NewWizard(backend)
	path := writePDF(t, "a.pdf")
	ctx := context.Background()

	if err := w.Choose(path); err != nil {
		t.Fatal(err)
	}
	if err := w.Upload(ctx); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want wrapped %v", err, wantErr)
	}
	if w.Step() != StepUpload {
		t.Fatalf("step = %v after failure, want upload", w.Step())
	}
	if !errors.Is(w.LastErr(), wantErr) {
		t.Errorf("LastErr = %v", w.LastErr())
	}

	backend.uploadErr = nil
	if err := w.Upload(ctx); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if w.Step() != StepRegister || w.LastErr() != nil {
		t.Errorf("after retry: step=%v lastErr=%v", w.Step(), w.LastErr())
	}
}

func TestWizard_RegisterFailureStaysRetryable(t *testing.T) {
	wantErr := errors.New("register down")
	backend := &fakeBackend{registerErr: wantErr}
	w := NewWizard(backend)
	path := writePDF(t, "a.pdf")
	ctx := context.Background()

	if err := w.Choose(path); err != nil {
		t.Fatal(err)
	}
	if err := w.Upload(ctx); err != nil {
		t.Fatal(err)
	}
	if err := w.Register(ctx); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want wrapped %v", err, wantErr)
	}
	if w.Step() != StepRegister {
		t.Fatalf("step = %v after failure, want register", w.Step())
	}
}

func TestWizard_ResetFromAnyStep(t *testing.T) {
	backend := &fakeBackend{}
	w := NewWizard(backend)
	path := writePDF(t, "a.pdf")
	ctx := context.Background()

	if err := w.Choose(path); err != nil {
		t.Fatal(err)
	}
	if err := w.Upload(ctx); err != nil {
		t.Fatal(err)
	}
	w.Reset()
	if w.Step() != StepChoose || w.FileName() != "" || w.LastErr() != nil {
		t.Errorf("after Reset: step=%v file=%q err=%v", w.Step(), w.FileName(), w.LastErr())
	}

	// Wizard is re-entrant: a fresh run works end to end.
	if err := w.Choose(path); err != nil {
		t.Fatal(err)
	}
	if err := w.Upload(ctx); err != nil {
		t.Fatal(err)
	}
	if err := w.Register(ctx); err != nil {
		t.Fatal(err)
	}
	if w.Step() != StepDone {
		t.Errorf("step = %v, want done", w.Step())
	}
}

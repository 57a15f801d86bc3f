// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

func TestNewTheme_InitializesStyles(t *testing.T) {
	theme := NewTheme()

	// A zero-value style renders its input unchanged with no padding; the
	// bubbles carry padding, so rendered output must differ from input.
	if theme.QuestionBubble.Render("x") == "x" {
		t.Error("QuestionBubble style not initialized")
	}
	if theme.AnswerBubble.Render("x") == "x" {
		t.Error("AnswerBubble style not initialized")
	}
	if theme.OverlayBox.Render("x") == "x" {
		t.Error("OverlayBox style not initialized")
	}
}

func TestTheme_LayoutMode(t *testing.T) {
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
		{200, LayoutWide},
	}

	theme := NewTheme()
	for _, tc := range tests {
		theme.SetSize(tc.width, 40)
		if got := theme.GetLayoutMode(); got != tc.want {
			t.Errorf("width %d: mode = %v, want %v", tc.width, got, tc.want)
		}
	}
}

func TestRenderStatusIndicators(t *testing.T) {
	if !strings.Contains(RenderSuccess("done"), "[OK]") {
		t.Error("RenderSuccess missing indicator")
	}
	if !strings.Contains(RenderError("boom"), "[X]") {
		t.Error("RenderError missing indicator")
	}
	if !strings.Contains(RenderWarning("careful"), "[!]") {
		t.Error("RenderWarning missing indicator")
	}
	if !strings.Contains(RenderLink("https://dart.fss.or.kr"), "dart.fss.or.kr") {
		t.Error("RenderLink dropped the text")
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Kimyongari/Finsight/internal/model"
	"github.com/Kimyongari/Finsight/internal/ui/styles"
	"github.com/Kimyongari/Finsight/internal/upload"
)

// =============================================================================
// TOP-LEVEL VIEW
// =============================================================================

// View renders the current screen.
func (m Model) View() string {
	switch m.view {
	case ViewFiles:
		return m.viewFiles()
	case ViewUpload:
		return m.viewUpload()
	case ViewCorp:
		return m.viewCorp()
	case ViewReport:
		return m.viewReport()
	case ViewHelp:
		return m.viewHelp()
	default:
		return m.viewChat()
	}
}

// =============================================================================
// CHAT VIEW
// =============================================================================

func (m Model) viewChat() string {
	var b strings.Builder

	b.WriteString(m.theme.Header.Width(m.width - 2).Render("Finsight"))
	b.WriteString("\n")

	body := m.transcript.View()
	if m.viewerState.Visible && m.theme.GetLayoutMode() == styles.LayoutWide {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.viewerPane())
	}
	b.WriteString(body)
	b.WriteString("\n")

	if m.viewerState.Visible && m.theme.GetLayoutMode() != styles.LayoutWide {
		b.WriteString(m.viewerPane())
		b.WriteString("\n")
	}

	b.WriteString(m.theme.InputContainer.Width(m.width - 2).Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.statusBar())
	return b.String()
}

// renderTranscript builds the scrollable conversation content.
func (m Model) renderTranscript() string {
	msgs := m.controller.Messages()
	if len(msgs) == 0 {
		return m.theme.ThinkingText.Render("재무 문서에 대해 질문해 보세요. PDF 업로드는 C-u, 기업 보고서는 C-s 입니다.")
	}

	var b strings.Builder
	for _, msg := range msgs {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n\n")
	}
	return b.String()
}

func (m Model) renderMessage(msg *model.Message) string {
	label := m.theme.RoleLabel.Render(msg.Role.DisplayName()) +
		" " + m.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))

	switch {
	case msg.Role == model.RoleQuestion:
		return label + "\n" + m.theme.QuestionBubble.Render(msg.Content)

	case msg.IsPlaceholder():
		return label + "\n" + m.theme.AnswerBubble.Render(
			m.spinner.View()+" "+m.theme.ThinkingText.Render("답변을 생성하는 중입니다..."))

	case msg.IsStreaming:
		// Mid-reveal: show the raw text as it grows. Markdown rendering
		// waits until the message settles so partial syntax never
		// flickers through glamour.
		return label + "\n" + m.theme.AnswerBubble.Render(msg.Content+"▍")

	default:
		body := m.theme.AnswerBubble.Render(strings.TrimRight(m.renderMarkdown(msg.Content), "\n"))
		if cites := m.renderCitations(msg); cites != "" {
			body += "\n" + cites
		}
		return label + "\n" + body
	}
}

// renderCitations lists a settled answer's citations. Selection is only
// meaningful on the latest settled answer, which is the one Tab cycles.
func (m Model) renderCitations(msg *model.Message) string {
	if len(msg.Citations) == 0 {
		return ""
	}

	selected := m.selectedCitationOf(msg)
	var b strings.Builder
	b.WriteString(m.theme.RoleLabel.Render("출처"))
	b.WriteString("\n")
	for i, c := range msg.Citations {
		line := c.Label
		if c.Page >= 1 {
			line += m.theme.CitationPage.Render(fmt.Sprintf(" p.%d", c.Page))
		}
		if !c.Viewable() && c.Link != "" {
			line += " " + m.theme.LinkStyle.Render(c.Link)
		}
		if i == selected {
			line = m.theme.CitationSelected.Render("> " + line)
		} else {
			line = m.theme.CitationItem.Render("  " + line)
		}
		b.WriteString(line)
		b.WriteString("\n")
		if c.Excerpt != "" {
			b.WriteString(m.theme.CitationExcerpt.Render("    " + firstLine(c.Excerpt)))
			b.WriteString("\n")
		}
	}
	return m.theme.CitationList.Render(strings.TrimRight(b.String(), "\n"))
}

// selectedCitationOf maps the global citation selection onto this message's
// citation indexes, or -1 when the selection belongs elsewhere.
func (m Model) selectedCitationOf(msg *model.Message) int {
	cites := m.selectableCitations()
	if m.citationIndex < 0 || m.citationIndex >= len(cites) {
		return -1
	}
	target := cites[m.citationIndex]
	last := m.lastSettledAnswer()
	if last == nil || last.ID != msg.ID {
		return -1
	}
	for i, c := range msg.Citations {
		if c.SourceFile == target.SourceFile && c.Page == target.Page && c.Label == target.Label {
			return i
		}
	}
	return -1
}

func (m Model) lastSettledAnswer() *model.Message {
	msgs := m.controller.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == model.RoleAnswer && msgs[i].Phase() == model.PhaseSettled {
			return msgs[i]
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// =============================================================================
// VIEWER PANE
// =============================================================================

func (m Model) viewerPane() string {
	st := m.viewerState
	title := m.theme.ViewerTitle.Render(st.CurrentFile)
	pageNo := m.theme.ViewerPageNo.Render(fmt.Sprintf("%d / %d 페이지", st.CurrentPage, st.PageCount))
	hint := m.theme.ShortcutDesc.Render("PgUp/PgDn 페이지 이동, Esc 닫기")

	w := m.width/2 - 4
	if m.theme.GetLayoutMode() != styles.LayoutWide {
		w = m.width - 4
	}
	return m.theme.ViewerPane.Width(w).Render(title + "\n" + pageNo + "\n" + hint)
}

// =============================================================================
// STATUS BAR
// =============================================================================

func (m Model) statusBar() string {
	if m.status != "" {
		if m.statusErr {
			return m.theme.StatusBar.Width(m.width).Render(styles.RenderError(m.status))
		}
		return m.theme.StatusBar.Width(m.width).Render(styles.RenderSuccess(m.status))
	}

	mode := m.controller.Mode()
	var modeStyle lipgloss.Style
	switch mode {
	case model.ModeAdvancedRAG:
		modeStyle = m.theme.ModeAdvanced
	case model.ModeWebSearch:
		modeStyle = m.theme.ModeWeb
	default:
		modeStyle = m.theme.ModeRAG
	}

	parts := []string{modeStyle.Render(mode.DisplayName())}
	if m.controller.Pending() {
		parts = append(parts, m.spinner.View()+" 응답 대기 중")
	}
	parts = append(parts,
		m.theme.ShortcutKey.Render("Enter")+m.theme.ShortcutDesc.Render(" 전송"),
		m.theme.ShortcutKey.Render("C-r")+m.theme.ShortcutDesc.Render(" 모드"),
		m.theme.ShortcutKey.Render("Tab")+m.theme.ShortcutDesc.Render(" 출처 선택"),
		m.theme.ShortcutKey.Render("F1")+m.theme.ShortcutDesc.Render(" 도움말"),
	)
	return m.theme.StatusBar.Width(m.width).Render(strings.Join(parts, "  "))
}

// =============================================================================
// FILE MANAGER VIEW
// =============================================================================

func (m Model) viewFiles() string {
	var b strings.Builder
	b.WriteString(m.theme.OverlayTitle.Render("컬렉션 문서 관리"))
	b.WriteString("\n\n")

	if len(m.files) == 0 {
		b.WriteString(m.theme.ListMeta.Render("등록된 문서가 없습니다. C-u 로 PDF를 업로드하세요."))
	}
	for i, f := range m.files {
		if i == m.fileIndex {
			b.WriteString(m.theme.ListSelected.Render(f))
		} else {
			b.WriteString(m.theme.ListItem.Render(f))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.ShortcutDesc.Render("up/down 이동  d 삭제  r 새로고침  Esc 닫기"))
	return m.theme.ListBox.Width(m.width - 4).Render(b.String())
}

// =============================================================================
// UPLOAD WIZARD VIEW
// =============================================================================

func (m Model) viewUpload() string {
	var b strings.Builder
	b.WriteString(m.theme.OverlayTitle.Render("PDF 업로드"))
	b.WriteString("\n\n")

	steps := []struct {
		step  upload.Step
		label string
	}{
		{upload.StepChoose, "1. 파일 선택"},
		{upload.StepUpload, "2. 업로드"},
		{upload.StepRegister, "3. 컬렉션 등록"},
	}
	current := m.wizard.Step()
	for _, s := range steps {
		marker := styles.StatusIndicators.Pending
		if current > s.step {
			marker = styles.StatusIndicators.Success
		} else if current == s.step {
			marker = styles.StatusIndicators.Info
		}
		b.WriteString(fmt.Sprintf("%s %s\n", marker, s.label))
	}
	b.WriteString("\n")

	switch current {
	case upload.StepChoose:
		b.WriteString(m.pathInput.View())
		b.WriteString("\n\n")
		b.WriteString(m.theme.ShortcutDesc.Render("Enter 선택  Esc 취소"))
	case upload.StepUpload:
		b.WriteString(m.theme.ListMeta.Render(m.wizard.FileName()))
		b.WriteString("\n\n")
		b.WriteString(m.theme.ShortcutDesc.Render("Enter 업로드 실행  Esc 취소"))
	case upload.StepRegister:
		b.WriteString(m.theme.ListMeta.Render(m.wizard.FileName() + " 업로드 완료"))
		b.WriteString("\n\n")
		b.WriteString(m.theme.ShortcutDesc.Render("Enter 등록 실행  Esc 취소"))
	case upload.StepDone:
		b.WriteString(styles.RenderSuccess(m.wizard.FileName() + " 등록 완료"))
		b.WriteString("\n\n")
		b.WriteString(m.theme.ShortcutDesc.Render("Enter 또는 Esc 로 돌아가기"))
	}

	if err := m.wizard.LastErr(); err != nil {
		b.WriteString("\n\n")
		b.WriteString(styles.RenderError(err.Error()))
	}
	return m.theme.OverlayBox.Width(m.width - 4).Render(b.String())
}

// =============================================================================
// CORP SEARCH AND REPORT VIEWS
// =============================================================================

func (m Model) viewCorp() string {
	var b strings.Builder
	b.WriteString(m.theme.OverlayTitle.Render("기업 보고서 검색"))
	b.WriteString("\n\n")
	b.WriteString(m.corpInput.View())
	b.WriteString("\n\n")

	for i, rec := range m.corpResults {
		line := rec.Name
		if rec.EngName != "" {
			line += "  " + m.theme.ListMeta.Render(rec.EngName)
		}
		line += "  " + m.theme.ListMeta.Render(rec.Code)
		if m.corpFocused && i == m.corpIndex {
			b.WriteString(m.theme.ListSelected.Render(line))
		} else {
			b.WriteString(m.theme.ListItem.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.corpFocused {
		b.WriteString(m.theme.ShortcutDesc.Render("up/down 이동  Enter 보고서 열기  Tab 검색어 수정  Esc 닫기"))
	} else {
		b.WriteString(m.theme.ShortcutDesc.Render("Enter 검색  Tab 결과 선택  Esc 닫기"))
	}
	return m.theme.ListBox.Width(m.width - 4).Render(b.String())
}

func (m Model) viewReport() string {
	var b strings.Builder
	b.WriteString(m.theme.OverlayTitle.Render(m.reportTitle + " 기업 분석 보고서"))
	b.WriteString("\n")
	b.WriteString(m.reportBody.View())
	b.WriteString("\n")
	b.WriteString(m.theme.ShortcutDesc.Render("up/down/PgUp/PgDn 스크롤  Esc 검색으로 돌아가기"))
	return b.String()
}

// =============================================================================
// HELP VIEW
// =============================================================================

func (m Model) viewHelp() string {
	var b strings.Builder
	b.WriteString(m.theme.OverlayTitle.Render("단축키"))
	b.WriteString("\n\n")
	for _, group := range m.keyMap.FullHelp() {
		for _, binding := range group {
			b.WriteString(m.theme.ShortcutKey.Render(padKey(binding.Help().Key)))
			b.WriteString(m.theme.ShortcutDesc.Render(binding.Help().Desc))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(m.theme.ShortcutDesc.Render("아무 키나 누르면 닫힙니다"))
	return m.theme.OverlayBox.Width(m.width - 4).Render(b.String())
}

func padKey(k string) string {
	const width = 12
	if len(k) >= width {
		return k + " "
	}
	return k + strings.Repeat(" ", width-len(k))
}

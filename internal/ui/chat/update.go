// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	appchat "github.com/Kimyongari/Finsight/internal/chat"
	"github.com/Kimyongari/Finsight/internal/model"
	"github.com/Kimyongari/Finsight/internal/ui/styles"
	"github.com/Kimyongari/Finsight/internal/upload"
	"github.com/Kimyongari/Finsight/internal/util"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case conversationChangedMsg:
		m.refreshTranscript()
		return m, nil

	case filesLoadedMsg:
		m.files = msg.files
		if m.fileIndex >= len(m.files) {
			m.fileIndex = 0
		}
		m.view = ViewFiles
		return m, nil

	case fileDeletedMsg:
		return m, tea.Batch(
			m.loadFilesCmd(),
			flashStatus(fmt.Sprintf("%s 삭제됨", msg.fileName), false),
		)

	case uploadAdvancedMsg:
		return m.handleUploadAdvanced(msg)

	case corpResultsMsg:
		m.corpResults = msg.records
		m.corpIndex = 0
		m.corpFocused = len(m.corpResults) > 0
		if len(m.corpResults) == 0 {
			return m, flashStatus("검색 결과가 없습니다", false)
		}
		return m, nil

	case reportLoadedMsg:
		m.reportTitle = msg.corpName
		m.reportBody.SetContent(m.renderMarkdown(msg.markdown))
		m.reportBody.GotoTop()
		m.view = ViewReport
		return m, nil

	case viewerChangedMsg:
		m.viewerState = msg.state
		m.layoutTranscript()
		m.refreshTranscript()
		return m, nil

	case exportedMsg:
		return m, flashStatus("대화 내보내기 완료: "+msg.path, false)

	case statusMsg:
		m.status = msg.text
		m.statusErr = msg.isErr
		return m, nil

	case clearStatusMsg:
		m.status = ""
		m.statusErr = false
		return m, nil

	case errMsg:
		return m, flashStatus(msg.err.Error(), true)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)
	m.layoutTranscript()
	m.reportBody.Width = msg.Width - 4
	m.reportBody.Height = msg.Height - 6
	m.input.Width = msg.Width - 6
	m.refreshTranscript()
	return m
}

// layoutTranscript sizes the transcript viewport, leaving room for the
// viewer pane when a PDF is open in a wide enough terminal.
func (m *Model) layoutTranscript() {
	w := m.width
	if m.viewerState.Visible && m.theme.GetLayoutMode() == styles.LayoutWide {
		w = m.width / 2
	}
	m.transcript.Width = w - 2
	m.transcript.Height = m.height - 7
	if m.transcript.Height < 3 {
		m.transcript.Height = 3
	}
}

func (m *Model) refreshTranscript() {
	m.transcript.SetContent(m.renderTranscript())
	m.transcript.GotoBottom()
	m.refreshPlaceholder()
}

// refreshPlaceholder keeps the input hint in step with the conversation:
// first question, follow-up, or waiting on an answer.
func (m *Model) refreshPlaceholder() {
	switch {
	case m.controller.Pending():
		m.input.Placeholder = "답변을 기다리는 중입니다..."
	case len(m.controller.Messages()) == 0:
		m.input.Placeholder = "궁금한 내용을 입력해 주세요"
	default:
		m.input.Placeholder = "추가로 궁금한 내용을 입력해 주세요"
	}
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keyMap.Quit) {
		m.controller.Close()
		return m, tea.Quit
	}

	switch m.view {
	case ViewChat:
		return m.handleChatKey(msg)
	case ViewFiles:
		return m.handleFilesKey(msg)
	case ViewUpload:
		return m.handleUploadKey(msg)
	case ViewCorp:
		return m.handleCorpKey(msg)
	case ViewReport:
		return m.handleReportKey(msg)
	case ViewHelp:
		m.view = ViewChat
		return m, nil
	}
	return m, nil
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	km := m.keyMap
	switch {
	case key.Matches(msg, km.Submit):
		return m.submit()

	case key.Matches(msg, km.CycleMode):
		mode := m.controller.CycleMode()
		return m, flashStatus("질의 모드: "+mode.DisplayName(), false)

	case key.Matches(msg, km.NewChat):
		m.controller.NewConversation()
		m.citationIndex = -1
		m.viewerState = m.pdf.State()
		m.layoutTranscript()
		m.refreshTranscript()
		return m, flashStatus("새 대화를 시작합니다", false)

	case key.Matches(msg, km.Export):
		return m, m.exportCmd()

	case key.Matches(msg, km.Files):
		return m, m.loadFilesCmd()

	case key.Matches(msg, km.Upload):
		m.wizard.Reset()
		m.pathInput.Reset()
		m.pathInput.Focus()
		m.input.Blur()
		m.view = ViewUpload
		return m, nil

	case key.Matches(msg, km.CorpSearch):
		m.corpInput.Reset()
		m.corpInput.Focus()
		m.corpFocused = false
		m.corpResults = nil
		m.input.Blur()
		m.view = ViewCorp
		return m, nil

	case key.Matches(msg, km.NextCitation):
		m.moveCitation(1)
		m.refreshTranscript()
		return m, nil

	case key.Matches(msg, km.PrevCitation):
		m.moveCitation(-1)
		m.refreshTranscript()
		return m, nil

	case key.Matches(msg, km.OpenCitation):
		cites := m.selectableCitations()
		if m.citationIndex < 0 || m.citationIndex >= len(cites) {
			return m, nil
		}
		c := cites[m.citationIndex]
		return m, m.openCitationCmd(c.SourceFile, c.Page)

	case key.Matches(msg, km.PageUp):
		if m.viewerState.Visible {
			m.pdf.PrevPage()
			m.viewerState = m.pdf.State()
			return m, nil
		}
		m.transcript.ViewUp()
		return m, nil

	case key.Matches(msg, km.PageDown):
		if m.viewerState.Visible {
			m.pdf.NextPage()
			m.viewerState = m.pdf.State()
			return m, nil
		}
		m.transcript.ViewDown()
		return m, nil

	case key.Matches(msg, km.Up):
		m.transcript.LineUp(1)
		return m, nil

	case key.Matches(msg, km.Down):
		m.transcript.LineDown(1)
		return m, nil

	case key.Matches(msg, km.Back):
		if m.viewerState.Visible {
			m.pdf.Close()
			m.viewerState = m.pdf.State()
			m.layoutTranscript()
			m.refreshTranscript()
		}
		return m, nil

	case key.Matches(msg, km.Help):
		m.view = ViewHelp
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	_, err := m.controller.Submit(m.input.Value())
	switch {
	case errors.Is(err, appchat.ErrEmptyQuery):
		return m, nil
	case errors.Is(err, appchat.ErrBusy):
		return m, flashStatus("이전 질문의 답변을 기다리는 중입니다", true)
	case err != nil:
		return m, flashStatus(err.Error(), true)
	}
	m.input.Reset()
	m.citationIndex = -1
	m.refreshTranscript()
	return m, nil
}

// =============================================================================
// CITATION SELECTION
// =============================================================================

// selectableCitations returns the viewable citations of the most recent
// settled answer. Only viewable ones participate in selection: a citation
// without a file and page cannot open the viewer.
func (m Model) selectableCitations() []model.Citation {
	msgs := m.controller.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		msg := msgs[i]
		if msg.Role != model.RoleAnswer || msg.Phase() != model.PhaseSettled {
			continue
		}
		var out []model.Citation
		for _, c := range msg.Citations {
			if c.Viewable() {
				out = append(out, c)
			}
		}
		return out
	}
	return nil
}

func (m *Model) moveCitation(delta int) {
	cites := m.selectableCitations()
	if len(cites) == 0 {
		m.citationIndex = -1
		return
	}
	m.citationIndex = (m.citationIndex + delta + len(cites)) % len(cites)
}

// =============================================================================
// FILE MANAGER KEYS
// =============================================================================

func (m Model) handleFilesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up":
		if m.fileIndex > 0 {
			m.fileIndex--
		}
	case "down":
		if m.fileIndex < len(m.files)-1 {
			m.fileIndex++
		}
	case "d":
		if m.fileIndex < len(m.files) {
			return m, m.deleteFileCmd(m.files[m.fileIndex])
		}
	case "r":
		return m, m.loadFilesCmd()
	case "esc":
		m.view = ViewChat
		m.input.Focus()
	}
	return m, nil
}

// =============================================================================
// UPLOAD WIZARD KEYS
// =============================================================================

func (m Model) handleUploadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.wizard.Reset()
		m.view = ViewChat
		m.pathInput.Blur()
		m.input.Focus()
		return m, nil

	case "enter":
		switch m.wizard.Step() {
		case upload.StepChoose:
			if err := m.wizard.Choose(m.pathInput.Value()); err != nil {
				return m, flashStatus(err.Error(), true)
			}
			return m, nil
		case upload.StepUpload:
			return m, m.uploadCmd()
		case upload.StepRegister:
			return m, m.registerCmd()
		case upload.StepDone:
			m.wizard.Reset()
			m.view = ViewChat
			m.pathInput.Blur()
			m.input.Focus()
			return m, nil
		}
	}

	if m.wizard.Step() == upload.StepChoose {
		var cmd tea.Cmd
		m.pathInput, cmd = m.pathInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleUploadAdvanced(msg uploadAdvancedMsg) (tea.Model, tea.Cmd) {
	if msg.step == upload.StepDone {
		return m, flashStatus(m.wizard.FileName()+" 업로드 및 등록 완료", false)
	}
	return m, nil
}

// =============================================================================
// CORP SEARCH AND REPORT KEYS
// =============================================================================

func (m Model) handleCorpKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.corpFocused {
		switch msg.String() {
		case "up":
			if m.corpIndex > 0 {
				m.corpIndex--
			}
			return m, nil
		case "down":
			if m.corpIndex < len(m.corpResults)-1 {
				m.corpIndex++
			}
			return m, nil
		case "enter":
			if m.corpIndex < len(m.corpResults) {
				return m, m.reportCmd(m.corpResults[m.corpIndex])
			}
			return m, nil
		case "tab", "esc":
			m.corpFocused = false
			m.corpInput.Focus()
			return m, nil
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.view = ViewChat
		m.corpInput.Blur()
		m.input.Focus()
		return m, nil
	case "enter":
		return m, m.corpSearchCmd(m.corpInput.Value())
	case "tab":
		if len(m.corpResults) > 0 {
			m.corpFocused = true
			m.corpInput.Blur()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.corpInput, cmd = m.corpInput.Update(msg)
	return m, cmd
}

func (m Model) handleReportKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.view = ViewCorp
		return m, nil
	case "up":
		m.reportBody.LineUp(1)
	case "down":
		m.reportBody.LineDown(1)
	case "pgup":
		m.reportBody.ViewUp()
	case "pgdown":
		m.reportBody.ViewDown()
	}
	return m, nil
}

// =============================================================================
// EXPORT
// =============================================================================

// exportCmd writes the transcript next to the user's home directory.
func (m Model) exportCmd() tea.Cmd {
	md := m.controller.ExportMarkdown()
	return func() tea.Msg {
		home, err := os.UserHomeDir()
		if err != nil {
			return errMsg{err}
		}
		path := filepath.Join(home, fmt.Sprintf("finsight-chat-%s.md", time.Now().Format("20060102-150405")))
		if err := util.AtomicWriteFile(path, []byte(md), 0644); err != nil {
			return errMsg{err}
		}
		return exportedMsg{path: path}
	}
}

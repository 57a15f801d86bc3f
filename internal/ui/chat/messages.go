// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file defines the Bubble Tea messages the chat model reacts to and
// the commands that produce them. Everything that talks to the backend
// runs inside a tea.Cmd so the update loop never blocks.

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Kimyongari/Finsight/internal/corp"
	"github.com/Kimyongari/Finsight/internal/upload"
	"github.com/Kimyongari/Finsight/internal/viewer"
)

// =============================================================================
// MESSAGES
// =============================================================================

// conversationChangedMsg is pumped into the program whenever the controller
// mutates state: a rune was revealed, a query resolved, a message settled.
type conversationChangedMsg struct{}

// ConversationChanged builds the message the engine sends through
// tea.Program.Send from the controller's OnChange callback.
func ConversationChanged() tea.Msg {
	return conversationChangedMsg{}
}

// filesLoadedMsg carries the collection file list.
type filesLoadedMsg struct {
	files []string
}

// fileDeletedMsg reports a collection delete.
type fileDeletedMsg struct {
	fileName string
}

// uploadAdvancedMsg reports that the wizard moved past a network step.
type uploadAdvancedMsg struct {
	step upload.Step
}

// corpResultsMsg carries company search results.
type corpResultsMsg struct {
	records []corp.Record
}

// reportLoadedMsg carries a rendered advisory report.
type reportLoadedMsg struct {
	corpName string
	markdown string
}

// viewerChangedMsg reports that the PDF viewer finished an operation.
type viewerChangedMsg struct {
	state viewer.State
}

// exportedMsg reports where the transcript was written.
type exportedMsg struct {
	path string
}

// statusMsg shows a transient line in the status bar.
type statusMsg struct {
	text  string
	isErr bool
}

// clearStatusMsg removes the transient status line.
type clearStatusMsg struct{}

// errMsg carries a failed command's error.
type errMsg struct {
	err error
}

// =============================================================================
// COMMANDS
// =============================================================================

// requestTimeout bounds every backend call issued from the UI.
const requestTimeout = 60 * time.Second

func (m Model) loadFilesCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		files, err := m.collection.ShowFilesInCollection(ctx)
		if err != nil {
			return errMsg{err}
		}
		return filesLoadedMsg{files: files}
	}
}

func (m Model) deleteFileCmd(fileName string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := m.collection.DeleteFile(ctx, fileName); err != nil {
			return errMsg{err}
		}
		return fileDeletedMsg{fileName: fileName}
	}
}

func (m Model) uploadCmd() tea.Cmd {
	w := m.wizard
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := w.Upload(ctx); err != nil {
			return errMsg{err}
		}
		return uploadAdvancedMsg{step: w.Step()}
	}
}

func (m Model) registerCmd() tea.Cmd {
	w := m.wizard
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := w.Register(ctx); err != nil {
			return errMsg{err}
		}
		return uploadAdvancedMsg{step: w.Step()}
	}
}

func (m Model) corpSearchCmd(keyword string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		records, err := m.corps.Search(ctx, keyword)
		if err != nil {
			return errMsg{err}
		}
		return corpResultsMsg{records: records}
	}
}

func (m Model) reportCmd(rec corp.Record) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		md, err := m.corps.Report(ctx, rec.Code)
		if err != nil {
			return errMsg{err}
		}
		return reportLoadedMsg{corpName: rec.Name, markdown: md}
	}
}

// openCitationCmd toggles the PDF viewer onto the cited file and page.
// Downloads happen inside the viewer, so this runs as a command.
func (m Model) openCitationCmd(file string, page int) tea.Cmd {
	v := m.pdf
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := v.OnCiteClick(ctx, file, page); err != nil {
			return errMsg{err}
		}
		return viewerChangedMsg{state: v.State()}
	}
}

// flashStatus shows text in the status bar for a few seconds.
func flashStatus(text string, isErr bool) tea.Cmd {
	return tea.Sequence(
		func() tea.Msg { return statusMsg{text: text, isErr: isErr} },
		tea.Tick(4*time.Second, func(time.Time) tea.Msg { return clearStatusMsg{} }),
	)
}

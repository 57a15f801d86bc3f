// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	appchat "github.com/Kimyongari/Finsight/internal/chat"
	"github.com/Kimyongari/Finsight/internal/corp"
	"github.com/Kimyongari/Finsight/internal/ui/styles"
	"github.com/Kimyongari/Finsight/internal/upload"
	"github.com/Kimyongari/Finsight/internal/viewer"
)

// =============================================================================
// VIEW STATE
// =============================================================================

// View selects which screen the model is showing.
type View int

const (
	ViewChat   View = iota // Conversation transcript and input
	ViewFiles              // Collection file manager
	ViewUpload             // PDF upload wizard
	ViewCorp               // Company search
	ViewReport             // Advisory report reader
	ViewHelp               // Keyboard reference
)

// =============================================================================
// BACKEND SLICES
// =============================================================================

// Collection is the slice of the API client the file manager needs.
type Collection interface {
	ShowFilesInCollection(ctx context.Context) ([]string, error)
	DeleteFile(ctx context.Context, fileName string) error
}

// CorpLookup is the slice of the corp service the company views need.
type CorpLookup interface {
	Search(ctx context.Context, keyword string) ([]corp.Record, error)
	Report(ctx context.Context, corpCode string) (string, error)
}

// PDFViewer is the slice of the viewer the chat view needs.
type PDFViewer interface {
	OnCiteClick(ctx context.Context, file string, page int) error
	NextPage()
	PrevPage()
	Close()
	State() viewer.State
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the Finsight TUI.
type Model struct {
	// State
	view View

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// Engine
	controller *appchat.Controller
	pdf        PDFViewer
	collection Collection
	corps      CorpLookup
	wizard     *upload.Wizard

	// UI components
	transcript viewport.Model
	input      textinput.Model
	spinner    spinner.Model
	renderer   *glamour.TermRenderer

	// Key bindings
	keyMap KeyMap

	// Citation selection: index into the last settled answer's viewable
	// citations, -1 when nothing is selected.
	citationIndex int

	// Viewer pane snapshot, refreshed on viewerChangedMsg.
	viewerState viewer.State

	// File manager state
	files     []string
	fileIndex int

	// Upload wizard path prompt
	pathInput textinput.Model

	// Corp search state
	corpInput   textinput.Model
	corpResults []corp.Record
	corpIndex   int
	corpFocused bool // false while typing the keyword

	// Report reader state
	reportTitle string
	reportBody  viewport.Model

	// Transient status line
	status    string
	statusErr bool
}

// New creates the TUI model over an already-wired engine.
func New(theme *styles.Theme, controller *appchat.Controller, pdf PDFViewer, collection Collection, corps CorpLookup, wizard *upload.Wizard) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "궁금한 내용을 입력해 주세요"
	ti.CharLimit = 4096
	ti.Focus()

	ci := textinput.New()
	ci.Prompt = "기업명: "
	ci.Placeholder = "삼성전자"
	ci.CharLimit = 100

	pi := textinput.New()
	pi.Prompt = "PDF 경로: "
	pi.Placeholder = "/path/to/report.pdf"
	pi.CharLimit = 1024

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		renderer = nil // fall back to raw markdown
	}

	return Model{
		view:          ViewChat,
		theme:         theme,
		controller:    controller,
		pdf:           pdf,
		collection:    collection,
		corps:         corps,
		wizard:        wizard,
		transcript:    viewport.New(0, 0),
		reportBody:    viewport.New(0, 0),
		input:         ti,
		corpInput:     ci,
		pathInput:     pi,
		spinner:       sp,
		renderer:      renderer,
		keyMap:        DefaultKeyMap(),
		citationIndex: -1,
	}
}

// Init starts the spinner tick.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// renderMarkdown renders answer or report markdown for the terminal,
// falling back to the raw text when glamour is unavailable.
func (m Model) renderMarkdown(md string) string {
	if m.renderer == nil {
		return md
	}
	out, err := m.renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}

// Finsight - a terminal client for the CorpAdvisor financial RAG backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/Kimyongari/Finsight/internal/api"
	appchat "github.com/Kimyongari/Finsight/internal/chat"
	"github.com/Kimyongari/Finsight/internal/cli"
	"github.com/Kimyongari/Finsight/internal/config"
	"github.com/Kimyongari/Finsight/internal/corp"
	"github.com/Kimyongari/Finsight/internal/dispatch"
	"github.com/Kimyongari/Finsight/internal/model"
	"github.com/Kimyongari/Finsight/internal/storage"
	uichat "github.com/Kimyongari/Finsight/internal/ui/chat"
	"github.com/Kimyongari/Finsight/internal/ui/styles"
	"github.com/Kimyongari/Finsight/internal/upload"
	"github.com/Kimyongari/Finsight/internal/viewer"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdAsk:
		exitOnError(cli.HandleAsk(args))
	case cli.CmdFiles:
		exitOnError(cli.HandleFiles(args))
	case cli.CmdConfig:
		exitOnError(cli.HandleConfig(args))
	case cli.CmdVersion:
		cli.HandleVersion()
	case cli.CmdHelp:
		cli.HandleHelp()
	}
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runTUI wires the engine together and hands it to Bubble Tea.
func runTUI(args cli.Args) {
	cfg, err := config.Load()
	if err != nil {
		exitOnError(err)
	}
	if args.CSVPath != "" {
		cfg.Corp.CSVPath = args.CSVPath
	}

	// The terminal owns stdout, so logs go to a file under the config dir.
	cleanup := setupLogging()
	defer cleanup()

	client := api.NewClient(cfg.Backend.URL).
		WithTimeout(time.Duration(cfg.Backend.TimeoutSecs) * time.Second).
		WithRateLimit(rate.Limit(cfg.Backend.RateLimit), int(cfg.Backend.RateLimit)*2)
	dispatcher := dispatch.New(client)
	pdf := viewer.New(client)
	wizard := upload.NewWizard(client)

	mirror, err := newMirror(cfg)
	if err != nil {
		exitOnError(err)
	}

	controller := appchat.New(dispatcher, mirror, pdf,
		time.Duration(cfg.Chat.RevealIntervalMs)*time.Millisecond)
	defer controller.Close()
	if mode := model.QueryMode(cfg.Chat.DefaultMode); mode.Valid() {
		controller.SetMode(mode)
	}

	corps, watcher := newCorpService(cfg, client)
	if watcher != nil {
		defer watcher.Close()
	}

	m := uichat.New(styles.NewTheme(), controller, pdf, client, corps, wizard)
	program := tea.NewProgram(m, tea.WithAltScreen())

	// Reveal ticks and query resolutions arrive on engine goroutines;
	// Send is how they reach the update loop.
	controller.SetOnChange(func() {
		program.Send(uichat.ConversationChanged())
	})

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newMirror(cfg *config.Config) (*storage.Mirror, error) {
	if cfg.Chat.MirrorPath != "" {
		return storage.NewMirrorWithPath(cfg.Chat.MirrorPath), nil
	}
	return storage.NewMirror()
}

// newCorpService loads the local corp registry when configured, optionally
// hot-reloading it, and falls back to the backend otherwise.
func newCorpService(cfg *config.Config, client *api.Client) (*corp.Service, *corp.Watcher) {
	if cfg.Corp.CSVPath == "" {
		return corp.NewService(nil, client), nil
	}

	table := corp.NewTable()
	if err := table.LoadFile(cfg.Corp.CSVPath); err != nil {
		log.Printf("corp: cannot load %s, falling back to backend: %v", cfg.Corp.CSVPath, err)
		return corp.NewService(nil, client), nil
	}

	var watcher *corp.Watcher
	if cfg.Corp.WatchCSV {
		w, err := corp.WatchTable(table, cfg.Corp.CSVPath, nil)
		if err != nil {
			log.Printf("corp: watch failed, reload disabled: %v", err)
		} else {
			watcher = w
		}
	}
	return corp.NewService(table, client), watcher
}

// setupLogging sends the standard logger to ~/.finsight/finsight.log and
// returns a cleanup func. Logging is best effort; failure discards logs.
func setupLogging() func() {
	dir, err := config.ConfigDir()
	if err != nil {
		log.SetOutput(io.Discard)
		return func() {}
	}
	if err := config.EnsureConfigDir(); err != nil {
		log.SetOutput(io.Discard)
		return func() {}
	}
	f, err := os.OpenFile(filepath.Join(dir, "finsight.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		log.SetOutput(io.Discard)
		return func() {}
	}
	log.SetOutput(f)
	log.Printf("finsight %s starting", Version)
	return func() { f.Close() }
}

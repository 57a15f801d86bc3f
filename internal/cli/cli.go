// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command handlers for finsight.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdFiles
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Mode    string // query mode for ask: rag, advanced_rag, web_search
	CSVPath string // corp registry CSV override

	// Command-specific
	Query      string
	Subcommand string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `finsight - terminal chat for the CorpAdvisor financial RAG backend

Finsight is a terminal client for a retrieval-augmented financial
advisory backend.

It provides:
  - Chat over your uploaded financial PDFs with per-answer citations
  - A citation-synchronized PDF viewer
  - PDF upload and vector collection management
  - DART company lookup and advisory report reading

Usage:
  finsight                    Start TUI (default)
  finsight ask "question"     Ask a single question and print the answer
  finsight files [list|rm]    Manage the vector collection
  finsight config [show|path] Configuration
  finsight version            Show version
  finsight help               Show this help

Flags:
  --mode MODE    Query mode for ask: rag, advanced_rag, web_search
  --csv PATH     Corp registry CSV path override
  --quiet        Suppress informational output

Environment:
  FINSIGHT_BACKEND_URL   Backend base URL (default http://127.0.0.1:8000)
  FINSIGHT_CSV_PATH      Corp registry CSV path
  FINSIGHT_THEME         dark, light, or auto
`

// Parse parses os.Args into a command and its arguments.
func Parse() (Command, Args) {
	return parse(os.Args[1:])
}

func parse(argv []string) (Command, Args) {
	var args Args
	var positional []string

	for i := 0; i < len(argv); i++ {
		a := argv[i]
		switch {
		case a == "--quiet" || a == "-q":
			args.Quiet = true
		case a == "--mode":
			if i+1 < len(argv) {
				i++
				args.Mode = argv[i]
			}
		case strings.HasPrefix(a, "--mode="):
			args.Mode = strings.TrimPrefix(a, "--mode=")
		case a == "--csv":
			if i+1 < len(argv) {
				i++
				args.CSVPath = argv[i]
			}
		case strings.HasPrefix(a, "--csv="):
			args.CSVPath = strings.TrimPrefix(a, "--csv=")
		case a == "--help" || a == "-h":
			return CmdHelp, args
		case a == "--version" || a == "-v":
			return CmdVersion, args
		default:
			positional = append(positional, a)
		}
	}

	if len(positional) == 0 {
		return CmdTUI, args
	}

	cmd := positional[0]
	rest := positional[1:]
	args.Raw = rest

	switch cmd {
	case "ask":
		args.Query = strings.Join(rest, " ")
		return CmdAsk, args
	case "files":
		if len(rest) > 0 {
			args.Subcommand = rest[0]
			args.Raw = rest[1:]
		}
		return CmdFiles, args
	case "config":
		if len(rest) > 0 {
			args.Subcommand = rest[0]
		}
		return CmdConfig, args
	case "version":
		return CmdVersion, args
	case "help":
		return CmdHelp, args
	default:
		fmt.Fprintf(os.Stderr, "finsight: unknown command %q\n\n", cmd)
		return CmdHelp, args
	}
}

// HandleHelp prints usage.
func HandleHelp() {
	fmt.Print(usageText)
}

// HandleVersion prints version information.
func HandleVersion() {
	fmt.Printf("finsight %s (%s, built %s)\n", Version, GitCommit, BuildDate)
}

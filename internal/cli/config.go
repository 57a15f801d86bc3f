// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/Kimyongari/Finsight/internal/config"
)

// HandleConfig shows the resolved configuration.
//
//	finsight config           show resolved values
//	finsight config show      same
//	finsight config path      print the config file path
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "path":
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil

	case "", "show":
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		fmt.Printf("backend.url          = %s\n", cfg.Backend.URL)
		fmt.Printf("backend.timeout_secs = %d\n", cfg.Backend.TimeoutSecs)
		fmt.Printf("backend.rate_limit   = %g\n", cfg.Backend.RateLimit)
		fmt.Printf("chat.reveal_ms       = %d\n", cfg.Chat.RevealIntervalMs)
		fmt.Printf("chat.default_mode    = %s\n", cfg.Chat.DefaultMode)
		fmt.Printf("corp.csv_path        = %s\n", cfg.Corp.CSVPath)
		fmt.Printf("corp.watch_csv       = %t\n", cfg.Corp.WatchCSV)
		fmt.Printf("ui.theme             = %s\n", cfg.UI.Theme)
		return nil

	default:
		return fmt.Errorf("unknown config subcommand %q (show, path)", args.Subcommand)
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/Kimyongari/Finsight/internal/api"
	"github.com/Kimyongari/Finsight/internal/config"
	"github.com/Kimyongari/Finsight/internal/dispatch"
	"github.com/Kimyongari/Finsight/internal/model"
)

// HandleAsk runs a single query against the backend and prints the answer
// with its citations. No conversation state is saved.
func HandleAsk(args Args) error {
	if args.Query == "" {
		return fmt.Errorf("usage: finsight ask \"question\"")
	}

	mode := model.DefaultMode
	if args.Mode != "" {
		mode = model.QueryMode(args.Mode)
		if !mode.Valid() {
			return fmt.Errorf("invalid mode %q (rag, advanced_rag, web_search)", args.Mode)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	client := newClient(cfg)
	dispatcher := dispatch.New(client)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if !args.Quiet {
		fmt.Fprintf(os.Stderr, "asking %s (%s)...\n", cfg.Backend.URL, mode)
	}
	result, err := dispatcher.Execute(ctx, args.Query, mode)
	if err != nil {
		return err
	}

	fmt.Println(result.Answer)
	if len(result.Citations) > 0 {
		fmt.Println()
		fmt.Println("출처:")
		for _, c := range result.Citations {
			line := "  - " + c.Label
			if c.Page >= 1 {
				line += fmt.Sprintf(" (p.%d)", c.Page)
			}
			if c.Link != "" {
				line += " <" + c.Link + ">"
			}
			fmt.Println(line)
		}
	}
	return nil
}

// newClient builds an API client from the resolved config.
func newClient(cfg *config.Config) *api.Client {
	client := api.NewClient(cfg.Backend.URL).
		WithTimeout(time.Duration(cfg.Backend.TimeoutSecs) * time.Second)
	if cfg.Backend.RateLimit > 0 {
		client = client.WithRateLimit(rate.Limit(cfg.Backend.RateLimit), int(cfg.Backend.RateLimit)*2)
	}
	return client
}

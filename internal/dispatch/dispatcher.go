// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"context"
	"fmt"
	"log"

	"github.com/Kimyongari/Finsight/internal/api"
	"github.com/Kimyongari/Finsight/internal/model"
)

// Backend is the slice of the API client the dispatcher needs.
type Backend interface {
	AnalyzeIntention(ctx context.Context, query string) (string, error)
	Guide(ctx context.Context, query string) (*api.QueryResult, error)
	Query(ctx context.Context, query string, mode model.QueryMode) (*api.QueryResult, error)
}

// Dispatcher routes a query to the right backend pipeline. Every Execute
// runs the same two-step sequence: intent pre-analysis first, then either
// the guide endpoint (small talk) or the retrieval pipeline selected by the
// caller's mode. The two calls are strictly sequential and nothing is
// retried; any failure on either step rejects the whole dispatch.
type Dispatcher struct {
	backend Backend
}

// New creates a dispatcher over the given backend.
func New(backend Backend) *Dispatcher {
	return &Dispatcher{backend: backend}
}

// Execute resolves one query. The dispatcher is stateless per call and safe
// for concurrent use, though the controller only ever runs one query at a
// time.
func (d *Dispatcher) Execute(ctx context.Context, query string, mode model.QueryMode) (*api.QueryResult, error) {
	next, err := d.backend.AnalyzeIntention(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("intent analysis: %w", err)
	}
	log.Printf("dispatch: intent=%q mode=%q", next, mode)

	if next == api.IntentChat {
		result, err := d.backend.Guide(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("guide: %w", err)
		}
		return result, nil
	}

	result, err := d.backend.Query(ctx, query, mode)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return result, nil
}

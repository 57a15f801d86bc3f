// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package corp

import (
	"context"
	"fmt"

	"github.com/Kimyongari/Finsight/internal/api"
)

// Financial is the slice of the API client the service needs.
type Financial interface {
	CorpList(ctx context.Context, keyword string) ([]api.CorpInfo, error)
	Report(ctx context.Context, corpCode string) (string, error)
}

// Service resolves company lookups, preferring the local CSV table and
// falling back to the backend when no table is loaded. Reports always come
// from the backend.
type Service struct {
	table   *Table
	backend Financial
}

// NewService creates a lookup service. table may be nil when no CSV is
// configured.
func NewService(table *Table, backend Financial) *Service {
	return &Service{table: table, backend: backend}
}

// Search finds companies matching the keyword.
func (s *Service) Search(ctx context.Context, keyword string) ([]Record, error) {
	if s.table != nil && s.table.Len() > 0 {
		return s.table.Filter(keyword), nil
	}

	infos, err := s.backend.CorpList(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("corp search: %w", err)
	}
	records := make([]Record, 0, len(infos))
	for _, info := range infos {
		records = append(records, Record{
			Code:       info.CorpCode,
			Name:       info.CorpName,
			EngName:    info.CorpEngName,
			ModifyDate: info.ModifyDate,
		})
	}
	return records, nil
}

// Report fetches the advisory report for a company code.
func (s *Service) Report(ctx context.Context, corpCode string) (string, error) {
	if corpCode == "" {
		return "", fmt.Errorf("corp code is empty")
	}
	return s.backend.Report(ctx, corpCode)
}

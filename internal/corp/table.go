// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package corp

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Record is one company in the lookup table.
type Record struct {
	Code       string
	Name       string
	EngName    string
	ModifyDate string
}

// Table is an in-memory company lookup table loaded from a CSV export of
// the DART corp code registry. Reloads swap the whole slice under a lock,
// so lookups racing a hot reload see either the old or the new table.
type Table struct {
	mu      sync.RWMutex
	records []Record
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{}
}

// LoadFile replaces the table contents from a CSV file.
func (t *Table) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()
	return t.Load(f)
}

// Load replaces the table contents from CSV data. The header row decides
// column positions, so exports with reordered or extra columns still parse.
func (t *Table) Load(r io.Reader) error {
	records, err := parseCSV(r)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.records = records
	t.mu.Unlock()
	return nil
}

// parseCSV reads the header to find the known columns and collects rows.
func parseCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	// Rows with trailing empty columns are common in registry exports.
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	codeIdx, ok := cols["corp_code"]
	if !ok {
		return nil, fmt.Errorf("csv missing corp_code column")
	}
	nameIdx, ok := cols["corp_name"]
	if !ok {
		return nil, fmt.Errorf("csv missing corp_name column")
	}
	engIdx, hasEng := cols["corp_eng_name"]
	dateIdx, hasDate := cols["modify_date"]

	var records []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}
		if codeIdx >= len(row) || nameIdx >= len(row) {
			continue
		}
		rec := Record{
			Code: strings.TrimSpace(row[codeIdx]),
			Name: strings.TrimSpace(row[nameIdx]),
		}
		if rec.Code == "" || rec.Name == "" {
			continue
		}
		if hasEng && engIdx < len(row) {
			rec.EngName = strings.TrimSpace(row[engIdx])
		}
		if hasDate && dateIdx < len(row) {
			rec.ModifyDate = strings.TrimSpace(row[dateIdx])
		}
		records = append(records, rec)
	}
	return records, nil
}

// Len returns the number of loaded records.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// Filter returns records whose code, name, or English name contains the
// keyword, case-insensitively. An empty keyword returns everything.
func (t *Table) Filter(keyword string) []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()

	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		out := make([]Record, len(t.records))
		copy(out, t.records)
		return out
	}

	var out []Record
	for _, rec := range t.records {
		if strings.Contains(strings.ToLower(rec.Code), keyword) ||
			strings.Contains(strings.ToLower(rec.Name), keyword) ||
			strings.Contains(strings.ToLower(rec.EngName), keyword) {
			out = append(out, rec)
		}
	}
	return out
}

// ByCode returns the record with the exact corp code, if present.
func (t *Table) ByCode(code string) (Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, rec := range t.records {
		if rec.Code == code {
			return rec, true
		}
	}
	return Record{}, false
}

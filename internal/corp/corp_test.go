// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package corp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Kimyongari/Finsight/internal/api"
)

const sampleCSV = `corp_code,corp_name,corp_eng_name,modify_date
00126380,삼성전자,Samsung Electronics,20240513
00164779,SK하이닉스,SK hynix,20240102
00401731,LG전자,LG Electronics,20231120
`

// =============================================================================
// TABLE TESTS
// =============================================================================

func TestTable_Load(t *testing.T) {
	table := NewTable()
	if err := table.Load(strings.NewReader(sampleCSV)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", table.Len())
	}

	rec, ok := table.ByCode("00126380")
	if !ok {
		t.Fatal("ByCode(00126380) not found")
	}
	if rec.Name != "삼성전자" || rec.EngName != "Samsung Electronics" || rec.ModifyDate != "20240513" {
		t.Errorf("record = %+v", rec)
	}
}

func TestTable_HeaderOrderIndependent(t *testing.T) {
	reordered := `modify_date,corp_eng_name,corp_name,corp_code
20240513,Samsung Electronics,삼성전자,00126380
`
	table := NewTable()
	if err := table.Load(strings.NewReader(reordered)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	rec, ok := table.ByCode("00126380")
	if !ok || rec.Name != "삼성전자" {
		t.Errorf("reordered header parse failed: %+v ok=%v", rec, ok)
	}
}

func TestTable_MissingRequiredColumn(t *testing.T) {
	table := NewTable()
	err := table.Load(strings.NewReader("corp_name,modify_date\n삼성전자,20240101\n"))
	if err == nil {
		t.Fatal("missing corp_code column should fail")
	}
}

func TestTable_SkipsBlankRows(t *testing.T) {
	csv := "corp_code,corp_name\n00126380,삼성전자\n,\n00164779,SK하이닉스\n"
	table := NewTable()
	if err := table.Load(strings.NewReader(csv)); err != nil {
		t.Fatal(err)
	}
	if table.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (blank row skipped)", table.Len())
	}
}

func TestTable_Filter(t *testing.T) {
	table := NewTable()
	if err := table.Load(strings.NewReader(sampleCSV)); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		keyword string
		want    int
	}{
		{"korean name", "삼성", 1},
		{"case insensitive english", "samsung", 1},
		{"mixed case english", "Sk HyNix", 1},
		{"by code fragment", "0040", 1},
		{"shared substring", "전자", 2},
		{"empty returns all", "", 3},
		{"no match", "현대", 0},
		{"surrounding spaces", "  삼성  ", 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := table.Filter(tc.keyword)
			if len(got) != tc.want {
				t.Errorf("Filter(%q) returned %d records, want %d", tc.keyword, len(got), tc.want)
			}
		})
	}
}

func TestTable_ReloadReplaces(t *testing.T) {
	table := NewTable()
	if err := table.Load(strings.NewReader(sampleCSV)); err != nil {
		t.Fatal(err)
	}
	if err := table.Load(strings.NewReader("corp_code,corp_name\n00999999,현대차\n")); err != nil {
		t.Fatal(err)
	}
	if table.Len() != 1 {
		t.Errorf("Len() = %d after reload, want 1", table.Len())
	}
	if _, ok := table.ByCode("00126380"); ok {
		t.Error("old records should be gone after reload")
	}
}

// =============================================================================
// WATCHER TESTS
// =============================================================================

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corp.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0644); err != nil {
		t.Fatal(err)
	}

	table := NewTable()
	if err := table.LoadFile(path); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan error, 4)
	w, err := WatchTable(table, path, func(err error) { reloaded <- err })
	if err != nil {
		t.Fatalf("WatchTable failed: %v", err)
	}
	defer w.Close()

	updated := sampleCSV + "00999999,현대차,Hyundai Motor,20240601\n"
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-reloaded:
		if err != nil {
			t.Fatalf("reload failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload in time")
	}

	// The write may fire multiple events; the table must end up with the
	// new row either way.
	deadline := time.Now().Add(2 * time.Second)
	for table.Len() != 4 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if table.Len() != 4 {
		t.Errorf("Len() = %d after reload, want 4", table.Len())
	}
}

// =============================================================================
// SERVICE TESTS
// =============================================================================

type fakeFinancial struct {
	corps     []api.CorpInfo
	corpErr   error
	corpCalls int
	report    string
	reportErr error
	gotCode   string
}

func (f *fakeFinancial) CorpList(ctx context.Context, keyword string) ([]api.CorpInfo, error) {
	f.corpCalls++
	return f.corps, f.corpErr
}

func (f *fakeFinancial) Report(ctx context.Context, corpCode string) (string, error) {
	f.gotCode = corpCode
	return f.report, f.reportErr
}

func TestService_SearchPrefersLocalTable(t *testing.T) {
	table := NewTable()
	if err := table.Load(strings.NewReader(sampleCSV)); err != nil {
		t.Fatal(err)
	}
	backend := &fakeFinancial{}
	svc := NewService(table, backend)

	got, err := svc.Search(context.Background(), "삼성")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Code != "00126380" {
		t.Errorf("Search = %+v", got)
	}
	if backend.corpCalls != 0 {
		t.Error("local table should serve the search without backend calls")
	}
}

func TestService_SearchFallsBackToBackend(t *testing.T) {
	backend := &fakeFinancial{corps: []api.CorpInfo{
		{CorpCode: "00126380", CorpName: "삼성전자", CorpEngName: "Samsung Electronics", ModifyDate: "20240513"},
	}}
	svc := NewService(nil, backend)

	got, err := svc.Search(context.Background(), "삼성")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "삼성전자" {
		t.Errorf("Search = %+v", got)
	}
	if backend.corpCalls != 1 {
		t.Errorf("corpCalls = %d, want 1", backend.corpCalls)
	}
}

func TestService_SearchBackendError(t *testing.T) {
	wantErr := errors.New("down")
	svc := NewService(nil, &fakeFinancial{corpErr: wantErr})
	if _, err := svc.Search(context.Background(), "x"); !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want wrapped %v", err, wantErr)
	}
}

func TestService_Report(t *testing.T) {
	backend := &fakeFinancial{report: "# 보고서"}
	svc := NewService(nil, backend)

	got, err := svc.Report(context.Background(), "00126380")
	if err != nil {
		t.Fatal(err)
	}
	if got != "# 보고서" || backend.gotCode != "00126380" {
		t.Errorf("Report = %q code=%q", got, backend.gotCode)
	}

	if _, err := svc.Report(context.Background(), ""); err == nil {
		t.Error("empty corp code should be rejected")
	}
}

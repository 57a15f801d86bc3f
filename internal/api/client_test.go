// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kimyongari/Finsight/internal/model"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL), srv
}

// =============================================================================
// QUERY ENDPOINT TESTS
// =============================================================================

func TestAnalyzeIntention(t *testing.T) {
	var gotPath, gotQuery string
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotQuery = req["query"]
		json.NewEncoder(w).Encode(map[string]string{"next": "CHAT"})
	}))
	defer srv.Close()

	next, err := client.AnalyzeIntention(context.Background(), "안녕하세요")
	require.NoError(t, err)
	assert.Equal(t, IntentChat, next)
	assert.Equal(t, "/rag/analyze_intention", gotPath)
	assert.Equal(t, "안녕하세요", gotQuery)
}

func TestGuide_NoCitations(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rag/guide", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"answer": "무엇이든 물어보세요."})
	}))
	defer srv.Close()

	result, err := client.Guide(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "무엇이든 물어보세요.", result.Answer)
	require.NotNil(t, result.Citations)
	assert.Empty(t, result.Citations)
}

func TestQuery_ModeRouting(t *testing.T) {
	tests := []struct {
		mode     model.QueryMode
		wantPath string
	}{
		{model.ModeRAG, "/rag/query"},
		{model.ModeAdvancedRAG, "/rag/advanced_query"},
		{model.ModeWebSearch, "/web-agent/agent/web-search"},
	}

	for _, tc := range tests {
		t.Run(string(tc.mode), func(t *testing.T) {
			var gotPath string
			client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				json.NewEncoder(w).Encode(map[string]any{"answer": "ok"})
			}))
			defer srv.Close()

			result, err := client.Query(context.Background(), "q", tc.mode)
			require.NoError(t, err)
			assert.Equal(t, tc.wantPath, gotPath)
			assert.Equal(t, "ok", result.Answer)
		})
	}
}

func TestQuery_UnknownMode(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	_, err := client.Query(context.Background(), "q", model.QueryMode("bogus"))
	require.Error(t, err)
}

func TestQuery_MissingDocumentsField(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No retrieved_documents key at all.
		w.Write([]byte(`{"answer":"영업이익은 증가했습니다."}`))
	}))
	defer srv.Close()

	result, err := client.Query(context.Background(), "q", model.ModeRAG)
	require.NoError(t, err)
	require.NotNil(t, result.Citations, "absent field must normalize to empty slice, not nil")
	assert.Empty(t, result.Citations)
}

func TestQuery_NormalizesCitations(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"answer": "요약입니다.",
			"retrieved_documents": [
				{"name": "사업보고서", "text": "chunk one", "i_page": 12, "file_name": "samsung_2024.pdf"},
				{"title": "old style", "content": "chunk two", "n_page": 3, "file_path": "lg_2023.pdf"},
				{"name": "news article", "text": "web chunk", "link": "https://example.com/article"}
			]
		}`))
	}))
	defer srv.Close()

	result, err := client.Query(context.Background(), "q", model.ModeRAG)
	require.NoError(t, err)
	require.Len(t, result.Citations, 3)

	first := result.Citations[0]
	assert.Equal(t, "사업보고서", first.Label)
	assert.Equal(t, "chunk one", first.Excerpt)
	assert.Equal(t, 12, first.Page)
	assert.Equal(t, "samsung_2024.pdf", first.SourceFile)
	assert.True(t, first.Viewable())

	second := result.Citations[1]
	assert.Equal(t, "old style", second.Label)
	assert.Equal(t, "chunk two", second.Excerpt)
	assert.Equal(t, 3, second.Page)
	assert.Equal(t, "lg_2023.pdf", second.SourceFile)
	assert.True(t, second.Viewable())

	third := result.Citations[2]
	assert.Equal(t, "https://example.com/article", third.Link)
	assert.False(t, third.Viewable())
}

func TestQuery_MalformedBody(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"answer": `))
	}))
	defer srv.Close()

	_, err := client.Query(context.Background(), "q", model.ModeRAG)
	require.Error(t, err)
}

// =============================================================================
// ERROR MAPPING TESTS
// =============================================================================

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"not found", http.StatusNotFound, ErrNotFound},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"server error", http.StatusInternalServerError, ErrServerError},
		{"bad gateway", http.StatusBadGateway, ErrServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(`{"detail":"nope"}`))
			}))
			defer srv.Close()

			_, err := client.Query(context.Background(), "q", model.ModeRAG)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.wantErr), "want %v in chain, got %v", tc.wantErr, err)
		})
	}
}

func TestErrorMapping_OtherStatus(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"bad query"}`))
	}))
	defer srv.Close()

	_, err := client.Query(context.Background(), "q", model.ModeRAG)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "bad query", apiErr.Message)
}

func TestNotConfigured(t *testing.T) {
	client := NewClient("")
	_, err := client.AnalyzeIntention(context.Background(), "q")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestContextCancellation(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Query(ctx, "q", model.ModeRAG)
	require.Error(t, err)
}

// =============================================================================
// COLLECTION ENDPOINT TESTS
// =============================================================================

func TestShowFilesInCollection(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rag/show_files_in_collection", r.URL.Path)
		w.Write([]byte(`{"unique_file_name_and_chunk":[{"file_name":"a.pdf"},{"file_name":"b.pdf"}]}`))
	}))
	defer srv.Close()

	names, err := client.ShowFilesInCollection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, names)
}

func TestDeleteFile(t *testing.T) {
	var gotBody fileNameRequest
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rag/delete_objects_from_file_name", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	require.NoError(t, client.DeleteFile(context.Background(), "a.pdf"))
	assert.Equal(t, "a.pdf", gotBody.FileName)
}

func TestRegister(t *testing.T) {
	var gotBody registerRequest
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rag/register", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	require.NoError(t, client.Register(context.Background(), []string{"a.pdf", "b.pdf"}))
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, gotBody.FileName)
}

// =============================================================================
// FILE ENDPOINT TESTS
// =============================================================================

func TestUploadPDF_Multipart(t *testing.T) {
	var gotName string
	var gotContent []byte
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files/upload-pdf", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("files")
		require.NoError(t, err)
		defer file.Close()
		gotName = header.Filename
		gotContent, err = io.ReadAll(file)
		require.NoError(t, err)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	content := []byte("%PDF-1.7 fake")
	err := client.UploadPDF(context.Background(), "report.pdf", bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", gotName)
	assert.Equal(t, content, gotContent)
}

func TestDownloadPDF(t *testing.T) {
	pdfBytes := []byte("%PDF-1.7 binary body")
	var gotBody fileNameRequest
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/files/download-pdf", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write(pdfBytes)
	}))
	defer srv.Close()

	data, err := client.DownloadPDF(context.Background(), "samsung_2024.pdf")
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, data)
	assert.Equal(t, "samsung_2024.pdf", gotBody.FileName)
}

// =============================================================================
// FINANCIAL ENDPOINT TESTS
// =============================================================================

func TestCorpList(t *testing.T) {
	var gotBody corpListRequest
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/financial/corp_list", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"data":[{"corp_code":"00126380","corp_name":"삼성전자","corp_eng_name":"Samsung Electronics","modify_date":"20240513"}]}`))
	}))
	defer srv.Close()

	corps, err := client.CorpList(context.Background(), "삼성")
	require.NoError(t, err)
	require.Len(t, corps, 1)
	assert.Equal(t, "00126380", corps[0].CorpCode)
	assert.Equal(t, "삼성전자", corps[0].CorpName)
	assert.Equal(t, "삼성", gotBody.Keyword)
}

func TestReport(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/report/00126380", r.URL.Path)
		w.Write([]byte("# 투자 보고서\n요약 내용"))
	}))
	defer srv.Close()

	report, err := client.Report(context.Background(), "00126380")
	require.NoError(t, err)
	assert.Contains(t, report, "투자 보고서")
}

// =============================================================================
// NORMALIZATION UNIT TESTS
// =============================================================================

func TestRawDocument_Normalize_LabelFallback(t *testing.T) {
	tests := []struct {
		name string
		doc  rawDocument
		want string
	}{
		{"name wins", rawDocument{Name: "n", Title: "t"}, "n"},
		{"title fallback", rawDocument{Title: "t"}, "t"},
		{"file fallback", rawDocument{FileName: "f.pdf"}, "f.pdf"},
		{"link fallback", rawDocument{Link: "https://x"}, "https://x"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.doc.Normalize().Label; got != tc.want {
				t.Errorf("Label = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRawDocument_Normalize_PagePrecedence(t *testing.T) {
	one, two, three := 1, 2, 3
	doc := rawDocument{IPage: &one, NPage: &two, Page: &three}
	if got := doc.Normalize().Page; got != 1 {
		t.Errorf("Page = %d, want i_page to win", got)
	}
	doc = rawDocument{NPage: &two, Page: &three}
	if got := doc.Normalize().Page; got != 2 {
		t.Errorf("Page = %d, want n_page over page", got)
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"github.com/Kimyongari/Finsight/internal/model"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// queryRequest is the body for all query-style endpoints.
type queryRequest struct {
	Query string `json:"query"`
}

// fileNameRequest is the body for per-file endpoints (download, delete).
type fileNameRequest struct {
	FileName string `json:"file_name"`
}

// registerRequest is the body for /rag/register.
type registerRequest struct {
	FileName []string `json:"file_name"`
}

// corpListRequest is the body for /financial/corp_list.
type corpListRequest struct {
	Keyword string `json:"keyword"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// intentionResponse is the body returned by /rag/analyze_intention.
type intentionResponse struct {
	Next string `json:"next"`
}

// IntentChat is the intention verdict meaning the query needs no retrieval
// and should be answered by the guide endpoint.
const IntentChat = "CHAT"

// queryResponse is the body returned by the query endpoints. The
// retrieved_documents field is absent for guide answers and some web
// responses; a missing field decodes to nil and normalizes to an empty
// citation slice.
type queryResponse struct {
	Answer             string        `json:"answer"`
	RetrievedDocuments []rawDocument `json:"retrieved_documents"`
}

// rawDocument is one retrieved document as the backend sends it. The field
// set varies by pipeline: RAG results carry name/text/i_page/file_name,
// older pipelines use title/content/n_page/file_path, web-search results
// carry link or url. All variants decode into this one struct and are
// normalized in Normalize.
type rawDocument struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	Content  string `json:"content"`
	IPage    *int   `json:"i_page"`
	NPage    *int   `json:"n_page"`
	Page     *int   `json:"page"`
	FileName string `json:"file_name"`
	FilePath string `json:"file_path"`
	Link     string `json:"link"`
	URL      string `json:"url"`
}

// Normalize flattens the duck-typed document into a model.Citation,
// preferring the newer field names when both variants are present.
func (d rawDocument) Normalize() model.Citation {
	c := model.Citation{}

	switch {
	case d.Name != "":
		c.Label = d.Name
	case d.Title != "":
		c.Label = d.Title
	}

	switch {
	case d.Text != "":
		c.Excerpt = d.Text
	case d.Content != "":
		c.Excerpt = d.Content
	}

	switch {
	case d.IPage != nil:
		c.Page = *d.IPage
	case d.NPage != nil:
		c.Page = *d.NPage
	case d.Page != nil:
		c.Page = *d.Page
	}

	switch {
	case d.FileName != "":
		c.SourceFile = d.FileName
	case d.FilePath != "":
		c.SourceFile = d.FilePath
	}

	switch {
	case d.Link != "":
		c.Link = d.Link
	case d.URL != "":
		c.Link = d.URL
	}

	// A citation always has a label: fall back to the source file, then
	// the link, so the UI never renders an unnamed entry.
	if c.Label == "" {
		if c.SourceFile != "" {
			c.Label = c.SourceFile
		} else if c.Link != "" {
			c.Label = c.Link
		}
	}

	return c
}

// normalizeDocuments converts the backend documents into citations. A nil
// slice (field absent from the response) yields an empty, non-nil slice so
// callers never branch on nil.
func normalizeDocuments(docs []rawDocument) []model.Citation {
	citations := make([]model.Citation, 0, len(docs))
	for _, d := range docs {
		citations = append(citations, d.Normalize())
	}
	return citations
}

// QueryResult is the normalized outcome of any query endpoint.
type QueryResult struct {
	Answer    string
	Citations []model.Citation
}

// collectionResponse is the body returned by /rag/show_files_in_collection.
type collectionResponse struct {
	UniqueFileNameAndChunk []collectionEntry `json:"unique_file_name_and_chunk"`
}

// collectionEntry is one file in the vector collection.
type collectionEntry struct {
	FileName string `json:"file_name"`
}

// CorpInfo is one company record from /financial/corp_list.
type CorpInfo struct {
	CorpCode    string `json:"corp_code"`
	CorpName    string `json:"corp_name"`
	CorpEngName string `json:"corp_eng_name"`
	ModifyDate  string `json:"modify_date"`
}

// corpListResponse is the body returned by /financial/corp_list.
type corpListResponse struct {
	Data []CorpInfo `json:"data"`
}

// apiErrorResponse is the error body the backend returns on failures.
type apiErrorResponse struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

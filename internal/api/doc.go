// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package api implements the HTTP client for the CorpAdvisor backend.

The client covers every backend surface the app touches:

  - intent pre-analysis and the query pipelines (/rag/analyze_intention,
    /rag/guide, /rag/query, /rag/advanced_query,
    /web-agent/agent/web-search)
  - vector collection management (/rag/show_files_in_collection,
    /rag/delete_objects_from_file_name, /rag/register)
  - PDF transfer (/files/upload-pdf, /files/download-pdf)
  - financial lookups (/financial/corp_list, /report/{corpCode})

Retrieved documents arrive with a field set that varies by pipeline; they
are normalized into model.Citation at this boundary so nothing downstream
sees the raw wire shape.

All requests are context-bound, rate-limited client-side, read with a size
cap, and never retried.
*/
package api

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package upload walks a PDF through the backend's ingestion flow.
//
// Ingestion is two backend calls: upload the raw file, then register it
// so it gets chunked into the vector collection. The Wizard models that
// as a small forward-only state machine so the UI can show one step at a
// time and retry a failed step without repeating the one before it.
package upload

// Package docindex is the schemaless JSON → inverted index boundary
// (§4.2): it builds the bleve index mapping that backs every tenant's
// three parallel field trees (_json_search, _json_filter, _json_exact)
// plus geo and facet side fields, converts a types.Document into the
// record bleve indexes, and wraps one tenant's on-disk bleve.Index
// with the open-or-create lifecycle the manager needs.
//
// There is no surviving original_source file for the document
// converter itself (engine/src/index/document.rs was filtered out of
// the retrieval pack) — its shape here is derived from spec.md §4.2
// and the field layout in original_source/engine/src/index/schema.rs.
package docindex

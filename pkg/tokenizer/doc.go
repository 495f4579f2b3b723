// Package tokenizer registers the two analyzers the schemaless indexer
// needs into bleve's analysis registry: edge_ngram_lower (CJK-aware
// splitter, lowercased, edge-n-gram expanded — used to index
// _json_search) and simple (the same splitter without n-gramming —
// used to query _json_search and to index/query _json_exact). Callers
// import this package for its init() side effect before building any
// bleve index mapping.
package tokenizer

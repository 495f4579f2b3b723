// Package queryexec turns a types.SearchRequest into a types.SearchResult
// against one tenant's bleve index: the query-text pipeline (rule
// rewrite, synonym expansion, stop-word removal, typo-tolerance
// alternatives), bleve query construction, multi-tier ranking, faceting,
// distinct dedup, and highlighting.
//
// Grounded on original_source/engine/src/query/executor/{mod,relevance,
// facets}.rs, splitting.rs and stopwords.rs. The retrieval pack's
// executor/ directory has no surviving rules.rs or sorting.rs — mod.rs
// declares `mod rules; mod sorting;` but only facets.rs, mod.rs and
// relevance.rs were present to read. Rule pin/hide application is
// instead grounded directly on index/rules.rs via pkg/rules. There is
// no separate pure-field sort path: rankCandidates is the only
// comparator, and customRanking is applied as a tie-breaker after the
// tier-2 position.
//
// Two adaptations depart from the original's tantivy-specific APIs,
// both because bleve has no raw posting-list access:
//
//   - Tier-2 word-proximity ranking. The original walks
//     inverted_index.read_postings for the top 2 searchable paths to
//     find each candidate's earliest query-term position. bleve exposes
//     the same signal at a higher level: a search request with
//     IncludeLocations set returns, per hit, the token position of
//     every matched term in every matched field. tier2Position takes the
//     minimum such position across every _json_search.* field the hit
//     matched in, which is the faithful bleve equivalent of "earliest
//     match position across the searchable paths" without needing to
//     name or rank the paths themselves.
//   - Short-query (<=2 char) expansion. The original enumerates
//     matching terms straight out of the inverted index's term
//     dictionary, capped tighter for 1-char queries than 2-char ones.
//     bleve's FieldDict API serves the same term-enumeration role; see
//     expandShortQuery.
package queryexec

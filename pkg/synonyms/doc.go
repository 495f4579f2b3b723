// Package synonyms implements the per-tenant synonym store: regular
// (bidirectional) synonyms, one-way synonyms, two alternative-
// correction forms, and placeholder substitutions, plus the
// substring-based query-expansion pass search applies before
// tokenization.
//
// Grounded on original_source/engine/src/index/synonyms.rs.
// types.Synonym already carries json tags matching the wire format
// directly (a single flattened struct keyed by Type, rather than the
// Rust untagged enum), so no separate wire DTO is needed here — unlike
// pkg/rules, which had to add one.
package synonyms

// Package filter parses Algolia-style filter expressions
// (`genre:Horror AND NOT price > 20`) into a boolean AST and compiles
// that AST into a bleve query targeting the _json_filter document tree
// built by pkg/docindex.
//
// Grounded on two original_source files: the string grammar is a
// straight port of flapjack-http/src/filter_parser.rs's nom
// combinators into hand-written recursive descent (operator
// precedence, keyword-boundary rules, and quoting behavior preserved
// exactly); the AST shape and compilation semantics — clause-count and
// depth limits, facet-set validity checking, and the inclusive-bound
// arithmetic used for exclusive numeric comparisons — are a port of
// engine/src/query/filter.rs's FilterCompiler. Where the Rust compiler
// splits into a string-building path (compile, for NOT-free filters,
// routed through tantivy's query-string parser) and a tree-building
// path (compile_with_hybrid, for filters containing NOT), this package
// always builds a bleve query tree directly — bleve's query package has
// no string-parser detour to route around, so the split collapses into
// a single recursive compiler without losing any of the original's
// NOT/AND/OR semantics.
package filter

// Package rules implements the query-rule engine: a per-tenant ordered
// collection of condition/consequence policies that pin or hide
// objects, rewrite the query text, or attach arbitrary user data when
// a search's query text and context match a rule's pattern.
//
// Grounded on original_source/engine/src/index/rules.rs: Rule matching
// (is/startsWith/endsWith/contains anchoring, case-insensitive,
// optional context gate, optional validity windows, enabled-by-default
// semantics), RuleStore's insertion-order iteration and its
// all/search/apply_rules/apply_query_rewrite operations are ported
// directly. types.Rule/types.RuleCondition/types.RuleConsequence (no
// json tags — pure domain types) don't carry Algolia's wire shape, so
// this package defines the JSON DTO (ruleDoc et al. in wire.go) that
// mirrors the Rust serde derive exactly, including its untagged
// Promote::Single/Multiple enum, and converts to/from the domain type
// at load/save time.
package rules

/*
Package types defines the data model shared by every package in the
search core: documents, tasks, the oplog wire entry, per-tenant
settings, synonyms, rules, and the closed error-kind taxonomy.

# Core Types

Document model:
  - Document: an objectID paired with a schemaless field map
  - GeoPoint: a lat/lng pair extracted from a document's _geoloc

Write lifecycle:
  - Task: the status and per-document failures of one submitted write
  - OpLogEntry: the durable, replicated record of one committed operation

Tenant configuration:
  - Settings: searchable/faceting attributes, custom ranking, typo
    thresholds, pagination ceiling
  - Synonym: Regular/OneWay/AltCorrection1/2/Placeholder variants
  - Rule: condition + consequence pairs evaluated against queries

Query surface:
  - SearchRequest / SearchResult / Hit / FacetResult

Errors:
  - ErrorKind: the closed taxonomy named in the external interface
  - Error: a single typed error carrying a kind, message, and cause

# Integration points

This package is imported by pkg/manager, pkg/docindex, pkg/queryexec,
pkg/filter, pkg/oplog, and pkg/replication; it has no dependencies on
any of them.
*/
package types

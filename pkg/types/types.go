// Package types holds the data model shared across the search core:
// documents, tasks, the oplog entry wire shape, per-tenant settings,
// synonyms, rules, and the closed error-kind taxonomy.
package types

import (
	"fmt"
	"time"
)

// ErrorKind is the closed set of error categories the core ever raises.
// The outer HTTP surface maps each kind to a status code; the core itself
// never panics on user input and never uses exceptions for control flow.
type ErrorKind string

const (
	ErrTenantNotFound        ErrorKind = "TenantNotFound"
	ErrIndexAlreadyExists    ErrorKind = "IndexAlreadyExists"
	ErrInvalidQuery          ErrorKind = "InvalidQuery"
	ErrQueryTooComplex       ErrorKind = "QueryTooComplex"
	ErrInvalidSchema         ErrorKind = "InvalidSchema"
	ErrInvalidDocument       ErrorKind = "InvalidDocument"
	ErrMissingField          ErrorKind = "MissingField"
	ErrTypeMismatch          ErrorKind = "TypeMismatch"
	ErrFieldNotFound         ErrorKind = "FieldNotFound"
	ErrTooManyConcurrentW    ErrorKind = "TooManyConcurrentWrites"
	ErrBufferSizeExceeded    ErrorKind = "BufferSizeExceeded"
	ErrDocumentTooLarge      ErrorKind = "DocumentTooLarge"
	ErrBatchTooLarge         ErrorKind = "BatchTooLarge"
	ErrTaskNotFound          ErrorKind = "TaskNotFound"
	ErrQueueFull             ErrorKind = "QueueFull"
	ErrIo                    ErrorKind = "Io"
	ErrQueryParse            ErrorKind = "QueryParse"
	ErrJson                  ErrorKind = "Json"
	ErrMemoryPressure        ErrorKind = "MemoryPressure"
)

// Error is the single typed error value the core returns. Kind is the
// closed taxonomy tag; Msg is a human-readable detail; Cause wraps any
// underlying error for errors.Is/errors.As.
type Error struct {
	Kind  ErrorKind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError builds an *Error with no wrapped cause.
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// WrapError builds an *Error wrapping an underlying cause.
func WrapError(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}

// Document is a schemaless JSON document: an objectID paired with an
// arbitrary field mapping. Fields may recursively contain strings,
// numbers, nested objects, or arrays; null and boolean leaves are
// dropped during conversion to the three-field record (§4.2).
type Document struct {
	ID     string
	Fields map[string]interface{}
}

// GeoPoint is a single {lat, lng} pair extracted from a document's
// _geoloc field.
type GeoPoint struct {
	Lat float64
	Lng float64
}

// TaskStatus is the lifecycle state of a submitted write operation.
type TaskStatus string

const (
	TaskEnqueued  TaskStatus = "Enqueued"
	TaskProcessing TaskStatus = "Processing"
	TaskSucceeded TaskStatus = "Succeeded"
	TaskFailed    TaskStatus = "Failed"
)

// DocFailure records one document's conversion or commit failure within
// an otherwise-successful batch.
type DocFailure struct {
	ObjectID string
	Kind     ErrorKind
	Message  string
}

// Task tracks one submitted write operation end to end. NumericID exists
// purely for API compatibility with callers that expect a monotonic
// integer alongside the opaque string id.
type Task struct {
	ID              string
	NumericID       uint64
	Tenant          string
	Status          TaskStatus
	FailureMessage  string
	ReceivedCount   int
	IndexedCount    int
	Failures        []DocFailure
	CreatedAt       time.Time
}

// OpType is the closed set of operations the oplog and replication
// protocol carry.
type OpType string

const (
	OpUpsert        OpType = "upsert"
	OpDelete        OpType = "delete"
	OpSaveRule      OpType = "save_rule"
	OpClearRules    OpType = "clear_rules"
	OpSaveSynonym   OpType = "save_synonym"
	OpClearSynonyms OpType = "clear_synonyms"
	OpSettings      OpType = "settings"
)

// OpLogEntry is one durable, replicated unit of tenant mutation. Seq is
// strictly increasing within a tenant; Payload carries the JSON body of
// the operation (the full document for upsert, {"objectID": ...} for
// delete).
type OpLogEntry struct {
	Seq           uint64          `json:"seq"`
	TimestampMs   int64           `json:"timestamp_ms"`
	OriginNodeID  string          `json:"node_id"`
	TenantID      string          `json:"tenant_id"`
	OpType        OpType          `json:"op_type"`
	Payload       []byte          `json:"payload"`
}

// SearchableAttribute is one entry in settings' ordered searchable
// attribute list, with an optional relative weight modifier.
type SearchableAttribute struct {
	Name   string
	Weight int
}

// FacetDecorator distinguishes the four forms an attributesForFaceting
// entry can take: plain, filterOnly(x), searchable(x), afterDistinct(x).
type FacetDecorator string

const (
	FacetPlain         FacetDecorator = "plain"
	FacetFilterOnly    FacetDecorator = "filterOnly"
	FacetSearchable    FacetDecorator = "searchable"
	FacetAfterDistinct FacetDecorator = "afterDistinct"
)

// FacetAttribute is one declared attributesForFaceting entry.
type FacetAttribute struct {
	Field     string
	Decorator FacetDecorator
}

// RankDirection is the sort direction of one custom ranking entry.
type RankDirection string

const (
	RankAsc  RankDirection = "asc"
	RankDesc RankDirection = "desc"
)

// CustomRankCriterion is one asc(field)/desc(field) entry in the
// tenant's custom ranking list, applied as tier-3 ranking (§4.3.2).
type CustomRankCriterion struct {
	Field     string
	Direction RankDirection
}

// QueryType controls how the final query token is treated when there is
// no trailing whitespace (§4.3.1).
type QueryType string

const (
	QueryPrefixAll  QueryType = "prefixAll"
	QueryPrefixLast QueryType = "prefixLast"
	QueryPrefixNone QueryType = "prefixNone"
)

// Settings is the per-tenant configuration document, persisted as
// settings.json and held in memory on each loaded tenant (§3).
type Settings struct {
	SearchableAttributes []SearchableAttribute `json:"searchableAttributes"`
	AttributesForFaceting []FacetAttribute      `json:"attributesForFaceting"`
	CustomRanking        []CustomRankCriterion  `json:"customRanking"`
	AttributeForDistinct string                 `json:"attributeForDistinct"`
	IgnorePlurals        bool                   `json:"ignorePlurals"`
	RemoveStopWords      bool                   `json:"removeStopWords"`
	QueryLanguages       []string               `json:"queryLanguages"`
	HighlightPreTag      string                 `json:"highlightPreTag"`
	HighlightPostTag     string                 `json:"highlightPostTag"`
	PaginationLimitedTo  int                    `json:"paginationLimitedTo"`
	MinWordSizefor1Typo  int                    `json:"minWordSizefor1Typo"`
	MinWordSizefor2Typos int                    `json:"minWordSizefor2Typos"`
	QueryType            QueryType              `json:"queryType"`
}

// DefaultSettings returns the settings a freshly created tenant has
// before any save_settings call — matching the teacher's pattern of
// construction-time defaults rather than a zero struct at every call
// site.
func DefaultSettings() Settings {
	return Settings{
		QueryType:            QueryPrefixLast,
		PaginationLimitedTo:  1000,
		MinWordSizefor1Typo:  4,
		MinWordSizefor2Typos: 8,
	}
}

// SynonymType is the tagged-union discriminator for Synonym.
type SynonymType string

const (
	SynonymRegular         SynonymType = "synonym"
	SynonymOneWay          SynonymType = "oneWaySynonym"
	SynonymAltCorrection1  SynonymType = "altCorrection1"
	SynonymAltCorrection2  SynonymType = "altCorrection2"
	SynonymPlaceholder     SynonymType = "placeholder"
)

// Synonym is one persisted synonym entry. Which fields are meaningful
// depends on Type: Regular/OneWay use Synonyms (OneWay also uses Input);
// AltCorrection1/2 use Input and Synonyms as the correction list;
// Placeholder uses Placeholder and Synonyms as the substitution list.
type Synonym struct {
	ObjectID    string      `json:"objectID"`
	Type        SynonymType `json:"type"`
	Input       string      `json:"input,omitempty"`
	Synonyms    []string    `json:"synonyms,omitempty"`
	Placeholder string      `json:"placeholder,omitempty"`
}

// Anchoring is how a rule condition's pattern must align with the query.
type Anchoring string

const (
	AnchorIs         Anchoring = "is"
	AnchorStartsWith Anchoring = "startsWith"
	AnchorEndsWith   Anchoring = "endsWith"
	AnchorContains   Anchoring = "contains"
)

// TimeRange bounds the validity window of a rule; both ends are
// inclusive. A zero value on either end means unbounded on that side.
type TimeRange struct {
	From time.Time
	Until time.Time
}

// RuleCondition is one pattern-matching clause a rule requires. A rule
// applies only when every condition matches, every TimeRange holds, and
// the rule is enabled.
type RuleCondition struct {
	Pattern   string
	Anchoring Anchoring
	Context   string
}

// PromotedObject is one object id pinned at a fixed result position.
type PromotedObject struct {
	ObjectID string
	Position int
}

// RuleConsequence is the set of effects a matching rule applies.
type RuleConsequence struct {
	Promote      []PromotedObject
	Hide         []string
	UserData     map[string]interface{}
	QueryRewrite string
}

// Rule is one configured query-time policy (§3, §4.3.5).
type Rule struct {
	ObjectID       string
	Conditions     []RuleCondition
	Consequence    RuleConsequence
	ValidityRanges []TimeRange
	Enabled        bool
}

// SearchRequest is the full parameter set a caller may supply to
// search_full (§6). Fields default to their zero value when absent.
type SearchRequest struct {
	Query               string
	Filters             string
	FacetFilters        [][]string
	NumericFilters      []string
	TagFilters          []string
	Facets              []string
	OptionalFilters     [][]string
	MaxValuesPerFacet   int
	Page                int
	HitsPerPage         int
	Offset              int
	Length              int
	Sort                []string
	AroundLatLng        *GeoPoint
	AroundRadius        float64
	InsideBoundingBox   []float64
	InsidePolygon       []float64
	AttributesToRetrieve  []string
	AttributesToHighlight []string
	AttributesToSnippet   []string
	HighlightPreTag     string
	HighlightPostTag    string
	Distinct            *int
	RuleContexts        []string
	ResponseFields      []string
}

// Hit is one ranked search result.
type Hit struct {
	ObjectID      string
	Fields        map[string]interface{}
	Highlights    map[string]string
	Snippets      map[string]string
	RankingInfo   RankingInfo
}

// RankingInfo exposes the tier scores that produced a hit's position,
// primarily useful for debugging ranking anomalies.
type RankingInfo struct {
	BaseScore     float64
	ProximityRank int
	CustomRanks   []interface{}
}

// FacetValue is one (path, count) pair in a facet response, with the
// requested prefix already stripped.
type FacetValue struct {
	Value string
	Count int
}

// FacetResult is the full facet count response for one requested field.
type FacetResult struct {
	Field  string
	Values []FacetValue
}

// SearchResult is the response to any search/search_with_facets/
// search_full call.
type SearchResult struct {
	Hits         []Hit
	Total        int
	Page         int
	HitsPerPage  int
	Facets       []FacetResult
	AppliedRules []string
	UserData     []map[string]interface{}
	ProcessingMs int64
}

package queryexec

import (
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/bytedance/sonic"

	"github.com/gridlhq/flapjack/pkg/docindex"
	"github.com/gridlhq/flapjack/pkg/rules"
	"github.com/gridlhq/flapjack/pkg/synonyms"
	"github.com/gridlhq/flapjack/pkg/types"
)

const defaultHitsPerPage = 20

// Executor runs one tenant's searches: it owns the tenant's bleve
// index plus its rule and synonym stores, and combines them per
// request with the tenant's settings.
type Executor struct {
	Index    *docindex.TenantIndex
	Rules    *rules.Store
	Synonyms *synonyms.Store
	Settings types.Settings
}

// Search executes req against the tenant index and returns a fully
// assembled result: ranked, faceted, rule-adjusted, distinct-deduped,
// highlighted, paginated (executor/mod.rs::execute plus
// facets.rs::execute_with_facets_and_distinct, folded into one entry
// point since this port has no separate sort-only/pure-text code path
// split to preserve).
func (e *Executor) Search(req types.SearchRequest) (types.SearchResult, error) {
	start := time.Now()

	offset, limit := paginationParams(req, e.Settings)
	ruleContext := ""
	if len(req.RuleContexts) > 0 {
		ruleContext = req.RuleContexts[0]
	}

	pq := ProcessQueryText(req.Query, ruleContext, e.Rules, e.Synonyms, e.Settings)
	hasTextQuery := pq.Text != ""

	filterQuery, err := buildFilterQuery(req, e.Settings.AttributesForFaceting)
	if err != nil {
		return types.SearchResult{}, err
	}

	var textQuery query.Query
	if hasTextQuery {
		alternatives := e.typoAlternatives(pq.Text)
		textQuery = buildAlternativesQuery(pq.Text, e.Settings.QueryType, e.Settings.SearchableAttributes, alternatives)
		if shortClauses := e.shortQueryClauses(pq.Text); len(shortClauses) > 0 {
			dq := bleve.NewDisjunctionQuery(append([]query.Query{textQuery}, shortClauses...)...)
			dq.SetMin(1)
			textQuery = dq
		}
	} else {
		textQuery = bleve.NewMatchAllQuery()
	}

	combined := applyFilter(textQuery, filterQuery)

	if len(req.OptionalFilters) > 0 {
		optional, err := optionalFilterQueries(req.OptionalFilters, e.Settings.AttributesForFaceting)
		if err != nil {
			return types.SearchResult{}, err
		}
		combined = applyOptionalBoosts(combined, optional)
	}

	hasCustomRanking := len(e.Settings.CustomRanking) > 0
	prelimSize := limit + offset
	if hasCustomRanking {
		prelimSize = (limit + offset) * 3
		if prelimSize < 50 {
			prelimSize = 50
		}
	}

	breq := bleve.NewSearchRequestOptions(combined, prelimSize, 0, false)
	breq.Fields = []string{docindex.SourceFieldPath}
	breq.IncludeLocations = hasTextQuery
	if len(req.Facets) > 0 {
		addFacetRequests(breq, req.Facets, req.MaxValuesPerFacet)
	}

	res, err := e.Index.Underlying().Search(breq)
	if err != nil {
		return types.SearchResult{}, types.WrapError(types.ErrIo, "execute search", err)
	}

	candidates := make([]candidate, 0, len(res.Hits))
	for _, hit := range res.Hits {
		fields := decodeSource(hit)
		candidates = append(candidates, candidate{
			hit:         hit,
			fields:      fields,
			minPosition: tier2PositionOrZero(hit, hasTextQuery),
		})
	}
	rankCandidates(candidates, e.Settings.CustomRanking)

	effects := rules.Effects{}
	if e.Rules != nil {
		effects = e.Rules.ApplyRules(pq.Text, ruleContext, time.Now())
	}
	candidates = removeHidden(candidates, effects.Hidden)

	hits := toHits(candidates)
	hits = applyPins(hits, effects.Pins)

	total := int(res.Total)
	if offset >= len(hits) {
		hits = nil
	} else {
		end := offset + limit
		if end > len(hits) {
			end = len(hits)
		}
		hits = hits[offset:end]
	}

	if req.Distinct != nil {
		hits, total = applyDistinct(hits, e.Settings.AttributeForDistinct, *req.Distinct)
	}

	applyHighlighting(hits, req, e.Settings)

	var facetResults []types.FacetResult
	if len(req.Facets) > 0 {
		facetResults = extractFacetResults(res.Facets, req.Facets)
	}

	page := req.Page
	hitsPerPage := req.HitsPerPage
	if hitsPerPage <= 0 {
		hitsPerPage = defaultHitsPerPage
	}

	return types.SearchResult{
		Hits:         hits,
		Total:        total,
		Page:         page,
		HitsPerPage:  hitsPerPage,
		Facets:       facetResults,
		AppliedRules: append(pq.AppliedRules, effects.AppliedRules...),
		UserData:     effects.UserData,
		ProcessingMs: time.Since(start).Milliseconds(),
	}, nil
}

// paginationParams resolves Algolia's two pagination styles
// (page/hitsPerPage, or offset/length) into a plain (offset, limit)
// pair, applying the tenant's paginationLimitedTo cap.
func paginationParams(req types.SearchRequest, settings types.Settings) (offset, limit int) {
	if req.Length > 0 {
		limit = req.Length
		offset = req.Offset
	} else {
		hitsPerPage := req.HitsPerPage
		if hitsPerPage <= 0 {
			hitsPerPage = defaultHitsPerPage
		}
		limit = hitsPerPage
		offset = req.Page * hitsPerPage
	}

	if cap := settings.PaginationLimitedTo; cap > 0 && offset+limit > cap {
		if offset >= cap {
			limit = 0
		} else {
			limit = cap - offset
		}
	}
	return offset, limit
}

// typoAlternatives generates split/concat alternatives for the
// processed query text, checking term existence against the tenant's
// _json_exact field for each declared searchable attribute.
func (e *Executor) typoAlternatives(queryText string) []string {
	if len(e.Settings.SearchableAttributes) == 0 {
		return nil
	}
	idx := e.Index.Underlying()
	exists := func(token string) bool {
		for _, attr := range e.Settings.SearchableAttributes {
			tq := bleve.NewTermQuery(token)
			tq.SetField(docindex.ExactFieldPath + "." + attr.Name)
			breq := bleve.NewSearchRequestOptions(tq, 0, 0, false)
			res, err := idx.Search(breq)
			if err == nil && res.Total > 0 {
				return true
			}
		}
		return false
	}
	return generateAlternatives(queryText, exists)
}

// shortQueryClauses builds extra TermQuery clauses for a <=2 char
// single-token query by enumerating its matches straight from the term
// dictionary (see expandShortQuery); a multi-token query never reaches
// this path, since only a single very-short token is ambiguous enough
// to need dictionary enumeration rather than relying on the edge-
// n-gram field's own prefix behavior.
func (e *Executor) shortQueryClauses(queryText string) []query.Query {
	tokens := strings.Fields(queryText)
	if len(tokens) != 1 || len(tokens[0]) > 2 {
		return nil
	}

	expanded := expandShortQuery(e.Index.Underlying(), tokens[0], e.Settings.SearchableAttributes)
	var clauses []query.Query
	for field, terms := range expanded {
		for _, term := range terms {
			tq := bleve.NewTermQuery(term)
			tq.SetField(field)
			clauses = append(clauses, tq)
		}
	}
	return clauses
}

func decodeSource(hit *search.DocumentMatch) map[string]interface{} {
	raw, ok := hit.Fields[docindex.SourceFieldPath].(string)
	if !ok {
		return nil
	}
	var fields map[string]interface{}
	if err := sonic.UnmarshalString(raw, &fields); err != nil {
		return nil
	}
	return fields
}

func tier2PositionOrZero(hit *search.DocumentMatch, hasTextQuery bool) int {
	if !hasTextQuery {
		return 0
	}
	return tier2Position(hit)
}

func toHits(candidates []candidate) []types.Hit {
	hits := make([]types.Hit, 0, len(candidates))
	for _, c := range candidates {
		hits = append(hits, types.Hit{
			ObjectID: c.hit.ID,
			Fields:   c.fields,
			RankingInfo: types.RankingInfo{
				BaseScore:     c.hit.Score,
				ProximityRank: c.minPosition,
			},
		})
	}
	return hits
}

func removeHidden(candidates []candidate, hidden []string) []candidate {
	if len(hidden) == 0 {
		return candidates
	}
	hide := make(map[string]bool, len(hidden))
	for _, id := range hidden {
		hide[id] = true
	}
	out := candidates[:0]
	for _, c := range candidates {
		if !hide[c.hit.ID] {
			out = append(out, c)
		}
	}
	return out
}

// applyPins moves every promoted object id present in hits to its
// configured position, shifting the rest down (index/rules.rs's
// RuleEffects.pins, applied after normal ranking).
func applyPins(hits []types.Hit, pins []rules.Pin) []types.Hit {
	if len(pins) == 0 {
		return hits
	}

	byID := make(map[string]int, len(hits))
	for i, h := range hits {
		byID[h.ObjectID] = i
	}

	seen := make(map[string]bool, len(pins))
	byPosition := make(map[int]types.Hit, len(pins))
	for _, p := range pins {
		i, ok := byID[p.ObjectID]
		if !ok || seen[p.ObjectID] {
			continue
		}
		seen[p.ObjectID] = true
		byPosition[p.Position] = hits[i]
	}
	if len(byPosition) == 0 {
		return hits
	}

	var rest []types.Hit
	for _, h := range hits {
		if !seen[h.ObjectID] {
			rest = append(rest, h)
		}
	}

	result := make([]types.Hit, len(hits))
	restIdx := 0
	for i := range result {
		if h, ok := byPosition[i]; ok {
			result[i] = h
			continue
		}
		if restIdx < len(rest) {
			result[i] = rest[restIdx]
			restIdx++
		}
	}
	return result
}

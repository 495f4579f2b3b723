package manager

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/gridlhq/flapjack/pkg/metrics"
	"github.com/gridlhq/flapjack/pkg/queryexec"
	"github.com/gridlhq/flapjack/pkg/types"
)

// Search runs a plain query against tenant, with no facets requested.
// It is a thin convenience wrapper over SearchFull (spec §4.1: "search,
// search_with_facets and search_full all funnel into one executor
// call").
func (m *Manager) Search(tenant, query string) (types.SearchResult, error) {
	return m.SearchFull(tenant, types.SearchRequest{Query: query})
}

// SearchWithFacets runs query against tenant and additionally computes
// facet counts for facets.
func (m *Manager) SearchWithFacets(tenant, query string, facets []string) (types.SearchResult, error) {
	return m.SearchFull(tenant, types.SearchRequest{Query: query, Facets: facets})
}

// SearchFull is the full entry point every search variant funnels
// into. It consults the shared facet-result cache before assembling a
// queryexec.Executor from the tenant's current index, rules, synonyms,
// and settings, and populates the cache with whatever it computes.
func (m *Manager) SearchFull(tenant string, req types.SearchRequest) (types.SearchResult, error) {
	ts, err := m.requireTenant(tenant)
	if err != nil {
		return types.SearchResult{}, err
	}

	key := facetCacheKey(tenant, req)
	if res, ok := m.facets.get(key); ok {
		return res, nil
	}

	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.SearchDuration, tenant)

	exec := &queryexec.Executor{
		Index:    ts.index,
		Rules:    ts.rules,
		Synonyms: ts.synonyms,
		Settings: ts.settingsSnapshot(),
	}

	res, err := exec.Search(req)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(tenant, "error").Inc()
		return types.SearchResult{}, err
	}
	metrics.SearchRequestsTotal.WithLabelValues(tenant, "ok").Inc()

	m.facets.set(key, res)
	return res, nil
}

// facetCacheKey builds the (tenant, filter-hash, sort-hash,
// facet-request-hash) key spec §4.1 names for the shared facet-result
// cache. Deliberately excludes the raw query text from hashing beyond
// what's folded into the filter/facet component — see DESIGN.md's Open
// Questions for why the key is scoped exactly this way.
func facetCacheKey(tenant string, req types.SearchRequest) string {
	filterPart := strings.Join([]string{
		req.Query,
		req.Filters,
		joinFacetFilters(req.FacetFilters),
		strings.Join(req.NumericFilters, "\x1f"),
		strings.Join(req.TagFilters, "\x1f"),
		joinFacetFilters(req.OptionalFilters),
	}, "\x1e")
	sortPart := strings.Join(req.Sort, "\x1f")
	facetPart := strings.Join(req.Facets, "\x1f")

	return fmt.Sprintf("%s:%x:%x:%x", tenant, hash64(filterPart), hash64(sortPart), hash64(facetPart))
}

func joinFacetFilters(groups [][]string) string {
	parts := make([]string, len(groups))
	for i, g := range groups {
		parts[i] = strings.Join(g, "\x1f")
	}
	return strings.Join(parts, "\x1e")
}

func hash64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

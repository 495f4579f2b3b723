package docindex

import (
	"strings"

	"github.com/bytedance/sonic"

	"github.com/gridlhq/flapjack/pkg/types"
)

// ToRecord converts a schemaless document into the map bleve indexes:
// the cleaned field tree duplicated under _json_search/_json_filter/
// _json_exact (each analyzed differently by the index mapping), the
// extracted _geoloc point under _geo_lat/_geo_lng, declared facet
// attribute values under _facet, and the original fields serialized
// verbatim under _source for hit reconstruction.
func ToRecord(doc types.Document, facetAttrs []types.FacetAttribute) (map[string]interface{}, error) {
	// Top-level reserved keys (leading underscore, e.g. _geoloc) are
	// meta fields and are never duplicated into the searchable trees;
	// _tags is the exception, kept so tagFilters can match it.
	top := make(map[string]interface{}, len(doc.Fields))
	for k, v := range doc.Fields {
		if !strings.HasPrefix(k, "_") || k == "_tags" {
			top[k] = v
		}
	}
	cleaned := cleanLeaves(top)
	if cleaned == nil {
		cleaned = map[string]interface{}{}
	}

	source, err := sonic.Marshal(doc.Fields)
	if err != nil {
		return nil, types.WrapError(types.ErrJson, "marshal document source", err)
	}

	record := map[string]interface{}{
		searchFieldPath: cleaned,
		filterFieldPath: cleaned,
		exactFieldPath:  cleaned,
		sourceFieldPath: string(source),
	}

	if lat, lng, ok := extractGeo(doc.Fields); ok {
		record[geoLatPath] = lat
		record[geoLngPath] = lng
	}

	if facet := extractFacets(doc.Fields, facetAttrs); len(facet) > 0 {
		record[facetFieldPath] = facet
	}

	return record, nil
}

// cleanLeaves recursively copies v, dropping null and boolean leaves
// (§4.2: "null and boolean leaves are dropped during conversion") and
// empty strings. Returns nil when nothing survives.
func cleanLeaves(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, child := range val {
			cv := cleanLeaves(child)
			if cv == nil {
				continue
			}
			out[k] = cv
		}
		if len(out) == 0 {
			return nil
		}
		return out

	case []interface{}:
		var out []interface{}
		for _, item := range val {
			cv := cleanLeaves(item)
			if cv != nil {
				out = append(out, cv)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out

	case string:
		if val == "" {
			return nil
		}
		return val

	case bool, nil:
		return nil

	default:
		return val
	}
}

// extractGeo pulls the first {lat, lng} point out of a _geoloc field,
// which may be a single object or an array of objects (§4.2).
func extractGeo(fields map[string]interface{}) (float64, float64, bool) {
	raw, ok := fields["_geoloc"]
	if !ok {
		return 0, 0, false
	}

	switch v := raw.(type) {
	case map[string]interface{}:
		return geoPointFromMap(v)
	case []interface{}:
		if len(v) == 0 {
			return 0, 0, false
		}
		if m, ok := v[0].(map[string]interface{}); ok {
			return geoPointFromMap(m)
		}
	}
	return 0, 0, false
}

func geoPointFromMap(m map[string]interface{}) (float64, float64, bool) {
	lat, ok1 := toFloat(m["lat"])
	lng, ok2 := toFloat(m["lng"])
	return lat, lng, ok1 && ok2
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// extractFacets builds a nested map, mirroring each declared facet
// attribute's dotted path, holding the document's value at that path.
// filterOnly attributes are skipped: they rely solely on _json_filter
// equality lookups and never need a facet-count field.
func extractFacets(fields map[string]interface{}, attrs []types.FacetAttribute) map[string]interface{} {
	var out map[string]interface{}
	for _, attr := range attrs {
		if attr.Decorator == types.FacetFilterOnly {
			continue
		}
		val, ok := lookupPath(fields, attr.Field)
		if !ok {
			continue
		}
		if out == nil {
			out = map[string]interface{}{}
		}
		setPath(out, attr.Field, val)
	}
	return out
}

func lookupPath(fields map[string]interface{}, path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	var cur interface{} = fields
	for _, p := range parts {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func setPath(root map[string]interface{}, path string, val interface{}) {
	parts := strings.Split(path, ".")
	cur := root
	for i, p := range parts {
		if i == len(parts)-1 {
			cur[p] = val
			return
		}
		next, ok := cur[p].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			cur[p] = next
		}
		cur = next
	}
}

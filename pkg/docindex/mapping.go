package docindex

import (
	"github.com/blevesearch/bleve/v2"

	"github.com/gridlhq/flapjack/pkg/tokenizer"
)

// searchFieldPath, filterFieldPath, exactFieldPath, geoLatPath,
// geoLngPath, facetFieldPath, sourceFieldPath name the top-level
// record keys ToRecord produces (§4.2).
const (
	searchFieldPath = "_json_search"
	filterFieldPath = "_json_filter"
	exactFieldPath  = "_json_exact"
	geoLatPath      = "_geo_lat"
	geoLngPath      = "_geo_lng"
	facetFieldPath  = "_facet"
	sourceFieldPath = "_source"
)

// keywordAnalyzer is bleve's builtin single-token, unmodified-text
// analyzer — the Go equivalent of tantivy's "raw" tokenizer used for
// _json_filter (schema.rs: `.set_tokenizer("raw")`).
const keywordAnalyzer = "keyword"

// BuildIndexMapping constructs the bleve index mapping every tenant
// index uses: three dynamically-mapped sub-documents for the search/
// filter/exact field trees (each with a different default analyzer),
// numeric fields for the extracted geo point, a dynamically-mapped
// facet sub-document, and an unindexed stored blob holding the
// original document JSON for hit reconstruction.
func BuildIndexMapping() *bleve.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultMapping.Dynamic = false
	im.DefaultAnalyzer = tokenizer.SimpleAnalyzerName

	searchDM := bleve.NewDocumentMapping()
	searchDM.Dynamic = true
	searchDM.DefaultAnalyzer = tokenizer.EdgeNgramLowerAnalyzerName
	im.DefaultMapping.AddSubDocumentMapping(searchFieldPath, searchDM)

	filterDM := bleve.NewDocumentMapping()
	filterDM.Dynamic = true
	filterDM.DefaultAnalyzer = keywordAnalyzer
	im.DefaultMapping.AddSubDocumentMapping(filterFieldPath, filterDM)

	exactDM := bleve.NewDocumentMapping()
	exactDM.Dynamic = true
	exactDM.DefaultAnalyzer = tokenizer.SimpleAnalyzerName
	im.DefaultMapping.AddSubDocumentMapping(exactFieldPath, exactDM)

	facetDM := bleve.NewDocumentMapping()
	facetDM.Dynamic = true
	facetDM.DefaultAnalyzer = keywordAnalyzer
	im.DefaultMapping.AddSubDocumentMapping(facetFieldPath, facetDM)

	geoLat := bleve.NewNumericFieldMapping()
	im.DefaultMapping.AddFieldMappingsAt(geoLatPath, geoLat)
	geoLng := bleve.NewNumericFieldMapping()
	im.DefaultMapping.AddFieldMappingsAt(geoLngPath, geoLng)

	source := bleve.NewTextFieldMapping()
	source.Index = false
	source.Store = true
	source.IncludeInAll = false
	im.DefaultMapping.AddFieldMappingsAt(sourceFieldPath, source)

	return im
}

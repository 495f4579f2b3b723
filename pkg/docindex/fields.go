package docindex

// Exported aliases of the top-level record field paths, for packages
// outside docindex (pkg/queryexec, pkg/filter) that need to address
// them directly when building bleve queries.
const (
	SearchFieldPath = searchFieldPath
	FilterFieldPath = filterFieldPath
	ExactFieldPath  = exactFieldPath
	FacetFieldPath  = facetFieldPath
	SourceFieldPath = sourceFieldPath
)

package docindex

import (
	"errors"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"

	"github.com/gridlhq/flapjack/pkg/types"
)

// TenantIndex owns one tenant's on-disk bleve index directory and
// exposes the document-level operations the manager's write queue
// drives (§4.1, §4.2). Query-time reads go through Underlying() so
// pkg/queryexec can issue bleve searches directly.
type TenantIndex struct {
	idx    bleve.Index
	tenant string
	path   string
}

// Open opens the tenant's index under dataDir/<tenant>, creating it
// with the schemaless mapping (BuildIndexMapping) if it does not exist
// yet.
func Open(dataDir, tenant string) (*TenantIndex, error) {
	path := filepath.Join(dataDir, tenant)

	idx, err := bleve.Open(path)
	switch {
	case err == nil:
		return &TenantIndex{idx: idx, tenant: tenant, path: path}, nil
	case errors.Is(err, bleve.ErrorIndexPathDoesNotExist):
		idx, err = bleve.New(path, BuildIndexMapping())
		if err != nil {
			return nil, types.WrapError(types.ErrIo, "create tenant index", err)
		}
		return &TenantIndex{idx: idx, tenant: tenant, path: path}, nil
	default:
		return nil, types.WrapError(types.ErrIo, "open tenant index", err)
	}
}

// Tenant returns the tenant id this index belongs to.
func (t *TenantIndex) Tenant() string { return t.tenant }

// Underlying exposes the raw bleve.Index for search/facet queries.
func (t *TenantIndex) Underlying() bleve.Index { return t.idx }

// Upsert converts and indexes a single document.
func (t *TenantIndex) Upsert(doc types.Document, facetAttrs []types.FacetAttribute) error {
	record, err := ToRecord(doc, facetAttrs)
	if err != nil {
		return err
	}
	if err := t.idx.Index(doc.ID, record); err != nil {
		return types.WrapError(types.ErrIo, "index document", err)
	}
	return nil
}

// UpsertBatch converts and indexes every document in a single bleve
// batch, amortizing the commit cost across the write queue's
// coalesced batch (§4.1).
func (t *TenantIndex) UpsertBatch(docs []types.Document, facetAttrs []types.FacetAttribute) error {
	batch := t.idx.NewBatch()
	for _, doc := range docs {
		record, err := ToRecord(doc, facetAttrs)
		if err != nil {
			return err
		}
		if err := batch.Index(doc.ID, record); err != nil {
			return types.WrapError(types.ErrIo, "batch index document", err)
		}
	}
	if err := t.idx.Batch(batch); err != nil {
		return types.WrapError(types.ErrIo, "commit index batch", err)
	}
	return nil
}

// Delete removes one document by id. Deleting an absent id is a no-op
// success (§4.1, mirrored by the replication peer's delete semantics).
func (t *TenantIndex) Delete(id string) error {
	if err := t.idx.Delete(id); err != nil {
		return types.WrapError(types.ErrIo, "delete document", err)
	}
	return nil
}

// DeleteBatch removes every id in a single batch.
func (t *TenantIndex) DeleteBatch(ids []string) error {
	batch := t.idx.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if err := t.idx.Batch(batch); err != nil {
		return types.WrapError(types.ErrIo, "commit delete batch", err)
	}
	return nil
}

// DocCount returns the number of documents currently indexed.
func (t *TenantIndex) DocCount() (uint64, error) {
	n, err := t.idx.DocCount()
	if err != nil {
		return 0, types.WrapError(types.ErrIo, "count documents", err)
	}
	return n, nil
}

// Close closes the underlying bleve index.
func (t *TenantIndex) Close() error {
	if err := t.idx.Close(); err != nil {
		return types.WrapError(types.ErrIo, "close tenant index", err)
	}
	return nil
}

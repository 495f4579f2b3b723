package docindex

import (
	"testing"

	"github.com/blevesearch/bleve/v2"
	"github.com/stretchr/testify/require"

	"github.com/gridlhq/flapjack/pkg/tokenizer"
	"github.com/gridlhq/flapjack/pkg/types"
)

var _ = tokenizer.SimpleAnalyzerName // ensure tokenizer package (and its analyzer registration) is linked

func TestTenantIndex_UpsertAndSearch(t *testing.T) {
	dir := t.TempDir()
	idx, err := Open(dir, "shop")
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Upsert(types.Document{
		ID:     "1",
		Fields: map[string]interface{}{"title": "red sneakers"},
	}, nil))

	count, err := idx.DocCount()
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)

	q := bleve.NewMatchQuery("sneakers")
	q.SetField(searchFieldPath + ".title")
	q.Analyzer = tokenizer.SimpleAnalyzerName
	req := bleve.NewSearchRequest(q)
	res, err := idx.Underlying().Search(req)
	require.NoError(t, err)
	require.Equal(t, uint64(1), res.Total)
}

func TestTenantIndex_DeleteRemovesDocument(t *testing.T) {
	dir := t.TempDir()
	idx, err := Open(dir, "shop")
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Upsert(types.Document{ID: "1", Fields: map[string]interface{}{"title": "x"}}, nil))
	require.NoError(t, idx.Delete("1"))

	count, err := idx.DocCount()
	require.NoError(t, err)
	require.Equal(t, uint64(0), count)
}

func TestTenantIndex_DeleteAbsentIDIsNoop(t *testing.T) {
	dir := t.TempDir()
	idx, err := Open(dir, "shop")
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Delete("does-not-exist"))
}

func TestTenantIndex_ReopenPersists(t *testing.T) {
	dir := t.TempDir()
	idx, err := Open(dir, "shop")
	require.NoError(t, err)
	require.NoError(t, idx.Upsert(types.Document{ID: "1", Fields: map[string]interface{}{"title": "x"}}, nil))
	require.NoError(t, idx.Close())

	reopened, err := Open(dir, "shop")
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.DocCount()
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)
}

func TestTenantIndex_UpsertBatch(t *testing.T) {
	dir := t.TempDir()
	idx, err := Open(dir, "shop")
	require.NoError(t, err)
	defer idx.Close()

	docs := []types.Document{
		{ID: "1", Fields: map[string]interface{}{"title": "a"}},
		{ID: "2", Fields: map[string]interface{}{"title": "b"}},
	}
	require.NoError(t, idx.UpsertBatch(docs, nil))

	count, err := idx.DocCount()
	require.NoError(t, err)
	require.Equal(t, uint64(2), count)
}

package replication

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridlhq/flapjack/pkg/storage"
	"github.com/gridlhq/flapjack/pkg/types"
)

var _ storage.CursorStore = (*memCursorStore)(nil)

func TestPeerClient_ReplicateOps_SendsTenantAndOpsDecodesAck(t *testing.T) {
	var gotReq ReplicateOpsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/internal/replicate", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ReplicateOpsResponse{TenantID: gotReq.TenantID, AckedSeq: 42})
	}))
	defer srv.Close()

	c := NewPeerClient("node-b", srv.URL)
	resp, err := c.ReplicateOps(context.Background(), ReplicateOpsRequest{
		TenantID: "shop",
		Ops:      []types.OpLogEntry{{Seq: 1, TenantID: "shop", OpType: types.OpUpsert}},
	})
	require.NoError(t, err)
	require.Equal(t, "shop", gotReq.TenantID)
	require.Len(t, gotReq.Ops, 1)
	require.Equal(t, uint64(42), resp.AckedSeq)
}

func TestPeerClient_ReplicateOps_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := NewPeerClient("node-b", srv.URL)
	_, err := c.ReplicateOps(context.Background(), ReplicateOpsRequest{TenantID: "shop"})
	require.Error(t, err)
}

func TestPeerClient_GetOps_SendsTenantAndSinceSeqAsQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/internal/ops", r.URL.Path)
		require.Equal(t, "shop", r.URL.Query().Get("tenant_id"))
		require.Equal(t, "7", r.URL.Query().Get("since_seq"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(GetOpsResponse{
			TenantID:   "shop",
			Ops:        []types.OpLogEntry{{Seq: 8, TenantID: "shop"}},
			CurrentSeq: 8,
		})
	}))
	defer srv.Close()

	c := NewPeerClient("node-b", srv.URL)
	resp, err := c.GetOps(context.Background(), "shop", 7)
	require.NoError(t, err)
	require.Len(t, resp.Ops, 1)
	require.Equal(t, uint64(8), resp.Ops[0].Seq)
	require.Equal(t, uint64(8), resp.CurrentSeq)
}

func TestPeerClient_PeerIDAndAddr(t *testing.T) {
	c := NewPeerClient("node-b", "http://example.invalid")
	require.Equal(t, "node-b", c.PeerID())
	require.Equal(t, "http://example.invalid", c.Addr())
}

package transfer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabuto-group/disclosure-cli/internal/model"
	"github.com/kabuto-group/disclosure-cli/internal/ratelimit"
	"github.com/kabuto-group/disclosure-cli/internal/storage"
)

func testPool(t *testing.T, handler http.Handler) (*Pool, *storage.Local, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	keyFn := func(doc model.Document) string {
		return fmt.Sprintf("docs/%s.pdf", doc.Code)
	}
	pool := NewPool(Options{Workers: 3}, ratelimit.New(50), store, keyFn)
	return pool, store, srv
}

func TestPool_TransfersAllDocuments(t *testing.T) {
	var hits atomic.Int64
	pool, store, srv := testPool(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("%PDF-1.4 " + r.URL.Path))
	}))

	docs := make([]model.Document, 12)
	for i := range docs {
		docs[i] = model.Document{
			Code:   fmt.Sprintf("%d", 1000+i),
			Title:  "決算短信",
			PDFURL: fmt.Sprintf("%s/pdf/%d.pdf", srv.URL, i),
		}
	}

	stored := pool.Transfer(context.Background(), docs)

	assert.Equal(t, 12, stored)
	assert.Equal(t, int64(12), hits.Load())

	data, err := store.ReadAll(context.Background(), "docs/1000.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 /pdf/0.pdf", string(data))
}

func TestPool_FailureDoesNotAbortBatch(t *testing.T) {
	pool, store, srv := testPool(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/pdf/bad.pdf" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))

	docs := []model.Document{
		{Code: "1301", PDFURL: srv.URL + "/pdf/ok1.pdf"},
		{Code: "1305", PDFURL: srv.URL + "/pdf/bad.pdf"},
		{Code: "7203", PDFURL: srv.URL + "/pdf/ok2.pdf"},
	}

	stored := pool.Transfer(context.Background(), docs)
	assert.Equal(t, 2, stored)

	keys, err := store.List(context.Background(), "docs/")
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/1301.pdf", "docs/7203.pdf"}, keys)
}

func TestPool_MissingURLCountsAsFailure(t *testing.T) {
	pool, _, srv := testPool(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))

	docs := []model.Document{
		{Code: "1301", PDFURL: srv.URL + "/pdf/ok.pdf"},
		{Code: "9999"}, // no URL extracted for this row
	}

	stored := pool.Transfer(context.Background(), docs)
	assert.Equal(t, 1, stored)
}

func TestPool_EmptyBatch(t *testing.T) {
	pool, _, _ := testPool(t, http.NotFoundHandler())
	assert.Equal(t, 0, pool.Transfer(context.Background(), nil))
}

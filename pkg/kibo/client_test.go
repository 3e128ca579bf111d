package kibo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"kibo-catalog-sync/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, authCalls *atomic.Int64) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/platform/applications/authtickets/oauth", func(w http.ResponseWriter, r *http.Request) {
		authCalls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "test-token",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/api/commerce/catalog/admin/products", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "7", r.Header.Get("x-vol-master-catalog"))
		assert.Equal(t, "productSequence asc", r.URL.Query().Get("sortby"))
		_ = json.NewEncoder(w).Encode(&ProductCollection{
			TotalCount: 1,
			Items:      []*models.Product{{ProductCode: "P1", ProductSequence: 1001}},
		})
	})
	mux.HandleFunc("/api/commerce/catalog/admin/categories", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.Header.Get("x-vol-catalog"))
		_ = json.NewEncoder(w).Encode(&CategoryCollection{
			PageCount:  1,
			TotalCount: 1,
			Items:      []*models.Category{{ID: 31, CategoryCode: "K1"}},
		})
	})
	mux.HandleFunc("/api/commerce/catalog/admin/products/BROKEN", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"validation failed"}`, http.StatusConflict)
	})
	return httptest.NewServer(mux)
}

func testClient(apiRoot string) *Client {
	return NewClient(&Config{
		APIRoot:       apiRoot,
		ClientID:      "app",
		ClientSecret:  "0123456789abcdef0123456789abcdef",
		MasterCatalog: 7,
	})
}

func TestClientTokenCached(t *testing.T) {
	var authCalls atomic.Int64
	srv := newTestServer(t, &authCalls)
	defer srv.Close()

	client := testClient(srv.URL + "/api")
	ctx := context.Background()

	_, err := client.ListProductsByOffset(ctx, 0, 200)
	require.NoError(t, err)
	_, err = client.ListProductsAfter(ctx, 1000, 200)
	require.NoError(t, err)
	require.NoError(t, client.RefreshAuth(ctx))

	// token 有效期内复用，只换取一次
	assert.EqualValues(t, 1, authCalls.Load())
}

func TestClientScopeHeaders(t *testing.T) {
	var authCalls atomic.Int64
	srv := newTestServer(t, &authCalls)
	defer srv.Close()

	client := testClient(srv.URL + "/api")
	ctx := context.Background()

	coll, err := client.ListProductsByOffset(ctx, 0, 200)
	require.NoError(t, err)
	require.Len(t, coll.Items, 1)
	assert.Equal(t, "P1", coll.Items[0].ProductCode)

	categories, err := client.ListCategories(ctx, 3, 0, 200)
	require.NoError(t, err)
	require.Len(t, categories.Items, 1)
	assert.Equal(t, "K1", categories.Items[0].CategoryCode)
}

func TestClientSaveFailureStatus(t *testing.T) {
	var authCalls atomic.Int64
	srv := newTestServer(t, &authCalls)
	defer srv.Close()

	client := testClient(srv.URL + "/api")
	_, err := client.SaveProduct(context.Background(), &models.Product{ProductCode: "BROKEN"})
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusConflict, statusErr.Status)
}

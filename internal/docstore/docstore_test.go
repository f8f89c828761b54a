package docstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openacq/metamigrate/internal/config"
	merrors "github.com/openacq/metamigrate/internal/errors"
)

func storeConfig(url string) config.StoreConfig {
	return config.StoreConfig{
		URL:            url,
		Database:       "metadata_index",
		TimeoutSeconds: 5,
	}
}

func TestNew_RequiresURL(t *testing.T) {
	_, err := New(config.StoreConfig{}, "data_assets")
	assert.ErrorIs(t, err, merrors.ErrConnectivity)
}

func TestNew_RequiresCollection(t *testing.T) {
	_, err := New(storeConfig("http://example.com"), "")
	assert.ErrorIs(t, err, merrors.ErrConnectivity)
}

func TestRetrieve_SendsFilterAndDecodesDocuments(t *testing.T) {
	var gotPath string
	var gotBody findRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode([]map[string]any{{"name": "rec-1"}})
	}))
	defer server.Close()

	client, err := New(storeConfig(server.URL), "data_assets")
	require.NoError(t, err)

	docs, err := client.Retrieve(context.Background(), Filter{"subject.subject_id": "123456"}, 10, 20)
	require.NoError(t, err)

	assert.Equal(t, "/v1/metadata_index/data_assets/find", gotPath)
	assert.Equal(t, 10, gotBody.Limit)
	assert.Equal(t, 20, gotBody.Skip)
	assert.Equal(t, map[string]any{"subject.subject_id": "123456"}, map[string]any(gotBody.Filter))
	require.Len(t, docs, 1)
	assert.Equal(t, "rec-1", docs[0]["name"])
}

func TestRetrieve_SendsAPIKeyHeader(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		json.NewEncoder(w).Encode([]map[string]any{})
	}))
	defer server.Close()

	cfg := storeConfig(server.URL)
	cfg.APIKey = "secret"
	client, err := New(cfg, "data_assets")
	require.NoError(t, err)

	_, err = client.Retrieve(context.Background(), Filter{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "secret", gotKey)
}

func TestRetrieveOne_ExactMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req findRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Filter["name"] == "ecephys_123456" {
			json.NewEncoder(w).Encode([]map[string]any{{"name": "ecephys_123456"}})
			return
		}
		json.NewEncoder(w).Encode([]map[string]any{})
	}))
	defer server.Close()

	client, err := New(storeConfig(server.URL), "data_assets")
	require.NoError(t, err)

	doc, err := client.RetrieveOne(context.Background(), "ecephys_123456")
	require.NoError(t, err)
	assert.Equal(t, "ecephys_123456", doc["name"])
}

func TestRetrieveOne_RegexFallback(t *testing.T) {
	var filters []Filter
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req findRequest
		json.NewDecoder(r.Body).Decode(&req)
		filters = append(filters, req.Filter)
		if len(filters) == 2 {
			json.NewEncoder(w).Encode([]map[string]any{{"name": "ecephys_123456_2023"}})
			return
		}
		json.NewEncoder(w).Encode([]map[string]any{})
	}))
	defer server.Close()

	client, err := New(storeConfig(server.URL), "data_assets")
	require.NoError(t, err)

	doc, err := client.RetrieveOne(context.Background(), "ecephys_123456")
	require.NoError(t, err)
	assert.Equal(t, "ecephys_123456_2023", doc["name"])

	require.Len(t, filters, 2)
	assert.Equal(t, "ecephys_123456", filters[0]["name"])
	assert.Equal(t, map[string]any{"$regex": "ecephys_123456"}, filters[1]["name"])
}

func TestRetrieveOne_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{})
	}))
	defer server.Close()

	client, err := New(storeConfig(server.URL), "data_assets")
	require.NoError(t, err)

	_, err = client.RetrieveOne(context.Background(), "missing")
	assert.ErrorIs(t, err, merrors.ErrNotFound)
}

func TestCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"count": 42})
	}))
	defer server.Close()

	client, err := New(storeConfig(server.URL), "data_assets")
	require.NoError(t, err)

	n, err := client.Count(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestInsert_StampsUUID(t *testing.T) {
	var inserted map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&inserted)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := New(storeConfig(server.URL), "data_assets_v2")
	require.NoError(t, err)

	doc := map[string]any{"name": "rec-1"}
	id, err := client.Insert(context.Background(), doc)
	require.NoError(t, err)

	assert.NotEmpty(t, id)
	assert.Equal(t, id, doc["_id"])
	assert.Equal(t, id, inserted["_id"])
}

func TestInsert_KeepsExistingID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := New(storeConfig(server.URL), "data_assets_v2")
	require.NoError(t, err)

	id, err := client.Insert(context.Background(), map[string]any{"_id": "fixed-id"})
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", id)
}

func TestUpsert_ReusesIDByLocation(t *testing.T) {
	var upserted upsertRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/metadata_index/data_assets_v2/find":
			json.NewEncoder(w).Encode([]map[string]any{{
				"_id":      "existing-id",
				"location": "s3://bucket/rec-1",
			}})
		case r.URL.Path == "/v1/metadata_index/data_assets_v2/upsert_one":
			json.NewDecoder(r.Body).Decode(&upserted)
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client, err := New(storeConfig(server.URL), "data_assets_v2")
	require.NoError(t, err)

	doc := map[string]any{"name": "rec-1", "location": "s3://bucket/rec-1"}
	id, err := client.Upsert(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, "existing-id", id)
	assert.Equal(t, "existing-id", upserted.Filter["_id"])
	assert.Equal(t, "existing-id", upserted.Document["_id"])
}

func TestUpsert_NewLocationGetsFreshID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/metadata_index/data_assets_v2/find" {
			json.NewEncoder(w).Encode([]map[string]any{})
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := New(storeConfig(server.URL), "data_assets_v2")
	require.NoError(t, err)

	id, err := client.Upsert(context.Background(), map[string]any{"location": "s3://bucket/new"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestPost_ErrorStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, merrors.ErrPermission},
		{http.StatusForbidden, merrors.ErrPermission},
		{http.StatusNotFound, merrors.ErrNotFound},
		{http.StatusInternalServerError, merrors.ErrConnectivity},
	}
	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		client, err := New(storeConfig(server.URL), "data_assets")
		require.NoError(t, err)

		_, err = client.Retrieve(context.Background(), Filter{}, 0, 0)
		assert.ErrorIs(t, err, tt.want, "status %d", tt.status)
		server.Close()
	}
}

func TestRetrieve_ConnectionRefused(t *testing.T) {
	client, err := New(storeConfig("http://127.0.0.1:1"), "data_assets")
	require.NoError(t, err)

	_, err = client.Retrieve(context.Background(), Filter{}, 0, 0)
	assert.ErrorIs(t, err, merrors.ErrConnectivity)
}

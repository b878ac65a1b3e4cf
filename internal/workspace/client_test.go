package workspace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbxdeploy/internal/config"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(config.Target{
		Environment: config.EnvDev,
		Host:        server.URL,
		Token:       "dapi-test-token",
	})
	client.http.RetryMax = 0
	return server, client
}

func TestGetStatus(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2.0/workspace/get-status", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer dapi-test-token", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "/Workspace/Deployments/dev/shared", body["path"])

		json.NewEncoder(w).Encode(ObjectInfo{
			Path:       body["path"],
			ObjectType: ObjectTypeDirectory,
		})
	})

	info, err := client.GetStatus(context.Background(), "/Workspace/Deployments/dev/shared")
	require.NoError(t, err)
	assert.Equal(t, ObjectTypeDirectory, info.ObjectType)
}

func TestGetStatusNotFoundOn404(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetStatus(context.Background(), "/Workspace/Deployments/dev/missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetStatusNotFoundOnResourceMissingCode(t *testing.T) {
	// The workspace API reports missing paths with a 400 status and a
	// RESOURCE_DOES_NOT_EXIST error code rather than a plain 404.
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error_code": "RESOURCE_DOES_NOT_EXIST",
			"message":    "Path (/missing) doesn't exist.",
		})
	})

	_, err := client.GetStatus(context.Background(), "/missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListEmptyDirectory(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	objects, err := client.List(context.Background(), "/Workspace/Deployments/dev/shared")
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestListNotebooksRecursesDirectories(t *testing.T) {
	listings := map[string][]ObjectInfo{
		"/base": {
			{Path: "/base/setup", ObjectType: ObjectTypeNotebook},
			{Path: "/base/utils", ObjectType: ObjectTypeDirectory},
		},
		"/base/utils": {
			{Path: "/base/utils/helpers", ObjectType: ObjectTypeNotebook},
		},
	}

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		json.NewEncoder(w).Encode(map[string]any{"objects": listings[body["path"]]})
	})

	notebooks, err := client.ListNotebooks(context.Background(), "/base")
	require.NoError(t, err)
	assert.Equal(t, []string{"/base/setup", "/base/utils/helpers"}, notebooks)
}

func TestListClusters(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2.0/clusters/list", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode(map[string]any{
			"clusters": []ClusterInfo{
				{ClusterName: "dev-cluster", State: "RUNNING"},
			},
		})
	})

	clusters, err := client.ListClusters(context.Background())
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, "dev-cluster", clusters[0].ClusterName)
}

func TestUnexpectedStatusIsError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error_code":"PERMISSION_DENIED"}`))
	})

	_, err := client.GetStatus(context.Background(), "/base")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

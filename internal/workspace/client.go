package workspace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"

	"dbxdeploy/internal/config"
	"dbxdeploy/pkg/logging"
)

// ErrNotFound indicates the requested workspace path does not exist.
var ErrNotFound = errors.New("workspace path not found")

// ObjectType values returned by the workspace list API.
const (
	ObjectTypeNotebook  = "NOTEBOOK"
	ObjectTypeDirectory = "DIRECTORY"
)

// ObjectInfo describes a single object in the workspace tree.
type ObjectInfo struct {
	Path       string `json:"path"`
	ObjectType string `json:"object_type"`
}

// ClusterInfo describes a cluster as returned by the clusters list API.
type ClusterInfo struct {
	ClusterName string `json:"cluster_name"`
	State       string `json:"state"`
}

// Client talks to the Databricks workspace REST API. It is used only for the
// read-only verification endpoints; all write operations go through the
// databricks CLI.
type Client struct {
	host  string
	token string
	http  *retryablehttp.Client
}

// NewClient creates a REST client for a resolved deployment target.
func NewClient(target config.Target) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 3
	httpClient.Logger = nil // request logging goes through pkg/logging instead

	return &Client{
		host:  target.Host,
		token: target.Token,
		http:  httpClient,
	}
}

// GetStatus checks whether a workspace path exists. Returns ErrNotFound for
// a missing path and the object info otherwise.
func (c *Client) GetStatus(ctx context.Context, path string) (*ObjectInfo, error) {
	var info ObjectInfo
	err := c.post(ctx, "/workspace/get-status", map[string]string{"path": path}, &info)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// List returns the direct children of a workspace directory. Listing an
// empty directory returns an empty slice.
func (c *Client) List(ctx context.Context, path string) ([]ObjectInfo, error) {
	var resp struct {
		Objects []ObjectInfo `json:"objects"`
	}
	if err := c.post(ctx, "/workspace/list", map[string]string{"path": path}, &resp); err != nil {
		return nil, err
	}
	return resp.Objects, nil
}

// ListNotebooks walks a workspace directory recursively and returns the paths
// of every notebook beneath it.
func (c *Client) ListNotebooks(ctx context.Context, path string) ([]string, error) {
	objects, err := c.List(ctx, path)
	if err != nil {
		return nil, err
	}

	var notebooks []string
	for _, obj := range objects {
		switch obj.ObjectType {
		case ObjectTypeNotebook:
			notebooks = append(notebooks, obj.Path)
		case ObjectTypeDirectory:
			sub, err := c.ListNotebooks(ctx, obj.Path)
			if err != nil {
				return nil, err
			}
			notebooks = append(notebooks, sub...)
		}
	}
	return notebooks, nil
}

// ListClusters returns all clusters visible in the workspace.
func (c *Client) ListClusters(ctx context.Context) ([]ClusterInfo, error) {
	var resp struct {
		Clusters []ClusterInfo `json:"clusters"`
	}
	if err := c.get(ctx, "/clusters/list", &resp); err != nil {
		return nil, err
	}
	return resp.Clusters, nil
}

func (c *Client) post(ctx context.Context, endpoint string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request for %s: %w", endpoint, err)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.url(endpoint), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, endpoint, out)
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.url(endpoint), nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", endpoint, err)
	}
	return c.do(req, endpoint, out)
}

func (c *Client) do(req *retryablehttp.Request, endpoint string, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", endpoint, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
		}
		return nil
	case resp.StatusCode == http.StatusNotFound, isResourceMissing(data):
		return ErrNotFound
	default:
		logging.Debug("WorkspaceClient", "%s returned %d: %s", endpoint, resp.StatusCode, string(data))
		return fmt.Errorf("%s returned status %d: %s", endpoint, resp.StatusCode, string(data))
	}
}

// isResourceMissing detects the RESOURCE_DOES_NOT_EXIST error code the
// workspace API returns with a 400 status for missing paths.
func isResourceMissing(data []byte) bool {
	var apiErr struct {
		ErrorCode string `json:"error_code"`
	}
	if err := json.Unmarshal(data, &apiErr); err != nil {
		return false
	}
	return apiErr.ErrorCode == "RESOURCE_DOES_NOT_EXIST"
}

// url joins the host with an API 2.0 endpoint.
func (c *Client) url(endpoint string) string {
	return c.host + "/api/2.0" + endpoint
}

package projectapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/talenthium/patchtree/internal/patch"
	"github.com/talenthium/patchtree/internal/tracing"
)

func requireParams(params map[string]string) error {
	for name, v := range params {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%s is required", name)
		}
		if strings.Contains(v, "/") {
			return fmt.Errorf("%s must not contain '/': %q", name, v)
		}
	}
	return nil
}

// CommitDiff fetches the diff of commit hash in project projectID.
func (c *Client) CommitDiff(ctx context.Context, projectID, hash string) (*patch.CommitDiff, error) {
	if err := requireParams(map[string]string{"project id": projectID, "commit hash": hash}); err != nil {
		return nil, err
	}

	body, err := c.get(ctx, request{
		name: "commit_diff",
		path: "/api/projects/" + projectID + "/commits/" + hash + "/diff",
		attrs: []attribute.KeyValue{
			attribute.String(tracing.AttrProjectID, projectID),
			attribute.String(tracing.AttrCommitHash, hash),
		},
	})
	if err != nil {
		return nil, err
	}

	var diff patch.CommitDiff
	if err := json.Unmarshal(body, &diff); err != nil {
		return nil, fmt.Errorf("decoding commit diff: %w", err)
	}
	if diff.Files == nil {
		diff.Files = []patch.FileChange{}
	}
	return &diff, nil
}

// remoteNode is the nested tree shape returned by tree-formatted?format=nested.
type remoteNode struct {
	Name     string        `json:"name"`
	Path     string        `json:"path"`
	Type     string        `json:"type"`
	IsFolder bool          `json:"isFolder"`
	Children []*remoteNode `json:"children"`
}

func (n *remoteNode) folder() bool {
	if n.IsFolder {
		return true
	}
	switch n.Type {
	case "dir", "folder", "tree":
		return true
	}
	return len(n.Children) > 0
}

// toTree converts the service's nested tree. Order is kept as delivered.
func toTree(nodes []*remoteNode) []*patch.TreeNode {
	out := make([]*patch.TreeNode, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		name := n.Name
		if name == "" {
			name = n.Path[strings.LastIndex(n.Path, "/")+1:]
		}
		out = append(out, &patch.TreeNode{
			Name:     name,
			Path:     n.Path,
			IsFolder: n.folder(),
			Children: toTree(n.Children),
		})
	}
	return out
}

// RepoTree fetches the full file tree of a GitHub repository as a forest.
func (c *Client) RepoTree(ctx context.Context, owner, repo string) ([]*patch.TreeNode, error) {
	if err := requireParams(map[string]string{"owner": owner, "repo": repo}); err != nil {
		return nil, err
	}

	body, err := c.get(ctx, request{
		name:  "repo_tree",
		path:  "/api/projects/github/tree-formatted/" + owner + "/" + repo,
		query: url.Values{"format": {"nested"}},
		attrs: []attribute.KeyValue{
			attribute.String(tracing.AttrRepoOwner, owner),
			attribute.String(tracing.AttrRepoName, repo),
		},
	})
	if err != nil {
		return nil, err
	}

	nodes, err := decodeRepoTree(body)
	if err != nil {
		return nil, err
	}
	return toTree(nodes), nil
}

// decodeRepoTree accepts the nested response {"children": [...]} and a bare
// array of nodes. Any other shape is an error so an unexpected payload never
// reads as an empty repository.
func decodeRepoTree(body []byte) ([]*remoteNode, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("decoding repository tree: empty response")
	}

	if trimmed[0] == '[' {
		var nodes []*remoteNode
		if err := json.Unmarshal(trimmed, &nodes); err != nil {
			return nil, fmt.Errorf("decoding repository tree: %w", err)
		}
		return nodes, nil
	}

	var root struct {
		Children *[]*remoteNode `json:"children"`
	}
	if err := json.Unmarshal(trimmed, &root); err != nil {
		return nil, fmt.Errorf("decoding repository tree: %w", err)
	}
	if root.Children == nil {
		return nil, errors.New(`decoding repository tree: response has no "children"`)
	}
	return *root.Children, nil
}

// FileContent fetches the text of filePath at the default branch.
func (c *Client) FileContent(ctx context.Context, owner, repo, filePath string) (string, error) {
	if err := requireParams(map[string]string{"owner": owner, "repo": repo}); err != nil {
		return "", err
	}
	if filePath == "" {
		return "", fmt.Errorf("file path is required")
	}

	body, err := c.get(ctx, request{
		name:  "file_content",
		path:  "/api/projects/github/content/" + owner + "/" + repo,
		query: url.Values{"filePath": {filePath}},
		attrs: []attribute.KeyValue{
			attribute.String(tracing.AttrRepoOwner, owner),
			attribute.String(tracing.AttrRepoName, repo),
			attribute.String(tracing.AttrFilePath, filePath),
		},
	})
	if err != nil {
		return "", err
	}

	var resp struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decoding file content: %w", err)
	}
	return resp.Content, nil
}

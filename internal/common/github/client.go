// internal/common/github/client.go
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Branch is the only branch this service commits to and serves pages from.
const Branch = "main"

var (
	// ErrNotFound is returned when a repository or file does not exist.
	ErrNotFound = errors.New("github: not found")
	// ErrConflict is returned when a file update carries a stale blob sha.
	ErrConflict = errors.New("github: stale revision id")
)

// Client is a minimal GitHub REST v3 client covering repository creation,
// single-file commits with optimistic concurrency, content retrieval, and
// Pages enablement.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

type Repository struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	HTMLURL  string `json:"html_url"`
}

// FileContents is the persisted remote state of one tracked file: its bytes
// and the blob sha required to replace it.
type FileContents struct {
	Content []byte
	SHA     string
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	return &Client{
		token:   token,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CreateRepo creates a new, publicly readable repository for the
// authenticated user.
func (c *Client) CreateRepo(ctx context.Context, name string) (*Repository, error) {
	url := fmt.Sprintf("%s/user/repos", c.baseURL)

	payload := map[string]interface{}{
		"name":    name,
		"private": false,
	}

	body, err := c.do(ctx, http.MethodPost, url, payload, http.StatusCreated)
	if err != nil {
		return nil, err
	}

	var repo Repository
	if err := json.Unmarshal(body, &repo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal repository: %w", err)
	}

	return &repo, nil
}

type commitResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// CreateFile commits a new file to the main branch and returns the commit sha.
func (c *Client) CreateFile(ctx context.Context, repoFullName, path, message string, content []byte) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/contents/%s", c.baseURL, repoFullName, path)

	payload := map[string]interface{}{
		"message": message,
		"content": base64.StdEncoding.EncodeToString(content),
		"branch":  Branch,
	}

	body, err := c.do(ctx, http.MethodPut, url, payload, http.StatusCreated)
	if err != nil {
		return "", err
	}

	var resp commitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to unmarshal commit response: %w", err)
	}

	return resp.Commit.SHA, nil
}

// UpdateFile replaces an existing file by its current blob sha and returns
// the new commit sha. A stale sha yields ErrConflict.
func (c *Client) UpdateFile(ctx context.Context, repoFullName, path, message string, content []byte, sha string) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/contents/%s", c.baseURL, repoFullName, path)

	payload := map[string]interface{}{
		"message": message,
		"content": base64.StdEncoding.EncodeToString(content),
		"sha":     sha,
		"branch":  Branch,
	}

	body, err := c.do(ctx, http.MethodPut, url, payload, http.StatusOK)
	if err != nil {
		return "", err
	}

	var resp commitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to unmarshal commit response: %w", err)
	}

	return resp.Commit.SHA, nil
}

// GetContents fetches a file's decoded content and its current blob sha.
// Callers must read before write: the sha is the revision id required by
// UpdateFile.
func (c *Client) GetContents(ctx context.Context, repoFullName, path string) (*FileContents, error) {
	url := fmt.Sprintf("%s/repos/%s/contents/%s", c.baseURL, repoFullName, path)

	body, err := c.do(ctx, http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
		SHA      string `json:"sha"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal contents: %w", err)
	}

	decoded, err := base64.StdEncoding.DecodeString(normalizeBase64(resp.Content))
	if err != nil {
		return nil, fmt.Errorf("failed to decode file content: %w", err)
	}

	return &FileContents{Content: decoded, SHA: resp.SHA}, nil
}

// EnablePages enables static hosting from the main branch root.
func (c *Client) EnablePages(ctx context.Context, repoFullName string) error {
	url := fmt.Sprintf("%s/repos/%s/pages", c.baseURL, repoFullName)

	payload := map[string]interface{}{
		"source": map[string]string{
			"branch": Branch,
			"path":   "/",
		},
	}

	_, err := c.do(ctx, http.MethodPost, url, payload, http.StatusCreated)
	return err
}

func (c *Client) do(ctx context.Context, method, url string, payload interface{}, wantStatus int) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch resp.StatusCode {
	case wantStatus:
		return body, nil
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, method, url)
	case http.StatusConflict:
		return nil, fmt.Errorf("%w: %s", ErrConflict, url)
	default:
		return nil, fmt.Errorf("github request failed (status %d): %s", resp.StatusCode, string(body))
	}
}

// normalizeBase64 strips the newlines GitHub inserts into base64 content
// responses.
func normalizeBase64(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' || s[i] == '\r' {
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

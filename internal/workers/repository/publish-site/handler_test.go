// internal/workers/repository/publish-site/handler_test.go
package publishsite

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pageforge/internal/common/errors"
	"pageforge/internal/common/github"
	"pageforge/internal/common/logger/loggertest"
	"pageforge/internal/models"
)

// fakeHub records every commit made against a fake hosting API.
type fakeHub struct {
	mu            sync.Mutex
	commits       []commitRecord
	pagesEnabled  bool
	failCreate    bool
	failPaths     map[string]bool
	failPages     bool
	commitCounter int
}

type commitRecord struct {
	Path    string
	Message string
	Content []byte
}

func (f *fakeHub) server(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/user/repos":
			if f.failCreate {
				w.WriteHeader(http.StatusUnprocessableEntity)
				return
			}
			var payload map[string]interface{}
			json.NewDecoder(r.Body).Decode(&payload)
			name := payload["name"].(string)
			w.WriteHeader(http.StatusCreated)
			fmt.Fprintf(w, `{"name":%q,"full_name":"octocat/%s","html_url":"https://github.com/octocat/%s"}`, name, name, name)

		case r.Method == http.MethodPut:
			var payload map[string]interface{}
			json.NewDecoder(r.Body).Decode(&payload)
			path := r.URL.Path[len("/repos/octocat/my-task/contents/"):]
			if f.failPaths[path] {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			content, err := base64.StdEncoding.DecodeString(payload["content"].(string))
			require.NoError(t, err)
			f.commits = append(f.commits, commitRecord{
				Path:    path,
				Message: payload["message"].(string),
				Content: content,
			})
			f.commitCounter++
			w.WriteHeader(http.StatusCreated)
			fmt.Fprintf(w, `{"content":{"sha":"blob%d"},"commit":{"sha":"commit%d"}}`, f.commitCounter, f.commitCounter)

		case r.Method == http.MethodPost && r.URL.Path == "/repos/octocat/my-task/pages":
			if f.failPages {
				w.WriteHeader(http.StatusConflict)
				return
			}
			f.pagesEnabled = true
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{}`))

		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestHandler(serverURL string, t *testing.T) *Handler {
	gh := github.NewClient(serverURL, "tok", 5*time.Second)
	return NewHandler(gh, loggertest.New(t))
}

func TestHandler_Execute_Success(t *testing.T) {
	hub := &fakeHub{}
	server := hub.server(t)
	defer server.Close()

	attachment := models.Attachment{
		Name: "data.csv",
		URL:  "data:text/csv;base64," + base64.StdEncoding.EncodeToString([]byte("a,b\n1,2")),
	}
	input := &Input{
		RepoName:    "my-task",
		HTML:        "<html><head></head><body>app</body></html>",
		Brief:       "Build a csv viewer",
		Attachments: []models.Attachment{attachment},
	}

	output, err := newTestHandler(server.URL, t).Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "https://github.com/octocat/my-task", output.RepoURL)
	assert.True(t, hub.pagesEnabled)

	require.Len(t, hub.commits, 4)
	assert.Equal(t, "index.html", hub.commits[0].Path)
	assert.Equal(t, "feat: initial commit", hub.commits[0].Message)
	assert.Equal(t, input.HTML, string(hub.commits[0].Content))

	assert.Equal(t, "LICENSE", hub.commits[1].Path)
	assert.Equal(t, "feat: add MIT license", hub.commits[1].Message)
	assert.Contains(t, string(hub.commits[1].Content), "Permission is hereby granted")

	assert.Equal(t, "README.md", hub.commits[2].Path)
	assert.Equal(t, "feat: add readme", hub.commits[2].Message)
	assert.Contains(t, string(hub.commits[2].Content), "Build a csv viewer")
	// The reported commit sha is the readme commit, the third one made.
	assert.Equal(t, "commit3", output.CommitSHA)

	assert.Equal(t, "data.csv", hub.commits[3].Path)
	assert.Equal(t, "feat: add attachment data.csv", hub.commits[3].Message)
	assert.Equal(t, "a,b\n1,2", string(hub.commits[3].Content))
}

func TestHandler_Execute_CreateRepoFailureAborts(t *testing.T) {
	hub := &fakeHub{failCreate: true}
	server := hub.server(t)
	defer server.Close()

	_, err := newTestHandler(server.URL, t).Execute(context.Background(), &Input{
		RepoName: "my-task",
		HTML:     "<html></html>",
	})

	require.Error(t, err)
	var se *apperrors.StandardError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, apperrors.ErrCodePublishFailed, se.Code)
	assert.Empty(t, hub.commits)
}

func TestHandler_Execute_FixedCommitFailureAborts(t *testing.T) {
	hub := &fakeHub{failPaths: map[string]bool{"LICENSE": true}}
	server := hub.server(t)
	defer server.Close()

	_, err := newTestHandler(server.URL, t).Execute(context.Background(), &Input{
		RepoName: "my-task",
		HTML:     "<html></html>",
	})

	require.Error(t, err)
	var se *apperrors.StandardError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, apperrors.ErrCodePublishFailed, se.Code)
	// Only the document made it in before the abort.
	require.Len(t, hub.commits, 1)
	assert.Equal(t, "index.html", hub.commits[0].Path)
	assert.False(t, hub.pagesEnabled)
}

func TestHandler_Execute_AttachmentFailuresAreIsolated(t *testing.T) {
	hub := &fakeHub{failPaths: map[string]bool{"broken.bin": true}}
	server := hub.server(t)
	defer server.Close()

	input := &Input{
		RepoName: "my-task",
		HTML:     "<html></html>",
		Brief:    "brief",
		Attachments: []models.Attachment{
			{Name: "undecodable.txt", URL: "data:text/plain;base64,@@@"},
			{Name: "broken.bin", URL: "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString([]byte{1, 2})},
			{Name: "", URL: ""},
			{Name: "good.txt", URL: "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("fine"))},
		},
	}

	output, err := newTestHandler(server.URL, t).Execute(context.Background(), input)

	require.NoError(t, err)
	assert.NotEmpty(t, output.CommitSHA)
	// Three fixed commits plus the one attachment that survived.
	require.Len(t, hub.commits, 4)
	assert.Equal(t, "good.txt", hub.commits[3].Path)
	assert.Equal(t, "fine", string(hub.commits[3].Content))
}

func TestHandler_Execute_PagesFailureIsNonFatal(t *testing.T) {
	hub := &fakeHub{failPages: true}
	server := hub.server(t)
	defer server.Close()

	output, err := newTestHandler(server.URL, t).Execute(context.Background(), &Input{
		RepoName: "my-task",
		HTML:     "<html></html>",
	})

	require.NoError(t, err)
	assert.Equal(t, "https://github.com/octocat/my-task", output.RepoURL)
	assert.False(t, hub.pagesEnabled)
}

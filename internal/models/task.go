// internal/models/task.go
package models

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// TaskRequest is the unit of work received on the inbound endpoint. The task
// name is stable across rounds and doubles as the repository identifier.
type TaskRequest struct {
	Email         string       `json:"email" binding:"required"`
	Secret        string       `json:"secret" binding:"required"`
	Task          string       `json:"task" binding:"required"`
	Round         int          `json:"round" binding:"required,min=1"`
	Nonce         string       `json:"nonce" binding:"required"`
	Brief         string       `json:"brief" binding:"required"`
	Checks        []string     `json:"checks"`
	EvaluationURL string       `json:"evaluation_url" binding:"required,url"`
	Attachments   []Attachment `json:"attachments"`
}

// IsCreateRound reports whether this request takes the first-time creation
// path. Round 1 always creates; round >= 2 always revises, regardless of
// whether a repository already exists.
func (r *TaskRequest) IsCreateRound() bool {
	return r.Round == 1
}

// Attachment is a named file carried as a self-describing data URI.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// DecodeContent splits the data URI and decodes its base64 payload.
func (a Attachment) DecodeContent() ([]byte, error) {
	_, encoded, found := strings.Cut(a.URL, ",")
	if !found {
		return nil, fmt.Errorf("attachment %q: not a data URI", a.Name)
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("attachment %q: decode base64: %w", a.Name, err)
	}
	return decoded, nil
}

// CallbackPayload is the terminal artifact of one orchestration run, posted
// to the evaluator. It is never persisted locally.
type CallbackPayload struct {
	Email     string `json:"email"`
	Task      string `json:"task"`
	Round     int    `json:"round"`
	Nonce     string `json:"nonce"`
	RepoURL   string `json:"repo_url"`
	CommitSHA string `json:"commit_sha"`
	PagesURL  string `json:"pages_url"`
}

// internal/workers/repository/revise-site/models.go
package revisesite

import "pageforge/internal/models"

type Input struct {
	RepoName    string              `json:"repoName"`
	Round       int                 `json:"round"`
	Nonce       string              `json:"nonce"`
	Brief       string              `json:"brief"`
	Checks      []string            `json:"checks"`
	Attachments []models.Attachment `json:"attachments"`
}

type Output struct {
	RepoURL   string `json:"repoUrl"`
	CommitSHA string `json:"commitSha"`
}

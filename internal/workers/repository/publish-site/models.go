// internal/workers/repository/publish-site/models.go
package publishsite

import "pageforge/internal/models"

type Input struct {
	// RepoName is the task name; the repository is named after it.
	RepoName string `json:"repoName"`
	// HTML is the generated document, already carrying its nonce marker.
	HTML        string              `json:"html"`
	Brief       string              `json:"brief"`
	Attachments []models.Attachment `json:"attachments"`
}

type Output struct {
	RepoURL   string `json:"repoUrl"`
	CommitSHA string `json:"commitSha"`
}

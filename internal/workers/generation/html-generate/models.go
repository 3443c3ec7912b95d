// internal/workers/generation/html-generate/models.go
package htmlgenerate

import "pageforge/internal/models"

type Input struct {
	Brief       string              `json:"brief"`
	Checks      []string            `json:"checks"`
	Attachments []models.Attachment `json:"attachments"`
}

type Output struct {
	HTML string `json:"html"`
}

// internal/workers/repository/revise-site/handler.go
package revisesite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "pageforge/internal/common/errors"
	"pageforge/internal/common/github"
	"pageforge/internal/common/logger"
	"pageforge/internal/models"
	htmlgenerate "pageforge/internal/workers/generation/html-generate"
)

const TaskType = "revise-site"

// Generator produces revised markup from a composed brief.
type Generator interface {
	Execute(ctx context.Context, input *htmlgenerate.Input) *htmlgenerate.Output
}

type Handler struct {
	config    *Config
	gh        *github.Client
	generator Generator
	logger    logger.Logger
}

func NewHandler(config *Config, gh *github.Client, generator Generator, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		gh:        gh,
		generator: generator,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

// Execute fetches the existing document, asks the generator to revise it
// against the new brief, installs the new round's nonce, and commits the
// updated readme and document in two sequential commits. There is no atomic
// multi-file commit: if the document commit fails after the readme commit
// succeeded, the repository is left with an updated readme and a stale
// document. That inconsistency window is acknowledged and logged, not rolled
// back.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	fullName := h.config.Owner + "/" + input.RepoName
	log := h.logger.With(map[string]interface{}{
		"repo":  fullName,
		"round": input.Round,
	})
	log.Info("starting revision", nil)

	index, err := h.gh.GetContents(ctx, fullName, "index.html")
	if err != nil {
		if errors.Is(err, github.ErrNotFound) {
			return nil, apperrors.NewRepositoryNotFoundError(input.RepoName)
		}
		return nil, apperrors.NewUpdateFailedError(fmt.Errorf("fetch index.html: %w", err))
	}

	// The revision instruction travels as the brief so the generator still
	// appends the attachment data URIs and check list to the final prompt.
	generated := h.generator.Execute(ctx, &htmlgenerate.Input{
		Brief:       buildRevisionPrompt(string(index.Content), input.Brief, input.Checks),
		Checks:      input.Checks,
		Attachments: input.Attachments,
	})
	if htmlgenerate.IsErrorArtifact(generated.HTML) {
		return nil, apperrors.NewUpdateFailedError(errors.New("generator returned an error artifact"))
	}

	finalHTML := models.ReplaceNonce(generated.HTML, input.Nonce)

	readme, err := h.gh.GetContents(ctx, fullName, "README.md")
	if err != nil {
		return nil, apperrors.NewUpdateFailedError(fmt.Errorf("fetch README.md: %w", err))
	}
	newReadme := fmt.Sprintf("# %s\n\n**Latest Brief (Round %d):**\n%s", input.RepoName, input.Round, input.Brief)
	readmeMessage := fmt.Sprintf("docs: update for round %d", input.Round)
	if _, err := h.gh.UpdateFile(ctx, fullName, "README.md", readmeMessage, []byte(newReadme), readme.SHA); err != nil {
		if errors.Is(err, github.ErrConflict) {
			return nil, apperrors.NewRevisionConflictError("README.md")
		}
		return nil, apperrors.NewUpdateFailedError(fmt.Errorf("commit README.md: %w", err))
	}

	indexMessage := fmt.Sprintf("feat: apply round %d revisions", input.Round)
	commitSHA, err := h.gh.UpdateFile(ctx, fullName, "index.html", indexMessage, []byte(finalHTML), index.SHA)
	if err != nil {
		log.Warn("document commit failed after readme commit; repository left inconsistent", map[string]interface{}{
			"error": err.Error(),
		})
		if errors.Is(err, github.ErrConflict) {
			return nil, apperrors.NewRevisionConflictError("index.html")
		}
		return nil, apperrors.NewUpdateFailedError(fmt.Errorf("commit index.html: %w", err))
	}

	log.Info("revision complete", map[string]interface{}{"commitSha": commitSHA})
	return &Output{
		RepoURL:   "https://github.com/" + fullName,
		CommitSHA: commitSHA,
	}, nil
}

func buildRevisionPrompt(existingHTML, brief string, checks []string) string {
	return fmt.Sprintf(`Your task is to modify the following existing HTML code based on a new requirement.
--- EXISTING CODE ---
%s
--- END EXISTING CODE ---
--- NEW REQUIREMENT ---
%s
--- END NEW REQUIREMENT ---
The final, updated code must still pass these checks: %s.
Respond with only the complete, new HTML code block and nothing else.`,
		existingHTML, brief, strings.Join(checks, ", "))
}

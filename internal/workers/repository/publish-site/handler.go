// internal/workers/repository/publish-site/handler.go
package publishsite

import (
	"context"
	"fmt"

	apperrors "pageforge/internal/common/errors"
	"pageforge/internal/common/github"
	"pageforge/internal/common/logger"
)

const TaskType = "publish-site"

type Handler struct {
	gh     *github.Client
	logger logger.Logger
}

func NewHandler(gh *github.Client, log logger.Logger) *Handler {
	return &Handler{
		gh: gh,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

// Execute creates a new public repository and commits the generated document,
// a license, a readme, and the decoded attachments. Repository creation or
// any of the three fixed commits failing aborts the whole operation with no
// cleanup; a half-created repository is left as-is. Per-attachment failures
// are logged and skipped. Hosting-enable failure is logged only.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	log := h.logger.With(map[string]interface{}{"repo": input.RepoName})

	repo, err := h.gh.CreateRepo(ctx, input.RepoName)
	if err != nil {
		return nil, apperrors.NewPublishFailedError(fmt.Errorf("create repository %q: %w", input.RepoName, err))
	}
	log.Info("repository created", map[string]interface{}{"url": repo.HTMLURL})

	readmeContent := fmt.Sprintf("# %s\n\nThis project was auto-generated based on the brief: '%s'", input.RepoName, input.Brief)

	if _, err := h.gh.CreateFile(ctx, repo.FullName, "index.html", "feat: initial commit", []byte(input.HTML)); err != nil {
		return nil, apperrors.NewPublishFailedError(fmt.Errorf("commit index.html: %w", err))
	}
	if _, err := h.gh.CreateFile(ctx, repo.FullName, "LICENSE", "feat: add MIT license", []byte(mitLicense)); err != nil {
		return nil, apperrors.NewPublishFailedError(fmt.Errorf("commit LICENSE: %w", err))
	}
	// The readme commit's sha is what the overall result reports; downstream
	// verification confirms freshness through the nonce in the page body, not
	// through this sha.
	readmeSHA, err := h.gh.CreateFile(ctx, repo.FullName, "README.md", "feat: add readme", []byte(readmeContent))
	if err != nil {
		return nil, apperrors.NewPublishFailedError(fmt.Errorf("commit README.md: %w", err))
	}

	for _, attachment := range input.Attachments {
		if attachment.Name == "" || attachment.URL == "" {
			continue
		}
		content, err := attachment.DecodeContent()
		if err != nil {
			log.WithError(apperrors.NewAttachmentFailedError(attachment.Name, err)).Warn("skipping attachment", nil)
			continue
		}
		message := fmt.Sprintf("feat: add attachment %s", attachment.Name)
		if _, err := h.gh.CreateFile(ctx, repo.FullName, attachment.Name, message, content); err != nil {
			log.WithError(apperrors.NewAttachmentFailedError(attachment.Name, err)).Warn("skipping attachment", nil)
		}
	}

	// Pages may already be building, or the platform may enable it on its
	// own; either way this must not fail the publish.
	if err := h.gh.EnablePages(ctx, repo.FullName); err != nil {
		log.WithError(apperrors.NewHostingEnableFailedError(err)).Warn("enable pages failed", nil)
	} else {
		log.Info("pages enabled", nil)
	}

	log.Info("publish complete", map[string]interface{}{"commitSha": readmeSHA})
	return &Output{RepoURL: repo.HTMLURL, CommitSHA: readmeSHA}, nil
}

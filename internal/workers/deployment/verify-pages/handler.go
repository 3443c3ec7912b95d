// internal/workers/deployment/verify-pages/handler.go
package verifypages

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "pageforge/internal/common/errors"
	"pageforge/internal/common/httpclient"
	"pageforge/internal/common/logger"
	"pageforge/internal/models"
)

const TaskType = "verify-pages"

type Handler struct {
	config *Config
	client *httpclient.Client
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		client: httpclient.NewClient(config.ProbeTimeout),
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

// Execute polls the published page until it serves the exact nonce marker
// for this round, or the deadline elapses. A probe that fails or returns a
// stale body is not an error, it just means the CDN has not caught up yet.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	log := h.logger.With(map[string]interface{}{
		"pagesUrl": input.PagesURL,
	})
	log.Info("starting deployment verification", map[string]interface{}{
		"deadline": h.config.Deadline.String(),
	})

	deadline := time.NewTimer(h.config.Deadline)
	defer deadline.Stop()
	ticker := time.NewTicker(h.config.PollInterval)
	defer ticker.Stop()

	attempts := 0
	for {
		attempts++
		live, err := h.probe(ctx, input.PagesURL, input.Nonce)
		if err != nil {
			log.Debug("probe failed", map[string]interface{}{
				"attempt": attempts,
				"error":   err.Error(),
			})
		} else if live {
			log.Info("deployment verified", map[string]interface{}{"attempts": attempts})
			return &Output{PagesURL: input.PagesURL, Attempts: attempts}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, apperrors.NewVerificationTimeoutError(input.PagesURL, h.config.Deadline)
		case <-ticker.C:
		}
	}
}

func (h *Handler) probe(ctx context.Context, pagesURL, nonce string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pagesURL, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := h.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}
	return strings.Contains(string(body), models.NonceMetaTag(nonce)), nil
}

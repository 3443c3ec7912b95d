// internal/workers/deployment/send-callback/handler.go
package sendcallback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "pageforge/internal/common/errors"
	"pageforge/internal/common/httpclient"
	"pageforge/internal/common/logger"
	"pageforge/internal/models"
)

const TaskType = "send-callback"

type Input struct {
	EvaluationURL string
	Payload       *models.CallbackPayload
}

type Output struct {
	Attempts int
}

type Handler struct {
	config *Config
	client *httpclient.Client
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		client: httpclient.NewClient(config.RequestTimeout),
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

// Execute posts the completion payload to the evaluator. Only HTTP 200
// counts as delivered; any other status or a transport error triggers a
// retry with exponential backoff, up to MaxAttempts total attempts.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	body, err := json.Marshal(input.Payload)
	if err != nil {
		return nil, apperrors.NewNotificationFailedError(fmt.Errorf("marshal payload: %w", err))
	}
	log := h.logger.With(map[string]interface{}{
		"evaluationUrl": input.EvaluationURL,
		"task":          input.Payload.Task,
		"round":         input.Payload.Round,
	})

	var lastErr error
	for attempt := 1; attempt <= h.config.MaxAttempts; attempt++ {
		lastErr = h.post(ctx, input.EvaluationURL, body)
		if lastErr == nil {
			log.Info("notification delivered", map[string]interface{}{"attempt": attempt})
			return &Output{Attempts: attempt}, nil
		}
		log.Warn("notification attempt failed", map[string]interface{}{
			"attempt": attempt,
			"error":   lastErr.Error(),
		})
		if attempt == h.config.MaxAttempts {
			break
		}

		backoff := h.config.BackoffBase * time.Duration(1<<uint(attempt-1))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return nil, apperrors.NewNotificationFailedError(
		fmt.Errorf("%d attempts exhausted: %w", h.config.MaxAttempts, lastErr))
}

func (h *Handler) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("evaluator returned status %d", resp.StatusCode)
	}
	return nil
}

// internal/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	apperrors "pageforge/internal/common/errors"
	"pageforge/internal/common/logger"
	"pageforge/internal/common/metrics"
	"pageforge/internal/models"
	sendcallback "pageforge/internal/workers/deployment/send-callback"
	verifypages "pageforge/internal/workers/deployment/verify-pages"
	htmlgenerate "pageforge/internal/workers/generation/html-generate"
	publishsite "pageforge/internal/workers/repository/publish-site"
	revisesite "pageforge/internal/workers/repository/revise-site"
)

// Stage name constants used in logs and metric labels.
const (
	StageGenerate = "generate"
	StagePublish  = "publish"
	StageRevise   = "revise"
	StageVerify   = "verify"
	StageNotify   = "notify"
)

// The orchestrator depends on narrow per-stage interfaces rather than the
// concrete handlers so that each stage can be substituted in tests.

type Generator interface {
	Execute(ctx context.Context, input *htmlgenerate.Input) *htmlgenerate.Output
}

type Publisher interface {
	Execute(ctx context.Context, input *publishsite.Input) (*publishsite.Output, error)
}

type Reviser interface {
	Execute(ctx context.Context, input *revisesite.Input) (*revisesite.Output, error)
}

type Verifier interface {
	Execute(ctx context.Context, input *verifypages.Input) (*verifypages.Output, error)
}

type Notifier interface {
	Execute(ctx context.Context, input *sendcallback.Input) (*sendcallback.Output, error)
}

// PagesResolver maps a task name to the public URL its deployment is
// expected at. Production wires config.GitHubConfig.PagesURL here.
type PagesResolver func(task string) string

type Orchestrator struct {
	pagesURL  PagesResolver
	generator Generator
	publisher Publisher
	reviser   Reviser
	verifier  Verifier
	notifier  Notifier
	logger    logger.Logger
}

func New(
	pagesURL PagesResolver,
	generator Generator,
	publisher Publisher,
	reviser Reviser,
	verifier Verifier,
	notifier Notifier,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		pagesURL:  pagesURL,
		generator: generator,
		publisher: publisher,
		reviser:   reviser,
		verifier:  verifier,
		notifier:  notifier,
		logger:    log,
	}
}

// Run drives one task through its full lifecycle: generate and publish (or
// revise) the document, wait for the deployment to become observably live,
// then notify the evaluator. Any stage failure stops the run silently; the
// original caller was already answered before Run started, so failures are
// visible only in logs and metrics. Stages are strictly sequential and no
// state is shared between concurrent runs.
func (o *Orchestrator) Run(ctx context.Context, req *models.TaskRequest) {
	runID := uuid.New().String()
	log := o.logger.With(map[string]interface{}{
		"runId": runID,
		"task":  req.Task,
		"round": req.Round,
	})
	metrics.TasksStarted.WithLabelValues(strconv.Itoa(req.Round)).Inc()
	start := time.Now()

	log.Info("task run started", map[string]interface{}{"email": req.Email})

	repoURL, commitSHA, ok := o.dispatch(ctx, req, log)
	if !ok {
		metrics.TaskDuration.WithLabelValues("aborted").Observe(time.Since(start).Seconds())
		log.Warn("task run aborted during dispatch", nil)
		return
	}

	pagesURL := o.pagesURL(req.Task)
	if _, err := o.verifier.Execute(ctx, &verifypages.Input{
		PagesURL: pagesURL,
		Nonce:    req.Nonce,
	}); err != nil {
		metrics.StageFailed.WithLabelValues(StageVerify, errorCode(err)).Inc()
		metrics.TaskDuration.WithLabelValues("aborted").Observe(time.Since(start).Seconds())
		log.WithError(err).Warn("task run aborted during verification", failureFields(err))
		return
	}
	metrics.StageCompleted.WithLabelValues(StageVerify).Inc()

	payload := &models.CallbackPayload{
		Email:     req.Email,
		Task:      req.Task,
		Round:     req.Round,
		Nonce:     req.Nonce,
		RepoURL:   repoURL,
		CommitSHA: commitSHA,
		PagesURL:  pagesURL,
	}
	if _, err := o.notifier.Execute(ctx, &sendcallback.Input{
		EvaluationURL: req.EvaluationURL,
		Payload:       payload,
	}); err != nil {
		// Notification exhaustion is terminal but the run still finished
		// its deployment work, so it is recorded as done.
		metrics.StageFailed.WithLabelValues(StageNotify, errorCode(err)).Inc()
		log.WithError(err).Error("evaluator notification failed", failureFields(err))
	} else {
		metrics.StageCompleted.WithLabelValues(StageNotify).Inc()
	}

	metrics.TaskDuration.WithLabelValues("done").Observe(time.Since(start).Seconds())
	log.Info("task run finished", map[string]interface{}{
		"durationMs": time.Since(start).Milliseconds(),
	})
}

// dispatch runs the round-dependent half of the pipeline and returns the
// repository URL and commit identifier for the callback payload.
func (o *Orchestrator) dispatch(ctx context.Context, req *models.TaskRequest, log logger.Logger) (string, string, bool) {
	if req.IsCreateRound() {
		generated := o.generator.Execute(ctx, &htmlgenerate.Input{
			Brief:       req.Brief,
			Checks:      req.Checks,
			Attachments: req.Attachments,
		})
		if htmlgenerate.IsErrorArtifact(generated.HTML) {
			// Nothing downstream can succeed with an error page, and
			// publishing it would claim the repository name and break a
			// later retry of the same round.
			err := apperrors.NewGenerationFailedError(errors.New("generator returned an error artifact"))
			metrics.StageFailed.WithLabelValues(StageGenerate, errorCode(err)).Inc()
			log.WithError(err).Error("generation produced an error artifact; halting task", failureFields(err))
			return "", "", false
		}
		metrics.StageCompleted.WithLabelValues(StageGenerate).Inc()
		html := models.InjectNonce(generated.HTML, req.Nonce)

		out, err := o.publisher.Execute(ctx, &publishsite.Input{
			RepoName:    req.Task,
			HTML:        html,
			Brief:       req.Brief,
			Attachments: req.Attachments,
		})
		if err != nil {
			metrics.StageFailed.WithLabelValues(StagePublish, errorCode(err)).Inc()
			log.WithError(err).Error("publish stage failed", failureFields(err))
			return "", "", false
		}
		metrics.StageCompleted.WithLabelValues(StagePublish).Inc()
		return out.RepoURL, out.CommitSHA, true
	}

	out, err := o.reviser.Execute(ctx, &revisesite.Input{
		RepoName:    req.Task,
		Round:       req.Round,
		Nonce:       req.Nonce,
		Brief:       req.Brief,
		Checks:      req.Checks,
		Attachments: req.Attachments,
	})
	if err != nil {
		metrics.StageFailed.WithLabelValues(StageRevise, errorCode(err)).Inc()
		log.WithError(err).Error("revise stage failed", failureFields(err))
		return "", "", false
	}
	metrics.StageCompleted.WithLabelValues(StageRevise).Inc()
	return out.RepoURL, out.CommitSHA, true
}

// errorCode extracts the stage error's code for use as a metric label.
func errorCode(err error) string {
	var se *apperrors.StandardError
	if errors.As(err, &se) {
		return string(se.Code)
	}
	return "UNKNOWN"
}

// failureFields annotates a stage failure log with the error's category and
// whether resubmitting the request could succeed.
func failureFields(err error) map[string]interface{} {
	var se *apperrors.StandardError
	if !errors.As(err, &se) {
		return nil
	}
	return map[string]interface{}{
		"category":  apperrors.GetErrorCategory(se.Code),
		"retryable": apperrors.IsRetryableErrorCode(se.Code),
	}
}

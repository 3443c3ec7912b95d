// internal/gateway/handler.go
package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xeipuuv/gojsonschema"

	"pageforge/internal/common/logger"
	"pageforge/internal/models"
)

// Runner is the background unit of work scheduled per accepted request.
type Runner interface {
	Run(ctx context.Context, req *models.TaskRequest)
}

type Handler struct {
	secret string
	runner Runner
	schema *gojsonschema.Schema
	logger logger.Logger
}

func NewHandler(secret string, runner Runner, log logger.Logger) (*Handler, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(taskRequestSchema))
	if err != nil {
		return nil, err
	}
	return &Handler{
		secret: secret,
		runner: runner,
		schema: schema,
		logger: log.With(map[string]interface{}{"component": "gateway"}),
	}, nil
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/api-endpoint", h.HandleTask)
	r.GET("/healthz", h.Health)
}

// HandleTask validates the body and secret, schedules the run in the
// background, and answers immediately. The response never reflects the
// outcome of the work.
func (h *Handler) HandleTask(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Could not read request body."})
		return
	}

	result, err := h.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Request body is not valid JSON."})
		return
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": details})
		return
	}

	var req models.TaskRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Request body is not valid JSON."})
		return
	}

	if req.Secret != h.secret {
		h.logger.Warn("rejected request with invalid secret", map[string]interface{}{
			"task": req.Task,
		})
		c.JSON(http.StatusForbidden, gin.H{"detail": "Invalid secret provided."})
		return
	}

	h.logger.Info("accepted task request", map[string]interface{}{
		"task":  req.Task,
		"round": req.Round,
	})

	// The run owns its own lifetime; there is no cancellation from outside
	// once scheduled, so it does not inherit the request context.
	go h.runner.Run(context.Background(), &req)

	c.JSON(http.StatusOK, gin.H{"message": "Request received. Processing will start in the background."})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

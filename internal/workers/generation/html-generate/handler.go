// internal/workers/generation/html-generate/handler.go
package htmlgenerate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"pageforge/internal/common/logger"
)

const TaskType = "html-generate"

// ErrorArtifactPrefix is the fixed marker on sentinel error pages. Downstream
// stages distinguish a failed generation by this prefix instead of an error
// return.
const ErrorArtifactPrefix = "<h1>Error"

// IsErrorArtifact reports whether the generator produced a sentinel error
// page instead of usable markup.
func IsErrorArtifact(html string) bool {
	return html == "" || strings.HasPrefix(html, ErrorArtifactPrefix)
}

type Handler struct {
	config *Config
	client *http.Client
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

// Execute generates a single self-contained HTML document for the brief. It
// makes exactly one remote call and never fails across the stage boundary:
// any transport or response-shape problem degrades to a sentinel error page.
func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	if h.config.Token == "" {
		h.logger.Error("generation token is not configured", nil)
		return &Output{HTML: "<h1>Error: AIPIPE_TOKEN is not configured.</h1>"}
	}

	prompt := h.buildPrompt(input)

	html, err := h.callGenerationAPI(ctx, prompt)
	if err != nil {
		h.logger.Error("generation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return &Output{HTML: fmt.Sprintf("<h1>Error: Could not generate code.</h1><p>%v</p>", err)}
	}

	h.logger.Info("generation successful", map[string]interface{}{
		"htmlBytes": len(html),
	})
	return &Output{HTML: html}
}

func (h *Handler) callGenerationAPI(ctx context.Context, prompt string) (string, error) {
	requestBody := map[string]interface{}{
		"model": h.config.Model,
		"input": prompt,
	}

	body, _ := json.Marshal(requestBody)
	url := h.config.BaseURL + "/openai/v1/responses"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.config.Token)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generation service returned status %d", resp.StatusCode)
	}

	var apiResponse struct {
		Output []struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(apiResponse.Output) == 0 || len(apiResponse.Output[0].Content) == 0 {
		return "", fmt.Errorf("unexpected response shape: no output content")
	}

	return stripCodeFences(strings.TrimSpace(apiResponse.Output[0].Content[0].Text)), nil
}

// stripCodeFences removes a single leading and trailing fenced-code delimiter
// line if present. No other validation of the returned markup is performed.
func stripCodeFences(code string) string {
	if strings.HasPrefix(code, "```") {
		if i := strings.Index(code, "\n"); i >= 0 {
			code = code[i+1:]
		} else {
			code = ""
		}
	}
	if strings.HasSuffix(code, "```") {
		if i := strings.LastIndex(code, "\n"); i >= 0 {
			code = code[:i]
		} else {
			code = ""
		}
	}
	return code
}

func (h *Handler) buildPrompt(input *Input) string {
	attachmentsContext := ""
	if len(input.Attachments) > 0 {
		var b strings.Builder
		b.WriteString("\n\nThe following file attachments are provided as data URIs. **Do not decode or process the Base64 content.** You must embed the entire data URI string directly into the appropriate HTML tags.\n")
		b.WriteString("For example, for an image named 'sample.png', you would generate a tag like: <img src=\"data:image/png;base64,iVBORw...\">\n")
		for _, attachment := range input.Attachments {
			b.WriteString(fmt.Sprintf("\n--- FILE: %s ---\n%s\n--- END FILE ---\n", attachment.Name, attachment.URL))
		}
		attachmentsContext = b.String()
	}

	return fmt.Sprintf(`You are an expert front-end web developer. Your task is to generate a single, complete, self-contained HTML file.
All CSS, JavaScript, and other assets must be included directly within the HTML file.

The user's application brief is:
---
%s
---
%s
The generated page must be able to pass these automated checks:
---
%s
---

Respond with only the raw HTML code and nothing else.`,
		input.Brief, attachmentsContext, strings.Join(input.Checks, ", "))
}

// internal/workers/generation/html-generate/config.go
package htmlgenerate

import "time"

type Config struct {
	BaseURL string
	Token   string
	Model   string
	Timeout time.Duration
}

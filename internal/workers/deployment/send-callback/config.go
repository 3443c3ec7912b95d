// internal/workers/deployment/send-callback/config.go
package sendcallback

import "time"

type Config struct {
	MaxAttempts    int
	BackoffBase    time.Duration
	RequestTimeout time.Duration
}

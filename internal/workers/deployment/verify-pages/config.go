// internal/workers/deployment/verify-pages/config.go
package verifypages

import "time"

type Config struct {
	PollInterval time.Duration
	ProbeTimeout time.Duration
	Deadline     time.Duration
}

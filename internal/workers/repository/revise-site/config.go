// internal/workers/repository/revise-site/config.go
package revisesite

type Config struct {
	// Owner is the hosting account the task repositories live under.
	Owner string
}

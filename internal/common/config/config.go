// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct. It is built once at
// startup and passed explicitly into each component's constructor; nothing
// reads configuration ambiently after that.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	GitHub   GitHubConfig   `mapstructure:"github"`
	GenAI    GenAIConfig    `mapstructure:"genai"`
	Verify   VerifyConfig   `mapstructure:"verify"`
	Callback CallbackConfig `mapstructure:"callback"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug or release
}

// AuthConfig holds the shared secret for the inbound task endpoint.
type AuthConfig struct {
	Secret string `mapstructure:"secret"`
}

// GitHubConfig holds the hosting account identity and credential.
type GitHubConfig struct {
	Username   string `mapstructure:"username"`
	Token      string `mapstructure:"token"`
	APIBaseURL string `mapstructure:"api_base_url"`
	TimeoutMS  int    `mapstructure:"timeout_ms"`
}

// GenAIConfig holds settings for the generation service.
type GenAIConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	Token     string `mapstructure:"token"`
	Model     string `mapstructure:"model"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

// VerifyConfig holds deployment polling settings.
type VerifyConfig struct {
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds"`
	ProbeTimeoutSeconds int `mapstructure:"probe_timeout_seconds"`
	DeadlineSeconds     int `mapstructure:"deadline_seconds"`
}

func (v VerifyConfig) PollInterval() time.Duration {
	return time.Duration(v.PollIntervalSeconds) * time.Second
}

func (v VerifyConfig) ProbeTimeout() time.Duration {
	return time.Duration(v.ProbeTimeoutSeconds) * time.Second
}

func (v VerifyConfig) Deadline() time.Duration {
	return time.Duration(v.DeadlineSeconds) * time.Second
}

// CallbackConfig holds evaluator callback retry settings.
type CallbackConfig struct {
	MaxAttempts      int `mapstructure:"max_attempts"`
	BackoffBaseMS    int `mapstructure:"backoff_base_ms"`
	RequestTimeoutMS int `mapstructure:"request_timeout_ms"`
}

func (c CallbackConfig) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseMS) * time.Millisecond
}

func (c CallbackConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PagesURL returns the public URL the deployed site is expected at.
func (g GitHubConfig) PagesURL(repoName string) string {
	return fmt.Sprintf("https://%s.github.io/%s/", g.Username, repoName)
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

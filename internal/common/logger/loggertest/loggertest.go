// Package loggertest provides a Logger that writes through testing.TB, so
// log output shows up attached to the failing test.
package loggertest

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"pageforge/internal/common/logger"
)

func New(t testing.TB) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

//go:build !nogpu

package gpu

import (
	"log/slog"

	"github.com/gogpu/backdrop"
)

// slogger returns the package logger.
// All logging in internal/gpu goes through this function. The package
// shares the root logger so that backdrop.SetLogger configures the
// whole module at once.
func slogger() *slog.Logger { return backdrop.Logger() }

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package render

import (
	"log/slog"

	"github.com/gogpu/backdrop"
)

// slogger returns the package logger. The render package shares the
// root logger so that backdrop.SetLogger configures the whole module at
// once.
func slogger() *slog.Logger { return backdrop.Logger() }

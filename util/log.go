// Copyright 2018, RadiantBlue Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package util

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Severity levels accepted by LogAudit
const (
	DEBUG   = "DEBUG"
	INFO    = "INFO"
	NOTICE  = "NOTICE"
	WARNING = "WARNING"
	ERROR   = "ERROR"
)

// LogContext identifies the component and session a log line belongs to
type LogContext interface {
	AppName() string
	SessionID() string
	LogRootDir() string
}

// BasicLogContext is a LogContext with a lazily generated session ID
type BasicLogContext struct {
	sessionID string
}

// AppName returns the application name
func (c *BasicLogContext) AppName() string {
	return AppName
}

// SessionID returns a Session ID, creating one if needed
func (c *BasicLogContext) SessionID() string {
	if c.sessionID == "" {
		c.sessionID = NewSessionID()
	}
	return c.sessionID
}

// LogRootDir returns an empty string
func (c *BasicLogContext) LogRootDir() string {
	return ""
}

// AppName is reported by every LogContext in this module
const AppName = "bf-s2reader"

// NewSessionID returns a fresh random session identifier
func NewSessionID() string {
	return uuid.NewString()
}

var (
	loggerMu sync.RWMutex
	logger   = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
)

// SetupLogger installs the process logger. Format is "text" or "json"; level is
// one of debug, info, warn, error.
func SetupLogger(w io.Writer, level string, format string) error {
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return fmt.Errorf("invalid log format: %s", format)
	}

	SetLogger(slog.New(handler))
	return nil
}

// SetLogger replaces the process logger
func SetLogger(l *slog.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

// Logger returns the process logger
func Logger() *slog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
	}
}

func withContext(ctx LogContext) *slog.Logger {
	l := Logger()
	if ctx == nil {
		return l
	}
	return l.With("app", ctx.AppName(), "session", ctx.SessionID())
}

// LogDebug logs a debug message
func LogDebug(ctx LogContext, message string, args ...any) {
	withContext(ctx).Debug(message, args...)
}

// LogInfo logs an informational message
func LogInfo(ctx LogContext, message string, args ...any) {
	withContext(ctx).Info(message, args...)
}

// LogAlert logs a message that needs operator attention but does not stop processing
func LogAlert(ctx LogContext, message string, args ...any) {
	withContext(ctx).Warn(message, args...)
}

// LogSimpleErr logs the message and the error and returns an error wrapping err
// with the message prepended
func LogSimpleErr(ctx LogContext, message string, err error) error {
	if err == nil {
		withContext(ctx).Error(message)
		return fmt.Errorf("%s", message)
	}
	withContext(ctx).Error(message, "error", err)
	return fmt.Errorf("%s: %w", strings.TrimRight(message, " :."), err)
}

// LogAuditInput describes an auditable action
type LogAuditInput struct {
	Actor    string
	Action   string
	Actee    string
	Message  string
	Severity string
}

// LogAudit records who did what to which resource
func LogAudit(ctx LogContext, input LogAuditInput) {
	l := withContext(ctx).With("actor", input.Actor, "action", input.Action, "actee", input.Actee)
	switch input.Severity {
	case DEBUG:
		l.Debug(input.Message)
	case WARNING, NOTICE:
		l.Warn(input.Message)
	case ERROR:
		l.Error(input.Message)
	default:
		l.Info(input.Message)
	}
}

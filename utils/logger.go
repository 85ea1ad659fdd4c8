package utils

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger initializes the global logger with the specified log level.
// Valid levels: trace, debug, info, warn, error, fatal, panic
func InitLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var output io.Writer = os.Stderr

	logLevel := parseLogLevel(level)

	// Enable pretty printing for trace level
	if logLevel <= zerolog.TraceLevel {
		output = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	log.Logger = zerolog.New(output).
		Level(logLevel).
		With().
		Timestamp().
		Logger()

	log.Info().Str("set-level", level).Msg("Logger initialized")
}

// parseLogLevel converts a string to zerolog.Level
func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}

// LogLevel represents different logging levels
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// Notifier is the part of an MCP server that can broadcast to clients.
type Notifier interface {
	SendNotificationToAllClients(method string, params map[string]any)
}

// MCPLogger sends log lines to connected MCP clients and mirrors them to
// the process logger.
type MCPLogger struct {
	server     Notifier
	loggerName string
}

// NewMCPLogger creates a new MCP logger instance
func NewMCPLogger(server Notifier, loggerName string) *MCPLogger {
	if loggerName == "" {
		loggerName = "owlet-monitor"
	}

	return &MCPLogger{
		server:     server,
		loggerName: loggerName,
	}
}

var errNoServer = errors.New("MCP server not initialized")

func mirror(level LogLevel) *zerolog.Event {
	switch level {
	case LogLevelDebug:
		return log.Debug()
	case LogLevelWarning:
		return log.Warn()
	case LogLevelError:
		return log.Error()
	default:
		return log.Info()
	}
}

// SendLogNotification sends a notifications/message to all connected clients.
func (l *MCPLogger) SendLogNotification(level LogLevel, message string) error {
	return l.LogWithContext(level, message, nil)
}

// LogWithContext logs a message with additional context fields. A nil
// logger drops the message.
func (l *MCPLogger) LogWithContext(level LogLevel, message string, context map[string]any) error {
	if l == nil {
		return errNoServer
	}
	mirror(level).Str("logger", l.loggerName).Fields(context).Msg(message)

	if l.server == nil {
		return errNoServer
	}

	notification := map[string]any{
		"level":     string(level),
		"logger":    l.loggerName,
		"data":      message,
		"timestamp": time.Now().Unix(),
	}
	if len(context) > 0 {
		notification["context"] = context
	}

	l.server.SendNotificationToAllClients("notifications/message", notification)
	return nil
}

func (l *MCPLogger) Debugf(format string, args ...any) error {
	return l.SendLogNotification(LogLevelDebug, fmt.Sprintf(format, args...))
}

func (l *MCPLogger) Info(message string) error {
	return l.SendLogNotification(LogLevelInfo, message)
}

func (l *MCPLogger) Infof(format string, args ...any) error {
	return l.Info(fmt.Sprintf(format, args...))
}

func (l *MCPLogger) Warningf(format string, args ...any) error {
	return l.SendLogNotification(LogLevelWarning, fmt.Sprintf(format, args...))
}

func (l *MCPLogger) Errorf(format string, args ...any) error {
	return l.SendLogNotification(LogLevelError, fmt.Sprintf(format, args...))
}

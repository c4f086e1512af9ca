package domain

import "strings"

// LogLevel represents the severity of a log message, mirroring the standard slog levels.
type LogLevel int

const (
	// LogLevelDebug represents debug-level verbosity.
	LogLevelDebug LogLevel = -4
	// LogLevelInfo represents informational verbosity.
	LogLevelInfo LogLevel = 0
	// LogLevelWarn represents warning verbosity.
	LogLevelWarn LogLevel = 4
	// LogLevelError represents error verbosity.
	LogLevelError LogLevel = 8
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLogLevel converts a config string to a LogLevel, defaulting to info if unknown.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// RenderStatus is the lifecycle state of one render as shown in telemetry.
type RenderStatus string

const (
	// RenderStatusRendered means a kernel produced the mesh.
	RenderStatusRendered RenderStatus = "rendered"
	// RenderStatusCached means the mesh came from the render cache.
	RenderStatusCached RenderStatus = "cached"
	// RenderStatusDegraded means a fallback producer supplied the mesh.
	RenderStatusDegraded RenderStatus = "degraded"
	// RenderStatusFailed means no mesh could be produced.
	RenderStatusFailed RenderStatus = "failed"
)

// StatusOf maps an outcome to its telemetry status.
func StatusOf(o Outcome, cached bool) RenderStatus {
	switch {
	case o.Mesh == nil:
		return RenderStatusFailed
	case o.Degraded:
		return RenderStatusDegraded
	case cached:
		return RenderStatusCached
	default:
		return RenderStatusRendered
	}
}

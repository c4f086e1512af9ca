package domain

import "go.trai.ch/zerr"

var (
	// ErrUnavailable is returned when an executor cannot run at all.
	ErrUnavailable = zerr.New("executor unavailable")

	// ErrKernelRejected is returned when the kernel processed the input but refused it.
	ErrKernelRejected = zerr.New("kernel rejected geometry")

	// ErrTimeout is returned when a render exceeds its deadline.
	ErrTimeout = zerr.New("render deadline exceeded")

	// ErrNoExecutors is returned when no executor is configured for a coordinator.
	ErrNoExecutors = zerr.New("no executors configured")

	// ErrTruncatedInput is returned when mesh bytes end before the declared content.
	ErrTruncatedInput = zerr.New("truncated mesh input")

	// ErrInvalidGeometry is returned when mesh content is structurally or numerically invalid.
	ErrInvalidGeometry = zerr.New("invalid mesh geometry")

	// ErrUnsupportedFormat is returned when mesh bytes match no known format.
	ErrUnsupportedFormat = zerr.New("unsupported mesh format")

	// ErrDoubleComplete is returned when a cache entry is completed more than once.
	ErrDoubleComplete = zerr.New("cache entry already completed")

	// ErrUnknownFingerprint is returned when completing a fingerprint the cache never saw.
	ErrUnknownFingerprint = zerr.New("unknown fingerprint")

	// ErrAbandoned is returned to waiters of a computation that was abandoned by every caller.
	ErrAbandoned = zerr.New("render abandoned")

	// ErrCacheClosed is returned when using a cache after Close.
	ErrCacheClosed = zerr.New("render cache closed")

	// ErrMalformedTag is returned when a channel tag is not a render request tag.
	ErrMalformedTag = zerr.New("malformed render request tag")

	// ErrUnknownResponseStatus is returned when a host response carries a status other than success or failure.
	ErrUnknownResponseStatus = zerr.New("unknown response status")

	// ErrMalformedFingerprint is returned when a fingerprint string is not 64 lowercase hex characters.
	ErrMalformedFingerprint = zerr.New("malformed fingerprint")

	// ErrChannelClosed is returned when sending on a closed host channel.
	ErrChannelClosed = zerr.New("host channel closed")

	// ErrInvalidParam is returned when a geometry parameter cannot be represented canonically.
	ErrInvalidParam = zerr.New("invalid geometry parameter")

	// ErrInvalidConfig is returned when configuration values are out of range.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrUnknownFallback is returned when the fallback chain names an unknown producer.
	ErrUnknownFallback = zerr.New("unknown fallback producer")

	// ErrStoreWriteFailed is returned when an exported mesh cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write export store")

	// ErrStoreReadFailed is returned when the export manifest cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read export store")

	// ErrNoInputFiles is returned when a render is requested without geometry files.
	ErrNoInputFiles = zerr.New("no geometry files specified")

	// ErrOutputConflict is returned when a single output path is given for several inputs.
	ErrOutputConflict = zerr.New("output path requires exactly one input")

	// ErrGeometryReadFailed is returned when a geometry file cannot be read.
	ErrGeometryReadFailed = zerr.New("failed to read geometry file")

	// ErrRenderFailed is returned by the CLI when at least one render produced no mesh.
	ErrRenderFailed = zerr.New("render failed")

	// ErrWatchFailed is returned when geometry files cannot be watched for edits.
	ErrWatchFailed = zerr.New("failed to watch geometry files")
)

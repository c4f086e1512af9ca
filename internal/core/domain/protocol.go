package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// RequestTag prefixes every outbound render request on the host channel.
const RequestTag = "RENDER_REQUEST:"

// ResponseStatus is the outcome reported by the sandboxed kernel.
type ResponseStatus string

const (
	// StatusSuccess means Payload holds mesh bytes.
	StatusSuccess ResponseStatus = "success"
	// StatusFailure means ErrorDetail describes the kernel failure.
	StatusFailure ResponseStatus = "failure"
)

// RenderRequest is sent to the sandboxed kernel.
type RenderRequest struct {
	CorrelationID string
	Fingerprint   Fingerprint
	Description   []byte
}

// Tag returns the wire tag for the request.
func (r RenderRequest) Tag() string {
	return EncodeRequestTag(r.Fingerprint)
}

// RenderResponse is delivered by the host for a request.
// CorrelationID may be empty when the host only echoes the fingerprint.
type RenderResponse struct {
	CorrelationID string
	Fingerprint   Fingerprint
	Status        ResponseStatus
	Payload       []byte
	ErrorDetail   string
}

// EncodeRequestTag returns RequestTag followed by the hex fingerprint.
func EncodeRequestTag(fp Fingerprint) string {
	return RequestTag + fp.String()
}

// ParseRequestTag extracts the fingerprint from a request tag.
// Foreign prefixes, trailing data and malformed hex are rejected.
func ParseRequestTag(tag string) (Fingerprint, error) {
	rest, ok := strings.CutPrefix(tag, RequestTag)
	if !ok {
		return Fingerprint{}, zerr.With(zerr.Wrap(ErrMalformedTag, "foreign prefix"), "tag", truncateForLog(tag))
	}
	fp, err := ParseFingerprint(rest)
	if err != nil {
		wrapped := zerr.With(zerr.Wrap(ErrMalformedTag, "invalid fingerprint"), "tag", truncateForLog(tag))
		return Fingerprint{}, zerr.With(wrapped, "cause", err.Error())
	}
	return fp, nil
}

func truncateForLog(s string) string {
	const limit = 96
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

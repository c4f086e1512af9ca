package hostchannel

import (
	"encoding/json"

	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/zerr"
)

// outbound is the JSON frame carrying a render request to the host.
type outbound struct {
	Tag           string          `json:"tag"`
	CorrelationID string          `json:"correlation_id"`
	Description   json.RawMessage `json:"description,omitempty"`
}

// inbound is the JSON frame carrying a render response from the host.
// Payload is base64 in JSON. Tag may stand in for Fingerprint.
type inbound struct {
	CorrelationID string `json:"correlation_id,omitempty"`
	Fingerprint   string `json:"fingerprint,omitempty"`
	Tag           string `json:"tag,omitempty"`
	Status        string `json:"status"`
	Payload       []byte `json:"payload,omitempty"`
	Error         string `json:"error,omitempty"`
}

// EncodeRequest returns the JSON frame for req.
func EncodeRequest(req domain.RenderRequest) ([]byte, error) {
	frame := outbound{
		Tag:           req.Tag(),
		CorrelationID: req.CorrelationID,
	}
	if len(req.Description) > 0 {
		frame.Description = json.RawMessage(req.Description)
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to encode render request")
	}
	return data, nil
}

// DecodeRequest parses a JSON request frame. Hosts and tests use it to read what
// EncodeRequest wrote.
func DecodeRequest(data []byte) (domain.RenderRequest, error) {
	var frame outbound
	if err := json.Unmarshal(data, &frame); err != nil {
		return domain.RenderRequest{}, zerr.Wrap(err, "failed to decode render request")
	}
	fp, err := domain.ParseRequestTag(frame.Tag)
	if err != nil {
		return domain.RenderRequest{}, err
	}
	return domain.RenderRequest{
		CorrelationID: frame.CorrelationID,
		Fingerprint:   fp,
		Description:   []byte(frame.Description),
	}, nil
}

// EncodeResponse returns the JSON frame for resp.
func EncodeResponse(resp domain.RenderResponse) ([]byte, error) {
	frame := inbound{
		CorrelationID: resp.CorrelationID,
		Status:        string(resp.Status),
		Payload:       resp.Payload,
		Error:         resp.ErrorDetail,
	}
	if !resp.Fingerprint.IsZero() {
		frame.Fingerprint = resp.Fingerprint.String()
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to encode render response")
	}
	return data, nil
}

// DecodeResponse parses a JSON response frame.
func DecodeResponse(data []byte) (domain.RenderResponse, error) {
	var frame inbound
	if err := json.Unmarshal(data, &frame); err != nil {
		return domain.RenderResponse{}, zerr.Wrap(err, "failed to decode render response")
	}

	resp := domain.RenderResponse{
		CorrelationID: frame.CorrelationID,
		Status:        domain.ResponseStatus(frame.Status),
		Payload:       frame.Payload,
		ErrorDetail:   frame.Error,
	}
	switch {
	case frame.Fingerprint != "":
		fp, err := domain.ParseFingerprint(frame.Fingerprint)
		if err != nil {
			return domain.RenderResponse{}, err
		}
		resp.Fingerprint = fp
	case frame.Tag != "":
		fp, err := domain.ParseRequestTag(frame.Tag)
		if err != nil {
			return domain.RenderResponse{}, err
		}
		resp.Fingerprint = fp
	}
	if resp.Status != domain.StatusSuccess && resp.Status != domain.StatusFailure {
		return domain.RenderResponse{}, zerr.With(zerr.Wrap(domain.ErrUnknownResponseStatus, "invalid response"), "status", frame.Status)
	}
	return resp, nil
}

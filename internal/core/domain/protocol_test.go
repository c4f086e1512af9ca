package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lathe/internal/core/domain"
)

func TestRequestTag(t *testing.T) {
	var fp domain.Fingerprint
	fp[0], fp[31] = 0xab, 0x01

	tag := domain.EncodeRequestTag(fp)
	assert.True(t, strings.HasPrefix(tag, "RENDER_REQUEST:"))
	assert.Equal(t, tag, domain.RenderRequest{Fingerprint: fp}.Tag())

	parsed, err := domain.ParseRequestTag(tag)
	require.NoError(t, err)
	assert.Equal(t, fp, parsed)
}

func TestParseRequestTag_Invalid(t *testing.T) {
	valid := domain.EncodeRequestTag(domain.Fingerprint{1})
	tests := []struct {
		name string
		tag  string
	}{
		{name: "foreign prefix", tag: "RENDER_RESULT:" + strings.Repeat("0", 64)},
		{name: "lowercase prefix", tag: strings.ToLower(valid)},
		{name: "trailing data", tag: valid + "00"},
		{name: "bad hex", tag: "RENDER_REQUEST:" + strings.Repeat("z", 64)},
		{name: "prefix only", tag: "RENDER_REQUEST:"},
		{name: "huge", tag: strings.Repeat("x", 1<<16)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.ParseRequestTag(tt.tag)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrMalformedTag)
			assert.NotErrorIs(t, err, domain.ErrMalformedFingerprint)
		})
	}
}

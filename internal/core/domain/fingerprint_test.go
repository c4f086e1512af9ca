package domain_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lathe/internal/core/domain"
)

func TestFingerprint_RoundTrip(t *testing.T) {
	var fp domain.Fingerprint
	for i := range fp {
		fp[i] = byte(i * 7)
	}

	s := fp.String()
	assert.Len(t, s, 64)
	assert.Equal(t, s[:12], fp.Short())

	parsed, err := domain.ParseFingerprint(s)
	require.NoError(t, err)
	assert.Equal(t, fp, parsed)
	assert.False(t, parsed.IsZero())
	assert.True(t, domain.Fingerprint{}.IsZero())

	data, err := json.Marshal(map[string]domain.Fingerprint{"fp": fp})
	require.NoError(t, err)
	var decoded map[string]domain.Fingerprint
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, fp, decoded["fp"])
}

func TestParseFingerprint_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "short", input: strings.Repeat("a", 63)},
		{name: "long", input: strings.Repeat("a", 65)},
		{name: "uppercase", input: strings.Repeat("A", 64)},
		{name: "non hex", input: strings.Repeat("g", 64)},
		{name: "multibyte", input: strings.Repeat("a", 62) + "é"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.ParseFingerprint(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrMalformedFingerprint)
		})
	}
}

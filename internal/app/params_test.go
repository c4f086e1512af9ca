package app_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lathe/internal/app"
	"go.trai.ch/lathe/internal/core/domain"
)

func TestParseDefines(t *testing.T) {
	params, err := app.ParseDefines([]string{
		"size=10",
		"r = 2.5",
		`label="a b"`,
		"mode=fast",
		"bad=NaN",
		"size=12",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.Number(12), params["size"])
	assert.Equal(t, domain.Number(2.5), params["r"])
	assert.Equal(t, domain.Text("a b"), params["label"])
	assert.Equal(t, domain.Text("fast"), params["mode"])
	assert.Equal(t, domain.Text("NaN"), params["bad"])
}

func TestParseDefines_Errors(t *testing.T) {
	tests := []struct {
		name string
		def  string
	}{
		{name: "missing equals", def: "size"},
		{name: "empty name", def: "=3"},
		{name: "unterminated quote", def: `label="open`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := app.ParseDefines([]string{tt.def})
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidParam)
		})
	}
}

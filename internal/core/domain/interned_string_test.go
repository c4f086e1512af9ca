package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lathe/internal/core/domain"
)

func TestInternedString(t *testing.T) {
	is1 := domain.NewInternedString("size")
	is2 := domain.NewInternedString("size")

	assert.Equal(t, is1.Value(), is2.Value(), "identical strings share a handle")
	assert.Equal(t, "size", is1.String())

	var zero domain.InternedString
	assert.Empty(t, zero.String())
}

func TestInternedStringJSON(t *testing.T) {
	type param struct {
		Name domain.InternedString `json:"name"`
	}

	data, err := json.Marshal(param{Name: domain.NewInternedString("radius")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"radius"}`, string(data))

	var decoded param
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, domain.NewInternedString("radius"), decoded.Name)
}
